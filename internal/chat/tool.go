package chat

// Tool advertises a runtime-specific callable utility, independent of
// chat. Runtimes without tools report none.
type Tool struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}
