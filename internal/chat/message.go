// Package chat holds the value types passed across the runtime adapter
// boundary: conversation messages, content blocks, provider descriptors
// and tool descriptors.
//
// These types are pure data. They are serialized as-is onto the
// subprocess wire protocol, so JSON tags here are part of the protocol.
package chat

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// BlockType discriminates the ContentBlock union.
type BlockType string

const (
	BlockText  BlockType = "text"
	BlockFile  BlockType = "file"
	BlockAudio BlockType = "audio"
	BlockImage BlockType = "image"
)

// ContentBlock is one typed unit of message content. Exactly one variant
// is active, selected by Type; consumers must switch on the tag and never
// read a field outside its variant.
type ContentBlock struct {
	Type BlockType `json:"type"`

	// text
	Text string `json:"text,omitempty"`

	// file
	Path     string `json:"path,omitempty"`
	MIMEType string `json:"mime_type,omitempty"`

	// audio (shares Path)
	Transcript string `json:"transcript,omitempty"`

	// image (shares Path)
	Alt string `json:"alt,omitempty"`
}

// Message is one conversation turn. The conversation history is owned by
// the caller; adapters are stateless across calls.
type Message struct {
	Role    Role           `json:"role"`
	Content []ContentBlock `json:"content"`
}

// TextBlock returns a text content block.
func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: BlockText, Text: text}
}

// TextMessage builds a single-block text message.
func TextMessage(role Role, text string) Message {
	return Message{Role: role, Content: []ContentBlock{TextBlock(text)}}
}

// Text concatenates the text of all text blocks in the message.
// Non-text blocks are skipped.
func (m Message) Text() string {
	var out string
	for _, b := range m.Content {
		if b.Type == BlockText {
			out += b.Text
		}
	}
	return out
}
