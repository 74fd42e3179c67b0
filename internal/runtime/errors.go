package runtime

import "errors"

// Sentinel errors returned by adapters. Wrap with %w so callers can use
// errors.Is to tell a capability gap (try the fallback path) from a
// genuine failure.
var (
	// ErrUnknownRuntime is returned by the registry for an unregistered ID.
	ErrUnknownRuntime = errors.New("unknown runtime")

	// ErrUnknownProvider is returned when a provider ID is not served by
	// the runtime.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrUnknownOption is returned when an option ID does not exist on
	// the provider.
	ErrUnknownOption = errors.New("unknown provider option")

	// ErrOptionType is returned when an option value does not match the
	// option's declared type (bool for boolean, choice ID for enum).
	ErrOptionType = errors.New("option value type mismatch")

	// ErrNoTools is returned by RunTool on runtimes without tool support.
	ErrNoTools = errors.New("runtime does not support tools")

	// ErrUnknownTool is returned for a tool ID the runtime does not have.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrNoStreaming is returned by streaming entry points on adapters
	// that do not implement Streamer.
	ErrNoStreaming = errors.New("runtime does not support streaming")

	// ErrNotStarted is returned by operations that need a running
	// runtime before Start succeeded.
	ErrNotStarted = errors.New("runtime not started")
)
