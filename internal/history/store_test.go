package history

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ferrymanlabs/ferryman/internal/chat"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestConversationRoundTrip(t *testing.T) {
	store := newStore(t)

	conv, err := store.CreateConversation("inproc", "echo", "greetings")
	require.NoError(t, err)
	require.NotEmpty(t, conv.ID)

	require.NoError(t, store.AppendMessage(conv.ID, chat.TextMessage(chat.RoleUser, "hello")))
	require.NoError(t, store.AppendMessage(conv.ID, chat.TextMessage(chat.RoleAssistant, "You said: hello")))

	messages, err := store.Messages(conv.ID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	require.Equal(t, chat.RoleUser, messages[0].Role)
	require.Equal(t, "hello", messages[0].Text())
	require.Equal(t, chat.RoleAssistant, messages[1].Role)
	require.Equal(t, "You said: hello", messages[1].Text())

	loaded, err := store.Conversation(conv.ID)
	require.NoError(t, err)
	require.Equal(t, "inproc", loaded.RuntimeID)
	require.Equal(t, "echo", loaded.ProviderID)
	require.Equal(t, "greetings", loaded.Title)
}

func TestMessageOrderSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir)
	require.NoError(t, err)

	conv, err := store.CreateConversation("inproc", "echo", "")
	require.NoError(t, err)
	for _, text := range []string{"one", "two", "three"} {
		require.NoError(t, store.AppendMessage(conv.ID, chat.TextMessage(chat.RoleUser, text)))
	}
	require.NoError(t, store.Close())

	store, err = NewStore(dir)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	messages, err := store.Messages(conv.ID)
	require.NoError(t, err)
	require.Len(t, messages, 3)
	require.Equal(t, "one", messages[0].Text())
	require.Equal(t, "three", messages[2].Text())
}

func TestNonTextBlocksPersist(t *testing.T) {
	store := newStore(t)

	conv, err := store.CreateConversation("inproc", "echo", "")
	require.NoError(t, err)

	msg := chat.Message{
		Role: chat.RoleUser,
		Content: []chat.ContentBlock{
			{Type: chat.BlockText, Text: "listen to this"},
			{Type: chat.BlockAudio, Path: "/tmp/clip.ogg", MIMEType: "audio/ogg", Transcript: "hi"},
		},
	}
	require.NoError(t, store.AppendMessage(conv.ID, msg))

	messages, err := store.Messages(conv.ID)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	require.Len(t, messages[0].Content, 2)
	require.Equal(t, chat.BlockAudio, messages[0].Content[1].Type)
	require.Equal(t, "hi", messages[0].Content[1].Transcript)
}

func TestUnknownConversation(t *testing.T) {
	store := newStore(t)

	_, err := store.Messages("conv_missing")
	require.True(t, errors.Is(err, ErrConversationNotFound), "got %v", err)

	err = store.AppendMessage("conv_missing", chat.TextMessage(chat.RoleUser, "hi"))
	require.True(t, errors.Is(err, ErrConversationNotFound), "got %v", err)

	err = store.DeleteConversation("conv_missing")
	require.True(t, errors.Is(err, ErrConversationNotFound), "got %v", err)
}

func TestListAndDelete(t *testing.T) {
	store := newStore(t)

	first, err := store.CreateConversation("inproc", "echo", "first")
	require.NoError(t, err)
	second, err := store.CreateConversation("inproc", "echo", "second")
	require.NoError(t, err)

	// Touch the first so it sorts to the top.
	require.NoError(t, store.AppendMessage(first.ID, chat.TextMessage(chat.RoleUser, "bump")))

	conversations, err := store.ListConversations()
	require.NoError(t, err)
	require.Len(t, conversations, 2)
	require.Equal(t, first.ID, conversations[0].ID)

	require.NoError(t, store.DeleteConversation(second.ID))
	conversations, err = store.ListConversations()
	require.NoError(t, err)
	require.Len(t, conversations, 1)
}
