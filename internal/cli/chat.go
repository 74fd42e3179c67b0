package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ferrymanlabs/ferryman/internal/chat"
	"github.com/ferrymanlabs/ferryman/internal/config"
	"github.com/ferrymanlabs/ferryman/internal/history"
	"github.com/ferrymanlabs/ferryman/internal/logger"
	"github.com/ferrymanlabs/ferryman/internal/runtime"
)

func newChatCmd() *cobra.Command {
	var (
		runtimeID      string
		providerID     string
		conversationID string
		stream         bool
		sets           []string
	)

	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Send one chat turn to a runtime provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configDir)
			if err != nil {
				return err
			}
			if err := logger.Init(cfg.Paths.LogDir, cfg.Server.JSONLogs); err != nil {
				return err
			}
			defer func() { _ = logger.Close() }()

			registry, err := buildRegistry(cfg)
			if err != nil {
				return err
			}
			adapter, err := registry.Get(runtimeID)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if err := adapter.Start(ctx); err != nil {
				return err
			}
			defer func() { _ = adapter.Stop() }()

			if providerID == "" {
				providers := adapter.Providers()
				if len(providers) == 0 {
					return fmt.Errorf("runtime %s exposes no providers", runtimeID)
				}
				providerID = providers[0].ID
			}

			for _, s := range sets {
				optionID, value, err := parseOption(s)
				if err != nil {
					return err
				}
				if err := adapter.SetProviderOption(ctx, providerID, optionID, value); err != nil {
					return err
				}
			}

			store, err := history.NewStore(cfg.Paths.DataDir)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			var messages []chat.Message
			if conversationID != "" {
				messages, err = store.Messages(conversationID)
				if err != nil {
					return err
				}
			}
			userMsg := chat.TextMessage(chat.RoleUser, args[0])
			messages = append(messages, userMsg)

			var reply chat.Message
			if stream {
				reply, err = runtime.ChatStream(ctx, adapter, providerID, messages, func(chunk string) {
					fmt.Fprint(cmd.OutOrStdout(), chunk)
				})
				fmt.Fprintln(cmd.OutOrStdout())
			} else {
				reply, err = adapter.Chat(ctx, providerID, messages)
				if err == nil {
					fmt.Fprintln(cmd.OutOrStdout(), reply.Text())
				}
			}
			if err != nil {
				return err
			}

			// Persist only after the turn succeeded, so a failed chat
			// does not leave an empty conversation behind.
			if conversationID == "" {
				conv, err := store.CreateConversation(runtimeID, providerID, firstLine(args[0]))
				if err != nil {
					return err
				}
				conversationID = conv.ID
			}
			if err := store.AppendMessage(conversationID, userMsg); err != nil {
				return err
			}
			if err := store.AppendMessage(conversationID, reply); err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "conversation:", conversationID)
			return nil
		},
	}

	cmd.Flags().StringVar(&runtimeID, "runtime", "inproc", "Runtime to chat with")
	cmd.Flags().StringVar(&providerID, "provider", "", "Provider ID (defaults to the runtime's first provider)")
	cmd.Flags().StringVar(&conversationID, "conversation", "", "Resume an existing conversation")
	cmd.Flags().BoolVar(&stream, "stream", false, "Stream the reply chunk by chunk when supported")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "Set a provider option, option=value (repeatable)")
	return cmd
}

// parseOption splits "option=value", mapping true/false to booleans so
// both option kinds can be set from the flag.
func parseOption(s string) (string, any, error) {
	optionID, raw, ok := strings.Cut(s, "=")
	if !ok || optionID == "" {
		return "", nil, fmt.Errorf("invalid --set %q, want option=value", s)
	}
	switch raw {
	case "true":
		return optionID, true, nil
	case "false":
		return optionID, false, nil
	default:
		return optionID, raw, nil
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 64 {
		s = s[:64]
	}
	return s
}
