/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"chatflow/internal/chatflow"
	"chatflow/internal/chatflow/openai"
	promptpkg "chatflow/internal/chatflow/prompt"
	"chatflow/internal/chatflow/store"
)

var (
	chatModel    string
	chatPrompt   string
	chatSession  string
	chatNew      bool
	chatNoStream bool
)

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Send a message and stream the reply",
	Long: `Send a message to the configured chat model and print the assistant's
reply as it streams in. The exchange is appended to a conversation session
and persisted locally.

If no message is provided as an argument, it reads from stdin.
By default the most recently updated session is continued; use
--new-session to start a fresh one or --session to pick one by id prefix.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if chatSession != "" && chatNew {
			return fmt.Errorf("cannot specify both --session and --new-session")
		}

		var message string
		if len(args) > 0 {
			message = strings.Join(args, " ")
		} else {
			input, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("reading from stdin: %w", err)
			}
			message = strings.TrimSpace(string(input))
		}

		st, cfg, cleanup, err := buildStore()
		if err != nil {
			return err
		}
		defer cleanup()

		if chatNew {
			if _, err := st.CreateSession(); err != nil {
				return fmt.Errorf("creating session: %w", err)
			}
		} else if chatSession != "" {
			id, err := resolveSessionID(st, chatSession)
			if err != nil {
				return err
			}
			if err := st.SwitchSession(id); err != nil {
				return err
			}
		}

		opts := store.SendOptions{NoStream: chatNoStream}
		if chatModel != "" || chatPrompt != "" {
			req := &openai.RequestOptions{Model: chatModel}
			if chatPrompt != "" {
				tmpl, err := promptpkg.Load(cfg.PromptDir, chatPrompt)
				if err != nil {
					return err
				}
				req.System = tmpl.FormatSystem(message)
				if req.Model == "" {
					req.Model = tmpl.Model
				}
				req.Temperature = tmpl.Temperature
			}
			opts.Request = req
		}

		// Render each progress tick as the delta beyond what is already on
		// screen; the callback delivers the full text so far.
		printed := 0
		st.SetOnAssistantProgress(func(_, _, text string) {
			if len(text) > printed {
				fmt.Print(text[printed:])
				printed = len(text)
			}
		})

		if err := st.SendMessageWith(context.Background(), message, opts); err != nil {
			if printed > 0 {
				fmt.Println()
			}
			return fmt.Errorf("chat request failed: %w", err)
		}

		if chatNoStream {
			// Nothing was streamed; print the finalized reply.
			if sess, ok := st.CurrentSession(); ok && len(sess.Messages) > 0 {
				last := sess.Messages[len(sess.Messages)-1]
				if last.Role == chatflow.RoleAssistant {
					fmt.Print(last.Content)
				}
			}
		}
		fmt.Println()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringVarP(&chatModel, "model", "m", "", "Model to use for this message")
	chatCmd.Flags().StringVarP(&chatPrompt, "prompt", "p", "", "Name of a prompt template (without .toml extension)")
	chatCmd.Flags().StringVarP(&chatSession, "session", "s", "", "Session ID prefix, or 'latest'")
	chatCmd.Flags().BoolVarP(&chatNew, "new-session", "n", false, "Start a new session")
	chatCmd.Flags().BoolVar(&chatNoStream, "no-stream", false, "Wait for the full reply instead of streaming")
}
