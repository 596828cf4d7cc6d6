/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// sessionsCmd represents the sessions command
var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage conversation sessions",
	Long: `Manage conversation sessions including listing, viewing, clearing, and
deleting sessions. Sessions hold the persisted message history.`,
}

// sessionsListCmd represents the sessions list command
var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all sessions",
	Long:  `List all conversation sessions sorted by most recently updated.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, _, cleanup, err := buildStore()
		if err != nil {
			return err
		}
		defer cleanup()

		sessions := st.Sessions()
		if len(sessions) == 0 {
			fmt.Println("No sessions found.")
			fmt.Println("\nStart one with:")
			fmt.Println("  chatflow chat \"your message\"")
			return nil
		}

		headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))
		idStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
		currentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)

		fmt.Println(headerStyle.Render(fmt.Sprintf("%-10s %-22s %-19s %s", "ID", "TITLE", "UPDATED", "MESSAGES")))
		current := st.CurrentSessionID()
		for _, sess := range sessions {
			line := fmt.Sprintf("%-10s %-22s %-19s %d",
				shortID(sess.ID),
				truncate(sess.Title, 22),
				sess.UpdatedAt.Format("2006-01-02 15:04:05"),
				sess.MessageCount())
			if sess.ID == current {
				fmt.Println(currentStyle.Render(line))
			} else {
				fmt.Println(idStyle.Render(line))
			}
		}
		return nil
	},
}

// sessionsShowCmd represents the sessions show command
var sessionsShowCmd = &cobra.Command{
	Use:   "show [session-id]",
	Short: "Show a session's messages",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, _, cleanup, err := buildStore()
		if err != nil {
			return err
		}
		defer cleanup()

		id, err := resolveSessionID(st, args[0])
		if err != nil {
			return err
		}
		if err := st.SwitchSession(id); err != nil {
			return err
		}
		sess, _ := st.CurrentSession()

		roleStyle := lipgloss.NewStyle().Bold(true)
		fmt.Printf("%s (%s)\n\n", sess.Title, shortID(sess.ID))
		for _, m := range sess.Messages {
			label := fmt.Sprintf("[%s %s]", m.Role, m.Status)
			fmt.Println(roleStyle.Render(label))
			fmt.Println(m.Content)
			for _, url := range m.ImageURLs {
				fmt.Println(url)
			}
			fmt.Println()
		}
		return nil
	},
}

// sessionsClearCmd represents the sessions clear command
var sessionsClearCmd = &cobra.Command{
	Use:   "clear [session-id]",
	Short: "Clear a session's messages, keeping the session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, _, cleanup, err := buildStore()
		if err != nil {
			return err
		}
		defer cleanup()

		id, err := resolveSessionID(st, args[0])
		if err != nil {
			return err
		}
		if err := st.SwitchSession(id); err != nil {
			return err
		}
		if err := st.ClearCurrentSession(); err != nil {
			return fmt.Errorf("clearing session: %w", err)
		}
		fmt.Printf("Cleared session %s\n", shortID(id))
		return nil
	},
}

// sessionsDeleteCmd represents the sessions delete command
var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete [session-id]",
	Short: "Delete a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, _, cleanup, err := buildStore()
		if err != nil {
			return err
		}
		defer cleanup()

		id, err := resolveSessionID(st, args[0])
		if err != nil {
			return err
		}
		if err := st.DeleteSession(id); err != nil {
			return fmt.Errorf("deleting session: %w", err)
		}
		fmt.Printf("Deleted session %s\n", shortID(id))
		return nil
	},
}

// sessionsRenameCmd represents the sessions rename command
var sessionsRenameCmd = &cobra.Command{
	Use:   "rename [session-id] [title]",
	Short: "Rename a session",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, _, cleanup, err := buildStore()
		if err != nil {
			return err
		}
		defer cleanup()

		id, err := resolveSessionID(st, args[0])
		if err != nil {
			return err
		}
		title := strings.Join(args[1:], " ")
		if err := st.UpdateSessionTitle(id, title); err != nil {
			return fmt.Errorf("renaming session: %w", err)
		}
		fmt.Printf("Renamed session %s to %q\n", shortID(id), title)
		return nil
	},
}

func shortID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsClearCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
	sessionsCmd.AddCommand(sessionsRenameCmd)
}
