package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nfrund/chathub/internal/chat"
	"github.com/nfrund/chathub/internal/tui"
)

var (
	chatURL  string
	chatName string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Join a chat hub from the terminal",
	Long: `Connect to a running hub and chat from the terminal.
Press Enter to send, Esc or Ctrl+C to leave.

Examples:
  chathub chat --name alice
  chathub chat --url ws://chat.example.com/ws --name bob`,
	RunE: func(cmd *cobra.Command, args []string) error {
		name := chat.Normalize(chatName)
		if name == "" {
			name = os.Getenv("USER")
		}
		if name == "" || len([]rune(name)) > chat.MaxUsernameLength {
			return fmt.Errorf("--name must be 1 to %d characters", chat.MaxUsernameLength)
		}
		return tui.Run(cmd.Context(), chatURL, name, 0)
	},
}

func init() {
	chatCmd.Flags().StringVar(&chatURL, "url", "ws://localhost:3000/ws", "WebSocket URL of the hub")
	chatCmd.Flags().StringVar(&chatName, "name", "", "display name (defaults to $USER)")
	rootCmd.AddCommand(chatCmd)
}
