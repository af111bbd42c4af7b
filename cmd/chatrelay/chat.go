package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"ChatRelay/internal/chat"
	"ChatRelay/internal/telemetry"
	"ChatRelay/internal/transcript"
)

var (
	relayURL    string
	chatTimeout time.Duration
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with a running relay from the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat()
	},
}

func init() {
	chatCmd.Flags().StringVar(&relayURL, "relay-url", "http://localhost:8080", "Base URL of a running relay")
	chatCmd.Flags().DurationVar(&chatTimeout, "timeout", 60*time.Second, "Per-request timeout")
}

func runChat() error {
	logger, err := telemetry.InitLogger(false)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	client := chat.NewClient(relayURL, chatTimeout, logger)

	fmt.Println("=== ChatRelay ===")
	fmt.Printf("Relay: %s\n", relayURL)
	fmt.Println("Type /help for commands, /quit to exit")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	ctx := context.Background()

	for {
		fmt.Print("You: ")
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			if handleChatCommand(client, input) {
				break
			}
			continue
		}

		reply, err := client.Send(ctx, input)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}

		fmt.Printf("Bot: %s\n", reply.Content)
		for _, ref := range reply.References {
			fmt.Printf("  [%s] %s\n", ref.Title, ref.URL)
		}
		fmt.Println()
	}

	fmt.Println("Goodbye!")
	return nil
}

// handleChatCommand handles slash commands; returns true to quit
func handleChatCommand(client *chat.Client, cmd string) bool {
	switch cmd {
	case "/quit", "/exit":
		return true

	case "/history":
		msgs := client.Messages()
		if len(msgs) == 0 {
			fmt.Println("No messages yet.")
			return false
		}
		for _, msg := range msgs {
			label := "You"
			if msg.Role == transcript.RoleAssistant {
				label = "Bot"
			}
			fmt.Printf("[%s] %s: %s\n", msg.Timestamp.Format("15:04:05"), label, msg.Content)
		}
		return false

	case "/help":
		fmt.Println("Available commands:")
		fmt.Println("  /quit, /exit  - Exit the chat")
		fmt.Println("  /history      - Show the session transcript")
		fmt.Println("  /help         - Show this help message")
		return false

	default:
		fmt.Printf("Unknown command: %s\n", cmd)
		return false
	}
}
