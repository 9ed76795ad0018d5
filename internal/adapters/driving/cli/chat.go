package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/wikiqa-cli/internal/core/domain"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive conversation",
	Long: `Reads questions line by line and prints each answer with its sources.

Commands inside the conversation:
  /clear   - Delete the conversation history
  /status  - Show the knowledge base status
  quit     - Leave (also exit, q, or Ctrl+D)`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	if err := requireSession(); err != nil {
		return err
	}

	ctx := cmd.Context()
	view := sessionService.Start(ctx)
	if !view.KBReady {
		return fmt.Errorf("%w: run 'wikiqa build <topic>' first", domain.ErrNotReady)
	}

	cmd.Println(color.New(color.Bold).Sprintf("Chatting about %s", view.Topic))
	for _, m := range view.Transcript {
		printMessage(cmd, m, false)
	}
	seen := len(view.Transcript)

	in := cmd.InOrStdin()
	interactive := isTerminal(in)
	reader := bufio.NewReader(in)

	for {
		if interactive {
			cmd.Print("> ")
		}
		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return fmt.Errorf("reading input: %w", err)
		}
		input := strings.TrimSpace(line)

		switch strings.ToLower(input) {
		case "":
			if err == io.EOF {
				return nil
			}
			continue
		case "quit", "exit", "q":
			return nil
		case "/clear":
			if clearErr := sessionService.Clear(ctx); clearErr != nil {
				cmd.Println(color.New(color.FgRed).Sprintf("clear failed: %v", clearErr))
			} else {
				cmd.Println("Conversation history cleared.")
			}
			seen = len(sessionService.View().Transcript)
		case "/status":
			printStatus(cmd, sessionService.Refresh(ctx))
			seen = len(sessionService.View().Transcript)
		default:
			if !sessionService.Ask(ctx, input) {
				cmd.Println("The knowledge base is not ready. Build one first.")
				continue
			}
			after := sessionService.View()
			transcript := after.Transcript
			if seen > len(transcript) {
				seen = 0
			}
			for _, m := range transcript[seen:] {
				if m.Role == domain.RoleUser {
					continue
				}
				printMessage(cmd, m, after.AskErr != nil)
			}
			seen = len(transcript)
		}

		if err == io.EOF {
			return nil
		}
	}
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
