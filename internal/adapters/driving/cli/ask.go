package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/wikiqa-cli/internal/core/domain"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about the current topic",
	Long: `Sends a single question to the backend and prints the answer with
its sources. A knowledge base must have been built first.

Example:
  wikiqa ask "Who proposed the first quantum algorithm?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if err := requireSession(); err != nil {
		return err
	}

	ctx := cmd.Context()
	view := sessionService.Start(ctx)
	if !view.KBReady {
		return fmt.Errorf("%w: run 'wikiqa build <topic>' first", domain.ErrNotReady)
	}

	question := strings.Join(args, " ")
	if !sessionService.Ask(ctx, question) {
		return fmt.Errorf("question rejected: %w", domain.ErrEmptyInput)
	}

	view = sessionService.View()
	reply, ok := lastAssistant(view.Transcript)
	if !ok {
		return errors.New("no answer received")
	}
	printMessage(cmd, reply, view.AskErr != nil)
	return view.AskErr
}

func lastAssistant(transcript []domain.Message) (domain.Message, bool) {
	for i := len(transcript) - 1; i >= 0; i-- {
		if transcript[i].Role == domain.RoleAssistant {
			return transcript[i], true
		}
	}
	return domain.Message{}, false
}

// printMessage renders one transcript entry with its sources. A failed
// reply is shown in red.
func printMessage(cmd *cobra.Command, m domain.Message, failed bool) {
	label := color.New(color.FgCyan, color.Bold).SprintFunc()
	faint := color.New(color.Faint).SprintFunc()

	switch {
	case m.Role == domain.RoleUser:
		cmd.Printf("%s %s\n", label("You:"), m.Content)
		return
	case failed:
		cmd.Println(color.New(color.FgRed).Sprint(m.Content))
		return
	}

	cmd.Printf("%s %s\n", label("Assistant:"), m.Content)
	if len(m.Sources) == 0 {
		return
	}
	cmd.Println(faint("Sources:"))
	for _, s := range m.Sources {
		cmd.Printf("  - %s (%s)\n", s.Title, s.RelevanceLabel())
		if s.URL != "" {
			cmd.Printf("    %s\n", faint(s.URL))
		}
	}
}
