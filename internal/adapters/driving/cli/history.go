package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var historyClear bool

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the conversation history",
	Long: `Prints the conversation history stored on the backend.
Use --clear to delete it instead.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().BoolVar(&historyClear, "clear", false, "delete the conversation history")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	if err := requireSession(); err != nil {
		return err
	}

	ctx := cmd.Context()
	if historyClear {
		if err := sessionService.Clear(ctx); err != nil {
			return fmt.Errorf("clear failed: %w", err)
		}
		cmd.Println("Conversation history cleared.")
		return nil
	}

	msgs, err := sessionService.History(ctx)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}
	if len(msgs) == 0 {
		cmd.Println("No conversation history.")
		return nil
	}

	for _, m := range msgs {
		if !m.Timestamp.IsZero() {
			cmd.Printf("[%s] ", m.Timestamp.Local().Format("2006-01-02 15:04"))
		}
		printMessage(cmd, m, false)
	}
	return nil
}
