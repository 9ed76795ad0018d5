package cli

import (
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/wikiqa-cli/internal/core/domain"
	"github.com/custodia-labs/wikiqa-cli/internal/core/ports/driving"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the knowledge base status",
	Long:  `Fetches the backend's knowledge base status: topic, indexed articles and conversation length.`,
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output status as JSON")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if err := requireSession(); err != nil {
		return err
	}

	view := sessionService.Start(cmd.Context())
	if !view.Synced {
		return domain.ErrBackendUnavailable
	}

	if statusJSON {
		data, err := json.MarshalIndent(view.Status, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal status: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	printStatus(cmd, view)
	return nil
}

func printStatus(cmd *cobra.Command, view driving.SessionView) {
	if !view.KBReady {
		cmd.Println(color.New(color.FgYellow).Sprint("○ Not Built"))
		cmd.Println("Run 'wikiqa build <topic>' to create a knowledge base.")
		return
	}

	cmd.Println(color.New(color.FgGreen).Sprint("● Ready"))
	cmd.Printf("Topic:    %s\n", view.Topic)
	cmd.Printf("Articles: %d\n", view.Status.ArticleCount)
	cmd.Printf("Chunks:   %d\n", view.Status.DocumentCount)
	cmd.Printf("Messages: %d\n", view.Status.ConversationLength)
	if view.Stale {
		cmd.Println(color.New(color.FgYellow).Sprint("Status may be out of date."))
	}
	for _, a := range view.Status.Articles {
		cmd.Printf("  - %s\n", a.Title)
	}
}
