package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/wikiqa-cli/internal/core/domain"
)

var buildMaxArticles int

var buildCmd = &cobra.Command{
	Use:   "build [topic]",
	Short: "Build a knowledge base for a topic",
	Long: `Fetches Wikipedia articles about the topic and indexes them on the
backend. Any previous knowledge base is replaced.

Examples:
  wikiqa build "Quantum computing"
  wikiqa build "Roman Empire" -n 8`,
	Args: cobra.ExactArgs(1),
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().IntVarP(&buildMaxArticles, "max-articles", "n", 0,
		"articles to index, 1-10 (default from build.max_articles)")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	if err := requireSession(); err != nil {
		return err
	}

	ctx := cmd.Context()
	sessionService.Start(ctx)

	cmd.Printf("Building knowledge base for %q...\n", args[0])
	outcome, accepted := sessionService.Build(ctx, args[0], buildMaxArticles)
	if !accepted {
		return fmt.Errorf("build rejected: %w", domain.ErrEmptyInput)
	}
	if !outcome.Succeeded() {
		return fmt.Errorf("build failed: %w", outcome.Err)
	}

	printBuild(cmd, outcome.Event)
	return nil
}

func printBuild(cmd *cobra.Command, evt *domain.BuildCompleted) {
	green := color.New(color.FgGreen).SprintFunc()

	cmd.Println(green(evt.Message))
	cmd.Printf("%d articles, %d chunks indexed\n", evt.ArticleCount(), evt.DocumentCount)
	if len(evt.Articles) == 0 {
		return
	}
	cmd.Println()
	for _, a := range evt.Articles {
		cmd.Printf("  - %s\n", a.Title)
		cmd.Printf("    %s\n", a.URL)
	}
}
