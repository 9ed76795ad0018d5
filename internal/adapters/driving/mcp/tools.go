package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/wikiqa-cli/internal/core/domain"
	"github.com/custodia-labs/wikiqa-cli/internal/core/ports/driving"
)

// BuildInput is the input schema for the build_knowledge_base tool.
type BuildInput struct {
	Topic       string `json:"topic" jsonschema:"the Wikipedia topic to build a knowledge base for"`
	MaxArticles int    `json:"max_articles,omitempty" jsonschema:"number of articles to index (default 5, max 10)"`
}

// BuildOutput is the output schema for the build_knowledge_base tool.
type BuildOutput struct {
	Topic         string          `json:"topic"`
	Message       string          `json:"message"`
	Articles      []ArticleOutput `json:"articles"`
	DocumentCount int             `json:"document_count"`
}

// ArticleOutput is an indexed article.
type ArticleOutput struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Summary string `json:"summary,omitempty"`
}

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the question to answer from the knowledge base"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer  string         `json:"answer"`
	Sources []SourceOutput `json:"sources"`

	// Discarded is true when the topic changed while the question was
	// in flight, so the answer was not recorded in the conversation.
	Discarded bool `json:"discarded,omitempty"`
}

// SourceOutput is a source cited by an answer.
type SourceOutput struct {
	Title     string  `json:"title"`
	URL       string  `json:"url"`
	Relevance float64 `json:"relevance"`
	Label     string  `json:"label"`
}

// SearchInput is the input schema for the search_articles tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the search query to find Wikipedia articles"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of titles to return (default 10)"`
}

// SearchOutput is the output schema for the search_articles tool.
type SearchOutput struct {
	Titles []string `json:"titles"`
	Count  int      `json:"count"`
}

// ClearInput is the input schema for the clear_history tool.
type ClearInput struct{}

// ClearOutput is the output schema for the clear_history tool.
type ClearOutput struct {
	Cleared bool `json:"cleared"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "build_knowledge_base",
		Description: "Fetch Wikipedia articles for a topic and index them for question answering",
	}, s.handleBuild)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Ask a question about the current knowledge base topic",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_articles",
		Description: "Search Wikipedia article titles",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "clear_history",
		Description: "Clear the conversation history",
	}, s.handleClear)
}

// handleBuild handles the build_knowledge_base tool invocation.
func (s *Server) handleBuild(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input BuildInput,
) (*mcp.CallToolResult, BuildOutput, error) {
	session := s.ports.Session

	p, ok := session.BeginBuild(input.Topic, input.MaxArticles)
	if !ok {
		if strings.TrimSpace(input.Topic) == "" {
			return nil, BuildOutput{}, fmt.Errorf("topic: %w", domain.ErrEmptyInput)
		}
		return nil, BuildOutput{}, fmt.Errorf("build: %w", domain.ErrBusy)
	}

	result, err := session.RunBuild(ctx, p)
	outcome := session.CompleteBuild(p, result, err)
	if !outcome.Succeeded() {
		return nil, BuildOutput{}, outcome.Err
	}

	evt := outcome.Event
	output := BuildOutput{
		Topic:         evt.Topic,
		Message:       evt.Message,
		Articles:      make([]ArticleOutput, len(evt.Articles)),
		DocumentCount: evt.DocumentCount,
	}
	for i, a := range evt.Articles {
		output.Articles[i] = ArticleOutput{Title: a.Title, URL: a.URL}
		if a.HasSummary() {
			output.Articles[i].Summary = *a.Summary
		}
	}

	return nil, output, nil
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	session := s.ports.Session

	p, ok := session.BeginAsk(input.Question)
	if !ok {
		return nil, AskOutput{}, askRejection(session.View(), input.Question)
	}

	answer, err := session.RunAsk(ctx, p)
	recorded := session.ResolveAsk(p, answer, err)
	if err != nil {
		return nil, AskOutput{}, err
	}

	output := AskOutput{
		Answer:    answer.Answer,
		Sources:   make([]SourceOutput, len(answer.Sources)),
		Discarded: !recorded,
	}
	for i, src := range answer.Sources {
		output.Sources[i] = SourceOutput{
			Title:     src.Title,
			URL:       src.URL,
			Relevance: src.RelevanceScore,
			Label:     src.RelevanceLabel(),
		}
	}

	return nil, output, nil
}

// handleSearch handles the search_articles tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	hits, err := s.ports.Session.Search(ctx, input.Query, input.Limit)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Titles: make([]string, len(hits)),
		Count:  len(hits),
	}
	for i, h := range hits {
		output.Titles[i] = h.Title
	}

	return nil, output, nil
}

// handleClear handles the clear_history tool invocation.
func (s *Server) handleClear(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ClearInput,
) (*mcp.CallToolResult, ClearOutput, error) {
	if err := s.ports.Session.Clear(ctx); err != nil {
		return nil, ClearOutput{}, err
	}
	return nil, ClearOutput{Cleared: true}, nil
}

// askRejection explains why a question was not accepted.
func askRejection(view driving.SessionView, question string) error {
	switch {
	case strings.TrimSpace(question) == "":
		return fmt.Errorf("question: %w", domain.ErrEmptyInput)
	case !view.KBReady:
		return fmt.Errorf("ask: %w: build a knowledge base first", domain.ErrNotReady)
	default:
		return fmt.Errorf("ask: %w", domain.ErrBusy)
	}
}
