package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/wikiqa-cli/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for wikiqa resources.
	uriScheme = "wikiqa://"
)

// statusResource is the JSON body of wikiqa://status.
type statusResource struct {
	KBReady            bool                `json:"kb_ready"`
	Topic              string              `json:"topic,omitempty"`
	ArticleCount       int                 `json:"article_count"`
	DocumentCount      int                 `json:"document_count"`
	ConversationLength int                 `json:"conversation_length"`
	Articles           []domain.ArticleRef `json:"articles"`
	Synced             bool                `json:"synced"`
	Stale              bool                `json:"stale"`
	Building           bool                `json:"building"`
}

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "status",
		Name:        "status",
		Description: "Knowledge base readiness, topic and indexed articles",
		MIMEType:    "application/json",
	}, s.handleStatusResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "transcript",
		Name:        "transcript",
		Description: "The current conversation transcript",
		MIMEType:    "application/json",
	}, s.handleTranscriptResource)
}

// handleStatusResource returns the derived session status.
func (s *Server) handleStatusResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	view := s.ports.Session.View()

	body := statusResource{
		KBReady:            view.KBReady,
		Topic:              view.Topic,
		ArticleCount:       view.Status.ArticleCount,
		DocumentCount:      view.Status.DocumentCount,
		ConversationLength: view.Status.ConversationLength,
		Articles:           view.Status.Articles,
		Synced:             view.Synced,
		Stale:              view.Stale,
		Building:           view.Building,
	}
	if body.Articles == nil {
		body.Articles = []domain.ArticleRef{}
	}

	return jsonResource(req.Params.URI, body)
}

// handleTranscriptResource returns the conversation transcript.
func (s *Server) handleTranscriptResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	transcript := s.ports.Session.View().Transcript
	if transcript == nil {
		transcript = []domain.Message{}
	}
	return jsonResource(req.Params.URI, transcript)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
