package mcp

import (
	"context"

	"github.com/custodia-labs/wikiqa-cli/internal/core/ports/driving"
)

// Refresher keeps session status fresh while the server runs.
type Refresher interface {
	Start(ctx context.Context) error
	Stop()
}

// Ports aggregates the driving ports required by the MCP server.
type Ports struct {
	// Session drives builds, questions and status.
	Session driving.SessionService

	// Refresher is optional. When set it runs for the server's lifetime.
	Refresher Refresher
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Session == nil {
		return ErrMissingSessionService
	}
	return nil
}
