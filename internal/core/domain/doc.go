// Package domain defines the core entities of the wikiqa session client.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - StatusSnapshot: Backend view of the knowledge base and its counters
//   - ArticleRef: An indexed article as reported by the backend
//   - BuildResult / BuildCompleted: Knowledge base construction outcome and event
//   - Message / SourceRef: Conversation turns and their citations
//   - ClientSettings: Connection and default parameters for the backend
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
