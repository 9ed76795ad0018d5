// Package services implements the driving port interfaces.
// Services contain the session orchestration logic and call out
// to the backend through driven ports.
//
// The session is composed of three controllers and a shell:
//
//   - StatusSynchronizer: last-known-good backend status snapshot
//   - BuildController: idle -> building -> idle knowledge base workflow
//   - ConversationController: question/answer loop and transcript
//   - Session: derives readiness and topic and wires the controllers
//
// Workflows are split at their backend call into Begin and Complete
// phases. Event-loop adapters run the call asynchronously and feed the
// result back; blocking adapters use the combined helpers.
package services
