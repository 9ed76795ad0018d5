package cli

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/wikiqa-cli/internal/core/domain"
)

func TestChatCmd_Use(t *testing.T) {
	assert.Equal(t, "chat", chatCmd.Use)
	assert.Contains(t, chatCmd.Long, "/clear")
}

func TestChatCmd_NotReady(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "hello\n", "chat")

	assert.ErrorIs(t, err, domain.ErrNotReady)
}

func TestChatCmd_ConversationUntilQuit(t *testing.T) {
	env, cleanup := setupTestServices()
	defer cleanup()

	env.backend.ready("Mars")
	env.backend.answer = domain.Answer{Answer: "About 687 days.", Sources: []domain.SourceRef{}}

	out, err := execute(t, "How long is a year?\n\nquit\nnever sent\n", "chat")

	require.NoError(t, err)
	assert.Contains(t, out, "Chatting about Mars")
	assert.Contains(t, out, domain.GreetingFor("Mars"))
	assert.Contains(t, out, "About 687 days.")
	assert.Equal(t, []string{"How long is a year?"}, env.backend.asked)
	assert.NotContains(t, out, "You: How long", "user input is not echoed")
}

func TestChatCmd_EOFEndsSession(t *testing.T) {
	env, cleanup := setupTestServices()
	defer cleanup()

	env.backend.ready("Mars")
	env.backend.answer = domain.Answer{Answer: "Red dust."}

	out, err := execute(t, "Why red?", "chat")

	require.NoError(t, err)
	assert.Contains(t, out, "Red dust.")
}

func TestChatCmd_Clear(t *testing.T) {
	env, cleanup := setupTestServices()
	defer cleanup()

	env.backend.ready("Mars")
	env.backend.answer = domain.Answer{Answer: "Two moons."}

	out, err := execute(t, "moons?\n/clear\nexit\n", "chat")

	require.NoError(t, err)
	assert.Contains(t, out, "Conversation history cleared.")
	assert.Equal(t, 1, env.backend.cleared)
	assert.Empty(t, env.session.View().Transcript)
}

func TestChatCmd_ClearFailureKeepsTranscript(t *testing.T) {
	env, cleanup := setupTestServices()
	defer cleanup()

	env.backend.ready("Mars")
	env.backend.clearErr = errors.New("backend down")

	out, err := execute(t, "/clear\nq\n", "chat")

	require.NoError(t, err)
	assert.Contains(t, out, "clear failed")
	assert.Len(t, env.session.View().Transcript, 1)
}

func TestChatCmd_Status(t *testing.T) {
	env, cleanup := setupTestServices()
	defer cleanup()

	env.backend.ready("Mars")

	out, err := execute(t, "/status\nq\n", "chat")

	require.NoError(t, err)
	assert.Contains(t, out, "Topic:    Mars")
	assert.Empty(t, env.backend.asked)
}

func TestChatCmd_PrintsOnlyNewMessages(t *testing.T) {
	env, cleanup := setupTestServices()
	defer cleanup()

	env.backend.ready("Mars")
	env.backend.answer = domain.Answer{Answer: "Olympus Mons."}

	out, err := execute(t, "tallest?\nand again?\nq\n", "chat")

	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "Olympus Mons."))
	assert.Equal(t, 1, strings.Count(out, domain.GreetingFor("Mars")))
}
