package cli

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/wikiqa-cli/internal/core/domain"
)

func TestSearchCmd_Use(t *testing.T) {
	assert.Equal(t, "search [query]", searchCmd.Use)
}

func TestSearchCmd_Short(t *testing.T) {
	assert.Equal(t, "Search Wikipedia article titles", searchCmd.Short)
}

func TestSearchCmd_RequiresExactlyOneArg(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "", "search")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestSearchCmd_HasLimitFlag(t *testing.T) {
	flag := searchCmd.Flags().Lookup("limit")
	require.NotNil(t, flag, "limit flag should exist")
	assert.Equal(t, "n", flag.Shorthand)
	assert.Equal(t, "0", flag.DefValue)
}

func TestSearchCmd_ExecutesWithQuery(t *testing.T) {
	env, cleanup := setupTestServices()
	defer cleanup()

	env.backend.hits = []domain.SearchHit{{Title: "Python (programming language)"}, {Title: "Pythonidae"}}

	out, err := execute(t, "", "search", "python")

	assert.NoError(t, err)
	assert.Contains(t, out, "Results:")
	assert.Contains(t, out, "[1] Python (programming language)")
	assert.Contains(t, out, "[2] Pythonidae")
	assert.Equal(t, []int{domain.DefaultSearchLimit}, env.backend.searchLimits)
}

func TestSearchCmd_ExecutesWithLimitFlag(t *testing.T) {
	env, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "", "search", "--limit", "25", "test query")

	assert.NoError(t, err)
	assert.Equal(t, []int{25}, env.backend.searchLimits)
}

func TestSearchCmd_NoResults(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "", "search", "qwertyuiop")

	assert.NoError(t, err)
	assert.Contains(t, out, "No results found.")
}

func TestSearchCmd_JSON(t *testing.T) {
	env, cleanup := setupTestServices()
	defer cleanup()

	env.backend.hits = []domain.SearchHit{{Title: "Go (game)"}}

	out, err := execute(t, "", "search", "--json", "go")
	require.NoError(t, err)

	var hits []domain.SearchHit
	require.NoError(t, json.Unmarshal([]byte(out), &hits))
	assert.Equal(t, []domain.SearchHit{{Title: "Go (game)"}}, hits)
}

func TestSearchCmd_JSONEmptyIsArray(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "", "search", "--json", "nothing")

	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)
}

func TestSearchCmd_Failure(t *testing.T) {
	env, cleanup := setupTestServices()
	defer cleanup()

	env.backend.searchErr = &domain.TransportError{Op: "search", StatusCode: 503, Message: "Service unavailable"}

	_, err := execute(t, "", "search", "go")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "search failed")
	var te *domain.TransportError
	assert.True(t, errors.As(err, &te))
}
