package idgen_test

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flitsinc/agentboard/internal/idgen"
)

func TestNewBoardID(t *testing.T) {
	a := idgen.NewBoardID()
	b := idgen.NewBoardID()
	assert.NotEqual(t, a, b)

	parsed, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
}

func TestValidateHandle(t *testing.T) {
	valid := []string{
		"a",
		"mirza",
		"kodinger",
		"agent-7",
		"a1",
		"a-b-c",
	}
	for _, id := range valid {
		assert.NoError(t, idgen.ValidateHandle(id), id)
	}

	invalid := []string{
		"",
		"-start-dash",
		"end-dash-",
		"1starts-with-digit",
		"UPPERCASE",
		"has spaces",
		"has_underscore",
		"has.dot",
		strings.Repeat("a", 65),
	}
	for _, id := range invalid {
		assert.Error(t, idgen.ValidateHandle(id), id)
	}
}
