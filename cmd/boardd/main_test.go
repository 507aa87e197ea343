package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flitsinc/agentboard/internal/board"
	"github.com/flitsinc/agentboard/internal/config"
	"github.com/flitsinc/agentboard/internal/embedding"
	"github.com/flitsinc/agentboard/internal/state"
)

// isolate points every setting at a temp dir and clears provider keys.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("AGENTBOARD_DATA_DIR", dir)
	for _, key := range []string{
		"GEMINI_API_KEY", "AGENTBOARD_GEMINI_API_KEY",
		"OPENAI_API_KEY", "AGENTBOARD_OPENAI_API_KEY",
		"OPENAI_BASE_URL", "AGENTBOARD_OPENAI_BASE_URL",
		"DATABASE_URL", "AGENTBOARD_DATABASE_URL",
		"REDIS_ADDR", "AGENTBOARD_REDIS_ADDR",
		"AGENTBOARD_DB_PATH",
	} {
		t.Setenv(key, "")
	}
	envFile = filepath.Join(dir, "missing.env")
	configFile = ""
	reindexMissingOnly = false
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommand_Subcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "mcp", "reindex"} {
		assert.True(t, names[want], want)
	}
}

func TestBuildProviders_Order(t *testing.T) {
	cfg := config.Config{
		GeminiAPIKey:        "g",
		GeminiModel:         embedding.GeminiPrimaryModel,
		GeminiFallbackModel: embedding.GeminiFallbackModel,
		OpenAIAPIKey:        "o",
		OpenAIModel:         embedding.OpenAIDefaultModel,
		EmbeddingDimensions: 768,
	}
	providers, err := buildProviders(cfg)
	require.NoError(t, err)
	require.Len(t, providers, 3)
	assert.Equal(t, embedding.GeminiPrimaryModel, providers[0].Model())
	assert.Equal(t, embedding.GeminiFallbackModel, providers[1].Model())
	assert.Equal(t, embedding.OpenAIFamily, providers[2].Family())

	cfg.GeminiFallbackModel = cfg.GeminiModel
	cfg.OpenAIAPIKey = ""
	providers, err = buildProviders(cfg)
	require.NoError(t, err)
	assert.Len(t, providers, 1)

	providers, err = buildProviders(config.Config{EmbeddingDimensions: 768})
	require.NoError(t, err)
	assert.Empty(t, providers)
}

func TestBuildProviders_PinnedToColumnWidth(t *testing.T) {
	cfg := config.Config{
		GeminiAPIKey:        "g",
		GeminiModel:         embedding.GeminiPrimaryModel,
		GeminiFallbackModel: embedding.GeminiFallbackModel,
		OpenAIAPIKey:        "o",
		EmbeddingDimensions: 768,
	}
	providers, err := buildProviders(cfg)
	require.NoError(t, err)
	require.Len(t, providers, 3)
	for _, p := range providers[:2] {
		g, ok := p.(*embedding.Gemini)
		require.True(t, ok)
		assert.Equal(t, 768, g.Dimensions, g.Model())
	}
	o, ok := providers[2].(*embedding.OpenAI)
	require.True(t, ok)
	assert.Equal(t, 768, o.Dimensions())

	cfg.EmbeddingDimensions = 3072
	_, err = buildProviders(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), embedding.GeminiPrimaryModel)

	cfg.GeminiAPIKey = ""
	cfg.OpenAIModel = "text-embedding-3-large"
	providers, err = buildProviders(cfg)
	require.NoError(t, err)
	require.Len(t, providers, 1)
	assert.Equal(t, 3072, providers[0].(*embedding.OpenAI).Dimensions())
}

func TestOpenRepository_SQLite(t *testing.T) {
	dir := t.TempDir()
	repo, name, closeFn, err := openRepository(context.Background(), config.Config{DBPath: filepath.Join(dir, "board.db")})
	require.NoError(t, err)
	defer closeFn()
	assert.Equal(t, "sqlite", name)

	boards, err := repo.ListBoards(context.Background())
	require.NoError(t, err)
	assert.Empty(t, boards)
}

func TestReindex_RequiresProvider(t *testing.T) {
	isolate(t)
	_, err := execute(t, "reindex")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no embedding provider")
}

func TestReindex_IndexesRows(t *testing.T) {
	dir := isolate(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","model":"text-embedding-3-small","data":[{"object":"embedding","index":0,"embedding":[0.6,0.8]}]}`))
	}))
	defer srv.Close()
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_BASE_URL", srv.URL)

	dbPath := filepath.Join(dir, "agentboard.db")
	db, err := state.Open(dbPath)
	require.NoError(t, err)
	store := state.NewStore(db)
	ctx := context.Background()
	require.NoError(t, board.Seed(ctx, store, board.DefaultMembers, time.Now()))
	boardID, err := store.DefaultBoardID(ctx)
	require.NoError(t, err)
	task, err := store.CreateTask(ctx, board.Task{BoardID: boardID, Title: "Fix login bug", ListID: board.DefaultListID})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	out, err := execute(t, "reindex", "--missing-only")
	require.NoError(t, err)
	assert.Contains(t, out, "indexed 1 rows")

	db, err = state.Open(dbPath)
	require.NoError(t, err)
	defer db.Close()
	got, err := state.NewStore(db).GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.6, 0.8}, got.Embedding)
}

func TestMCP_RejectsUnknownTransport(t *testing.T) {
	isolate(t)
	defer func() { mcpTransport = "stdio" }()
	_, err := execute(t, "mcp", "--transport", "carrier-pigeon")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown transport")
}

func TestMCP_HTTPRequiresToken(t *testing.T) {
	isolate(t)
	t.Setenv("MCP_TOKEN", "")
	t.Setenv("AGENTBOARD_MCP_TOKEN", "")
	defer func() { mcpTransport = "stdio" }()
	_, err := execute(t, "mcp", "--transport", "http")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mcp_token")
}
