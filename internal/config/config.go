package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const EnvPrefix = "AGENTBOARD"

const (
	KeyHTTPAddr            = "http_addr"
	KeyDataDir             = "data_dir"
	KeyDBPath              = "db_path"
	KeyDatabaseURL         = "database_url"
	KeyWebDir              = "web_dir"
	KeyLogLevel            = "log_level"
	KeyLogFormat           = "log_format"
	KeyDefaultActor        = "default_actor"
	KeySeedDefaults        = "seed_defaults"
	KeyGeminiAPIKey        = "gemini_api_key"
	KeyGeminiModel         = "gemini_model"
	KeyGeminiFallbackModel = "gemini_fallback_model"
	KeyOpenAIAPIKey        = "openai_api_key"
	KeyOpenAIBaseURL       = "openai_base_url"
	KeyOpenAIModel         = "openai_model"
	KeyEmbeddingDimensions = "embedding_dimensions"
	KeyRedisAddr           = "redis_addr"
	KeyRedisPassword       = "redis_password"
	KeyRedisChannel        = "redis_channel"
	KeyIndexWorkers        = "index_workers"
	KeyIndexQueue          = "index_queue"
	KeyMCPAddr             = "mcp_addr"
	KeyMCPToken            = "mcp_token"
)

type Config struct {
	HTTPAddr    string
	DataDir     string
	DBPath      string
	DatabaseURL string
	WebDir      string

	LogLevel  string
	LogFormat string

	DefaultActor string
	SeedDefaults bool

	GeminiAPIKey        string
	GeminiModel         string
	GeminiFallbackModel string
	OpenAIAPIKey        string
	OpenAIBaseURL       string
	OpenAIModel         string
	EmbeddingDimensions int

	RedisAddr     string
	RedisPassword string
	RedisChannel  string

	IndexWorkers int
	IndexQueue   int

	MCPAddr  string
	MCPToken string
}

// New returns a viper instance with defaults and environment bindings.
// Provider credentials are also read from their conventional bare names.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyHTTPAddr, ":8080")
	v.SetDefault(KeyDataDir, "data")
	v.SetDefault(KeyWebDir, "web")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyDefaultActor, "mirza")
	v.SetDefault(KeySeedDefaults, true)
	v.SetDefault(KeyGeminiModel, "text-embedding-004")
	v.SetDefault(KeyGeminiFallbackModel, "gemini-embedding-001")
	v.SetDefault(KeyOpenAIModel, "text-embedding-3-small")
	v.SetDefault(KeyEmbeddingDimensions, 768)
	v.SetDefault(KeyRedisChannel, "agentboard:updates")
	v.SetDefault(KeyIndexWorkers, 4)
	v.SetDefault(KeyIndexQueue, 1024)
	v.SetDefault(KeyMCPAddr, ":8090")

	bare := map[string]string{
		KeyGeminiAPIKey:  "GEMINI_API_KEY",
		KeyOpenAIAPIKey:  "OPENAI_API_KEY",
		KeyOpenAIBaseURL: "OPENAI_BASE_URL",
		KeyRedisAddr:     "REDIS_ADDR",
		KeyRedisPassword: "REDIS_PASSWORD",
		KeyDatabaseURL:   "DATABASE_URL",
		KeyMCPToken:      "MCP_TOKEN",
	}
	for key, env := range bare {
		_ = v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(key), env)
	}
	return v
}

// LoadDotEnv loads path into the process environment without overriding
// variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load reads an optional config file and resolves the final settings.
func Load(v *viper.Viper, configFile string) (Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	dataDir := v.GetString(KeyDataDir)
	dbPath := v.GetString(KeyDBPath)
	if dbPath == "" {
		dbPath = filepath.Join(dataDir, "agentboard.db")
	}

	cfg := Config{
		HTTPAddr:    v.GetString(KeyHTTPAddr),
		DataDir:     dataDir,
		DBPath:      dbPath,
		DatabaseURL: v.GetString(KeyDatabaseURL),
		WebDir:      v.GetString(KeyWebDir),

		LogLevel:  v.GetString(KeyLogLevel),
		LogFormat: v.GetString(KeyLogFormat),

		DefaultActor: v.GetString(KeyDefaultActor),
		SeedDefaults: v.GetBool(KeySeedDefaults),

		GeminiAPIKey:        v.GetString(KeyGeminiAPIKey),
		GeminiModel:         v.GetString(KeyGeminiModel),
		GeminiFallbackModel: v.GetString(KeyGeminiFallbackModel),
		OpenAIAPIKey:        v.GetString(KeyOpenAIAPIKey),
		OpenAIBaseURL:       v.GetString(KeyOpenAIBaseURL),
		OpenAIModel:         v.GetString(KeyOpenAIModel),
		EmbeddingDimensions: v.GetInt(KeyEmbeddingDimensions),

		RedisAddr:     v.GetString(KeyRedisAddr),
		RedisPassword: v.GetString(KeyRedisPassword),
		RedisChannel:  v.GetString(KeyRedisChannel),

		IndexWorkers: v.GetInt(KeyIndexWorkers),
		IndexQueue:   v.GetInt(KeyIndexQueue),

		MCPAddr:  v.GetString(KeyMCPAddr),
		MCPToken: v.GetString(KeyMCPToken),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("log_format must be text or json, got %q", c.LogFormat)
	}
	if c.IndexWorkers <= 0 {
		return fmt.Errorf("index_workers must be positive")
	}
	if c.IndexQueue <= 0 {
		return fmt.Errorf("index_queue must be positive")
	}
	if c.EmbeddingDimensions <= 0 {
		return fmt.Errorf("embedding_dimensions must be positive")
	}
	return nil
}

// UsePostgres reports whether the Postgres store is selected.
func (c Config) UsePostgres() bool {
	return c.DatabaseURL != ""
}
