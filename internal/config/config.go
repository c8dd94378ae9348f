package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/papergraph/internal/util"

	"github.com/go-playground/validator"
)

// Config gathers every environment setting the binaries use.
type Config struct {
	Debug bool

	Neo4j    Neo4jConfig
	OpenAlex OpenAlexConfig
	AI       AIConfig
	RabbitMQ RabbitMQConfig
	S3       S3Config
	Server   ServerConfig

	// DatabaseURL enables the run ledger and the ingestion lease lock.
	DatabaseURL string
}

type Neo4jConfig struct {
	URI              string `validate:"required"`
	Username         string `validate:"required"`
	Password         string `validate:"required"`
	Database         string
	VectorSimilarity string `validate:"oneof=cosine euclidean"`
}

type OpenAlexConfig struct {
	URL       string `validate:"required,url"`
	Email     string `validate:"omitempty,email"`
	APIKey    string
	ChunkSize int
	Pace      time.Duration
	Timeout   time.Duration `validate:"gt=0"`
}

type AIConfig struct {
	Adapter          string `validate:"oneof=openai ollama none"`
	EmbedModel       string
	EmbedURL         string
	EmbedKey         string
	Dimensions       int `validate:"min=1,max=4096"`
	MaxTokens        int `validate:"min=0"`
	ParallelRequests int64
}

type RabbitMQConfig struct {
	User     string
	Password string
	Host     string
	Port     string
}

// URL returns the amqp connection string.
func (c RabbitMQConfig) URL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/", c.User, c.Password, c.Host, c.Port)
}

type S3Config struct {
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
}

// Enabled reports whether seed lists can be read from object storage.
func (c S3Config) Enabled() bool { return c.Bucket != "" }

type ServerConfig struct {
	Port           string
	AuthURL        string
	MasterAPIKey   string
	MasterUserID   string
	MasterUserRole string
}

var ErrMissingEmbedModel = errors.New("AI_EMBED_MODEL is required unless AI_ADAPTER=none")

// Load reads the environment (after util.LoadEnv) and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		Debug: util.GetEnvBool("DEBUG", false),
		Neo4j: Neo4jConfig{
			URI:              util.GetEnv("NEO4J_URI"),
			Username:         util.GetEnvString("NEO4J_USERNAME", "neo4j"),
			Password:         util.GetEnv("NEO4J_PASSWORD"),
			Database:         util.GetEnv("NEO4J_DATABASE"),
			VectorSimilarity: util.GetEnvString("VECTOR_SIMILARITY", "cosine"),
		},
		OpenAlex: OpenAlexConfig{
			URL:       util.GetEnvString("OPENALEX_URL", "https://api.openalex.org"),
			Email:     util.GetEnv("OPENALEX_EMAIL"),
			APIKey:    util.GetEnv("OPENALEX_API_KEY"),
			ChunkSize: int(util.GetEnvNumeric("OPENALEX_CHUNK_SIZE", 100)),
			Pace:      util.GetEnvMillis("OPENALEX_PACE_MS", 100*time.Millisecond),
			Timeout:   time.Duration(util.GetEnvNumeric("OPENALEX_TIMEOUT_SEC", 30)) * time.Second,
		},
		AI: AIConfig{
			Adapter:          util.GetEnvString("AI_ADAPTER", "openai"),
			EmbedModel:       util.GetEnv("AI_EMBED_MODEL"),
			EmbedURL:         util.GetEnv("AI_EMBED_URL"),
			EmbedKey:         util.GetEnv("AI_EMBED_KEY"),
			Dimensions:       int(util.GetEnvNumeric("AI_EMBED_DIM", 1536)),
			MaxTokens:        int(util.GetEnvNumeric("AI_EMBED_MAX_TOKENS", 8191)),
			ParallelRequests: int64(util.GetEnvNumeric("AI_PARALLEL_REQ", 4)),
		},
		RabbitMQ: RabbitMQConfig{
			User:     util.GetEnv("RABBITMQ_USER"),
			Password: util.GetEnv("RABBITMQ_PASSWORD"),
			Host:     util.GetEnvString("RABBITMQ_HOST", "localhost"),
			Port:     util.GetEnvString("RABBITMQ_PORT", "5672"),
		},
		S3: S3Config{
			Region:    util.GetEnv("AWS_REGION"),
			Endpoint:  util.GetEnv("AWS_ENDPOINT"),
			AccessKey: util.GetEnv("AWS_ACCESS_KEY"),
			SecretKey: util.GetEnv("AWS_SECRET_KEY"),
			Bucket:    util.GetEnv("AWS_BUCKET"),
		},
		Server: ServerConfig{
			Port:           util.GetEnvString("PORT", "8080"),
			AuthURL:        util.GetEnv("AUTH_URL"),
			MasterAPIKey:   util.GetEnv("MASTER_API_KEY"),
			MasterUserID:   util.GetEnv("MASTER_USER_ID"),
			MasterUserRole: util.GetEnvString("MASTER_USER_ROLE", "admin"),
		},
		DatabaseURL: util.GetEnv("DATABASE_URL"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.AI.Adapter != "none" && c.AI.EmbedModel == "" {
		return ErrMissingEmbedModel
	}
	return nil
}
