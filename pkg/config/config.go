package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultTemperature is used when the config file does not set
// llm.temperature.
const DefaultTemperature = 0.7

type Config struct {
	LLM struct {
		Provider       string  `yaml:"provider"`
		BaseURL        string  `yaml:"base_url"`
		APIKey         string  `yaml:"api_key"`
		Model          string  `yaml:"model"`
		EmbeddingModel string  `yaml:"embedding_model"`
		MaxTokens      int     `yaml:"max_tokens"`
		Temperature    float64 `yaml:"temperature"`
		MaxInputChars  int     `yaml:"max_input_chars"`
	} `yaml:"llm"`

	Index struct {
		Backend       string `yaml:"backend"`
		URL           string `yaml:"url"`
		TableName     string `yaml:"table_name"`
		VectorDim     int    `yaml:"vector_dim"`
		RedisAddr     string `yaml:"redis_addr"`
		RedisPassword string `yaml:"redis_password"`
		RedisDB       int    `yaml:"redis_db"`
		IndexName     string `yaml:"index_name"`
	} `yaml:"index"`

	Processor struct {
		ChunkSize int `yaml:"chunk_size"`
	} `yaml:"processor"`

	Ingest struct {
		Workers   int     `yaml:"workers"`
		RateLimit float64 `yaml:"rate_limit"`
	} `yaml:"ingest"`

	Answer struct {
		TopK           int  `yaml:"top_k"`
		RequireContext bool `yaml:"require_context"`
	} `yaml:"answer"`

	Server struct {
		Addr        string `yaml:"addr"`
		MaxUploadMB int    `yaml:"max_upload_mb"`
	} `yaml:"server"`

	Timeouts struct {
		Embedding  time.Duration `yaml:"embedding"`
		IndexWrite time.Duration `yaml:"index_write"`
		IndexQuery time.Duration `yaml:"index_query"`
		Generation time.Duration `yaml:"generation"`
	} `yaml:"timeouts"`
}

func LoadConfig(path string) (*Config, error) {
	// A missing .env file is fine.
	_ = godotenv.Load()

	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"config.yaml",
			"config.yml",
			filepath.Join(os.Getenv("HOME"), ".config/pdfqa/config.yaml"),
			"/etc/pdfqa/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Preset so an explicit temperature of 0 survives unmarshalling.
	var config Config
	config.LLM.Temperature = DefaultTemperature
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	// Merge with environment variables
	mergeWithEnv(&config)

	// Apply defaults for unset values
	applyDefaults(&config)

	return &config, nil
}

func getDefaultConfig() (*Config, error) {
	config := &Config{}
	config.LLM.Temperature = DefaultTemperature
	mergeWithEnv(config)
	applyDefaults(config)
	return config, nil
}

func applyDefaults(config *Config) {
	if config.LLM.Provider == "" {
		config.LLM.Provider = "ollama"
	}
	if config.LLM.Model == "" {
		switch config.LLM.Provider {
		case "googleai":
			config.LLM.Model = "gemini-1.5-flash"
		default:
			config.LLM.Model = "mistral"
		}
	}
	if config.LLM.EmbeddingModel == "" {
		switch config.LLM.Provider {
		case "googleai":
			config.LLM.EmbeddingModel = "text-embedding-004"
		default:
			config.LLM.EmbeddingModel = "nomic-embed-text:latest"
		}
	}
	if config.LLM.MaxTokens == 0 {
		config.LLM.MaxTokens = 2000
	}
	if config.LLM.BaseURL == "" && config.LLM.Provider == "ollama" {
		config.LLM.BaseURL = "http://localhost:11434"
	}
	if config.LLM.MaxInputChars == 0 {
		config.LLM.MaxInputChars = 32000
	}

	if config.Index.Backend == "" {
		config.Index.Backend = "pgvector"
	}
	if config.Index.TableName == "" {
		config.Index.TableName = "chunks"
	}
	if config.Index.VectorDim == 0 {
		config.Index.VectorDim = 768
	}
	if config.Index.RedisAddr == "" {
		config.Index.RedisAddr = "localhost:6379"
	}
	if config.Index.IndexName == "" {
		config.Index.IndexName = "pdfqa-chunks"
	}

	if config.Processor.ChunkSize == 0 {
		config.Processor.ChunkSize = 1000
	}

	if config.Ingest.Workers == 0 {
		config.Ingest.Workers = 1
	}

	if config.Answer.TopK == 0 {
		config.Answer.TopK = 3
	}

	if config.Server.Addr == "" {
		config.Server.Addr = ":8080"
	}
	if config.Server.MaxUploadMB == 0 {
		config.Server.MaxUploadMB = 32
	}

	if config.Timeouts.Embedding == 0 {
		config.Timeouts.Embedding = 30 * time.Second
	}
	if config.Timeouts.IndexWrite == 0 {
		config.Timeouts.IndexWrite = 10 * time.Second
	}
	if config.Timeouts.IndexQuery == 0 {
		config.Timeouts.IndexQuery = 10 * time.Second
	}
	if config.Timeouts.Generation == 0 {
		config.Timeouts.Generation = 120 * time.Second
	}
}

func mergeWithEnv(config *Config) {
	if provider := os.Getenv("LLM_PROVIDER"); provider != "" {
		config.LLM.Provider = provider
	}
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
		config.LLM.BaseURL = baseURL
	}
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		config.LLM.APIKey = apiKey
	}
	if backend := os.Getenv("INDEX_BACKEND"); backend != "" {
		config.Index.Backend = backend
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Index.URL = dbURL
	}
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		config.Index.RedisAddr = redisAddr
	}
	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		config.Index.RedisPassword = redisPassword
	}
	if port := os.Getenv("PORT"); port != "" {
		if _, err := strconv.Atoi(port); err == nil {
			config.Server.Addr = ":" + port
		}
	}
}
