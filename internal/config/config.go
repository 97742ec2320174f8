package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
)

// EnvPrefix prefixes every environment variable, e.g. BILLED_PORT
const EnvPrefix = "BILLED"

// Config is the runtime configuration of the billed server
type Config struct {
	Port int

	// Store backend: bolt, sqlite or rest
	Store      string
	DBPath     string
	SQLitePath string
	StoreURL   string

	// Attachment storage: local or minio
	Files          string
	StoragePath    string
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	// Bill submitted events, disabled when AMQPURL is empty
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Attachment scanning: none, gemini or ollama
	Scanner     string
	GeminiKey   string
	GeminiModel string
	OllamaURL   string
	OllamaModel string

	EmployeeEmail    string
	ExpenseTypesFile string

	LogLevel  string
	LogFormat string

	ShowVersion bool
}

// Parse reads flags, then BILLED_* environment variables, then an optional
// config file. A .env file in the working directory is loaded first when
// present.
func Parse(args []string) (*Config, error) {
	_ = godotenv.Load()

	fs := ff.NewFlagSet("billed")
	var (
		port           = fs.IntLong("port", 8080, "HTTP server port")
		store          = fs.StringLong("store", "bolt", "Bill store: 'bolt', 'sqlite' or 'rest'")
		dbPath         = fs.StringLong("db", "billed.db", "BoltDB file path")
		sqlitePath     = fs.StringLong("sqlite-path", "./data/billed.sqlite", "SQLite database path")
		storeURL       = fs.StringLong("store-url", "", "Base URL of a remote bills API (rest store)")
		files          = fs.StringLong("files", "local", "Attachment storage: 'local' or 'minio'")
		storagePath    = fs.StringLong("storage", "./attachments", "Local attachment directory")
		minioEndpoint  = fs.StringLong("minio-endpoint", "localhost:9000", "MinIO endpoint")
		minioAccessKey = fs.StringLong("minio-access-key", "", "MinIO access key")
		minioSecretKey = fs.StringLong("minio-secret-key", "", "MinIO secret key")
		minioBucket    = fs.StringLong("minio-bucket", "billed", "MinIO bucket")
		minioUseSSL    = fs.BoolLong("minio-ssl", "Use TLS for MinIO")
		amqpURL        = fs.StringLong("amqp-url", "", "RabbitMQ URL for bill events (optional)")
		amqpExchange   = fs.StringLong("amqp-exchange", "billed", "RabbitMQ exchange")
		amqpQueue      = fs.StringLong("amqp-queue", "bill_submitted", "RabbitMQ queue")
		scanner        = fs.StringLong("scanner", "none", "Attachment scanner: 'none', 'gemini' or 'ollama'")
		geminiKey      = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel    = fs.StringLong("gemini-model", "gemini-2.5-pro", "Google Gemini model name")
		ollamaURL      = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel    = fs.StringLong("ollama-model", "llava", "Ollama model name")
		email          = fs.StringLong("employee-email", "employee@test.tld", "Email used when the form carries none")
		expenseTypes   = fs.StringLong("expense-types", "", "YAML file listing expense types (optional)")
		logLevel       = fs.StringLong("log-level", "info", "Log level: debug, info, warn, error")
		logFormat      = fs.StringLong("log-format", "text", "Log format: text or json")
		showVersion    = fs.Bool('v', "version", "Show version information")
		_              = fs.StringLong("config", "", "Config file (flag-per-line format)")
	)

	if err := ff.Parse(fs, args,
		ff.WithEnvVarPrefix(EnvPrefix),
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ff.PlainParser),
	); err != nil {
		return nil, fmt.Errorf("%s\n%w", ffhelp.Flags(fs), err)
	}

	return &Config{
		Port:             *port,
		Store:            *store,
		DBPath:           *dbPath,
		SQLitePath:       *sqlitePath,
		StoreURL:         *storeURL,
		Files:            *files,
		StoragePath:      *storagePath,
		MinioEndpoint:    *minioEndpoint,
		MinioAccessKey:   *minioAccessKey,
		MinioSecretKey:   *minioSecretKey,
		MinioBucket:      *minioBucket,
		MinioUseSSL:      *minioUseSSL,
		AMQPURL:          *amqpURL,
		AMQPExchange:     *amqpExchange,
		AMQPQueue:        *amqpQueue,
		Scanner:          *scanner,
		GeminiKey:        *geminiKey,
		GeminiModel:      *geminiModel,
		OllamaURL:        *ollamaURL,
		OllamaModel:      *ollamaModel,
		EmployeeEmail:    *email,
		ExpenseTypesFile: *expenseTypes,
		LogLevel:         *logLevel,
		LogFormat:        *logFormat,
		ShowVersion:      *showVersion,
	}, nil
}

// Validate checks option combinations and reports every problem at once
func (c *Config) Validate() error {
	var problems []string

	if c.Port < 1 || c.Port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", c.Port))
	}

	switch c.Store {
	case "bolt":
		if c.DBPath == "" {
			problems = append(problems, "db path cannot be empty when using the bolt store")
		}
	case "sqlite":
		if c.SQLitePath == "" {
			problems = append(problems, "sqlite path cannot be empty when using the sqlite store")
		}
	case "rest":
		if u, err := url.Parse(c.StoreURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			problems = append(problems, fmt.Sprintf("invalid store url %q: must be an http(s) URL", c.StoreURL))
		}
	default:
		problems = append(problems, fmt.Sprintf("invalid store %q: must be one of bolt, sqlite, rest", c.Store))
	}

	switch c.Files {
	case "local":
		if c.StoragePath == "" {
			problems = append(problems, "storage path cannot be empty when using local files")
		}
	case "minio":
		if c.MinioEndpoint == "" || c.MinioBucket == "" {
			problems = append(problems, "minio endpoint and bucket are required when using minio files")
		}
	default:
		problems = append(problems, fmt.Sprintf("invalid files %q: must be one of local, minio", c.Files))
	}

	if c.AMQPURL != "" {
		if u, err := url.Parse(c.AMQPURL); err != nil || (u.Scheme != "amqp" && u.Scheme != "amqps") {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL %q: scheme must be amqp or amqps", c.AMQPURL))
		}
		if c.AMQPExchange == "" || c.AMQPQueue == "" {
			problems = append(problems, "AMQP exchange and queue are required when an AMQP URL is set")
		}
	}

	switch c.Scanner {
	case "none", "ollama":
	case "gemini":
		if c.GeminiKey == "" {
			problems = append(problems, "gemini key is required when using the gemini scanner")
		}
	default:
		problems = append(problems, fmt.Sprintf("invalid scanner %q: must be one of none, gemini, ollama", c.Scanner))
	}

	if len(problems) > 0 {
		return errors.New("configuration validation failed:\n- " + strings.Join(problems, "\n- "))
	}
	return nil
}
