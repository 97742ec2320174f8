package main

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/zombor/billed/internal/bill"
	"github.com/zombor/billed/internal/config"
	"github.com/zombor/billed/internal/events"
	"github.com/zombor/billed/internal/logging"
	"github.com/zombor/billed/internal/scanning"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	// Checked before Validate so it works without any other option
	if cfg.ShowVersion {
		fmt.Println(version)
		os.Exit(0)
	}
	if cfg.GeminiKey == "" {
		cfg.GeminiKey = os.Getenv("GEMINI_API_KEY")
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if _, err := logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}
	slog.Info("Shut down")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Initializing bill store...", "store", cfg.Store)
	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("initializing store: %w", err)
	}
	defer store.Close()

	slog.Info("Initializing attachment storage...", "files", cfg.Files)
	storage, err := openStorage(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}

	types, err := bill.LoadExpenseTypes(cfg.ExpenseTypesFile)
	if err != nil {
		return err
	}

	scanner, err := openScanner(cfg, types)
	if err != nil {
		return fmt.Errorf("initializing scanner: %w", err)
	}
	if scanner != nil {
		defer scanner.Close()
	}

	g, ctx := errgroup.WithContext(ctx)

	var publisher events.Publisher = events.Noop{}
	if cfg.AMQPURL != "" {
		slog.Info("Connecting to AMQP...", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		amqpPublisher, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			return fmt.Errorf("initializing AMQP: %w", err)
		}
		defer amqpPublisher.Close()
		publisher = amqpPublisher
		g.Go(func() error { return amqpPublisher.Watch(ctx) })
	}

	service := bill.NewService(store, storage, publisher, scanner)
	server := bill.NewServer(service, bill.PageConfig{
		DefaultEmail: cfg.EmployeeEmail,
		ExpenseTypes: types,
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	g.Go(func() error { return server.Run(ctx, addr) })
	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr), "version", version)

	return g.Wait()
}

func openStore(cfg *config.Config) (bill.Store, error) {
	switch cfg.Store {
	case "sqlite":
		return bill.NewSQLiteStore(cfg.SQLitePath)
	case "rest":
		return bill.NewRESTStore(cfg.StoreURL)
	default:
		return bill.NewBoltStore(cfg.DBPath)
	}
}

func openStorage(ctx context.Context, cfg *config.Config) (bill.Storage, error) {
	if cfg.Files != "minio" {
		return bill.NewLocalStorage(cfg.StoragePath)
	}

	storage, err := bill.NewMinioStorage(bill.MinioConfig{
		Endpoint:  cfg.MinioEndpoint,
		AccessKey: cfg.MinioAccessKey,
		SecretKey: cfg.MinioSecretKey,
		Bucket:    cfg.MinioBucket,
		UseSSL:    cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, err
	}
	if err := storage.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return storage, nil
}

// openScanner returns nil when scanning is disabled
func openScanner(cfg *config.Config, types []string) (scanning.Scanner, error) {
	switch cfg.Scanner {
	case "gemini":
		slog.Info("Initializing Gemini scanner...", "model", cfg.GeminiModel)
		return scanning.NewGemini(cfg.GeminiKey, cfg.GeminiModel, types)
	case "ollama":
		slog.Info("Initializing Ollama scanner...", "url", cfg.OllamaURL, "model", cfg.OllamaModel)
		return scanning.NewOllama(cfg.OllamaURL, cfg.OllamaModel, types)
	default:
		return nil, nil
	}
}
