// Command mailproc runs one carrier email through the maintenance pipeline
// from the command line, for operators handling messages outside the API.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ventanaops/ventana/internal/config"
	"github.com/ventanaops/ventana/internal/logger"
	"github.com/ventanaops/ventana/internal/repository"
	"github.com/ventanaops/ventana/internal/service"
	"github.com/ventanaops/ventana/internal/storage"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to config file")
		file       = flag.String("file", "", "file with the raw email (default: stdin)")
		client     = flag.String("client", "", "client name")
		carrier    = flag.String("carrier", "", "carrier name (default: sniffed from headers)")
		notice     = flag.Bool("notice", false, "generate a client notice")
	)
	flag.Parse()

	log := logger.NewFromEnv(nil)
	logger.SetDefaultLogger(log)
	defer logger.Sync()

	raw, err := readInput(*file)
	if err != nil {
		logger.Fatal("failed to read email: %v", err)
	}
	if len(raw) == 0 {
		logger.Fatal("email is empty")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to load config: %v", err)
	}

	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		logger.Fatal("failed to initialize database: %v", err)
	}

	store, err := storage.New(&cfg.Storage)
	if err != nil {
		logger.Fatal("failed to initialize storage: %v", err)
	}

	completer := service.NewCompletionClient(&cfg.LLM)
	pipeline := service.NewPipeline(
		repository.NewTaskRepository(db),
		repository.NewServiceRepository(db),
		repository.NewCatalogRepository(db),
		service.NewExtractor(completer),
		service.NewNoticeService(cfg.Notice, store),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	result, err := pipeline.ProcessEmail(ctx, service.ProcessInput{
		RawText:        string(raw),
		ClientName:     *client,
		CarrierName:    *carrier,
		GenerateNotice: *notice,
	})
	if err != nil {
		logger.Fatal("failed to process email: %v", err)
	}

	verb := "updated"
	if result.Created {
		verb = "created"
	}
	fmt.Printf("task %d %s: %s .. %s (%s)\n",
		result.Task.ID, verb,
		result.Task.StartAt.Format("2006-01-02 15:04"),
		result.Task.EndAt.Format("2006-01-02 15:04"),
		result.Task.TaskType,
	)
	for _, svc := range result.Matched {
		fmt.Printf("  matched service %d (%s)\n", svc.ID, svc.Name)
	}
	for _, code := range result.Pending {
		fmt.Printf("  pending identifier %s\n", code)
	}
	for _, code := range result.Discarded {
		fmt.Printf("  discarded identifier %s\n", code)
	}
	if result.NoticePath != "" {
		fmt.Printf("notice written to %s\n", result.NoticePath)
	}
}

func readInput(file string) ([]byte, error) {
	if file == "" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(file)
}
