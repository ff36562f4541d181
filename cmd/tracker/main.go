// Command tracker runs the email-mining pipeline once against a chosen
// source and prints the resulting funnel summary, without starting an HTTP
// server.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/andreypavlenko/offertrack/internal/config"
	"github.com/andreypavlenko/offertrack/internal/platform/artifacts"
	"github.com/andreypavlenko/offertrack/internal/platform/logger"
	anthropictransport "github.com/andreypavlenko/offertrack/modules/llmclassifier/anthropic"
	llmservice "github.com/andreypavlenko/offertrack/modules/llmclassifier/service"
	"github.com/andreypavlenko/offertrack/modules/messages/adapters"
	"github.com/andreypavlenko/offertrack/modules/messages/ports"
	diagramsvc "github.com/andreypavlenko/offertrack/modules/diagram/service"
	pipelinesvc "github.com/andreypavlenko/offertrack/modules/pipeline/service"
)

func main() {
	_ = godotenv.Load()

	source := flag.String("source", "", "message source: sample or a path to a CSV export")
	start := flag.String("start", time.Now().AddDate(0, -3, 0).Format("2006-01-02"), "start date (YYYY-MM-DD)")
	end := flag.String("end", time.Now().Format("2006-01-02"), "end date (YYYY-MM-DD)")
	maxMessages := flag.Int("max-messages", 500, "cap on fetched messages, in (0, 5000]")
	writeReports := flag.Bool("reports", true, "also run the C8 diagnostic reporters")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	log_, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer log_.Sync()

	startDate, err := time.Parse("2006-01-02", *start)
	if err != nil {
		log.Fatalf("invalid -start: %v", err)
	}
	endDate, err := time.Parse("2006-01-02", *end)
	if err != nil {
		log.Fatalf("invalid -end: %v", err)
	}

	sourceName := *source
	if sourceName == "" {
		sourceName = cfg.Pipeline.DefaultSource
	}

	var adapter ports.MailAdapter
	if sourceName == "sample" || sourceName == "" {
		adapter = adapters.NewSampleAdapter()
		sourceName = "sample"
	} else {
		adapter = adapters.NewCSVAdapter(sourceName)
	}

	store, err := artifacts.NewLocalStore(cfg.Pipeline.ArtifactsDir)
	if err != nil {
		log.Fatalf("init artifact store: %v", err)
	}

	var llm pipelinesvc.LLMClassifier
	if !cfg.LLM.Disabled {
		transport := anthropictransport.New(cfg.LLM.APIKey, cfg.LLM.Disabled)
		llm = llmservice.New(transport, cfg.LLM.Model, cfg.LLM.Timeout)
	}

	pipeline := pipelinesvc.New(pipelinesvc.Dependencies{
		Adapter:     adapter,
		LLM:         llm,
		Store:       store,
		Renderer:    diagramsvc.New(),
		Log:         log_,
		Concurrency: cfg.LLM.Concurrency,
	})

	runID := uuid.NewString()
	result, err := pipeline.Run(context.Background(), pipelinesvc.Options{
		Source:       sourceName,
		Start:        startDate,
		End:          endDate,
		MaxMessages:  *maxMessages,
		WriteReports: *writeReports,
		RunID:        runID,
	})
	if err != nil {
		log.Fatalf("pipeline run failed: %v", err)
	}

	summaryJSON, _ := json.MarshalIndent(result.Summary, "", "  ")
	fmt.Printf("run %s complete\nsummary: %s\n", runID, summaryJSON)
	fmt.Println("artifacts:")
	for name, loc := range result.ArtifactPaths {
		fmt.Printf("  %s -> %s\n", name, loc)
	}
	for _, w := range result.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
}
