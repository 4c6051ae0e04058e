// kb-loader bulk-ingests product catalog entries and common queries
// into the knowledge base from a JSON seed file.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/penta/email-classifier/internal/config"
	"github.com/penta/email-classifier/internal/core"
	"github.com/penta/email-classifier/internal/factory"
	"github.com/penta/email-classifier/internal/kb"
	"github.com/penta/email-classifier/internal/logging"
)

var (
	seedFile   = flag.String("file", "", "JSON seed file with products and common queries")
	storeType  = flag.String("kb-store", "", "Knowledge store type (memory, sqlite, mysql); overrides config")
	sqlitePath = flag.String("kb-sqlite-path", "", "SQLite database path; overrides config")
	mysqlDSN   = flag.String("kb-mysql-dsn", "", "MySQL DSN; overrides config")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
)

// seedData is the on-disk shape of the seed file
type seedData struct {
	Products []struct {
		ID          string         `json:"id"`
		Name        string         `json:"name"`
		Description string         `json:"description"`
		Category    string         `json:"category"`
		Metadata    map[string]any `json:"metadata"`
	} `json:"products"`
	CommonQueries []struct {
		ID         string         `json:"id"`
		Query      string         `json:"query"`
		Category   string         `json:"category"`
		Confidence float64        `json:"confidence"`
		Metadata   map[string]any `json:"metadata"`
	} `json:"common_queries"`
}

func main() {
	flag.Parse()

	cfg, err := config.New()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *verbose {
		cfg.GetViper().Set("logging.level", "debug")
	}

	logger, err := logging.InitLogger(cfg)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *seedFile == "" {
		logger.Fatal("A seed file is required (-file)")
	}

	if *storeType != "" {
		cfg.GetViper().Set("kb.store_type", *storeType)
	}
	if *sqlitePath != "" {
		cfg.GetViper().Set("kb.sqlite_path", *sqlitePath)
	}
	if *mysqlDSN != "" {
		cfg.GetViper().Set("kb.mysql_dsn", *mysqlDSN)
	}

	store, err := factory.NewStoreFactory(cfg, logger).CreateKnowledgeStore()
	if err != nil {
		logger.Fatal("Failed to create knowledge store", zap.Error(err))
	}
	embedder, err := factory.NewEmbedderFactory(cfg, logger).CreateEmbedder()
	if err != nil {
		logger.Fatal("Failed to create embedder", zap.Error(err))
	}

	knowledgeBase := kb.New(store, embedder, logger, cfg.GetClassifier().ContextResults)
	defer knowledgeBase.Close()

	data, err := os.ReadFile(*seedFile)
	if err != nil {
		logger.Fatal("Failed to read seed file", zap.Error(err), zap.String("file", *seedFile))
	}
	var seed seedData
	if err := json.Unmarshal(data, &seed); err != nil {
		logger.Fatal("Failed to parse seed file", zap.Error(err), zap.String("file", *seedFile))
	}

	ctx := context.Background()
	loadedProducts, loadedQueries := 0, 0

	for _, p := range seed.Products {
		if err := knowledgeBase.AddProduct(ctx, p.ID, p.Name, p.Description, p.Category, p.Metadata); err != nil {
			logger.Error("Failed to ingest product", zap.Error(err), zap.String("id", p.ID))
			continue
		}
		loadedProducts++
	}

	for _, q := range seed.CommonQueries {
		category, err := core.ParseCategory(q.Category)
		if err != nil {
			logger.Error("Skipping query with unknown category",
				zap.String("id", q.ID), zap.String("category", q.Category))
			continue
		}
		confidence := q.Confidence
		if confidence <= 0 {
			confidence = 1.0
		}
		if err := knowledgeBase.AddCommonQuery(ctx, q.ID, q.Query, category, confidence, q.Metadata); err != nil {
			logger.Error("Failed to ingest common query", zap.Error(err), zap.String("id", q.ID))
			continue
		}
		loadedQueries++
	}

	products, queries, history, err := knowledgeBase.Counts(ctx)
	if err != nil {
		logger.Fatal("Failed to count knowledge base entries", zap.Error(err))
	}

	fmt.Printf("Loaded %d products and %d common queries\n", loadedProducts, loadedQueries)
	fmt.Printf("Knowledge base now holds %d products, %d queries, %d history records\n",
		products, queries, history)
}
