package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/dustin/go-humanize"
	"github.com/samber/lo"
	"github.com/tckz/click-counter/internal/config"
	"github.com/tckz/click-counter/internal/counter"
	"github.com/tckz/click-counter/internal/log"
	"go.uber.org/zap"
)

var (
	optDataset   = flag.String("dataset", "", "BigQuery dataset")
	optTable     = flag.String("table", "item_clicks_snapshot", "BigQuery table")
	optChunkSize = flag.Int("chunk-size", 500, "rows per insert request")
	optDryRun    = flag.Bool("dry-run", false, "print JSON lines to stdout instead of inserting")
	optLogLevel  = flag.String("log-level", "info", "info|warn|error")
)

var logger *zap.SugaredLogger

func main() {
	flag.Parse()

	logger = log.Must(log.NewLogger(log.WithLogLevel(*optLogLevel))).Sugar()

	if !*optDryRun && *optDataset == "" {
		logger.Fatalf("*** --dataset must be specified")
	}
	if *optChunkSize <= 0 {
		logger.Fatalf("*** --chunk-size must be positive")
	}

	ctx := context.Background()
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt)
	defer cancel()

	if err := run(ctx); err != nil {
		logger.Fatalf("*** run: %v", err)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config.Load: %w", err)
	}

	store, err := counter.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("counter.Open: %w", err)
	}
	defer store.Close()

	now := time.Now()
	counts, err := store.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("store.GetAll: %w", err)
	}
	rows := toRows(counts, now.UTC())
	logger.Infof("snapshot: items=%s, clicks=%s, dur=%s",
		humanize.Comma(int64(len(rows))), humanize.Comma(lo.SumBy(rows, func(r *countRow) int64 { return r.ClickCount })), time.Since(now))

	if *optDryRun {
		return writeJSONLines(os.Stdout, rows)
	}

	client, err := bigquery.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return fmt.Errorf("bigquery.NewClient: %w", err)
	}
	defer client.Close()

	ins := client.Dataset(*optDataset).Table(*optTable).Inserter()
	for i, chunk := range lo.Chunk(rows, *optChunkSize) {
		if err := ins.Put(ctx, chunk); err != nil {
			return fmt.Errorf("ins.Put: chunk=%d, %w", i, err)
		}
		logger.Debugf("chunk=%d, rows=%d", i, len(chunk))
	}
	logger.Infof("inserted %d rows into %s.%s", len(rows), *optDataset, *optTable)

	return nil
}
