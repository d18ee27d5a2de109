package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/use-agent/pricepivot/api"
	"github.com/use-agent/pricepivot/browser"
	"github.com/use-agent/pricepivot/classify"
	"github.com/use-agent/pricepivot/collector"
	"github.com/use-agent/pricepivot/config"
	"github.com/use-agent/pricepivot/dedup"
	"github.com/use-agent/pricepivot/export"
	"github.com/use-agent/pricepivot/extract"
	"github.com/use-agent/pricepivot/models"
	"github.com/use-agent/pricepivot/pivot"
	"github.com/use-agent/pricepivot/rules"
	"github.com/use-agent/pricepivot/store"
	"github.com/use-agent/pricepivot/webhook"
)

// NewCollectCmd creates the collect command.
func NewCollectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Collect product records from a marketplace catalog page",
		Long: `Collect opens a marketplace catalog page, scrolls it until the content
stops growing, extracts in-class product records and persists every
increment before continuing.

The run always terminates with whatever records it could assemble; page
faults end it early with partial results instead of failing.

Examples:
  # Built-in category preset, search query derived into the catalog URL
  pricepivot collect --category dog-food --source wildberries --query "сухой корм для таксы"

  # Explicit catalog URL and custom rules file
  pricepivot collect --rules stoves.yaml --source ozon --url "https://www.ozon.ru/search/?text=газовая+плита"

  # Monitor the run over HTTP while it is going
  pricepivot collect --category gas-stove --source ozon --query "газовая плита" --serve`,
		RunE: runCollectCmd,
	}

	cmd.Flags().StringP("category", "c", "", "Built-in category preset (dog-food, gas-stove)")
	cmd.Flags().StringP("rules", "r", "", "Category rules YAML file (overrides --category preset)")
	cmd.Flags().StringP("source", "s", "", "Marketplace: wildberries, ozon or yandexmarket (required)")
	cmd.Flags().StringP("query", "q", "", "Search query used to build the catalog URL")
	cmd.Flags().StringP("url", "u", "", "Explicit catalog URL (overrides --query)")
	cmd.Flags().StringP("output", "o", "", "Output directory for exports and the report")
	cmd.Flags().Bool("serve", false, "Serve run-monitor HTTP endpoints during collection")
	cmd.Flags().Bool("keep-increments", false, "Keep the increment log after a successful export")

	_ = cmd.MarkFlagRequired("source")

	return cmd
}

// runCollectCmd executes one collection run end to end.
//
// Lifecycle:
//
//	1. Config + logging
//	2. Rules, source, catalog URL
//	3. Increment log
//	4. Browser + page sampler
//	5. Collector (+ optional monitor server)
//	6. Run
//	7. Dedup, export, report
func runCollectCmd(cmd *cobra.Command, _ []string) error {
	// ── 1. Config + logging ─────────────────────────────────────────
	cfg := config.Load()
	initLogger(cfg.Log, getVerboseFlag(cmd))

	// ── 2. Rules, source, catalog URL ───────────────────────────────
	rulesPath, _ := cmd.Flags().GetString("rules")
	category, _ := cmd.Flags().GetString("category")
	r, err := loadRules(rulesPath, category)
	if err != nil {
		return err
	}

	sourceArg, _ := cmd.Flags().GetString("source")
	source, ok := models.ParseSource(sourceArg)
	if !ok {
		return fmt.Errorf("unknown source %q (want wildberries, ozon or yandexmarket)", sourceArg)
	}

	pageURL, _ := cmd.Flags().GetString("url")
	if pageURL == "" {
		query, _ := cmd.Flags().GetString("query")
		if query == "" {
			return fmt.Errorf("either --url or --query is required")
		}
		pageURL, err = browser.SearchURL(source, query)
		if err != nil {
			return err
		}
	}

	// ── 3. Increment log ────────────────────────────────────────────
	logPath, err := incrementLogPath(cfg, r.Category, source)
	if err != nil {
		return err
	}
	incLog, err := store.NewJSONLLog(logPath)
	if err != nil {
		return err
	}
	if err := incLog.Clear(); err != nil {
		return err
	}
	slog.Info("increment log ready", "path", logPath)

	// ── 4. Browser + page sampler ───────────────────────────────────
	b, err := browser.New(cfg.Browser)
	if err != nil {
		return err
	}
	defer b.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sampler, err := b.Open(ctx, pageURL, r)
	if err != nil {
		return err
	}
	defer sampler.Close()

	// ── 5. Collector (+ optional monitor server) ────────────────────
	assembler := extract.NewAssembler(r, classify.New(r), source)
	metrics := collector.NewMetrics()
	coll := collector.New(sampler, incLog, assembler, collector.Config{
		MaxStimuli:       cfg.Collector.MaxStimuli,
		MaxStall:         cfg.Collector.MaxStall,
		StallWindow:      cfg.Collector.StallWindow,
		StimulusInterval: cfg.Collector.StimulusInterval,
		JitterMax:        cfg.Collector.JitterMax,
	}, metrics)

	serve, _ := cmd.Flags().GetBool("serve")
	var srv *http.Server
	if serve {
		router := api.NewRouter(coll, r, metrics.Registry, cfg, time.Now())
		srv = &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port),
			Handler: router,
		}
		go func() {
			slog.Info("run monitor listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("run monitor error", "error", err)
			}
		}()
	}

	// ── 6. Run ──────────────────────────────────────────────────────
	result, err := coll.Run(ctx)
	if err != nil {
		return err
	}

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}

	// ── 7. Dedup, export, report ────────────────────────────────────
	outputDir, _ := cmd.Flags().GetString("output")
	if outputDir == "" {
		outputDir = cfg.Export.OutputDir
	}
	if err := exportRun(outputDir, r.Category, source, result, dedup.Collapse(result.Records), r); err != nil {
		return err
	}

	keep, _ := cmd.Flags().GetBool("keep-increments")
	if !keep && result.Stats.SamplerFault == "" && !result.Stats.PersistDegraded {
		if err := incLog.Clear(); err != nil {
			slog.Warn("failed to clear increment log", "error", err)
		}
	}

	logSummary(result)

	if cfg.Webhook.URL != "" {
		webhook.DeliverWithRetry(cfg.Webhook.URL, cfg.Webhook.Secret,
			webhook.NewRunEvent(r.Category, source, result.Stats))
	}
	return nil
}

// incrementLogPath resolves the increment log location, honouring the
// configured directory override.
func incrementLogPath(cfg *config.Config, category string, source models.Source) (string, error) {
	if dir := cfg.Collector.IncrementLogDir; dir != "" {
		return filepath.Join(dir, store.Filename(category, source)), nil
	}
	return store.DefaultPath(category, source)
}

// exportRun writes the raw and deduplicated record sets plus the markdown
// comparison report into outputDir.
func exportRun(outputDir, category string, source models.Source, result *collector.Result, cleaned []*models.ProductRecord, r *rules.CategoryRules) error {
	base := strings.TrimSuffix(filepath.Join(outputDir, store.Filename(category, source)), ".jsonl")

	raw := export.SortByPriceDesc(result.Records)
	if err := writeRecords(base+"_raw", raw); err != nil {
		return err
	}
	deduped := export.SortByPriceDesc(cleaned)
	if err := writeRecords(base, deduped); err != nil {
		return err
	}

	summary := pivot.Summarize(cleaned, r, pivot.Options{})
	reportFile, err := os.Create(base + "_report.md")
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	defer reportFile.Close()
	if err := pivot.NewReportWriter(reportFile).Write(category, summary, &result.Stats); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	slog.Info("exports written",
		"raw", len(raw),
		"deduplicated", len(deduped),
		"dir", outputDir,
	)
	return nil
}

// writeRecords writes one record set as both CSV and JSONL.
func writeRecords(base string, records []*models.ProductRecord) error {
	csvW, err := export.NewCSVWriter(base + ".csv")
	if err != nil {
		return err
	}
	jsonW, err := export.NewJSONLWriter(base + ".jsonl")
	if err != nil {
		csvW.Close()
		return err
	}

	mw := export.NewMultiWriter(csvW, jsonW)
	if err := mw.Write(records); err != nil {
		mw.Close()
		return err
	}
	return mw.Close()
}

// logSummary prints the end-of-run console summary.
func logSummary(result *collector.Result) {
	stats := result.Stats
	var minPrice, maxPrice, sum int
	for i, rec := range result.Records {
		if i == 0 || rec.Price < minPrice {
			minPrice = rec.Price
		}
		if rec.Price > maxPrice {
			maxPrice = rec.Price
		}
		sum += rec.Price
	}
	mean := 0.0
	if len(result.Records) > 0 {
		mean = float64(sum) / float64(len(result.Records))
	}

	slog.Info("collection summary",
		"records", stats.Records,
		"candidates", stats.Candidates,
		"duplicates", stats.Duplicates,
		"rejected", stats.Rejected,
		"stimuli", stats.Stimuli,
		"duration", stats.EndTime.Sub(stats.StartTime).Round(time.Second).String(),
		"minPrice", minPrice,
		"maxPrice", maxPrice,
		"meanPrice", fmt.Sprintf("%.2f", mean),
	)
	if stats.SamplerFault != "" {
		slog.Warn("run ended on a sampler fault, results are partial", "fault", stats.SamplerFault)
	}
	if stats.PersistDegraded {
		slog.Warn("increment persistence degraded during the run")
	}
}
