package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/use-agent/pricepivot/config"
	"github.com/use-agent/pricepivot/dedup"
	"github.com/use-agent/pricepivot/models"
	"github.com/use-agent/pricepivot/pivot"
	"github.com/use-agent/pricepivot/store"
)

// NewPivotCmd creates the pivot command.
func NewPivotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pivot",
		Short: "Aggregate persisted records into a cross-source comparison",
		Long: `Pivot deduplicates a persisted record set and computes per-source price
statistics, price-band histograms, model-code pivots and cross-source
divergence rankings.

By default it reads the increment log of the given category and source,
which makes it the recovery path after an interrupted collect run.

Examples:
  # Aggregate the increment log of an interrupted run
  pricepivot pivot --category dog-food --source wildberries

  # Aggregate an exported JSONL file across sources
  pricepivot pivot --category gas-stove --input out/gas_stoves.jsonl --json`,
		RunE: runPivotCmd,
	}

	cmd.Flags().StringP("category", "c", "", "Built-in category preset (dog-food, gas-stove)")
	cmd.Flags().StringP("rules", "r", "", "Category rules YAML file (overrides --category preset)")
	cmd.Flags().StringP("source", "s", "", "Marketplace whose increment log to read")
	cmd.Flags().StringP("input", "i", "", "Explicit JSONL record file (overrides --source)")
	cmd.Flags().StringP("output", "o", "", "Write the report to a file instead of stdout")
	cmd.Flags().BoolP("json", "j", false, "Emit the summary as JSON instead of Markdown")
	cmd.Flags().IntP("top", "t", pivot.DefaultTopN, "Top-N size for most/least expensive listings")

	return cmd
}

// runPivotCmd executes the pivot command.
func runPivotCmd(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	initLogger(cfg.Log, getVerboseFlag(cmd))

	rulesPath, _ := cmd.Flags().GetString("rules")
	category, _ := cmd.Flags().GetString("category")
	r, err := loadRules(rulesPath, category)
	if err != nil {
		return err
	}

	inputPath, _ := cmd.Flags().GetString("input")
	if inputPath == "" {
		sourceArg, _ := cmd.Flags().GetString("source")
		if sourceArg == "" {
			return fmt.Errorf("either --input or --source is required")
		}
		source, ok := models.ParseSource(sourceArg)
		if !ok {
			return fmt.Errorf("unknown source %q (want wildberries, ozon or yandexmarket)", sourceArg)
		}
		inputPath, err = incrementLogPath(cfg, r.Category, source)
		if err != nil {
			return err
		}
	}

	log, err := store.NewJSONLLog(inputPath)
	if err != nil {
		return err
	}
	records, err := log.ReadAll()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("no records found in %s", inputPath)
	}

	cleaned := dedup.Collapse(records)
	slog.Info("records loaded",
		"path", inputPath,
		"raw", len(records),
		"deduplicated", len(cleaned),
	)
	if pairs := dedup.NearDuplicates(cleaned, 3); len(pairs) > 0 {
		slog.Debug("near-duplicate names detected", "pairs", len(pairs))
	}

	topN, _ := cmd.Flags().GetInt("top")
	summary := pivot.Summarize(cleaned, r, pivot.Options{TopN: topN})

	out, closeOut, err := openOutput(cmd)
	if err != nil {
		return err
	}
	defer closeOut()

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}
	return pivot.NewReportWriter(out).Write(r.Category, summary, nil)
}

// openOutput resolves the report destination: a file when --output is set,
// stdout otherwise.
func openOutput(cmd *cobra.Command) (io.Writer, func(), error) {
	outputPath, _ := cmd.Flags().GetString("output")
	if outputPath == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return nil, nil, fmt.Errorf("create %s: %w", outputPath, err)
	}
	return f, func() { _ = f.Close() }, nil
}
