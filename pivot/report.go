package pivot

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"

	"github.com/use-agent/pricepivot/models"
)

// ReportWriter renders a pivot summary as a Markdown comparison report,
// suitable for sharing or committing alongside the exported record files.
type ReportWriter struct {
	output io.Writer
}

// NewReportWriter creates a ReportWriter that writes to the given writer.
func NewReportWriter(output io.Writer) *ReportWriter {
	return &ReportWriter{output: output}
}

// Write renders the full report. The category name heads the document and
// stats, when non-nil, adds a collection-run section.
func (w *ReportWriter) Write(category string, summary *models.PivotSummary, stats *models.RunStats) error {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, category, stats)
	w.writeBySource(md, summary)
	w.writeBuckets(md, summary)
	w.writeModels(md, summary)
	w.writeDivergences(md, summary)
	w.writeTops(md, summary)
	w.writeFooter(md)

	return md.Build()
}

func (w *ReportWriter) writeHeader(md *markdown.Markdown, category string, stats *models.RunStats) {
	md.H1("Price Comparison Report")
	md.PlainText("")

	rows := [][]string{
		{"Category", category},
		{"Generated", time.Now().Format("2006-01-02 15:04:05 MST")},
	}
	if stats != nil {
		rows = append(rows,
			[]string{"Records Collected", strconv.Itoa(stats.Records)},
			[]string{"Candidates Seen", strconv.Itoa(stats.Candidates)},
			[]string{"Duplicates Skipped", strconv.Itoa(stats.Duplicates)},
			[]string{"Status", statusText(stats)},
		)
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")

	if stats != nil {
		switch {
		case stats.SamplerFault != "":
			md.Warningf("The collection run ended on a sampler fault (%s); figures below cover partial results only.",
				stats.SamplerFault)
			md.PlainText("")
		case stats.PersistDegraded:
			md.Importantf("Incremental persistence failed during the run; the record set was held in memory only.")
			md.PlainText("")
		}
	}
}

func statusText(stats *models.RunStats) string {
	switch {
	case stats.SamplerFault != "":
		return "⚠️ Aborted (partial results)"
	case stats.Stalled:
		return "✅ Complete (page exhausted)"
	default:
		return "✅ Complete"
	}
}

func (w *ReportWriter) writeBySource(md *markdown.Markdown, summary *models.PivotSummary) {
	md.H2("Price Statistics by Source")
	md.PlainText("")

	if len(summary.BySource) == 0 {
		md.PlainText("No records to summarise.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(summary.BySource))
	for i, s := range summary.BySource {
		stddev := "-"
		if s.Stddev != nil {
			stddev = fmt.Sprintf("%.2f", *s.Stddev)
		}
		rows[i] = []string{
			string(s.Source),
			strconv.Itoa(s.Count),
			fmt.Sprintf("%.2f", s.Mean),
			fmt.Sprintf("%.1f", s.Median),
			strconv.Itoa(s.Min),
			strconv.Itoa(s.Max),
			stddev,
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Source", "Count", "Mean", "Median", "Min", "Max", "Stddev"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *ReportWriter) writeBuckets(md *markdown.Markdown, summary *models.PivotSummary) {
	if len(summary.Buckets) == 0 {
		return
	}

	md.H2("Price Band Distribution")
	md.PlainText("")

	rows := make([][]string, len(summary.Buckets))
	for i, b := range summary.Buckets {
		rows[i] = []string{string(b.Source), b.Bucket, strconv.Itoa(b.Count)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Source", "Band", "Count"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *ReportWriter) writeModels(md *markdown.Markdown, summary *models.PivotSummary) {
	if len(summary.ByModel) == 0 {
		return
	}

	md.H2("Model Code Pivot")
	md.PlainText("")

	rows := make([][]string, len(summary.ByModel))
	for i, m := range summary.ByModel {
		rows[i] = []string{
			m.ModelCode,
			string(m.Source),
			strconv.Itoa(m.Count),
			fmt.Sprintf("%.2f", m.Mean),
			strconv.Itoa(m.Min),
			strconv.Itoa(m.Max),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Model", "Source", "Count", "Mean", "Min", "Max"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *ReportWriter) writeDivergences(md *markdown.Markdown, summary *models.PivotSummary) {
	if len(summary.Divergences) == 0 {
		return
	}

	md.H2("Cross-Source Price Divergence")
	md.PlainText("")

	rows := make([][]string, len(summary.Divergences))
	for i, d := range summary.Divergences {
		rows[i] = []string{
			d.ModelCode,
			fmt.Sprintf("%.2f", d.MinMean),
			fmt.Sprintf("%.2f", d.MaxMean),
			fmt.Sprintf("%.2f", d.AbsSpread),
			fmt.Sprintf("%.1f%%", d.PctSpread),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Model", "Lowest Mean", "Highest Mean", "Spread", "Spread %"},
		Rows:   rows,
	})
	md.PlainText("")

	top := summary.Divergences[0]
	if top.PctSpread >= 20 {
		md.Note(fmt.Sprintf("Model %s differs by %.1f%% between sources; worth checking before buying.",
			top.ModelCode, top.PctSpread))
		md.PlainText("")
	}
}

func (w *ReportWriter) writeTops(md *markdown.Markdown, summary *models.PivotSummary) {
	if len(summary.Tops) == 0 {
		return
	}

	md.H2("Extremes per Source")
	md.PlainText("")

	for _, t := range summary.Tops {
		md.PlainText("### " + string(t.Source))
		md.PlainText("")
		w.writePricePoints(md, "Most expensive", t.MostExpensive)
		w.writePricePoints(md, "Cheapest", t.Cheapest)
	}
}

func (w *ReportWriter) writePricePoints(md *markdown.Markdown, title string, points []models.PricePoint) {
	if len(points) == 0 {
		return
	}

	rows := make([][]string, len(points))
	for i, p := range points {
		rows[i] = []string{truncateName(p.Name, 70), strconv.Itoa(p.Price)}
	}
	md.PlainText("**" + title + "**")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Listing", "Price"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *ReportWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Generated by pricepivot*")
}

// truncateName shortens a listing name to maxLen characters with ellipsis,
// cutting on rune boundaries so Cyrillic names are not split mid-character.
func truncateName(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-1]) + "…"
}
