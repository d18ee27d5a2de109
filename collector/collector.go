// Package collector drives repeated page-state sampling, accumulates
// newly-seen records, persists increments and decides when a page is
// exhausted.
package collector

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/use-agent/pricepivot/extract"
	"github.com/use-agent/pricepivot/models"
)

// Phase is the collector's lifecycle state.
type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhaseSampling     Phase = "sampling"
	PhaseExtracting   Phase = "extracting"
	PhaseAccumulating Phase = "accumulating"
	PhaseStalled      Phase = "stalled"
	PhaseExhausted    Phase = "exhausted"
	PhaseFinalized    Phase = "finalized"
)

// Sample is one reading of the page: the scrollable content extent plus the
// full set of currently visible candidate items. The candidate set is read
// fresh on every sample since prior elements may have been replaced.
type Sample struct {
	ScrollExtent int
	Candidates   []extract.Candidate
}

// PageSampler is the browser-side collaborator. Sample re-reads the current
// page state; ApplyStimulus performs one scroll/click/wait cycle.
type PageSampler interface {
	Sample(ctx context.Context) (*Sample, error)
	ApplyStimulus(ctx context.Context) error
}

// IncrementLog is the durable append-only sink for record increments.
// Appends must leave previously written increments intact on a crash
// mid-write.
type IncrementLog interface {
	Append(records []*models.ProductRecord) error
	ReadAll() ([]*models.ProductRecord, error)
}

// Config tunes one collection run.
type Config struct {
	// MaxStimuli bounds the number of scroll stimuli applied. Default 30.
	MaxStimuli int

	// MaxStall is the number of stall increments that exhaust the page.
	// Default 3.
	MaxStall int

	// StallWindow is how many consecutive unchanged scroll extents count
	// as one stall increment. Default 2.
	StallWindow int

	// StimulusInterval is the base pacing between stimuli. Default 2s.
	StimulusInterval time.Duration

	// JitterMax is the upper bound of the random extra wait added to each
	// interval so the cadence does not look mechanical. Default 1s.
	JitterMax time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxStimuli <= 0 {
		c.MaxStimuli = 30
	}
	if c.MaxStall <= 0 {
		c.MaxStall = 3
	}
	if c.StallWindow <= 0 {
		c.StallWindow = 2
	}
	if c.StimulusInterval <= 0 {
		c.StimulusInterval = 2 * time.Second
	}
	if c.JitterMax < 0 {
		c.JitterMax = 0
	} else if c.JitterMax == 0 {
		c.JitterMax = time.Second
	}
	return c
}

// Result is the outcome of a finalized run: the intra-run-deduplicated
// record sequence in discovery order plus the run summary.
type Result struct {
	Records []*models.ProductRecord
	Stats   models.RunStats
}

// Snapshot is a point-in-time copy of run progress, safe to serve while the
// run is still going.
type Snapshot struct {
	Phase   Phase                   `json:"phase"`
	Records []*models.ProductRecord `json:"records"`
	Stats   models.RunStats         `json:"stats"`
}

// Collector owns one collection run. It is not reusable; build a new one per
// run.
type Collector struct {
	sampler   PageSampler
	log       IncrementLog
	assembler *extract.Assembler
	cfg       Config
	limiter   *rate.Limiter
	metrics   *Metrics

	mu      sync.Mutex
	phase   Phase
	records []*models.ProductRecord
	seen    map[string]struct{}
	stats   models.RunStats
}

// New builds a Collector. The increment log may be nil, in which case the
// run is in-memory only from the start. Metrics may be nil.
func New(sampler PageSampler, log IncrementLog, assembler *extract.Assembler, cfg Config, metrics *Metrics) *Collector {
	return &Collector{
		sampler:   sampler,
		log:       log,
		assembler: assembler,
		cfg:       cfg.withDefaults(),
		metrics:   metrics,
		phase:     PhaseIdle,
		seen:      make(map[string]struct{}),
	}
}

// Run executes the full collection loop and always returns a finalized
// result. Collaborator faults end the run early with whatever was collected;
// they never surface as an error. The only error return is ctx cancellation
// before anything was collected.
func (c *Collector) Run(ctx context.Context) (*Result, error) {
	c.cfg = c.cfg.withDefaults()
	c.limiter = rate.NewLimiter(rate.Every(c.cfg.StimulusInterval), 1)

	c.mu.Lock()
	c.stats.StartTime = time.Now()
	c.stats.Misses = make(map[string]int)
	c.mu.Unlock()

	lastExtent := -1
	unchanged := 0
	stalls := 0

	for stimulus := 0; stimulus < c.cfg.MaxStimuli; stimulus++ {
		if err := ctx.Err(); err != nil {
			slog.Info("run cancelled", "stimuli", stimulus)
			break
		}

		// 1. Sample the current page state.
		c.setPhase(PhaseSampling)
		sample, err := c.sampler.Sample(ctx)
		if err != nil {
			slog.Warn("sampler fault, finalizing with partial results",
				"stimuli", stimulus, "error", err)
			c.metrics.IncFault("sample")
			c.noteSamplerFault(err)
			c.setPhase(PhaseExhausted)
			break
		}
		c.metrics.IncSample()

		// 2. Stall detection on the scrollable extent.
		if sample.ScrollExtent == lastExtent {
			unchanged++
			if unchanged >= c.cfg.StallWindow {
				stalls++
				unchanged = 0
				slog.Debug("scroll extent stalled", "extent", sample.ScrollExtent, "stalls", stalls)
			}
		} else {
			unchanged = 0
		}
		lastExtent = sample.ScrollExtent
		if stalls >= c.cfg.MaxStall {
			c.mu.Lock()
			c.stats.Stalled = true
			c.mu.Unlock()
			c.setPhase(PhaseStalled)
			slog.Info("page exhausted by stagnation", "stimuli", stimulus, "records", c.recordCount())
			c.setPhase(PhaseExhausted)
			break
		}

		// 3. Extract and accumulate every visible candidate.
		c.setPhase(PhaseExtracting)
		fresh := c.extractBatch(sample.Candidates)

		// 4. Persist the increment before continuing.
		c.setPhase(PhaseAccumulating)
		if len(fresh) > 0 {
			c.persist(fresh)
		}

		// 5. Apply the next stimulus.
		c.mu.Lock()
		c.stats.Stimuli++
		c.mu.Unlock()
		if err := c.sampler.ApplyStimulus(ctx); err != nil {
			slog.Warn("stimulus fault, finalizing with partial results",
				"stimuli", stimulus+1, "error", err)
			c.metrics.IncFault("stimulus")
			c.noteSamplerFault(err)
			c.setPhase(PhaseExhausted)
			break
		}
		c.metrics.IncStimulus()

		// 6. Organic pacing before the next sample.
		if err := c.wait(ctx); err != nil {
			break
		}
	}

	return c.finalize(), nil
}

// extractBatch runs every candidate through classify/extract/assemble and
// returns the records not seen before in this run, in discovery order.
func (c *Collector) extractBatch(candidates []extract.Candidate) []*models.ProductRecord {
	var fresh []*models.ProductRecord
	for _, cand := range candidates {
		c.mu.Lock()
		c.stats.Candidates++
		c.mu.Unlock()
		c.metrics.IncCandidate()

		rec, miss := c.assembler.Assemble(cand)
		if rec == nil {
			c.mu.Lock()
			c.stats.Rejected++
			c.stats.Misses[string(miss)]++
			c.mu.Unlock()
			c.metrics.IncMiss(string(miss))
			continue
		}

		key := rec.IdentityKey()
		c.mu.Lock()
		if _, dup := c.seen[key]; dup {
			c.stats.Duplicates++
			c.mu.Unlock()
			continue
		}
		c.seen[key] = struct{}{}
		c.records = append(c.records, rec)
		c.stats.Records++
		c.mu.Unlock()
		c.metrics.IncRecord()
		fresh = append(fresh, rec)
	}
	return fresh
}

// persist appends the increment to the durable log. A persistence fault
// degrades the run to in-memory only; it never aborts collection.
func (c *Collector) persist(fresh []*models.ProductRecord) {
	c.mu.Lock()
	degraded := c.stats.PersistDegraded
	c.mu.Unlock()
	if c.log == nil || degraded {
		return
	}

	start := time.Now()
	if err := c.log.Append(fresh); err != nil {
		slog.Error("increment persistence failed, continuing in memory", "error", err)
		c.metrics.IncFault("persist")
		c.mu.Lock()
		c.stats.PersistDegraded = true
		c.mu.Unlock()
		return
	}
	c.metrics.ObservePersist(time.Since(start))
	slog.Debug("increment persisted", "records", len(fresh))
}

func (c *Collector) wait(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	if c.cfg.JitterMax > 0 {
		jitter := rand.N(c.cfg.JitterMax)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(jitter):
		}
	}
	return nil
}

func (c *Collector) finalize() *Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.phase = PhaseFinalized
	c.stats.EndTime = time.Now()

	records := make([]*models.ProductRecord, len(c.records))
	copy(records, c.records)

	slog.Info("run finalized",
		"records", c.stats.Records,
		"candidates", c.stats.Candidates,
		"duplicates", c.stats.Duplicates,
		"stimuli", c.stats.Stimuli,
		"stalled", c.stats.Stalled,
	)
	return &Result{Records: records, Stats: c.stats}
}

// Snapshot returns a copy of the run's current progress.
func (c *Collector) Snapshot() *Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	records := make([]*models.ProductRecord, len(c.records))
	copy(records, c.records)
	return &Snapshot{
		Phase:   c.phase,
		Records: records,
		Stats:   c.stats,
	}
}

func (c *Collector) setPhase(p Phase) {
	c.mu.Lock()
	c.phase = p
	c.mu.Unlock()
}

func (c *Collector) recordCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}

func (c *Collector) noteSamplerFault(err error) {
	c.mu.Lock()
	c.stats.SamplerFault = err.Error()
	c.mu.Unlock()
}
