package collector

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/use-agent/pricepivot/classify"
	"github.com/use-agent/pricepivot/extract"
	"github.com/use-agent/pricepivot/models"
	"github.com/use-agent/pricepivot/rules"
)

// fastConfig keeps test runs deterministic and quick. The negative jitter
// disables the random wait entirely.
func fastConfig(maxStimuli int) Config {
	return Config{
		MaxStimuli:       maxStimuli,
		MaxStall:         2,
		StallWindow:      2,
		StimulusInterval: time.Millisecond,
		JitterMax:        -1,
	}
}

func testAssembler(t *testing.T) *extract.Assembler {
	t.Helper()
	r, err := rules.Preset("dog-food")
	if err != nil {
		t.Fatalf("preset: %v", err)
	}
	return extract.NewAssembler(r, classify.New(r), models.SourceWildberries)
}

func cand(i int) extract.Candidate {
	return extract.Candidate{
		Text: fmt.Sprintf("Сухой корм для такс премиум %d\n450 ₽\nВ корзину", i),
	}
}

// fakeSampler plays back a scripted sequence of page readings. Past the end
// of the script the final reading repeats, which models a page that stopped
// growing.
type fakeSampler struct {
	samples        []*Sample
	failSampleAt   int // 1-based call number, 0 disables
	failStimulusAt int

	sampleCalls   int
	stimulusCalls int
}

func (f *fakeSampler) Sample(context.Context) (*Sample, error) {
	f.sampleCalls++
	if f.failSampleAt > 0 && f.sampleCalls >= f.failSampleAt {
		return nil, errors.New("page connection lost")
	}
	i := f.sampleCalls - 1
	if i >= len(f.samples) {
		i = len(f.samples) - 1
	}
	return f.samples[i], nil
}

func (f *fakeSampler) ApplyStimulus(context.Context) error {
	f.stimulusCalls++
	if f.failStimulusAt > 0 && f.stimulusCalls >= f.failStimulusAt {
		return errors.New("scroll target detached")
	}
	return nil
}

// fakeLog captures appended increments in memory.
type fakeLog struct {
	mu      sync.Mutex
	batches [][]*models.ProductRecord
	failAt  int // 1-based append number, 0 disables

	appendCalls int
}

func (f *fakeLog) Append(records []*models.ProductRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appendCalls++
	if f.failAt > 0 && f.appendCalls >= f.failAt {
		return errors.New("disk full")
	}
	batch := make([]*models.ProductRecord, len(records))
	copy(batch, records)
	f.batches = append(f.batches, batch)
	return nil
}

func (f *fakeLog) ReadAll() ([]*models.ProductRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []*models.ProductRecord
	for _, b := range f.batches {
		all = append(all, b...)
	}
	return all, nil
}

func TestRun_AccumulatesAcrossSamples(t *testing.T) {
	sampler := &fakeSampler{samples: []*Sample{
		{ScrollExtent: 1000, Candidates: []extract.Candidate{cand(1), cand(2)}},
		{ScrollExtent: 2000, Candidates: []extract.Candidate{cand(2), cand(3)}},
	}}
	log := &fakeLog{}
	c := New(sampler, log, testAssembler(t), fastConfig(2), nil)

	result, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Stats.Records != 3 {
		t.Errorf("Records = %d, want 3", result.Stats.Records)
	}
	if len(result.Records) != 3 {
		t.Errorf("len(Records) = %d, want 3", len(result.Records))
	}
	// cand(2) re-appears on the second sample and must be counted as a
	// duplicate, not re-accumulated.
	if result.Stats.Duplicates != 1 {
		t.Errorf("Duplicates = %d, want 1", result.Stats.Duplicates)
	}
	if result.Stats.Candidates != 4 {
		t.Errorf("Candidates = %d, want 4", result.Stats.Candidates)
	}

	persisted, _ := log.ReadAll()
	if len(persisted) != 3 {
		t.Errorf("persisted = %d, want 3", len(persisted))
	}
}

func TestRun_StagnationTerminates(t *testing.T) {
	// The extent never changes: two unchanged readings form one stall,
	// two stalls exhaust the page well before the stimulus budget.
	sampler := &fakeSampler{samples: []*Sample{
		{ScrollExtent: 1000, Candidates: []extract.Candidate{cand(1)}},
	}}
	c := New(sampler, &fakeLog{}, testAssembler(t), fastConfig(100), nil)

	result, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !result.Stats.Stalled {
		t.Error("Stalled not set")
	}
	if result.Stats.Stimuli >= 100 {
		t.Errorf("Stimuli = %d, stagnation did not cut the run short", result.Stats.Stimuli)
	}
	if result.Stats.Records != 1 {
		t.Errorf("Records = %d, want 1", result.Stats.Records)
	}
}

func TestRun_StimulusBudget(t *testing.T) {
	// Extents keep growing so stagnation never fires; the budget is the
	// only terminator.
	samples := make([]*Sample, 10)
	for i := range samples {
		samples[i] = &Sample{ScrollExtent: 1000 * (i + 1)}
	}
	sampler := &fakeSampler{samples: samples}
	c := New(sampler, &fakeLog{}, testAssembler(t), fastConfig(3), nil)

	result, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Stats.Stimuli != 3 {
		t.Errorf("Stimuli = %d, want 3", result.Stats.Stimuli)
	}
	if result.Stats.Stalled {
		t.Error("Stalled set on a growing page")
	}
}

func TestRun_SamplerFaultKeepsPartialResults(t *testing.T) {
	sampler := &fakeSampler{
		samples: []*Sample{
			{ScrollExtent: 1000, Candidates: []extract.Candidate{cand(1), cand(2)}},
			{ScrollExtent: 2000},
		},
		failSampleAt: 2,
	}
	c := New(sampler, &fakeLog{}, testAssembler(t), fastConfig(10), nil)

	result, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("faults must not surface as errors, got: %v", err)
	}

	if result.Stats.SamplerFault == "" {
		t.Error("SamplerFault not recorded")
	}
	if len(result.Records) != 2 {
		t.Errorf("len(Records) = %d, want the 2 collected before the fault", len(result.Records))
	}
}

func TestRun_StimulusFaultKeepsPartialResults(t *testing.T) {
	sampler := &fakeSampler{
		samples: []*Sample{
			{ScrollExtent: 1000, Candidates: []extract.Candidate{cand(1)}},
		},
		failStimulusAt: 1,
	}
	c := New(sampler, &fakeLog{}, testAssembler(t), fastConfig(10), nil)

	result, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Stats.SamplerFault == "" {
		t.Error("stimulus fault not recorded")
	}
	if len(result.Records) != 1 {
		t.Errorf("len(Records) = %d, want 1", len(result.Records))
	}
}

func TestRun_PersistenceFaultDegradesToMemory(t *testing.T) {
	sampler := &fakeSampler{samples: []*Sample{
		{ScrollExtent: 1000, Candidates: []extract.Candidate{cand(1)}},
		{ScrollExtent: 2000, Candidates: []extract.Candidate{cand(2)}},
		{ScrollExtent: 3000, Candidates: []extract.Candidate{cand(3)}},
	}}
	log := &fakeLog{failAt: 1}
	c := New(sampler, log, testAssembler(t), fastConfig(3), nil)

	result, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !result.Stats.PersistDegraded {
		t.Error("PersistDegraded not set")
	}
	// Collection continues in memory despite the dead log.
	if len(result.Records) != 3 {
		t.Errorf("len(Records) = %d, want 3", len(result.Records))
	}
	// No further appends are attempted once degraded.
	if log.appendCalls != 1 {
		t.Errorf("appendCalls = %d, want 1", log.appendCalls)
	}
}

func TestRun_NilLogIsMemoryOnly(t *testing.T) {
	sampler := &fakeSampler{samples: []*Sample{
		{ScrollExtent: 1000, Candidates: []extract.Candidate{cand(1)}},
	}}
	c := New(sampler, nil, testAssembler(t), fastConfig(1), nil)

	result, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Records) != 1 {
		t.Errorf("len(Records) = %d, want 1", len(result.Records))
	}
	if result.Stats.PersistDegraded {
		t.Error("nil log must not count as degraded persistence")
	}
}

func TestRun_RejectedCandidatesCounted(t *testing.T) {
	sampler := &fakeSampler{samples: []*Sample{
		{ScrollExtent: 1000, Candidates: []extract.Candidate{
			cand(1),
			{Text: "Сухой корм для кошек премиум\n450 ₽"}, // out of class
			{Text: "Сухой корм для такс без цены тут"},    // no price
		}},
	}}
	c := New(sampler, &fakeLog{}, testAssembler(t), fastConfig(1), nil)

	result, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Stats.Records != 1 {
		t.Errorf("Records = %d, want 1", result.Stats.Records)
	}
	if result.Stats.Rejected != 2 {
		t.Errorf("Rejected = %d, want 2", result.Stats.Rejected)
	}
	if result.Stats.Misses[string(models.MissOutOfClass)] != 1 {
		t.Errorf("Misses = %v, want one out_of_class", result.Stats.Misses)
	}
	if result.Stats.Misses[string(models.MissNoPrice)] != 1 {
		t.Errorf("Misses = %v, want one no_price", result.Stats.Misses)
	}
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sampler := &fakeSampler{samples: []*Sample{{ScrollExtent: 1000}}}
	c := New(sampler, &fakeLog{}, testAssembler(t), fastConfig(10), nil)

	result, err := c.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sampler.sampleCalls != 0 {
		t.Errorf("sampleCalls = %d, want 0 after pre-cancelled context", sampler.sampleCalls)
	}
	if len(result.Records) != 0 {
		t.Errorf("len(Records) = %d, want 0", len(result.Records))
	}
}

func TestSnapshot(t *testing.T) {
	sampler := &fakeSampler{samples: []*Sample{
		{ScrollExtent: 1000, Candidates: []extract.Candidate{cand(1)}},
	}}
	c := New(sampler, &fakeLog{}, testAssembler(t), fastConfig(1), nil)

	if snap := c.Snapshot(); snap.Phase != PhaseIdle {
		t.Errorf("Phase = %q before run, want %q", snap.Phase, PhaseIdle)
	}

	if _, err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	snap := c.Snapshot()
	if snap.Phase != PhaseFinalized {
		t.Errorf("Phase = %q after run, want %q", snap.Phase, PhaseFinalized)
	}
	if len(snap.Records) != 1 || snap.Stats.Records != 1 {
		t.Errorf("snapshot records = %d/%d, want 1/1", len(snap.Records), snap.Stats.Records)
	}
}

func TestConfig_Defaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	if cfg.MaxStimuli != 30 || cfg.MaxStall != 3 || cfg.StallWindow != 2 {
		t.Errorf("loop defaults = %d/%d/%d", cfg.MaxStimuli, cfg.MaxStall, cfg.StallWindow)
	}
	if cfg.StimulusInterval != 2*time.Second || cfg.JitterMax != time.Second {
		t.Errorf("pacing defaults = %v/%v", cfg.StimulusInterval, cfg.JitterMax)
	}

	if got := (Config{JitterMax: -1}).withDefaults(); got.JitterMax != 0 {
		t.Errorf("negative JitterMax = %v, want 0", got.JitterMax)
	}
}
