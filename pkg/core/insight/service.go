// Package insight turns a document's financial records into typed insights:
// fetch, aggregate, prompt, generate, parse. Scores always come from the numbers;
// generated text only fills the narrative fields.
package insight

import (
	"context"
	"errors"
	"fmt"
	"time"

	"financial_insights/pkg/core/calc"
	"financial_insights/pkg/core/llm"
	"financial_insights/pkg/core/parse"
	"financial_insights/pkg/core/prompt"
	"financial_insights/pkg/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrNotFound     = errors.New("document not found")
	ErrNoData       = errors.New("document has no financial records")
	ErrInvalidInput = errors.New("invalid insight request")
)

// DocumentProvider loads the records of a document. found is false for unknown documents.
type DocumentProvider interface {
	RecordsForDocument(ctx context.Context, documentID int64) (records []models.FinancialRecord, found bool, err error)
}

// BenchmarkProvider loads industry benchmarks keyed by metric name.
type BenchmarkProvider interface {
	BenchmarksForIndustry(ctx context.Context, industry string) (map[string]models.BenchmarkEntry, error)
}

// Generator is the text generation backend. *llm.Client implements it.
type Generator interface {
	Do(ctx context.Context, req llm.Request) (string, error)
	ResolveModel(model string, hasImages bool) string
}

// Recorder persists assembled insights.
type Recorder interface {
	Record(ctx context.Context, documentID int64, kind string, insight any) error
}

// FailurePolicy decides what a generation failure does to a request.
type FailurePolicy string

const (
	PolicyPropagate FailurePolicy = "propagate"
	PolicyFallback  FailurePolicy = "fallback"
)

// Config tunes the service.
type Config struct {
	Models           map[prompt.Kind]string
	Policies         map[prompt.Kind]FailurePolicy
	PercentileMethod calc.PercentileMethod
	AnomalyThreshold float64
	DefaultIndustry  string
}

// DefaultConfig keeps cash-flow on fallback and everything else on propagate.
func DefaultConfig() Config {
	return Config{
		Policies:         map[prompt.Kind]FailurePolicy{prompt.KindCashFlow: PolicyFallback},
		PercentileMethod: calc.PercentileZScore,
		AnomalyThreshold: 2.0,
		DefaultIndustry:  "General",
	}
}

// Service assembles insights. It holds no per-request state and is safe for concurrent use.
type Service struct {
	docs       DocumentProvider
	benchmarks BenchmarkProvider
	gen        Generator
	builder    *prompt.Builder
	recorder   Recorder
	cfg        Config
	now        func() time.Time
}

// NewService creates a service. A nil builder uses the built-in templates.
func NewService(docs DocumentProvider, benchmarks BenchmarkProvider, gen Generator, builder *prompt.Builder, cfg Config) *Service {
	if builder == nil {
		builder = prompt.NewBuilder(nil)
	}
	if cfg.PercentileMethod == "" {
		cfg.PercentileMethod = calc.PercentileZScore
	}
	if cfg.AnomalyThreshold <= 0 {
		cfg.AnomalyThreshold = 2.0
	}
	if cfg.DefaultIndustry == "" {
		cfg.DefaultIndustry = "General"
	}
	return &Service{
		docs:       docs,
		benchmarks: benchmarks,
		gen:        gen,
		builder:    builder,
		cfg:        cfg,
		now:        time.Now,
	}
}

// SetRecorder enables persistence of every assembled insight.
func (s *Service) SetRecorder(r Recorder) {
	s.recorder = r
}

// SetClock replaces time.Now (for testing).
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Service) policy(kind prompt.Kind) FailurePolicy {
	if p, ok := s.cfg.Policies[kind]; ok {
		return p
	}
	return PolicyPropagate
}

// =============================================================================
// STAGES
// =============================================================================

// Stage is a step of the insight pipeline.
type Stage string

const (
	StageFetching    Stage = "fetching"
	StageAggregating Stage = "aggregating"
	StagePrompting   Stage = "prompting"
	StageGenerating  Stage = "generating"
	StageParsing     Stage = "parsing"
	StageAssembled   Stage = "assembled"
	StageFailed      Stage = "failed"
)

// run tracks one request through the stages.
type run struct {
	kind   prompt.Kind
	docID  int64
	start  time.Time
	stage  Stage
	logger zerolog.Logger
	svc    *Service
}

func (s *Service) newRun(ctx context.Context, docID int64, kind prompt.Kind) *run {
	return &run{
		kind:  kind,
		docID: docID,
		start: s.now(),
		svc:   s,
		logger: zerolog.Ctx(ctx).With().
			Int64("document_id", docID).
			Str("kind", string(kind)).
			Logger(),
	}
}

func (r *run) enter(st Stage) {
	r.stage = st
	r.logger.Debug().
		Str("stage", string(st)).
		Dur("elapsed", r.svc.now().Sub(r.start)).
		Msg("insight stage")
}

func (r *run) fail(err error) error {
	from := r.stage
	r.enter(StageFailed)
	r.logger.Debug().Err(err).Str("from", string(from)).Msg("insight failed")
	return err
}

func (r *run) meta(model string) models.InsightMeta {
	now := r.svc.now()
	return models.InsightMeta{
		ID:              uuid.NewString(),
		DocumentID:      r.docID,
		Kind:            string(r.kind),
		ModelUsed:       model,
		ExecutionTimeMs: now.Sub(r.start).Milliseconds(),
		GeneratedAt:     now,
	}
}

// list extracts a list and logs when only the sentinel was found.
func (r *run) list(text string, spec parse.ListSpec) []string {
	l := parse.ExtractList(text, spec)
	if l.Degraded {
		r.logger.Warn().Str("list", spec.Name).Msg("no items extracted, using sentinel")
	}
	return l.Items
}

// =============================================================================
// PIPELINE
// =============================================================================

type dataset struct {
	records []models.FinancialRecord
	summary calc.Summary
	ratios  calc.RatioSet
}

// prepare runs the fetching and aggregating stages.
func (s *Service) prepare(ctx context.Context, r *run) (dataset, error) {
	r.enter(StageFetching)
	records, found, err := s.docs.RecordsForDocument(ctx, r.docID)
	if err != nil {
		return dataset{}, r.fail(fmt.Errorf("fetch records for document %d: %w", r.docID, err))
	}
	if !found {
		return dataset{}, r.fail(fmt.Errorf("document %d: %w", r.docID, ErrNotFound))
	}
	if len(records) == 0 {
		return dataset{}, r.fail(fmt.Errorf("document %d: %w", r.docID, ErrNoData))
	}

	r.enter(StageAggregating)
	summary := calc.Aggregate(records)
	if summary.UnrecognizedCount > 0 {
		r.logger.Warn().
			Int("records", summary.UnrecognizedCount).
			Float64("amount", summary.UnrecognizedTotal).
			Msg("records with unrecognized category excluded from totals")
	}
	return dataset{records: records, summary: summary, ratios: calc.Ratios(summary)}, nil
}

// generation is the outcome of the prompting and generating stages.
type generation struct {
	text     string
	model    string
	fallback bool
}

// generate builds the prompt and calls the backend. With the fallback policy a
// generation failure yields an empty text and fallback=true instead of an error.
func (s *Service) generate(ctx context.Context, r *run, in prompt.Input) (generation, error) {
	r.enter(StagePrompting)
	userPrompt, err := s.builder.Build(r.kind, in)
	if err != nil {
		return generation{}, r.fail(fmt.Errorf("build %s prompt: %w", r.kind, err))
	}

	r.enter(StageGenerating)
	req := llm.Request{
		Model:  s.cfg.Models[r.kind],
		Prompt: userPrompt,
		System: s.builder.System(r.kind),
	}
	model := s.gen.ResolveModel(req.Model, false)
	text, err := s.gen.Do(ctx, req)
	if err != nil {
		var genErr *llm.GenerationError
		if errors.As(err, &genErr) && s.policy(r.kind) == PolicyFallback {
			r.logger.Warn().Err(err).Msg("generation failed, using fallback")
			return generation{model: model, fallback: true}, nil
		}
		return generation{}, r.fail(fmt.Errorf("generate %s insight: %w", r.kind, err))
	}

	r.enter(StageParsing)
	return generation{text: parse.CleanResponse(text), model: model}, nil
}

// finish marks the run assembled and hands the insight to the recorder.
func (s *Service) finish(ctx context.Context, r *run, insight any) {
	r.enter(StageAssembled)
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Record(ctx, r.docID, string(r.kind), insight); err != nil {
		r.logger.Error().Err(err).Msg("failed to record insight")
	}
}

func detailed(text string) string {
	if d := parse.LabeledBlock(text, "DETAILED ANALYSIS", "OVERALL ASSESSMENT"); d != "" {
		return d
	}
	return text
}
