package engine

import (
	"context"
	stderrors "errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/gcbaptista/go-lostfound/index"
	"github.com/gcbaptista/go-lostfound/internal/errors"
	"github.com/gcbaptista/go-lostfound/internal/metrics"
	"github.com/gcbaptista/go-lostfound/internal/search"
	"github.com/gcbaptista/go-lostfound/model"
	"github.com/gcbaptista/go-lostfound/store"
)

// Engine matches records against the opposite-type corpus held by a store.
// It implements services.Matcher.
type Engine struct {
	reader   store.Reader
	strategy Strategy
	pool     *ants.Pool
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// Option configures an Engine.
type Option func(*Engine) error

// WithStrategy selects how the vector space is prepared. Default is RebuildStrategy.
func WithStrategy(strategy Strategy) Option {
	return func(e *Engine) error {
		if strategy == nil {
			return fmt.Errorf("strategy cannot be nil")
		}
		e.strategy = strategy
		return nil
	}
}

// WithLogger sets the logger. Default is a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = zap.NewNop()
		}
		e.logger = logger
		return nil
	}
}

// WithPoolSize sets the number of dashboard workers.
// Default is runtime.NumCPU(), with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(e *Engine) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if e.pool != nil {
			e.pool.Release()
		}
		e.pool = pool
		return nil
	}
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) error {
		e.metrics = m
		return nil
	}
}

// New creates an engine reading corpora from reader.
func New(reader store.Reader, opts ...Option) (*Engine, error) {
	if reader == nil {
		return nil, fmt.Errorf("record store cannot be nil")
	}

	poolSize := runtime.NumCPU()
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		reader:   reader,
		strategy: RebuildStrategy{},
		pool:     pool,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		if optErr := opt(e); optErr != nil {
			e.Release()
			return nil, optErr
		}
	}
	return e, nil
}

// Release stops the dashboard worker pool.
func (e *Engine) Release() {
	if e.pool != nil {
		e.pool.Release()
	}
}

// StrategyName returns the name of the configured strategy.
func (e *Engine) StrategyName() string {
	return e.strategy.Name()
}

// RecordAdded tells a stateful strategy about a newly stored record.
func (e *Engine) RecordAdded(item model.Item) {
	if o, ok := e.strategy.(Observer); ok {
		o.RecordAdded(item)
	}
}

// RecordRemoved tells a stateful strategy about a deleted record.
func (e *Engine) RecordRemoved(item model.Item) {
	if o, ok := e.strategy.(Observer); ok {
		o.RecordRemoved(item)
	}
}

// preparedCorpus is one snapshot of the opposite-type records, ready for ranking.
type preparedCorpus struct {
	records    []model.Item
	byID       map[string]model.Item
	space      *index.VectorSpace
	candidates []search.Candidate
}

// FindMatches ranks the records of the opposite type by textual similarity to item
// and returns at most topK of them, best first. An empty opposite corpus is not an
// error: the returned set is empty with Reason EmptyReasonEmptyCorpus.
func (e *Engine) FindMatches(ctx context.Context, item model.Item, topK int) (*model.MatchSet, error) {
	start := time.Now()
	strategy := e.strategy.Name()

	if !item.Type.Valid() {
		e.metrics.ObserveMatch(strategy, metrics.OutcomeInvalid, time.Since(start))
		return nil, errors.NewInvalidRecordError(item.ID, fmt.Sprintf("unknown item type '%s' (must be 'lost' or 'found')", item.Type))
	}

	prepared, err := e.prepare(ctx, item.Type.Opposite())
	if err != nil {
		outcome := metrics.OutcomeError
		if stderrors.Is(err, errors.ErrStoreUnavailable) {
			outcome = metrics.OutcomeStoreError
		}
		e.metrics.ObserveMatch(strategy, outcome, time.Since(start))
		return nil, err
	}

	set, err := e.match(item, prepared, topK)
	if err != nil {
		e.metrics.ObserveMatch(strategy, metrics.OutcomeError, time.Since(start))
		return nil, err
	}

	outcome := metrics.OutcomeMatched
	if set.Reason == model.EmptyReasonEmptyCorpus {
		outcome = metrics.OutcomeEmptyCorpus
	}
	e.metrics.ObserveMatch(strategy, outcome, time.Since(start))
	e.logger.Debug("matched record",
		zap.String("id", item.ID),
		zap.String("type", string(item.Type)),
		zap.Int("corpus_size", set.CorpusSize),
		zap.Int("matches", len(set.Matches)),
		zap.String("strategy", strategy),
		zap.Duration("took", time.Since(start)),
	)
	return set, nil
}

// Dashboard matches every record of itemType against the opposite corpus, using one
// snapshot of that corpus for all of them. The result follows the store order of
// the sources.
func (e *Engine) Dashboard(ctx context.Context, itemType model.ItemType, topK int) ([]*model.MatchSet, error) {
	if !itemType.Valid() {
		return nil, errors.NewInvalidRecordError("", fmt.Sprintf("unknown item type '%s' (must be 'lost' or 'found')", itemType))
	}

	sources, err := e.reader.GetRecords(ctx, store.Filter{Type: itemType})
	if err != nil {
		return nil, wrapStoreError(err)
	}
	results := make([]*model.MatchSet, len(sources))
	if len(sources) == 0 {
		return results, nil
	}

	prepared, err := e.prepare(ctx, itemType.Opposite())
	if err != nil {
		return nil, err
	}

	var (
		wg       sync.WaitGroup
		errMu    sync.Mutex
		firstErr error
	)
	setErr := func(err error) {
		errMu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		errMu.Unlock()
	}

	start := time.Now()
	for i := range sources {
		if err := ctx.Err(); err != nil {
			setErr(err)
			break
		}
		i := i
		wg.Add(1)
		submitErr := e.pool.Submit(func() {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				setErr(err)
				return
			}
			set, err := e.match(sources[i], prepared, topK)
			if err != nil {
				setErr(err)
				return
			}
			results[i] = set
		})
		if submitErr != nil {
			wg.Done()
			setErr(fmt.Errorf("failed to schedule dashboard task: %w", submitErr))
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	e.logger.Info("dashboard built",
		zap.String("type", string(itemType)),
		zap.Int("sources", len(sources)),
		zap.Int("corpus_size", len(prepared.records)),
		zap.Duration("took", time.Since(start)),
	)
	return results, nil
}

// prepare fetches the corpus of corpusType and runs the strategy over it.
func (e *Engine) prepare(ctx context.Context, corpusType model.ItemType) (*preparedCorpus, error) {
	records, err := e.reader.GetRecords(ctx, store.Filter{Type: corpusType})
	if err != nil {
		e.logger.Error("failed to fetch corpus", zap.String("type", string(corpusType)), zap.Error(err))
		return nil, wrapStoreError(err)
	}
	e.metrics.SetCorpusSize(string(corpusType), len(records))

	space, cands, err := e.strategy.Prepare(corpusType, records)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare %s corpus: %w", corpusType, err)
	}

	byID := make(map[string]model.Item, len(records))
	for _, rec := range records {
		if _, seen := byID[rec.ID]; !seen {
			byID[rec.ID] = rec
		}
	}
	return &preparedCorpus{records: records, byID: byID, space: space, candidates: cands}, nil
}

// match ranks one source record against a prepared corpus.
func (e *Engine) match(item model.Item, prepared *preparedCorpus, topK int) (*model.MatchSet, error) {
	set := &model.MatchSet{
		Source:     item,
		Matches:    []model.MatchResult{},
		CorpusSize: len(prepared.records),
		Strategy:   e.strategy.Name(),
	}
	if prepared.space == nil {
		set.Reason = model.EmptyReasonEmptyCorpus
		return set, nil
	}

	query, err := prepared.space.Transform(document(item))
	if err != nil {
		return nil, fmt.Errorf("failed to vectorize record %s: %w", item.ID, err)
	}

	for _, hit := range search.Rank(query, prepared.candidates, topK) {
		rec, ok := prepared.byID[hit.ID]
		if !ok {
			continue
		}
		set.Matches = append(set.Matches, model.MatchResult{Item: rec, Score: hit.Score})
	}
	return set, nil
}

func wrapStoreError(err error) error {
	if stderrors.Is(err, errors.ErrStoreUnavailable) {
		return err
	}
	return errors.NewStoreUnavailableError("get records", err)
}
