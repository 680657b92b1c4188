package engine

import (
	"fmt"
	"sync"

	"github.com/gcbaptista/go-lostfound/index"
	"github.com/gcbaptista/go-lostfound/internal/search"
	"github.com/gcbaptista/go-lostfound/internal/tokenizer"
	"github.com/gcbaptista/go-lostfound/model"
)

// Strategy names
const (
	StrategyRebuild     = "rebuild"
	StrategyIncremental = "incremental"
)

// Strategy turns the records of one type into a vector space plus one candidate
// per record, in corpus order. A nil space means the corpus was empty.
type Strategy interface {
	Name() string
	Prepare(corpusType model.ItemType, corpus []model.Item) (*index.VectorSpace, []search.Candidate, error)
}

// Observer is implemented by strategies that keep state between calls.
type Observer interface {
	RecordAdded(item model.Item)
	RecordRemoved(item model.Item)
}

// NewStrategy returns the strategy registered under name.
func NewStrategy(name string) (Strategy, error) {
	switch name {
	case StrategyRebuild, "":
		return RebuildStrategy{}, nil
	case StrategyIncremental:
		return NewIncrementalStrategy(), nil
	default:
		return nil, fmt.Errorf("unknown match strategy %q (must be '%s' or '%s')", name, StrategyRebuild, StrategyIncremental)
	}
}

// document is the normalized text of a record: name, description and place.
func document(item model.Item) index.Document {
	return tokenizer.NormalizeFields(item.Name, item.Description, item.Place)
}

func candidates(space *index.VectorSpace, ids []string, docs []index.Document) ([]search.Candidate, error) {
	vectors, err := space.TransformAll(docs)
	if err != nil {
		return nil, err
	}
	out := make([]search.Candidate, len(ids))
	for i, id := range ids {
		out[i] = search.Candidate{ID: id, Vector: vectors[i]}
	}
	return out, nil
}

// RebuildStrategy refits the vector space from scratch on every call.
type RebuildStrategy struct{}

// Name implements Strategy.
func (RebuildStrategy) Name() string { return StrategyRebuild }

// Prepare implements Strategy.
func (RebuildStrategy) Prepare(_ model.ItemType, corpus []model.Item) (*index.VectorSpace, []search.Candidate, error) {
	if len(corpus) == 0 {
		return nil, nil, nil
	}
	ids := make([]string, len(corpus))
	docs := make([]index.Document, len(corpus))
	for i, item := range corpus {
		ids[i] = item.ID
		docs[i] = document(item)
	}
	space := index.Fit(docs)
	cands, err := candidates(space, ids, docs)
	if err != nil {
		return nil, nil, err
	}
	return space, cands, nil
}

// IncrementalStrategy keeps one index.Corpus per item type and updates it as
// records come and go, so normalization happens once per record instead of once
// per query. Before every use the cached corpus is checked against the records
// the store just returned (ids, order and text); on any divergence it is rebuilt
// from them. Its rankings are therefore identical to RebuildStrategy's.
type IncrementalStrategy struct {
	mu    sync.Mutex
	types map[model.ItemType]*corpusState

	resyncs int
}

type corpusState struct {
	corpus *index.Corpus
	texts  map[string]string // id -> MatchText the document was built from

	// cached derivation, cleared on every mutation
	space *index.VectorSpace
	cands []search.Candidate
}

func newCorpusState() *corpusState {
	return &corpusState{corpus: index.NewCorpus(), texts: make(map[string]string)}
}

// NewIncrementalStrategy creates an empty incremental strategy.
func NewIncrementalStrategy() *IncrementalStrategy {
	return &IncrementalStrategy{types: make(map[model.ItemType]*corpusState)}
}

// Name implements Strategy.
func (s *IncrementalStrategy) Name() string { return StrategyIncremental }

// RecordAdded implements Observer.
func (s *IncrementalStrategy) RecordAdded(item model.Item) {
	if !item.Type.Valid() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state(item.Type).add(item)
}

// RecordRemoved implements Observer.
func (s *IncrementalStrategy) RecordRemoved(item model.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range s.types {
		st.remove(item.ID)
	}
}

// Resyncs reports how many times a cached corpus had to be rebuilt from the store.
func (s *IncrementalStrategy) Resyncs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resyncs
}

// Prepare implements Strategy.
func (s *IncrementalStrategy) Prepare(corpusType model.ItemType, corpus []model.Item) (*index.VectorSpace, []search.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state(corpusType)
	if !st.matches(corpus) {
		s.resyncs++
		st = newCorpusState()
		for _, item := range corpus {
			st.add(item)
		}
		s.types[corpusType] = st
		if st.corpus.Len() != len(corpus) {
			// duplicate ids cannot be keyed; fall back to a plain refit
			return RebuildStrategy{}.Prepare(corpusType, corpus)
		}
	}

	if st.corpus.Len() == 0 {
		return nil, nil, nil
	}
	if st.space == nil {
		space := st.corpus.VectorSpace()
		cands, err := candidates(space, st.corpus.IDs(), st.corpus.Documents())
		if err != nil {
			return nil, nil, err
		}
		st.space, st.cands = space, cands
	}
	return st.space, st.cands, nil
}

func (s *IncrementalStrategy) state(t model.ItemType) *corpusState {
	st, ok := s.types[t]
	if !ok {
		st = newCorpusState()
		s.types[t] = st
	}
	return st
}

func (st *corpusState) add(item model.Item) {
	text := item.MatchText()
	if existing, ok := st.texts[item.ID]; ok && existing == text {
		return
	}
	st.corpus.Add(item.ID, document(item))
	st.texts[item.ID] = text
	st.space, st.cands = nil, nil
}

func (st *corpusState) remove(id string) {
	if !st.corpus.Remove(id) {
		return
	}
	delete(st.texts, id)
	st.space, st.cands = nil, nil
}

// matches reports whether the cached corpus holds exactly these records, in this order.
func (st *corpusState) matches(corpus []model.Item) bool {
	ids := st.corpus.IDs()
	if len(ids) != len(corpus) {
		return false
	}
	for i, item := range corpus {
		if ids[i] != item.ID {
			return false
		}
		if st.texts[item.ID] != item.MatchText() {
			return false
		}
	}
	return true
}
