package model

// EmptyReason explains why a MatchSet carries no matches.
type EmptyReason string

const (
	// EmptyReasonNone means the set is populated (or top_k was zero).
	EmptyReasonNone EmptyReason = ""
	// EmptyReasonEmptyCorpus means there were no records of the opposite type.
	EmptyReasonEmptyCorpus EmptyReason = "empty_corpus"
)

// MatchResult is a candidate record augmented with its similarity score in [0, 1].
type MatchResult struct {
	Item
	Score float64 `json:"score"`
}

// MatchSet is the outcome of matching one source record.
// Matches are sorted by descending score; ties keep corpus order.
type MatchSet struct {
	Source     Item          `json:"source"`
	Matches    []MatchResult `json:"matches"`
	Reason     EmptyReason   `json:"reason,omitempty"`
	CorpusSize int           `json:"corpus_size"`
	Strategy   string        `json:"strategy"`
}

// IsEmpty reports whether no candidate was returned.
func (m *MatchSet) IsEmpty() bool {
	return len(m.Matches) == 0
}
