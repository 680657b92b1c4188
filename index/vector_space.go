package index

import (
	"math"
	"sort"

	"github.com/gcbaptista/go-lostfound/internal/errors"
)

// Document is a normalized token sequence (see tokenizer.Normalize).
type Document []string

// VectorSpace is a fitted TF-IDF space: a fixed vocabulary and one IDF weight per term.
// A nil *VectorSpace is the "null index" produced by fitting an empty corpus.
type VectorSpace struct {
	vocabulary map[string]int // term -> term id
	terms      []string       // term id -> term, lexicographic order
	idf        []float64      // term id -> idf
	numDocs    int
}

// Fit builds a vector space from a corpus of normalized documents.
// idf(t) = ln((1 + N) / (1 + df(t))) + 1, where N is the corpus size and df(t)
// the number of documents containing t. An empty corpus yields nil.
func Fit(corpus []Document) *VectorSpace {
	if len(corpus) == 0 {
		return nil
	}

	df := make(map[string]int)
	for _, doc := range corpus {
		for term := range distinctTerms(doc) {
			df[term]++
		}
	}
	return newVectorSpace(df, len(corpus))
}

// newVectorSpace derives a space from document frequencies. Fit and Corpus both
// go through here, which keeps their weights bit-for-bit identical.
func newVectorSpace(df map[string]int, numDocs int) *VectorSpace {
	if numDocs == 0 {
		return nil
	}

	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	vs := &VectorSpace{
		vocabulary: make(map[string]int, len(terms)),
		terms:      terms,
		idf:        make([]float64, len(terms)),
		numDocs:    numDocs,
	}
	for id, term := range terms {
		vs.vocabulary[term] = id
		vs.idf[id] = math.Log(float64(1+numDocs)/float64(1+df[term])) + 1
	}
	return vs
}

// Transform projects a document into the space: term frequency times idf,
// L2-normalized. Out-of-vocabulary terms are dropped; an empty or entirely
// out-of-vocabulary document maps to the zero vector.
// Transforming against the null index returns ErrNoIndex.
func (vs *VectorSpace) Transform(doc Document) (SparseVector, error) {
	if vs == nil {
		return SparseVector{}, errors.ErrNoIndex
	}

	counts := make(map[int]float64)
	for _, term := range doc {
		if id, ok := vs.vocabulary[term]; ok {
			counts[id]++
		}
	}

	vec := SparseVector{
		Indices: make([]int, 0, len(counts)),
		Values:  make([]float64, 0, len(counts)),
	}
	for id := range counts {
		vec.Indices = append(vec.Indices, id)
	}
	sort.Ints(vec.Indices)

	for _, id := range vec.Indices {
		vec.Values = append(vec.Values, counts[id]*vs.idf[id])
	}

	if norm := vec.Norm(); norm > 0 {
		for i := range vec.Values {
			vec.Values[i] /= norm
		}
	}
	return vec, nil
}

// TransformAll projects every document, preserving order.
func (vs *VectorSpace) TransformAll(docs []Document) ([]SparseVector, error) {
	if vs == nil {
		return nil, errors.ErrNoIndex
	}
	vectors := make([]SparseVector, len(docs))
	for i, doc := range docs {
		vec, err := vs.Transform(doc)
		if err != nil {
			return nil, err
		}
		vectors[i] = vec
	}
	return vectors, nil
}

// NumDocs returns the size of the corpus the space was fitted on.
func (vs *VectorSpace) NumDocs() int {
	if vs == nil {
		return 0
	}
	return vs.numDocs
}

// VocabularySize returns the number of distinct terms.
func (vs *VectorSpace) VocabularySize() int {
	if vs == nil {
		return 0
	}
	return len(vs.terms)
}

// Terms returns the vocabulary in term-id order.
func (vs *VectorSpace) Terms() []string {
	if vs == nil {
		return nil
	}
	out := make([]string, len(vs.terms))
	copy(out, vs.terms)
	return out
}

// IDF returns the inverse document frequency of term, if it is in the vocabulary.
func (vs *VectorSpace) IDF(term string) (float64, bool) {
	if vs == nil {
		return 0, false
	}
	id, ok := vs.vocabulary[term]
	if !ok {
		return 0, false
	}
	return vs.idf[id], true
}

// TermID returns the id assigned to term.
func (vs *VectorSpace) TermID(term string) (int, bool) {
	if vs == nil {
		return 0, false
	}
	id, ok := vs.vocabulary[term]
	return id, ok
}

func distinctTerms(doc Document) map[string]struct{} {
	seen := make(map[string]struct{}, len(doc))
	for _, term := range doc {
		seen[term] = struct{}{}
	}
	return seen
}
