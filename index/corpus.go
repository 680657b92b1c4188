package index

import "sync"

// Corpus is an incrementally maintained set of documents keyed by record id.
// It keeps document frequencies up to date on every Add/Remove so a VectorSpace
// can be derived without refitting. Insertion order is preserved.
type Corpus struct {
	mu   sync.RWMutex
	ids  []string
	docs map[string]Document
	df   map[string]int
}

// NewCorpus creates an empty corpus.
func NewCorpus() *Corpus {
	return &Corpus{
		ids:  make([]string, 0),
		docs: make(map[string]Document),
		df:   make(map[string]int),
	}
}

// Add inserts a document at the end of the corpus. Adding an id that is
// already present replaces its document in place.
func (c *Corpus) Add(id string, doc Document) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if old, exists := c.docs[id]; exists {
		c.forget(old)
	} else {
		c.ids = append(c.ids, id)
	}

	stored := make(Document, len(doc))
	copy(stored, doc)
	c.docs[id] = stored
	for term := range distinctTerms(stored) {
		c.df[term]++
	}
}

// Remove deletes a document. It reports whether the id was present.
func (c *Corpus) Remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	doc, exists := c.docs[id]
	if !exists {
		return false
	}
	c.forget(doc)
	delete(c.docs, id)

	for i, existing := range c.ids {
		if existing == id {
			c.ids = append(c.ids[:i], c.ids[i+1:]...)
			break
		}
	}
	return true
}

// forget drops a document's contribution to the document frequencies.
// Callers must hold the write lock.
func (c *Corpus) forget(doc Document) {
	for term := range distinctTerms(doc) {
		c.df[term]--
		if c.df[term] <= 0 {
			delete(c.df, term)
		}
	}
}

// Len returns the number of documents.
func (c *Corpus) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.ids)
}

// IDs returns the record ids in insertion order.
func (c *Corpus) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.ids))
	copy(out, c.ids)
	return out
}

// Document returns the stored document for id.
func (c *Corpus) Document(id string) (Document, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	doc, ok := c.docs[id]
	return doc, ok
}

// Documents returns all documents in insertion order.
func (c *Corpus) Documents() []Document {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Document, len(c.ids))
	for i, id := range c.ids {
		out[i] = c.docs[id]
	}
	return out
}

// VectorSpace derives the TF-IDF space for the current contents.
// It is identical to Fit(c.Documents()) and nil when the corpus is empty.
func (c *Corpus) VectorSpace() *VectorSpace {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return newVectorSpace(c.df, len(c.ids))
}
