package store

import (
	"context"
	"os"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/gcbaptista/go-lostfound/internal/errors"
	"github.com/gcbaptista/go-lostfound/internal/persistence"
	"github.com/gcbaptista/go-lostfound/model"
)

// MemoryStore keeps records in memory. Internal sequence ids preserve insertion
// order; an optional snapshot file makes the contents survive restarts.
type MemoryStore struct {
	Mu                     sync.RWMutex
	Items                  map[uint64]model.Item // internal seq -> record
	ExternalIDtoInternalID map[string]uint64     // record id -> internal seq
	NextID                 uint64

	snapshotPath string
	logger       *zap.Logger
}

// NewMemoryStore creates an empty store. If snapshotPath is non-empty the
// store loads it (when present) and saves back to it on every mutation.
// A nil logger discards log output.
func NewMemoryStore(snapshotPath string, logger *zap.Logger) (*MemoryStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ms := &MemoryStore{
		Items:                  make(map[uint64]model.Item),
		ExternalIDtoInternalID: make(map[string]uint64),
		snapshotPath:           snapshotPath,
		logger:                 logger,
	}
	if snapshotPath == "" {
		return ms, nil
	}
	var snap memorySnapshot
	if err := persistence.LoadGob(snapshotPath, &snap); err != nil {
		if err == os.ErrNotExist {
			logger.Info("snapshot not found, starting with an empty store", zap.String("path", snapshotPath))
			return ms, nil
		}
		return nil, errors.NewStoreUnavailableError("load snapshot", err)
	}
	if snap.Items != nil {
		ms.Items = snap.Items
	}
	if snap.ExternalIDtoInternalID != nil {
		ms.ExternalIDtoInternalID = snap.ExternalIDtoInternalID
	}
	ms.NextID = snap.NextID
	logger.Info("loaded snapshot", zap.String("path", snapshotPath), zap.Int("records", len(ms.Items)))
	return ms, nil
}

// GetRecords implements Reader.
func (ms *MemoryStore) GetRecords(ctx context.Context, filter Filter) ([]model.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ms.Mu.RLock()
	defer ms.Mu.RUnlock()

	seqs := make([]uint64, 0, len(ms.Items))
	for seq := range ms.Items {
		seqs = append(seqs, seq)
	}
	sort.Slice(seqs, func(i, j int) bool { return seqs[i] < seqs[j] })

	items := make([]model.Item, 0, len(seqs))
	for _, seq := range seqs {
		if item := ms.Items[seq]; filter.Matches(item) {
			items = append(items, item)
		}
	}
	return items, nil
}

// Get implements Reader.
func (ms *MemoryStore) Get(ctx context.Context, id string) (model.Item, error) {
	if err := ctx.Err(); err != nil {
		return model.Item{}, err
	}
	ms.Mu.RLock()
	defer ms.Mu.RUnlock()

	seq, ok := ms.ExternalIDtoInternalID[id]
	if !ok {
		return model.Item{}, errors.NewRecordNotFoundError(id)
	}
	return ms.Items[seq], nil
}

// Add inserts a new record. Duplicate ids are rejected.
func (ms *MemoryStore) Add(ctx context.Context, item model.Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ms.Mu.Lock()
	defer ms.Mu.Unlock()

	if _, exists := ms.ExternalIDtoInternalID[item.ID]; exists {
		return errors.NewRecordExistsError(item.ID)
	}
	seq := ms.NextID
	ms.NextID++
	ms.Items[seq] = item
	ms.ExternalIDtoInternalID[item.ID] = seq

	if err := ms.saveLocked(); err != nil {
		delete(ms.Items, seq)
		delete(ms.ExternalIDtoInternalID, item.ID)
		return err
	}
	return nil
}

// Delete removes a record by id.
func (ms *MemoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ms.Mu.Lock()
	defer ms.Mu.Unlock()

	seq, ok := ms.ExternalIDtoInternalID[id]
	if !ok {
		return errors.NewRecordNotFoundError(id)
	}
	item := ms.Items[seq]
	delete(ms.Items, seq)
	delete(ms.ExternalIDtoInternalID, id)

	if err := ms.saveLocked(); err != nil {
		ms.Items[seq] = item
		ms.ExternalIDtoInternalID[id] = seq
		return err
	}
	return nil
}

// Close flushes the snapshot, if any.
func (ms *MemoryStore) Close() error {
	ms.Mu.Lock()
	defer ms.Mu.Unlock()
	return ms.saveLocked()
}

// Len returns the number of stored records.
func (ms *MemoryStore) Len() int {
	ms.Mu.RLock()
	defer ms.Mu.RUnlock()
	return len(ms.Items)
}

func (ms *MemoryStore) saveLocked() error {
	if ms.snapshotPath == "" {
		return nil
	}
	if err := persistence.SaveGob(ms.snapshotPath, memorySnapshot{
		Items:                  ms.Items,
		ExternalIDtoInternalID: ms.ExternalIDtoInternalID,
		NextID:                 ms.NextID,
	}); err != nil {
		return errors.NewStoreUnavailableError("save snapshot", err)
	}
	return nil
}

// memorySnapshot is the on-disk form of MemoryStore, without the mutex.
type memorySnapshot struct {
	Items                  map[uint64]model.Item
	ExternalIDtoInternalID map[string]uint64
	NextID                 uint64
}

var _ Store = (*MemoryStore)(nil)
