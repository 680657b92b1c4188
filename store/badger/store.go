// Package badger implements store.Store on top of an embedded BadgerDB.
package badger

import (
	"bytes"
	"context"
	"encoding/gob"
	stderrors "errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"go.uber.org/zap"

	"github.com/gcbaptista/go-lostfound/internal/errors"
	"github.com/gcbaptista/go-lostfound/model"
	"github.com/gcbaptista/go-lostfound/store"
)

const defaultSequenceBandwidth = 100

// Store persists records in BadgerDB.
type Store struct {
	db     *badger.DB
	seq    *badger.Sequence
	logger *zap.Logger
}

var _ store.Store = (*Store)(nil)

// zapAdapter adapts zap to badger.Logger.
type zapAdapter struct {
	logger *zap.SugaredLogger
}

var _ badger.Logger = (*zapAdapter)(nil)

func (a *zapAdapter) Errorf(msg string, items ...any)   { a.logger.Errorf(msg, items...) }
func (a *zapAdapter) Warningf(msg string, items ...any) { a.logger.Warnf(msg, items...) }
func (a *zapAdapter) Infof(msg string, items ...any)    { a.logger.Debugf(msg, items...) }
func (a *zapAdapter) Debugf(msg string, items ...any)   { a.logger.Debugf(msg, items...) }

// Open opens (or creates) a database at path. With inMemory set, path is ignored
// and nothing touches disk.
func Open(path string, inMemory bool, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var opts badger.Options
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(path, 0750); err != nil {
			return nil, errors.NewStoreUnavailableError("open", err)
		}
		info, err := os.Stat(path)
		if err != nil {
			return nil, errors.NewStoreUnavailableError("open", err)
		}
		if !info.IsDir() {
			return nil, errors.NewStoreUnavailableError("open", fmt.Errorf("%s is not a directory", path))
		}
		opts = badger.DefaultOptions(path)
	}
	opts.Logger = &zapAdapter{logger: logger.Named("badger").Sugar()}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.NewStoreUnavailableError("open", err)
	}
	seq, err := db.GetSequence([]byte(itemSeqKey), defaultSequenceBandwidth)
	if err != nil {
		_ = db.Close()
		return nil, errors.NewStoreUnavailableError("open", err)
	}

	logger.Info("badger store opened", zap.String("path", path), zap.Bool("in_memory", inMemory))
	return &Store{db: db, seq: seq, logger: logger}, nil
}

// Close releases the sequence lease and closes the database.
func (s *Store) Close() error {
	if err := s.seq.Release(); err != nil {
		s.logger.Warn("failed to release item sequence", zap.Error(err))
	}
	return s.db.Close()
}

// Add implements store.Store.
func (s *Store) Add(ctx context.Context, item model.Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	value, err := encodeItem(item)
	if err != nil {
		return err
	}

	err = s.db.Update(func(tx *badger.Txn) error {
		idKey := makeItemIDKey(item.ID)
		if _, err := tx.Get(idKey); err == nil {
			return errors.NewRecordExistsError(item.ID)
		} else if !stderrors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		seq, err := s.seq.Next()
		if err != nil {
			return err
		}
		if err := tx.Set(makeItemKey(seq), value); err != nil {
			return err
		}
		if err := tx.Set(idKey, encodeSeq(seq)); err != nil {
			return err
		}
		return tx.Set(makeItemTypeKey(item.Type, seq), nil)
	})
	return wrap("add", err)
}

// Delete implements store.Store.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(tx *badger.Txn) error {
		seq, err := lookupSeq(tx, id)
		if err != nil {
			return err
		}
		item, err := readItem(tx, seq)
		if err != nil {
			return err
		}
		if err := tx.Delete(makeItemKey(seq)); err != nil {
			return err
		}
		if err := tx.Delete(makeItemIDKey(id)); err != nil {
			return err
		}
		return tx.Delete(makeItemTypeKey(item.Type, seq))
	})
	return wrap("delete", err)
}

// Get implements store.Reader.
func (s *Store) Get(ctx context.Context, id string) (model.Item, error) {
	if err := ctx.Err(); err != nil {
		return model.Item{}, err
	}
	var item model.Item
	err := s.db.View(func(tx *badger.Txn) error {
		seq, err := lookupSeq(tx, id)
		if err != nil {
			return err
		}
		item, err = readItem(tx, seq)
		return err
	})
	if err != nil {
		return model.Item{}, wrap("get", err)
	}
	return item, nil
}

// GetRecords implements store.Reader. With a type filter only the type index is
// scanned; otherwise the primary keys are. Either way keys come back in seq order.
func (s *Store) GetRecords(ctx context.Context, filter store.Filter) ([]model.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	items := make([]model.Item, 0)
	err := s.db.View(func(tx *badger.Txn) error {
		if filter.Type != "" {
			return s.scanType(ctx, tx, filter, &items)
		}
		return s.scanAll(ctx, tx, filter, &items)
	})
	if err != nil {
		return nil, wrap("get records", err)
	}
	return items, nil
}

func (s *Store) scanAll(ctx context.Context, tx *badger.Txn, filter store.Filter, out *[]model.Item) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(itemPrefix)
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Rewind(); iter.Valid(); iter.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		var item model.Item
		if err := iter.Item().Value(func(val []byte) error {
			var err error
			item, err = decodeItem(val)
			return err
		}); err != nil {
			return err
		}
		if filter.Matches(item) {
			*out = append(*out, item)
		}
	}
	return nil
}

func (s *Store) scanType(ctx context.Context, tx *badger.Txn, filter store.Filter, out *[]model.Item) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = makeItemTypePrefix(filter.Type)
	opts.PrefetchValues = false
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Rewind(); iter.Valid(); iter.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		item, err := readItem(tx, seqFromKey(iter.Item().Key()))
		if err != nil {
			return err
		}
		if filter.Matches(item) {
			*out = append(*out, item)
		}
	}
	return nil
}

func lookupSeq(tx *badger.Txn, id string) (uint64, error) {
	entry, err := tx.Get(makeItemIDKey(id))
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return 0, errors.NewRecordNotFoundError(id)
	}
	if err != nil {
		return 0, err
	}
	var seq uint64
	err = entry.Value(func(val []byte) error {
		seq = decodeSeq(val)
		return nil
	})
	return seq, err
}

func readItem(tx *badger.Txn, seq uint64) (model.Item, error) {
	entry, err := tx.Get(makeItemKey(seq))
	if err != nil {
		return model.Item{}, fmt.Errorf("read item %d: %w", seq, err)
	}
	var item model.Item
	err = entry.Value(func(val []byte) error {
		item, err = decodeItem(val)
		return err
	})
	return item, err
}

func encodeItem(item model.Item) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(item); err != nil {
		return nil, fmt.Errorf("failed to gob encode item %s: %w", item.ID, err)
	}
	return buf.Bytes(), nil
}

func decodeItem(val []byte) (model.Item, error) {
	var item model.Item
	if err := gob.NewDecoder(bytes.NewReader(val)).Decode(&item); err != nil {
		return model.Item{}, fmt.Errorf("failed to gob decode item: %w", err)
	}
	return item, nil
}

// wrap leaves domain errors and context errors alone and reports anything else
// as the store being unavailable.
func wrap(operation string, err error) error {
	if err == nil {
		return nil
	}
	if stderrors.Is(err, errors.ErrRecordNotFound) ||
		stderrors.Is(err, errors.ErrRecordExists) ||
		stderrors.Is(err, context.Canceled) ||
		stderrors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return errors.NewStoreUnavailableError(operation, err)
}
