// Package records implements the record lifecycle: submission, lookup and removal.
package records

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gcbaptista/go-lostfound/model"
	"github.com/gcbaptista/go-lostfound/store"
)

// Observer is told about every record the service stores or removes.
// *engine.Engine satisfies it.
type Observer interface {
	RecordAdded(item model.Item)
	RecordRemoved(item model.Item)
}

// Service creates and removes records, keeping observers informed.
// It fulfills the services.RecordService interface.
type Service struct {
	store     store.Store
	observers []Observer
	newID     func() string
	now       func() time.Time
	logger    *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithObserver registers an observer.
func WithObserver(o Observer) Option {
	return func(s *Service) {
		if o != nil {
			s.observers = append(s.observers, o)
		}
	}
}

// WithIDGenerator replaces the default UUIDv4 generator.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// WithClock replaces time.Now, used to default the record date.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService creates a record service on top of st.
func NewService(st store.Store, opts ...Option) (*Service, error) {
	if st == nil {
		return nil, fmt.Errorf("record store cannot be nil")
	}
	s := &Service{
		store:  st,
		newID:  uuid.NewString,
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Create normalizes the submitted type, validates the submission, assigns it an id (and today's date when none
// was given), stores it and notifies observers.
func (s *Service) Create(ctx context.Context, in model.NewItem) (model.Item, error) {
	in.Type = model.ItemType(strings.ToLower(strings.TrimSpace(string(in.Type))))
	if in.Date == "" {
		in.Date = s.now().UTC().Format(model.DateLayout)
	}
	if err := in.Validate(); err != nil {
		return model.Item{}, err
	}

	item := in.ToItem(s.newID())
	if err := item.Validate(); err != nil {
		return model.Item{}, err
	}
	if err := s.store.Add(ctx, item); err != nil {
		return model.Item{}, err
	}

	for _, o := range s.observers {
		o.RecordAdded(item)
	}
	s.logger.Info("record created", zap.String("id", item.ID), zap.String("type", string(item.Type)))
	return item, nil
}

// Delete removes a record and notifies observers.
func (s *Service) Delete(ctx context.Context, id string) error {
	item, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	for _, o := range s.observers {
		o.RecordRemoved(item)
	}
	s.logger.Info("record deleted", zap.String("id", id), zap.String("type", string(item.Type)))
	return nil
}

// Get fetches one record.
func (s *Service) Get(ctx context.Context, id string) (model.Item, error) {
	return s.store.Get(ctx, id)
}

// List returns the records passing filter, in insertion order.
func (s *Service) List(ctx context.Context, filter store.Filter) ([]model.Item, error) {
	return s.store.GetRecords(ctx, filter)
}
