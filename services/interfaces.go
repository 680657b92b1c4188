package services

import (
	"context"

	"github.com/gcbaptista/go-lostfound/internal/notify"
	"github.com/gcbaptista/go-lostfound/model"
	"github.com/gcbaptista/go-lostfound/store"
)

// Matcher ranks records of the opposite type by textual similarity
type Matcher interface {
	FindMatches(ctx context.Context, item model.Item, topK int) (*model.MatchSet, error)
	Dashboard(ctx context.Context, itemType model.ItemType, topK int) ([]*model.MatchSet, error)
	StrategyName() string
}

// RecordReader defines read access to stored records
type RecordReader interface {
	Get(ctx context.Context, id string) (model.Item, error)
	List(ctx context.Context, filter store.Filter) ([]model.Item, error)
}

// RecordService manages the lifecycle of lost and found records
type RecordService interface {
	RecordReader
	Create(ctx context.Context, in model.NewItem) (model.Item, error)
	Delete(ctx context.Context, id string) error
}

// Notifier tells the owner of a matched record about a possible match
type Notifier interface {
	Notify(ctx context.Context, source model.Item, match model.MatchResult) (notify.Message, error)
}
