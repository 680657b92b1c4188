// Package testing provides fixtures and shared test suites for the lost & found service.
package testing

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/go-lostfound/internal/errors"
	"github.com/gcbaptista/go-lostfound/model"
	"github.com/gcbaptista/go-lostfound/store"
)

// NewTestItem builds a record with the given text fields. Empty strings become nil fields.
func NewTestItem(id string, itemType model.ItemType, name, description, place string) model.Item {
	item := model.Item{
		ID:      id,
		Type:    itemType,
		Date:    "2024-05-01",
		Contact: id + "@example.com",
	}
	if name != "" {
		item.Name = model.Str(name)
	}
	if description != "" {
		item.Description = model.Str(description)
	}
	if place != "" {
		item.Place = model.Str(place)
	}
	return item
}

// FoundFixtures is a small found-item corpus used across packages.
func FoundFixtures() []model.Item {
	return []model.Item{
		NewTestItem("found-wallet", model.ItemTypeFound, "Black wallet", "", "Library"),
		NewTestItem("found-umbrella-blue", model.ItemTypeFound, "Blue umbrella", "left near the entrance", "Cafeteria"),
		NewTestItem("found-keys", model.ItemTypeFound, "Keys", "ring with three keys", "Gym"),
		NewTestItem("found-umbrella-red", model.ItemTypeFound, "Red umbrella", "", "Parking lot"),
	}
}

// LostFixtures is a small lost-item corpus used across packages.
func LostFixtures() []model.Item {
	return []model.Item{
		NewTestItem("lost-wallet", model.ItemTypeLost, "Black wallet", "", "Library"),
		NewTestItem("lost-umbrella", model.ItemTypeLost, "Umbrella", "", ""),
		NewTestItem("lost-phone", model.ItemTypeLost, "Phone", "cracked screen", "Bus stop"),
	}
}

// SeedStore adds items to s in order.
func SeedStore(t *testing.T, s store.Store, items ...model.Item) {
	t.Helper()
	for _, item := range items {
		require.NoError(t, s.Add(context.Background(), item), "Failed to seed %s", item.ID)
	}
}

// IDs returns the ids of items in order.
func IDs(items []model.Item) []string {
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	return ids
}

// RunStoreSuite checks the behaviour every store.Store implementation shares.
// newStore must return an empty store; it is called once per subtest.
func RunStoreSuite(t *testing.T, newStore func(t *testing.T) store.Store) {
	ctx := context.Background()

	t.Run("insertion order", func(t *testing.T) {
		s := newStore(t)
		found := FoundFixtures()
		lost := LostFixtures()
		// interleave types to make sure filtering keeps the global order
		SeedStore(t, s, found[0], lost[0], found[1], lost[1], found[2], found[3])

		all, err := s.GetRecords(ctx, store.Filter{})
		require.NoError(t, err)
		assert.Equal(t, []string{found[0].ID, lost[0].ID, found[1].ID, lost[1].ID, found[2].ID, found[3].ID}, IDs(all))

		got, err := s.GetRecords(ctx, store.Filter{Type: model.ItemTypeFound})
		require.NoError(t, err)
		assert.Equal(t, IDs(found), IDs(got))

		got, err = s.GetRecords(ctx, store.Filter{Type: model.ItemTypeLost})
		require.NoError(t, err)
		assert.Equal(t, []string{lost[0].ID, lost[1].ID}, IDs(got))
	})

	t.Run("round trip keeps nil fields", func(t *testing.T) {
		s := newStore(t)
		item := NewTestItem("only-name", model.ItemTypeLost, "Scarf", "", "")
		item.ImageRef = "uploads/scarf.png"
		SeedStore(t, s, item)

		got, err := s.Get(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, item, got)
		assert.Nil(t, got.Description)
		assert.Nil(t, got.Place)
	})

	t.Run("search filter", func(t *testing.T) {
		s := newStore(t)
		SeedStore(t, s, FoundFixtures()...)

		got, err := s.GetRecords(ctx, store.Filter{Type: model.ItemTypeFound, Search: "UMBRELLA"})
		require.NoError(t, err)
		assert.Equal(t, []string{"found-umbrella-blue", "found-umbrella-red"}, IDs(got))

		got, err = s.GetRecords(ctx, store.Filter{Search: "cafeteria"})
		require.NoError(t, err)
		assert.Equal(t, []string{"found-umbrella-blue"}, IDs(got))

		got, err = s.GetRecords(ctx, store.Filter{Search: "nothing like this"})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("duplicate id rejected", func(t *testing.T) {
		s := newStore(t)
		item := FoundFixtures()[0]
		SeedStore(t, s, item)

		err := s.Add(ctx, item)
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrRecordExists)
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)
		SeedStore(t, s, FoundFixtures()...)

		require.NoError(t, s.Delete(ctx, "found-umbrella-blue"))
		_, err := s.Get(ctx, "found-umbrella-blue")
		assert.ErrorIs(t, err, errors.ErrRecordNotFound)

		got, err := s.GetRecords(ctx, store.Filter{Type: model.ItemTypeFound})
		require.NoError(t, err)
		assert.Equal(t, []string{"found-wallet", "found-keys", "found-umbrella-red"}, IDs(got))

		err = s.Delete(ctx, "found-umbrella-blue")
		assert.ErrorIs(t, err, errors.ErrRecordNotFound)

		// re-adding a deleted id appends it at the end
		SeedStore(t, s, FoundFixtures()[1])
		got, err = s.GetRecords(ctx, store.Filter{Type: model.ItemTypeFound})
		require.NoError(t, err)
		assert.Equal(t, []string{"found-wallet", "found-keys", "found-umbrella-red", "found-umbrella-blue"}, IDs(got))
	})

	t.Run("unknown id", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(ctx, "missing")
		assert.ErrorIs(t, err, errors.ErrRecordNotFound)
	})

	t.Run("many records", func(t *testing.T) {
		s := newStore(t)
		want := make([]string, 0, 300)
		for i := 0; i < 300; i++ {
			item := NewTestItem(fmt.Sprintf("item-%03d", i), model.ItemTypeFound, "thing", "", "")
			SeedStore(t, s, item)
			want = append(want, item.ID)
		}
		got, err := s.GetRecords(ctx, store.Filter{Type: model.ItemTypeFound})
		require.NoError(t, err)
		assert.Equal(t, want, IDs(got))
	})
}
