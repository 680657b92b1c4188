package notify

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/gcbaptista/go-lostfound/internal/errors"
	"github.com/gcbaptista/go-lostfound/model"
)

func TestChannelFor(t *testing.T) {
	tests := []struct {
		contact string
		want    Channel
		wantErr bool
	}{
		{"owner@example.com", ChannelEmail, false},
		{"  owner@example.com ", ChannelEmail, false},
		{"+1 555-123-4567", ChannelSMS, false},
		{"(020) 7946 0958", ChannelSMS, false},
		{"5551234", ChannelSMS, false},
		{"555-12", "", true},
		{"call me maybe", "", true},
		{"", "", true},
		{"12+34567890", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.contact, func(t *testing.T) {
			got, err := ChannelFor(tt.contact)
			if tt.wantErr {
				assert.ErrorIs(t, err, errors.ErrNoContact)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func sourceAndMatch(contact string, score float64) (model.Item, model.MatchResult) {
	source := model.Item{
		ID:      "f1",
		Type:    model.ItemTypeFound,
		Name:    model.Str("Black wallet"),
		Place:   model.Str("Library"),
		Contact: "desk@example.com",
	}
	match := model.MatchResult{
		Item:  model.Item{ID: "l1", Type: model.ItemTypeLost, Name: model.Str("My wallet"), Contact: contact},
		Score: score,
	}
	return source, match
}

func TestCompose_Email(t *testing.T) {
	source, match := sourceAndMatch("owner@example.com", 0.873)
	msg, err := Compose(source, match)
	require.NoError(t, err)

	assert.Equal(t, ChannelEmail, msg.Channel)
	assert.Equal(t, "owner@example.com", msg.To)
	assert.Equal(t, "Possible match for your lost item: My wallet", msg.Subject)
	assert.Equal(t, "We found a possible match: Black wallet at Library | Contact: desk@example.com\nSimilarity: 0.87", msg.Body)
}

func TestCompose_SMS(t *testing.T) {
	source, match := sourceAndMatch("+44 7700 900123", 0.5)
	msg, err := Compose(source, match)
	require.NoError(t, err)

	assert.Equal(t, ChannelSMS, msg.Channel)
	assert.Empty(t, msg.Subject)
	assert.Equal(t, "Possible match: Black wallet at Library", msg.Body)
}

func TestCompose_Errors(t *testing.T) {
	source, match := sourceAndMatch("", 0.5)
	_, err := Compose(source, match)
	assert.ErrorIs(t, err, errors.ErrNoContact)

	for _, score := range []float64{-0.1, 1.01} {
		source, match = sourceAndMatch("owner@example.com", score)
		_, err = Compose(source, match)
		assert.ErrorIs(t, err, errors.ErrInvalidInput)
	}
}

func TestNotifier(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	n := NewNotifier(NewLogDispatcher(zap.New(core)), true)

	source, match := sourceAndMatch("owner@example.com", 0.9)
	msg, err := n.Notify(context.Background(), source, match)
	require.NoError(t, err)
	assert.Equal(t, ChannelEmail, msg.Channel)

	entries := logs.FilterMessage("notification dispatched").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "owner@example.com", entries[0].ContextMap()["to"])
}

type failingDispatcher struct{}

func (failingDispatcher) Dispatch(context.Context, Message) error { return stderrors.New("gateway down") }

func TestNotifier_DisabledAndFailing(t *testing.T) {
	source, match := sourceAndMatch("owner@example.com", 0.9)

	msg, err := NewNotifier(NewLogDispatcher(nil), false).Notify(context.Background(), source, match)
	assert.ErrorIs(t, err, ErrDisabled)
	assert.Equal(t, "owner@example.com", msg.To, "message is still composed")

	_, err = NewNotifier(failingDispatcher{}, true).Notify(context.Background(), source, match)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gateway down")
}
