// Package notify composes and dispatches "possible match" notices.
package notify

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/gcbaptista/go-lostfound/internal/errors"
	"github.com/gcbaptista/go-lostfound/model"
)

// Channel is the delivery medium of a message.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

const minPhoneDigits = 7

// ErrDisabled is returned by Notifier.Notify when notifications are switched off.
var ErrDisabled = stderrors.New("notifications disabled")

// Message is a composed notice, ready for a Dispatcher.
type Message struct {
	Channel Channel `json:"channel"`
	To      string  `json:"to"`
	Subject string  `json:"subject,omitempty"`
	Body    string  `json:"body"`
}

// Dispatcher delivers messages.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg Message) error
}

// ChannelFor picks a channel for a contact string: anything with an @ is an
// email address, a phone-like string with at least seven digits is an SMS
// number. Anything else yields ErrNoContact.
func ChannelFor(contact string) (Channel, error) {
	contact = strings.TrimSpace(contact)
	switch {
	case contact == "":
		return "", errors.ErrNoContact
	case strings.Contains(contact, "@"):
		return ChannelEmail, nil
	case isPhone(contact):
		return ChannelSMS, nil
	default:
		return "", errors.ErrNoContact
	}
}

func isPhone(s string) bool {
	digits := 0
	for i, r := range s {
		switch {
		case unicode.IsDigit(r):
			digits++
		case r == '+' && i == 0:
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
		default:
			return false
		}
	}
	return digits >= minPhoneDigits
}

// Compose builds the notice telling the owner of match that source may be their item.
func Compose(source model.Item, match model.MatchResult) (Message, error) {
	if match.Score < 0 || match.Score > 1 {
		return Message{}, errors.NewValidationError("score", fmt.Sprintf("must be within [0, 1], got %v", match.Score))
	}
	channel, err := ChannelFor(match.Contact)
	if err != nil {
		return Message{}, fmt.Errorf("match %s: %w", match.ID, err)
	}

	msg := Message{Channel: channel, To: strings.TrimSpace(match.Contact)}
	switch channel {
	case ChannelEmail:
		msg.Subject = fmt.Sprintf("Possible match for your %s item: %s", match.Type, match.NameText())
		msg.Body = fmt.Sprintf("We found a possible match: %s at %s | Contact: %s\nSimilarity: %.2f",
			source.NameText(), source.PlaceText(), source.Contact, match.Score)
	case ChannelSMS:
		msg.Body = fmt.Sprintf("Possible match: %s at %s", source.NameText(), source.PlaceText())
	}
	return msg, nil
}

// LogDispatcher writes messages to the log instead of sending them.
type LogDispatcher struct {
	logger *zap.Logger
}

// NewLogDispatcher creates a dispatcher logging through logger.
func NewLogDispatcher(logger *zap.Logger) *LogDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogDispatcher{logger: logger}
}

// Dispatch implements Dispatcher.
func (d *LogDispatcher) Dispatch(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.logger.Info("notification dispatched",
		zap.String("channel", string(msg.Channel)),
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Body),
	)
	return nil
}

// Notifier composes and dispatches notices. It fulfills services.Notifier.
type Notifier struct {
	dispatcher Dispatcher
	enabled    bool
}

// NewNotifier creates a notifier. A disabled notifier still composes messages
// but refuses to dispatch them.
func NewNotifier(dispatcher Dispatcher, enabled bool) *Notifier {
	return &Notifier{dispatcher: dispatcher, enabled: enabled}
}

// Notify composes the notice for match and dispatches it.
func (n *Notifier) Notify(ctx context.Context, source model.Item, match model.MatchResult) (Message, error) {
	msg, err := Compose(source, match)
	if err != nil {
		return Message{}, err
	}
	if !n.enabled || n.dispatcher == nil {
		return msg, ErrDisabled
	}
	if err := n.dispatcher.Dispatch(ctx, msg); err != nil {
		return msg, fmt.Errorf("dispatch %s to %s: %w", msg.Channel, msg.To, err)
	}
	return msg, nil
}
