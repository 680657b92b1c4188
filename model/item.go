package model

import (
	"strings"

	"github.com/gcbaptista/go-lostfound/internal/errors"
)

// ItemType tells whether a report describes something lost or something found.
type ItemType string

const (
	ItemTypeLost  ItemType = "lost"
	ItemTypeFound ItemType = "found"
)

// DateLayout is the calendar-date layout used for Item.Date.
const DateLayout = "2006-01-02"

// Valid reports whether t is one of the two known item types.
func (t ItemType) Valid() bool {
	return t == ItemTypeLost || t == ItemTypeFound
}

// Opposite returns the type a record of type t is matched against.
// Lost items are matched against found ones and vice versa.
func (t ItemType) Opposite() ItemType {
	if t == ItemTypeLost {
		return ItemTypeFound
	}
	return ItemTypeLost
}

// ParseItemType converts user input into an ItemType.
func ParseItemType(s string) (ItemType, error) {
	t := ItemType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", errors.NewInvalidRecordError("", "unknown item type '"+s+"' (must be 'lost' or 'found')")
	}
	return t, nil
}

// Item is a single lost or found report as persisted by the record store.
// Name, Description and Place are optional; a nil field is treated as empty text.
type Item struct {
	ID          string   `json:"id" db:"id" validate:"required"`
	Type        ItemType `json:"type" db:"type" validate:"required,oneof=lost found"`
	Name        *string  `json:"name,omitempty" db:"name" validate:"omitempty,max=200"`
	Description *string  `json:"description,omitempty" db:"description" validate:"omitempty,max=4000"`
	Place       *string  `json:"place,omitempty" db:"place" validate:"omitempty,max=200"`
	Date        string   `json:"date,omitempty" db:"date" validate:"omitempty,datetime=2006-01-02"`
	Contact     string   `json:"contact,omitempty" db:"contact" validate:"max=200"`
	ImageRef    string   `json:"image_ref,omitempty" db:"image_ref" validate:"max=1024"`
}

// NewItem is the payload used to submit a new report. The ID is generated
// by the record service and Date defaults to the submission day.
type NewItem struct {
	Type        ItemType `json:"type" validate:"required,oneof=lost found"`
	Name        *string  `json:"name,omitempty" validate:"omitempty,max=200"`
	Description *string  `json:"description,omitempty" validate:"omitempty,max=4000"`
	Place       *string  `json:"place,omitempty" validate:"omitempty,max=200"`
	Date        string   `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Contact     string   `json:"contact,omitempty" validate:"max=200"`
	ImageRef    string   `json:"image_ref,omitempty" validate:"max=1024"`
}

// ToItem builds the persisted record for the given identifier.
func (n NewItem) ToItem(id string) Item {
	return Item{
		ID:          id,
		Type:        n.Type,
		Name:        n.Name,
		Description: n.Description,
		Place:       n.Place,
		Date:        n.Date,
		Contact:     n.Contact,
		ImageRef:    n.ImageRef,
	}
}

// NameText returns the name or "" when absent.
func (i Item) NameText() string {
	return deref(i.Name)
}

// DescriptionText returns the description or "" when absent.
func (i Item) DescriptionText() string {
	return deref(i.Description)
}

// PlaceText returns the place or "" when absent.
func (i Item) PlaceText() string {
	return deref(i.Place)
}

// MatchText is the text the matcher scores: name, description and place joined by single spaces.
func (i Item) MatchText() string {
	return i.NameText() + " " + i.DescriptionText() + " " + i.PlaceText()
}

// Str returns a pointer to s, handy for building items in code and tests.
func Str(s string) *string {
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
