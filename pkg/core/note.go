package core

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Category classifies a note. The set of categories is closed.
type Category string

const (
	CategoryPersonal Category = "personal"
	CategoryWork     Category = "work"
	CategoryIdeas    Category = "ideas"
	CategoryTodos    Category = "todos"

	// CategoryAll is a filter sentinel matching every category. It is never stored.
	CategoryAll Category = "all"
)

var categories = []Category{CategoryPersonal, CategoryWork, CategoryIdeas, CategoryTodos}

// Categories returns the storable categories in display order.
func Categories() []Category {
	return slices.Clone(categories)
}

// Valid reports whether c is a storable category.
func (c Category) Valid() bool {
	return slices.Contains(categories, c)
}

// ParseCategory normalizes user input into a Category.
// An empty string yields CategoryPersonal.
func ParseCategory(s string) (Category, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return CategoryPersonal, nil
	}
	c := Category(s)
	if c == CategoryAll || c.Valid() {
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
}

// ReminderState is the lifecycle position of a note's reminder.
type ReminderState int

const (
	// ReminderUnarmed means the note carries no reminder.
	ReminderUnarmed ReminderState = iota
	// ReminderArmed means the reminder is waiting for its time to come.
	ReminderArmed
	// ReminderFired is terminal: the reminder was delivered (or attempted).
	ReminderFired
)

func (s ReminderState) String() string {
	switch s {
	case ReminderUnarmed:
		return "unarmed"
	case ReminderArmed:
		return "armed"
	case ReminderFired:
		return "fired"
	default:
		return fmt.Sprintf("ReminderState(%d)", int(s))
	}
}

// Reminder is the tagged variant {Unarmed, Armed(at), Fired(at)}.
// The zero value is Unarmed. Fields are unexported so a fired reminder
// without a time, or a time without a reminder, cannot be built.
type Reminder struct {
	state ReminderState
	at    time.Time
}

// RemindAt returns an Armed reminder for t.
func RemindAt(t time.Time) Reminder {
	return Reminder{state: ReminderArmed, at: t}
}

// State returns the reminder's lifecycle state.
func (r Reminder) State() ReminderState { return r.state }

// Armed reports whether the reminder is still waiting to fire.
func (r Reminder) Armed() bool { return r.state == ReminderArmed }

// Fired reports whether the reminder already fired.
func (r Reminder) Fired() bool { return r.state == ReminderFired }

// Time returns the reminder time; ok is false for an Unarmed reminder.
func (r Reminder) Time() (t time.Time, ok bool) {
	if r.state == ReminderUnarmed {
		return time.Time{}, false
	}
	return r.at, true
}

// fire moves an Armed reminder to Fired. Other states are returned as is.
func (r Reminder) fire() Reminder {
	if r.state != ReminderArmed {
		return r
	}
	return Reminder{state: ReminderFired, at: r.at}
}

// Note is the central entity of the domain.
type Note struct {
	ID        string
	Title     string
	Content   string
	Category  Category
	CreatedAt time.Time
	Reminder  Reminder
}

// Draft is an unvalidated note payload given to Store.AddNote.
// ReminderTime is only read when Reminder is true.
type Draft struct {
	Title        string
	Content      string
	Category     Category
	Reminder     bool
	ReminderTime time.Time
}

// validate checks the draft and returns the normalized category and reminder.
func (d Draft) validate() (Category, Reminder, error) {
	if strings.TrimSpace(d.Title) == "" {
		return "", Reminder{}, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if strings.TrimSpace(d.Content) == "" {
		return "", Reminder{}, fmt.Errorf("%w: content is required", ErrValidation)
	}

	category := d.Category
	if category == "" {
		category = CategoryPersonal
	}
	if !category.Valid() {
		return "", Reminder{}, fmt.Errorf("%w: %q", ErrInvalidCategory, string(d.Category))
	}

	var r Reminder
	if d.Reminder {
		if d.ReminderTime.IsZero() {
			return "", Reminder{}, fmt.Errorf("%w: reminder time is required when reminder is set", ErrValidation)
		}
		r = RemindAt(d.ReminderTime)
	}
	return category, r, nil
}
