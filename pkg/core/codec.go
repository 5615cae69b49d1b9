package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// noteRecord is the persisted shape of a Note. It keeps the flat
// reminder/reminderTime/notified fields of the stored array.
type noteRecord struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Content      string     `json:"content"`
	Category     Category   `json:"category"`
	CreatedAt    time.Time  `json:"createdAt"`
	Reminder     bool       `json:"reminder"`
	ReminderTime *time.Time `json:"reminderTime,omitempty"`
	Notified     bool       `json:"notified,omitempty"`
}

func toRecord(n Note) noteRecord {
	rec := noteRecord{
		ID:        n.ID,
		Title:     n.Title,
		Content:   n.Content,
		Category:  n.Category,
		CreatedAt: n.CreatedAt,
	}
	if at, ok := n.Reminder.Time(); ok {
		rec.Reminder = true
		rec.ReminderTime = &at
		rec.Notified = n.Reminder.Fired()
	}
	return rec
}

func (rec noteRecord) toNote() (Note, error) {
	if rec.ID == "" {
		return Note{}, fmt.Errorf("note without id")
	}
	if !rec.Category.Valid() {
		return Note{}, fmt.Errorf("note %s: unknown category %q", rec.ID, rec.Category)
	}

	n := Note{
		ID:        rec.ID,
		Title:     rec.Title,
		Content:   rec.Content,
		Category:  rec.Category,
		CreatedAt: rec.CreatedAt,
	}

	switch {
	case rec.Reminder && rec.ReminderTime == nil:
		return Note{}, fmt.Errorf("note %s: reminder set without reminderTime", rec.ID)
	case !rec.Reminder && rec.ReminderTime != nil:
		return Note{}, fmt.Errorf("note %s: reminderTime set without reminder", rec.ID)
	case !rec.Reminder && rec.Notified:
		return Note{}, fmt.Errorf("note %s: notified without reminder", rec.ID)
	case rec.Reminder && rec.Notified:
		n.Reminder = RemindAt(*rec.ReminderTime).fire()
	case rec.Reminder:
		n.Reminder = RemindAt(*rec.ReminderTime)
	}
	return n, nil
}

// EncodeNotes serializes notes, in order, to the persisted JSON array.
func EncodeNotes(notes []Note) ([]byte, error) {
	recs := make([]noteRecord, 0, len(notes))
	for _, n := range notes {
		recs = append(recs, toRecord(n))
	}
	return json.Marshal(recs)
}

// DecodeNotes parses the persisted JSON array.
// Empty input decodes to an empty collection. Any structural problem,
// including duplicate ids, is reported as ErrCorruptState.
func DecodeNotes(data []byte) ([]Note, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var recs []noteRecord
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptState, err)
	}

	notes := make([]Note, 0, len(recs))
	seen := make(map[string]struct{}, len(recs))
	for _, rec := range recs {
		n, err := rec.toNote()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorruptState, err)
		}
		if _, dup := seen[n.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %s", ErrCorruptState, n.ID)
		}
		seen[n.ID] = struct{}{}
		notes = append(notes, n)
	}
	return notes, nil
}
