package core

import "errors"

// Common errors.
var (
	// ErrValidation rejects a draft with empty title or content. No state is mutated.
	ErrValidation = errors.New("invalid note")
	// ErrInvalidCategory rejects a category outside the closed set.
	ErrInvalidCategory = errors.New("invalid category")
	// ErrCorruptState reports persisted data that could not be decoded.
	// The store recovers with an empty collection.
	ErrCorruptState = errors.New("corrupt persisted state")
	// ErrDelivery reports a notification sink failure. The scheduler absorbs it.
	ErrDelivery = errors.New("notification delivery failed")
	// ErrIO reports a failed backend write. The in-memory change is rolled back.
	ErrIO = errors.New("storage i/o failed")
	// ErrNoState is returned by a Backend that has never been written.
	ErrNoState = errors.New("no persisted state")
)
