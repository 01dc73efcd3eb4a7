package domain

import "errors"

// ErrEmptySequence is returned when a sequence has no symbols.
var ErrEmptySequence = errors.New("sequence is empty")

// ErrEmptySymbol is returned when a sequence contains a blank symbol.
var ErrEmptySymbol = errors.New("sequence contains an empty symbol")

// ErrInvalidName is returned when a definition name is empty or unsafe.
var ErrInvalidName = errors.New("invalid sequence name")

// ErrMissingOnMatch is returned when a listener is built without a match callback.
var ErrMissingOnMatch = errors.New("match callback is required")

// ErrSequenceNotFound is returned when a named sequence cannot be found in the store.
var ErrSequenceNotFound = errors.New("sequence not found")

// ErrSessionNotFound is returned when a session ID cannot be found.
var ErrSessionNotFound = errors.New("session not found")

// ErrSessionExists is returned when creating a session whose ID is taken.
var ErrSessionExists = errors.New("session already exists")

// ErrReservedPrefix is returned by the recorder when a recorded sequence
// starts like a reserved one.
var ErrReservedPrefix = errors.New("sequence starts with a reserved key")

// ErrSourceUnavailable is returned by input adapters when the host has no
// such device (no terminal, no evdev, unsupported platform).
var ErrSourceUnavailable = errors.New("input source unavailable")
