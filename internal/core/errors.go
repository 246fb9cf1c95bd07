package core

import "errors"

var (
	// Capture engine errors
	ErrNotSetup       = errors.New("sniffd: capture engine not set up")
	ErrSourceRequired = errors.New("sniffd: capture source required")

	// Capture file errors
	ErrBadMagic      = errors.New("sniffd: invalid capture file magic")
	ErrShortHeader   = errors.New("sniffd: capture file header too short")
	ErrCorruptRecord = errors.New("sniffd: corrupt capture record")
	ErrWriterClosed  = errors.New("sniffd: capture writer closed")

	// Rotator errors
	ErrRotatorClosed = errors.New("sniffd: rotator closed")

	// Analysis errors
	ErrModuleExists   = errors.New("sniffd: module already registered")
	ErrModuleNotFound = errors.New("sniffd: module not found")
	ErrQueueFull      = errors.New("sniffd: analysis queue full")

	// Configuration errors
	ErrConfigInvalid = errors.New("sniffd: invalid configuration")
)
