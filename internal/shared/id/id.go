// Package id provides centralized token generation for the window
// server.
//
// Screen-unit tokens, organizer event ids, and request ids are prefixed
// ULIDs: lexicographically sortable, unique across the process, and
// readable in logs (unit_*, evt_*, req_*). Task groups and displays use
// small numeric ids allocated by the window manager itself and are not
// covered here.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// UnitToken identifies a screen unit for the lifetime of the process.
type UnitToken string

// EventID identifies one organizer event.
type EventID string

// RequestID identifies an API request.
type RequestID string

const (
	UnitPrefix    = "unit"
	EventPrefix   = "evt"
	RequestPrefix = "req"
)

// Generator generates ULIDs with optional prefixes.
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex // Protects entropy reader
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance.
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a generator backed by crypto/rand entropy.
func NewGenerator() *Generator {
	return &Generator{entropy: rand.Reader}
}

// NewGeneratorWithEntropy creates a generator with a custom entropy
// source, useful for deterministic tests.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{entropy: entropy}
}

// Generate creates a new ULID.
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateString creates a new ULID as a string.
func (g *Generator) GenerateString() string {
	return g.Generate().String()
}

// GenerateWithPrefix creates a prefixed ULID string.
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.GenerateString())
}

// NewUnitToken generates a token for a newly created screen unit.
func NewUnitToken() UnitToken {
	return UnitToken(Default().GenerateWithPrefix(UnitPrefix))
}

// NewEventID generates an id for an organizer event.
func NewEventID() EventID {
	return EventID(Default().GenerateWithPrefix(EventPrefix))
}

// NewRequestID generates an id for an API request.
func NewRequestID() RequestID {
	return RequestID(Default().GenerateWithPrefix(RequestPrefix))
}

func (t UnitToken) String() string { return string(t) }
func (e EventID) String() string   { return string(e) }
func (r RequestID) String() string { return string(r) }

// IsValid checks whether a string is a valid bare ULID.
func IsValid(s string) bool {
	_, err := ulid.Parse(s)
	return err == nil
}

// Timestamp extracts the embedded timestamp from a bare ULID string.
func Timestamp(s string) (time.Time, error) {
	parsed, err := ulid.Parse(s)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
