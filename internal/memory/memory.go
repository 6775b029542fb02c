package memory

import (
	"strings"
	"sync"
	"time"

	"github.com/sandevgo/coinbot/internal/core"
)

// DefaultMaxTurns bounds a session's history unless configured
// otherwise.
const DefaultMaxTurns = 10

// pronouns that refer back to the last mentioned coin. Matched as
// lower-case substrings of the query.
var pronouns = []string{"it", "its", "this", "that", "the coin", "the token", "same"}

// Memory is the bounded per-session conversation history plus the
// last-mentioned-entity tracker. All methods are safe for concurrent
// use; same-session callers are serialized by the internal lock.
type Memory struct {
	mu           sync.Mutex
	maxTurns     int
	turns        []core.Turn
	lastEntity   string
	lastEntityAt time.Time
}

func New(maxTurns int) *Memory {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &Memory{maxTurns: maxTurns}
}

// AddTurn appends a turn, evicting the oldest one at capacity. A
// non-empty entity overwrites lastEntity regardless of role; an empty
// one leaves it untouched, which is what keeps pronoun resolution
// working across entity-less turns.
func (m *Memory) AddTurn(role, content, entity string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	turn := core.Turn{
		Role:      role,
		Content:   content,
		Entity:    entity,
		Timestamp: time.Now(),
	}

	if len(m.turns) >= m.maxTurns {
		m.turns = m.turns[1:]
	}
	m.turns = append(m.turns, turn)

	if entity != "" {
		m.lastEntity = entity
		m.lastEntityAt = turn.Timestamp
	}
}

// History returns the last n turns in chronological order; n <= 0
// returns everything. The returned slice is a copy.
func (m *Memory) History(n int) []core.Turn {
	m.mu.Lock()
	defer m.mu.Unlock()

	start := 0
	if n > 0 && n < len(m.turns) {
		start = len(m.turns) - n
	}
	out := make([]core.Turn, len(m.turns)-start)
	copy(out, m.turns[start:])
	return out
}

// LastEntity returns the last mentioned symbol, if any.
func (m *Memory) LastEntity() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastEntity, m.lastEntity != ""
}

// ResolvePronoun returns the last mentioned symbol when the query
// contains a back-reference pronoun and a last entity exists.
func (m *Memory) ResolvePronoun(query string) (string, bool) {
	lower := strings.ToLower(query)

	hasPronoun := false
	for _, p := range pronouns {
		if strings.Contains(lower, p) {
			hasPronoun = true
			break
		}
	}
	if !hasPronoun {
		return "", false
	}
	return m.LastEntity()
}

// Clear empties the history and resets the entity tracker.
func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = nil
	m.lastEntity = ""
	m.lastEntityAt = time.Time{}
}
