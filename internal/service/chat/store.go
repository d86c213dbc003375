package chat

import (
	"log"
	"sync"
	"time"

	"github.com/linguabridge/backend/internal/model/chat"
)

// WelcomeText seeds the store so the UI never renders an empty transcript.
const WelcomeText = "Welcome! Pick your language in settings to see live translations."

// Store is the append-only, arrival-ordered record sequence rendered by the
// UI. Records are never reordered, deduplicated, mutated or removed; the
// store lives for the process lifetime and is not persisted.
type Store struct {
	mu      sync.RWMutex
	records []chat.Message
	subs    map[int]chan chat.Message
	nextSub int
}

// NewStore bootstraps the in-memory store with the welcome record.
func NewStore() *Store {
	s := &Store{
		records: make([]chat.Message, 0, 64),
		subs:    make(map[int]chan chat.Message),
	}
	s.records = append(s.records, chat.SystemMessage("system-1", WelcomeText, time.Now()))
	return s
}

// Append adds a record at the tail and fans it out to subscribers. Slow
// subscribers miss records rather than stall the normalization path; the
// store itself stays complete and a consumer can re-sync from Snapshot.
func (s *Store) Append(msg chat.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, msg)
	for id, ch := range s.subs {
		select {
		case ch <- msg:
		default:
			log.Printf("[store] subscriber %d lagging, dropping record %s", id, msg.ID)
		}
	}
}

// Snapshot returns a copy of the current sequence in arrival order.
func (s *Store) Snapshot() []chat.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	copied := make([]chat.Message, len(s.records))
	copy(copied, s.records)
	return copied
}

// Len reports the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Subscribe registers a listener for records appended after this call.
// The returned cancel func must be invoked when the consumer goes away.
func (s *Store) Subscribe() (<-chan chat.Message, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan chat.Message, 16)
	s.subs[id] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}
