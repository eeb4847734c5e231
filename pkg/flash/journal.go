package flash

import (
	"time"

	"github.com/segmentio/ksuid"
)

// JournalEntry records one erase or program issued to a device
type JournalEntry struct {
	ID      string    `json:"id"`
	Op      Op        `json:"op"`
	Address uint32    `json:"address"`
	Value   uint32    `json:"value,omitempty"`
	OK      bool      `json:"ok"`
	Error   string    `json:"error,omitempty"`
	At      time.Time `json:"at"`
}

// Journaler is implemented by devices that keep an operation journal
type Journaler interface {
	// Journal returns up to limit of the most recent entries, oldest first.
	// A limit of 0 returns everything.
	Journal(limit int) ([]JournalEntry, error)
}

// idSource hands out KSUIDs that sort in issue order, also within one second
type idSource struct {
	seq *ksuid.Sequence
}

func (s *idSource) next() ksuid.KSUID {
	if s.seq != nil {
		if id, err := s.seq.Next(); err == nil {
			return id
		}
	}
	s.seq = &ksuid.Sequence{Seed: ksuid.New()}
	id, _ := s.seq.Next()
	return id
}

func (s *idSource) entry(op Op, addr, value uint32, err error) JournalEntry {
	e := JournalEntry{
		ID:      s.next().String(),
		Op:      op,
		Address: addr,
		Value:   value,
		OK:      err == nil,
		At:      time.Now().UTC(),
	}
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

func tail(entries []JournalEntry, limit int) []JournalEntry {
	if limit > 0 && len(entries) > limit {
		return entries[len(entries)-limit:]
	}
	return entries
}
