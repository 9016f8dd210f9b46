package memory

import (
	"context"
	"sync"
	"time"

	"live-quiz-service/internal/domain"
)

// Directory is an in-memory connection directory. Entries expire
// passively: reads past ExpiresAt behave as not found.
type Directory struct {
	ttl     time.Duration
	clock   func() time.Time
	mu      sync.RWMutex
	entries map[string]domain.DirectoryEntry
}

func NewDirectory(ttl time.Duration) *Directory {
	return &Directory{
		ttl:     ttl,
		clock:   time.Now,
		entries: make(map[string]domain.DirectoryEntry),
	}
}

func (d *Directory) Bind(_ context.Context, connectionID, userID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	entry := d.liveLocked(connectionID)
	entry.UserID = userID
	entry.ExpiresAt = d.clock().Add(d.ttl)
	d.entries[connectionID] = entry
	return nil
}

func (d *Directory) JoinSession(_ context.Context, connectionID, quizID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	entry := d.liveLocked(connectionID)
	entry.Quizzes = appendUnique(entry.Quizzes, quizID)
	entry.ExpiresAt = d.clock().Add(d.ttl)
	d.entries[connectionID] = entry
	return nil
}

func (d *Directory) HostSession(_ context.Context, connectionID, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	entry := d.liveLocked(connectionID)
	entry.HostOf = appendUnique(entry.HostOf, key)
	entry.ExpiresAt = d.clock().Add(d.ttl)
	d.entries[connectionID] = entry
	return nil
}

func (d *Directory) Get(_ context.Context, connectionID string) (domain.DirectoryEntry, bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	entry, ok := d.entries[connectionID]
	if !ok || d.clock().After(entry.ExpiresAt) {
		return domain.DirectoryEntry{}, false, nil
	}
	return entry, true, nil
}

func (d *Directory) Delete(_ context.Context, connectionID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.entries, connectionID)
	return nil
}

func (d *Directory) liveLocked(connectionID string) domain.DirectoryEntry {
	entry, ok := d.entries[connectionID]
	if !ok || d.clock().After(entry.ExpiresAt) {
		return domain.DirectoryEntry{ConnectionID: connectionID}
	}
	return entry
}

func appendUnique(list []string, value string) []string {
	for _, v := range list {
		if v == value {
			return list
		}
	}
	return append(list, value)
}
