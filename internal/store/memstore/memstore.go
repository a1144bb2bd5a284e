// Package memstore is an in-process Store used by tests and by the
// "memory" database driver.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/smartwork/assistant/internal/models"
	"github.com/smartwork/assistant/internal/store"
)

type noteEntry struct {
	seq  int64
	note models.Note
}

// Store keeps every record in maps guarded by one RWMutex.
type Store struct {
	mu       sync.RWMutex
	seq      int64
	now      func() time.Time
	notes    map[string]*noteEntry
	settings map[string]models.UserSettings
	features map[string]*models.FeatureItem
	featSeq  map[string]int64
	users    map[string]models.User
	uploads  map[string]models.Upload
}

var _ store.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		now:      time.Now,
		notes:    make(map[string]*noteEntry),
		settings: make(map[string]models.UserSettings),
		features: make(map[string]*models.FeatureItem),
		featSeq:  make(map[string]int64),
		users:    make(map[string]models.User),
		uploads:  make(map[string]models.Upload),
	}
}

// WithClock replaces the time source.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) Ping(ctx context.Context) error  { return nil }
func (s *Store) Close(ctx context.Context) error { return nil }

func cloneNote(n models.Note) models.Note {
	out := n
	out.Labels = append(models.StringArray{}, n.Labels...)
	out.AttachmentURLs = append(models.StringArray{}, n.AttachmentURLs...)
	out.Comments = append([]models.Comment{}, n.Comments...)
	if n.SubTag != nil {
		v := *n.SubTag
		out.SubTag = &v
	}
	if n.CompletedAt != nil {
		v := *n.CompletedAt
		out.CompletedAt = &v
	}
	return out
}

// sortedNotes returns the user's notes newest first; ties fall back to
// insertion order.
func (s *Store) sortedNotes(userID string) []*noteEntry {
	out := make([]*noteEntry, 0)
	for _, e := range s.notes {
		if e.note.UserID == userID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].note.CreatedAt, out[j].note.CreatedAt
		if !a.Equal(b) {
			return a.After(b)
		}
		return out[i].seq > out[j].seq
	})
	return out
}

func (s *Store) ListRecentNotes(ctx context.Context, userID string, limit int) ([]models.Note, error) {
	return s.ListNotes(ctx, store.NoteQuery{UserID: userID, Limit: limit})
}

func (s *Store) ListNotes(ctx context.Context, q store.NoteQuery) ([]models.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Note, 0)
	for _, e := range s.sortedNotes(q.UserID) {
		n := e.note
		if q.Status != "" && n.Status != q.Status {
			continue
		}
		if q.Category != "" && n.Category != q.Category {
			continue
		}
		if q.Label != "" && !n.Labels.Contains(q.Label) {
			continue
		}
		if q.SubTag != "" && (n.SubTag == nil || *n.SubTag != q.SubTag) {
			continue
		}
		out = append(out, cloneNote(n))
		if q.Limit > 0 && len(out) >= q.Limit {
			break
		}
	}
	return out, nil
}

// lookup resolves a note by canonical or legacy id, scoped to the owner.
func (s *Store) lookup(userID, id string) *noteEntry {
	if e, ok := s.notes[id]; ok && e.note.UserID == userID {
		return e
	}
	for _, e := range s.notes {
		if e.note.LegacyID != "" && e.note.LegacyID == id && e.note.UserID == userID {
			return e
		}
	}
	return nil
}

func (s *Store) GetNote(ctx context.Context, userID, id string) (*models.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e := s.lookup(userID, id)
	if e == nil {
		return nil, store.ErrNotFound
	}
	n := cloneNote(e.note)
	return &n, nil
}

func (s *Store) CreateNote(ctx context.Context, note *models.Note) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if note.ID == "" {
		note.ID = models.NewID()
	}
	if note.CreatedAt.IsZero() {
		note.Touch(s.now())
	}
	s.seq++
	s.notes[note.ID] = &noteEntry{seq: s.seq, note: cloneNote(*note)}
	return note.ID, nil
}

func (s *Store) UpdateNote(ctx context.Context, userID, id string, patch models.NotePatch) (*models.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.lookup(userID, id)
	if e == nil {
		return nil, store.ErrNotFound
	}
	patch.Apply(&e.note, s.now())
	n := cloneNote(e.note)
	return &n, nil
}

func (s *Store) DeleteNote(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.lookup(userID, id)
	if e == nil {
		return store.ErrNotFound
	}
	delete(s.notes, e.note.ID)
	return nil
}

func (s *Store) AddComment(ctx context.Context, userID, noteID string, comment models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.lookup(userID, noteID)
	if e == nil {
		return store.ErrNotFound
	}
	e.note.Comments = append(e.note.Comments, comment)
	return nil
}

func (s *Store) UpdateComment(ctx context.Context, userID, noteID, commentID, content string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.lookup(userID, noteID)
	if e == nil {
		return store.ErrNotFound
	}
	i := e.note.FindComment(commentID)
	if i < 0 {
		return store.ErrNotFound
	}
	e.note.Comments[i].Content = content
	e.note.Comments[i].UpdatedAt = &at
	return nil
}

func (s *Store) DeleteComment(ctx context.Context, userID, noteID, commentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.lookup(userID, noteID)
	if e == nil {
		return store.ErrNotFound
	}
	i := e.note.FindComment(commentID)
	if i < 0 {
		return store.ErrNotFound
	}
	e.note.Comments = append(e.note.Comments[:i], e.note.Comments[i+1:]...)
	return nil
}

func (s *Store) UpsertNotes(ctx context.Context, userID string, notes []models.Note) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	written := 0
	for _, n := range notes {
		n.UserID = userID
		if n.CreatedAt.IsZero() {
			n.Touch(s.now())
		}
		if n.LegacyID != "" {
			if e := s.lookup(userID, n.LegacyID); e != nil {
				n.ID = e.note.ID
				e.note = cloneNote(n)
				written++
				continue
			}
		}
		if n.ID == "" {
			n.ID = models.NewID()
		}
		s.seq++
		s.notes[n.ID] = &noteEntry{seq: s.seq, note: cloneNote(n)}
		written++
	}
	return written, nil
}

func (s *Store) ReassignNotes(ctx context.Context, fromUserID, toUserID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, e := range s.notes {
		if e.note.UserID == fromUserID {
			e.note.UserID = toUserID
			n++
		}
	}
	return n, nil
}
