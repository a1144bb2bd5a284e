// Package dedup flags note text that repeats something the user wrote
// recently.
package dedup

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/smartwork/assistant/internal/models"
	"github.com/smartwork/assistant/internal/pkg/apperr"
	"github.com/smartwork/assistant/internal/store"
)

// MinContainerLen is the length a text must exceed before containment counts.
const MinContainerLen = 20

var whitespaceRun = regexp.MustCompile(`\s+`)

// Normalize trims, collapses whitespace runs to one space and lowercases.
func Normalize(s string) string {
	return strings.ToLower(whitespaceRun.ReplaceAllString(strings.TrimSpace(s), " "))
}

// Rule selects which side of a containment match carries the length
// threshold.
type Rule int

const (
	// ContainerRule requires the stored note to be longer than
	// MinContainerLen; containment then counts in either direction. Short
	// fragments such as "hi" match any long note that contains them, and a
	// short stored note never matches longer new text.
	ContainerRule Rule = iota
	// FragmentRule requires the contained text itself to be longer than
	// MinContainerLen.
	FragmentRule
)

// Matches reports whether two normalized texts are near-duplicates under r.
func (r Rule) Matches(normNew, normOld string) bool {
	if normNew == "" || normOld == "" {
		return false
	}
	if normNew == normOld {
		return true
	}
	newLen := utf8.RuneCountInString(normNew)
	oldLen := utf8.RuneCountInString(normOld)
	if r == FragmentRule {
		if newLen > MinContainerLen && strings.Contains(normOld, normNew) {
			return true
		}
		return oldLen > MinContainerLen && strings.Contains(normNew, normOld)
	}
	if oldLen <= MinContainerLen {
		return false
	}
	return strings.Contains(normOld, normNew) || strings.Contains(normNew, normOld)
}

// RecentLister is the slice of the store the guard reads.
type RecentLister interface {
	ListRecentNotes(ctx context.Context, userID string, limit int) ([]models.Note, error)
}

// Guard checks candidate text against a user's most recent notes.
type Guard struct {
	notes  RecentLister
	window int
	rule   Rule
}

// Option configures a Guard.
type Option func(*Guard)

// WithWindow overrides how many recent notes are compared.
func WithWindow(n int) Option {
	return func(g *Guard) {
		if n > 0 {
			g.window = n
		}
	}
}

// WithRule overrides the containment rule.
func WithRule(r Rule) Option {
	return func(g *Guard) { g.rule = r }
}

func NewGuard(notes RecentLister, opts ...Option) *Guard {
	g := &Guard{notes: notes, window: store.RecentWindow, rule: ContainerRule}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Check returns every recent note of userID that near-duplicates content,
// most recent first. Empty candidates never match and skip the store.
func (g *Guard) Check(ctx context.Context, userID, content string) ([]models.Note, error) {
	candidate := Normalize(content)
	if candidate == "" {
		return []models.Note{}, nil
	}
	recent, err := g.notes.ListRecentNotes(ctx, userID, g.window)
	if err != nil {
		return nil, apperr.Upstream(err)
	}
	matches := make([]models.Note, 0)
	for _, n := range recent {
		if n.UserID != "" && n.UserID != userID {
			continue
		}
		if g.rule.Matches(candidate, Normalize(n.Content)) {
			matches = append(matches, n)
		}
	}
	return matches, nil
}
