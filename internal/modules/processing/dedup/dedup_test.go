package dedup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/smartwork/assistant/internal/models"
	"github.com/smartwork/assistant/internal/pkg/apperr"
	"github.com/smartwork/assistant/internal/store/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, s *memstore.Store, userID string, contents ...string) {
	t.Helper()
	base := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	for i, c := range contents {
		n := &models.Note{Content: c, Category: "work"}
		n.UserID = userID
		n.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		n.Normalize()
		_, err := s.CreateNote(context.Background(), n)
		require.NoError(t, err)
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "hello world", Normalize("  Hello \t\n  WORLD  "))
	assert.Equal(t, "", Normalize(" \n\t "))
	assert.Equal(t, "회의 준비", Normalize("회의   준비"))
}

func TestExactMatchAfterNormalization(t *testing.T) {
	s := memstore.New()
	seed(t, s, "u1", "Deploy the  API server")
	g := NewGuard(s)

	got, err := g.Check(context.Background(), "u1", "  deploy THE api   server ")
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestContainmentOfFragmentInLongNote(t *testing.T) {
	s := memstore.New()
	seed(t, s, "u1", "This is a fairly long meeting note about Q3 planning")
	g := NewGuard(s)

	got, err := g.Check(context.Background(), "u1", "meeting note about Q3")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestShortFragmentInsideLongNoteMatches(t *testing.T) {
	s := memstore.New()
	seed(t, s, "u1", "hi there, how are you doing today friend")
	g := NewGuard(s)

	got, err := g.Check(context.Background(), "u1", "hi")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestFragmentRuleRequiresLongFragment(t *testing.T) {
	s := memstore.New()
	seed(t, s, "u1", "hi there, how are you doing today friend")
	g := NewGuard(s, WithRule(FragmentRule))

	got, err := g.Check(context.Background(), "u1", "hi")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = g.Check(context.Background(), "u1", "how are you doing today")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestNewTextContainingLongOldNote(t *testing.T) {
	s := memstore.New()
	seed(t, s, "u1", "weekly report for the platform team")
	g := NewGuard(s)

	got, err := g.Check(context.Background(), "u1", "Reminder: weekly report for the platform team is due")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestShortOldNoteDoesNotSwallowNewText(t *testing.T) {
	s := memstore.New()
	seed(t, s, "u1", "bug")
	g := NewGuard(s)

	got, err := g.Check(context.Background(), "u1", "short bug")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = g.Check(context.Background(), "u1", "investigating the login bug reported by QA today")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRuleMatches(t *testing.T) {
	long := "weekly report for the platform team"
	cases := []struct {
		rule     Rule
		new, old string
		want     bool
	}{
		{ContainerRule, "hi", "hi there, how are you doing today friend", true},
		{ContainerRule, "reminder: " + long + " is due", long, true},
		{ContainerRule, "investigating the login bug reported by qa today", "bug", false},
		{ContainerRule, "bug", "bug", true},
		{FragmentRule, "hi", "hi there, how are you doing today friend", false},
		{FragmentRule, "reminder: " + long + " is due", long, true},
		{FragmentRule, "investigating the login bug reported by qa today", "bug", false},
		{ContainerRule, "", long, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.rule.Matches(tc.new, tc.old), "%q vs %q", tc.new, tc.old)
	}
}

func TestNoMatchAcrossUsers(t *testing.T) {
	s := memstore.New()
	seed(t, s, "alice", "Quarterly budget review with finance")
	g := NewGuard(s)

	got, err := g.Check(context.Background(), "bob", "Quarterly budget review with finance")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEmptyCandidateNeverMatches(t *testing.T) {
	s := memstore.New()
	seed(t, s, "u1", "   ", "anything at all that is long enough")
	g := NewGuard(s)

	for _, in := range []string{"", "   ", "\n\t"} {
		got, err := g.Check(context.Background(), "u1", in)
		require.NoError(t, err)
		assert.Empty(t, got)
	}
}

func TestAllMatchesReturnedMostRecentFirst(t *testing.T) {
	s := memstore.New()
	seed(t, s, "u1", "fix login bug", "unrelated", "Fix   login bug")
	g := NewGuard(s)

	got, err := g.Check(context.Background(), "u1", "fix login bug")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Fix   login bug", got[0].Content)
	assert.Equal(t, "fix login bug", got[1].Content)
}

func TestWindowLimitsComparedNotes(t *testing.T) {
	s := memstore.New()
	contents := []string{"the oldest note, written long ago"}
	for i := 0; i < 50; i++ {
		contents = append(contents, "filler")
	}
	seed(t, s, "u1", contents...)

	got, err := NewGuard(s).Check(context.Background(), "u1", "the oldest note, written long ago")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = NewGuard(s, WithWindow(51)).Check(context.Background(), "u1", "the oldest note, written long ago")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

type failingLister struct{}

func (failingLister) ListRecentNotes(ctx context.Context, userID string, limit int) ([]models.Note, error) {
	return nil, errors.New("store unavailable")
}

func TestStoreErrorPropagates(t *testing.T) {
	_, err := NewGuard(failingLister{}).Check(context.Background(), "u1", "text")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrUpstream)
	assert.Equal(t, "store unavailable", err.Error())
}
