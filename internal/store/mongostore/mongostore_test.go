package mongostore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/smartwork/assistant/internal/models"
	"github.com/smartwork/assistant/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestIDFilter(t *testing.T) {
	f := idFilter("u1", "legacy-1")
	assert.Equal(t, "u1", f["userId"])
	assert.Len(t, f["$or"], 1)

	oid := primitive.NewObjectID()
	f = idFilter("u1", oid.Hex())
	or := f["$or"].(bson.A)
	require.Len(t, or, 2)
	assert.Equal(t, bson.M{"_id": oid}, or[1])
}

func TestNoteDocLegacyID(t *testing.T) {
	oid := primitive.NewObjectID()
	d := noteDoc{OID: oid, ID: "1700000000000", UserID: "u1", Content: "x"}
	n := d.model()
	assert.Equal(t, "1700000000000", n.ID)
	assert.Equal(t, "1700000000000", n.LegacyID)
	assert.Equal(t, models.StatusPending, n.Status)

	d = noteDoc{OID: oid, UserID: "u1"}
	n = d.model()
	assert.Equal(t, oid.Hex(), n.ID)
	assert.Empty(t, n.LegacyID)
}

func TestFlexTimeDecodesFirestoreTimestamps(t *testing.T) {
	raw, err := bson.Marshal(bson.M{
		"userId":    "u1",
		"content":   "imported",
		"createdAt": bson.M{"seconds": int64(1700000000), "nanoseconds": int64(0)},
		"updatedAt": "2024-01-02T03:04:05Z",
	})
	require.NoError(t, err)

	var d noteDoc
	require.NoError(t, bson.Unmarshal(raw, &d))
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), d.CreatedAt.Time)
	assert.Equal(t, 2024, d.UpdatedAt.Year())
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	uri := os.Getenv("SW_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("SW_TEST_MONGO_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	s, err := Connect(ctx, uri, "sw_test_"+primitive.NewObjectID().Hex())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.db.Drop(context.Background())
		_ = s.Close(context.Background())
	})
	return s
}

func TestNoteLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	note := &models.Note{Base: models.Base{UserID: "u1"}, Category: "dev", Content: "React API 이슈"}
	note.Normalize()
	id, err := s.CreateNote(ctx, note)
	require.NoError(t, err)

	_, err = s.GetNote(ctx, "u2", id)
	assert.ErrorIs(t, err, store.ErrNotFound)

	done := models.StatusCompleted
	got, err := s.UpdateNote(ctx, "u1", id, models.NotePatch{Status: &done})
	require.NoError(t, err)
	assert.NotNil(t, got.CompletedAt)

	c := models.NewComment("u1", "first", time.Now())
	require.NoError(t, s.AddComment(ctx, "u1", id, c))
	require.NoError(t, s.UpdateComment(ctx, "u1", id, c.ID, "edited", time.Now()))
	assert.ErrorIs(t, s.UpdateComment(ctx, "u1", id, "missing", "x", time.Now()), store.ErrNotFound)

	loaded, err := s.GetNote(ctx, "u1", id)
	require.NoError(t, err)
	require.Len(t, loaded.Comments, 1)
	assert.Equal(t, "edited", loaded.Comments[0].Content)

	require.NoError(t, s.DeleteComment(ctx, "u1", id, c.ID))
	require.NoError(t, s.DeleteNote(ctx, "u1", id))
	assert.ErrorIs(t, s.DeleteNote(ctx, "u1", id), store.ErrNotFound)
}

func TestUpsertNotesByLegacyID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	in := []models.Note{{LegacyID: "1700000000000", Content: "v1"}}
	n, err := s.UpsertNotes(ctx, "u1", in)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	in[0].Content = "v2"
	_, err = s.UpsertNotes(ctx, "u1", in)
	require.NoError(t, err)

	notes, err := s.ListRecentNotes(ctx, "u1", store.RecentWindow)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "v2", notes[0].Content)
	assert.Equal(t, "1700000000000", notes[0].ID)
}

func TestSettingsAndUsers(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	st, err := s.GetUserSettings(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, st.SubMenus)

	require.NoError(t, s.PutUserSettings(ctx, "u1", models.CategoryKeywords{"dev": {"React"}}))
	moved, err := s.ReassignSettings(ctx, "u1", "u2")
	require.NoError(t, err)
	assert.True(t, moved)
	st, err = s.GetUserSettings(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, []string{"React"}, st.SubMenus["dev"])

	u := &models.User{ID: "g-1", Email: "a@example.com", GoogleToken: "sealed"}
	require.NoError(t, s.UpsertUser(ctx, u))
	u2 := &models.User{ID: "g-1", Email: "a@example.com", Name: "A"}
	require.NoError(t, s.UpsertUser(ctx, u2))
	assert.Equal(t, "sealed", u2.GoogleToken)
	assert.Equal(t, "A", u2.Name)
}
