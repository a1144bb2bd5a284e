package sqlstore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/smartwork/assistant/internal/models"
	"github.com/smartwork/assistant/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("SW_TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("SW_TEST_MYSQL_DSN not set")
	}
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	t.Cleanup(func() {
		for _, table := range []string{"history", "user_settings", "features", "users", "uploads"} {
			db.Exec("DELETE FROM " + table)
		}
	})
	return New(db)
}

func TestNoteOwnershipAndComments(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	note := &models.Note{Base: models.Base{UserID: "u1"}, Category: "dev", Content: "배포 회의", Labels: models.StringArray{"회의"}}
	id, err := s.CreateNote(ctx, note)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	_, err = s.GetNote(ctx, "u2", id)
	assert.ErrorIs(t, err, store.ErrNotFound)

	byLabel, err := s.ListNotes(ctx, store.NoteQuery{UserID: "u1", Label: "회의"})
	require.NoError(t, err)
	assert.Len(t, byLabel, 1)

	wild := &models.Note{Base: models.Base{UserID: "u1"}, Category: "dev", Content: "v2 정리", Labels: models.StringArray{"apiXv2"}}
	_, err = s.CreateNote(ctx, wild)
	require.NoError(t, err)
	byLabel, err = s.ListNotes(ctx, store.NoteQuery{UserID: "u1", Label: "api_v2"})
	require.NoError(t, err)
	assert.Empty(t, byLabel)

	c := models.NewComment("u1", "follow up", time.Now())
	require.NoError(t, s.AddComment(ctx, "u1", id, c))
	assert.ErrorIs(t, s.DeleteComment(ctx, "u1", id, "nope"), store.ErrNotFound)

	got, err := s.GetNote(ctx, "u1", id)
	require.NoError(t, err)
	require.Len(t, got.Comments, 1)
	assert.Equal(t, c.ID, got.Comments[0].ID)

	require.NoError(t, s.DeleteNote(ctx, "u1", id))
	assert.ErrorIs(t, s.DeleteNote(ctx, "u1", id), store.ErrNotFound)
}

func TestUpsertNotesByLegacyID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	in := []models.Note{{LegacyID: "1700000000000", Content: "v1"}}
	_, err := s.UpsertNotes(ctx, "u1", in)
	require.NoError(t, err)
	in[0].Content = "v2"
	_, err = s.UpsertNotes(ctx, "u1", in)
	require.NoError(t, err)

	got, err := s.GetNote(ctx, "u1", "1700000000000")
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Content)

	stats, err := s.UserStats(ctx, "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.Notes)
}

func TestSettingsUpsertAndReassign(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutUserSettings(ctx, "u1", models.CategoryKeywords{"dev": {"React"}}))
	require.NoError(t, s.PutUserSettings(ctx, "u1", models.CategoryKeywords{"dev": {"Go"}}))

	moved, err := s.ReassignSettings(ctx, "u1", "u2")
	require.NoError(t, err)
	assert.True(t, moved)

	st, err := s.GetUserSettings(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, []string{"Go"}, st.SubMenus["dev"])

	st, err = s.GetUserSettings(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, st.SubMenus)
}
