// Package sqlstore is the MySQL Store built on GORM. Comments live in a JSON
// column on the note row, so comment edits lock the row for the duration of
// the read-modify-write.
package sqlstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mysqlDriver "github.com/go-sql-driver/mysql"
	"github.com/smartwork/assistant/internal/models"
	"github.com/smartwork/assistant/internal/store"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Store struct {
	db  *gorm.DB
	now func() time.Time
}

var _ store.Store = (*Store)(nil)

// New wraps an open connection. Call Migrate first on a fresh database.
func New(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Migrate creates or updates every table the store writes.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Note{},
		&models.UserSettings{},
		&models.FeatureItem{},
		&models.User{},
		&models.Upload{},
	)
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.ErrNotFound
	}
	return err
}

// duplicate maps MySQL's duplicate-key error (1062) to store.ErrConflict.
func duplicate(err error) error {
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
		return fmt.Errorf("%w: %s", store.ErrConflict, mysqlErr.Message)
	}
	return err
}

// owned scopes a query to one record by canonical or legacy id.
func owned(userID, id string) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Where("user_id = ? AND (id = ? OR legacy_id = ?)", userID, id, id)
	}
}

// hasLabel matches notes whose labels array holds label exactly.
func hasLabel(label string) func(*gorm.DB) *gorm.DB {
	quoted, _ := json.Marshal(label)
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Where("JSON_VALID(labels) AND JSON_CONTAINS(labels, ?)", string(quoted))
	}
}

func forUpdate(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

func (s *Store) ListRecentNotes(ctx context.Context, userID string, limit int) ([]models.Note, error) {
	return s.ListNotes(ctx, store.NoteQuery{UserID: userID, Limit: limit})
}

func (s *Store) ListNotes(ctx context.Context, q store.NoteQuery) ([]models.Note, error) {
	tx := s.db.WithContext(ctx).Where("user_id = ?", q.UserID)
	if q.Status != "" {
		tx = tx.Where("status = ?", string(q.Status))
	}
	if q.Category != "" {
		tx = tx.Where("category = ?", q.Category)
	}
	if q.SubTag != "" {
		tx = tx.Where("sub_tag = ?", q.SubTag)
	}
	if q.Label != "" {
		tx = tx.Scopes(hasLabel(q.Label))
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	notes := make([]models.Note, 0)
	if err := tx.Order("created_at DESC").Find(&notes).Error; err != nil {
		return nil, err
	}
	for i := range notes {
		notes[i].Normalize()
	}
	return notes, nil
}

func (s *Store) GetNote(ctx context.Context, userID, id string) (*models.Note, error) {
	var n models.Note
	if err := s.db.WithContext(ctx).Scopes(owned(userID, id)).First(&n).Error; err != nil {
		return nil, notFound(err)
	}
	n.Normalize()
	return &n, nil
}

func (s *Store) CreateNote(ctx context.Context, note *models.Note) (string, error) {
	if note.CreatedAt.IsZero() {
		note.Touch(s.now())
	}
	note.Normalize()
	if err := s.db.WithContext(ctx).Create(note).Error; err != nil {
		return "", duplicate(err)
	}
	return note.ID, nil
}

// mutateNote runs fn against the locked row and saves the result.
func (s *Store) mutateNote(ctx context.Context, userID, id string, fn func(*models.Note) error) (*models.Note, error) {
	var out models.Note
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n models.Note
		if err := forUpdate(tx).Scopes(owned(userID, id)).First(&n).Error; err != nil {
			return notFound(err)
		}
		n.Normalize()
		if err := fn(&n); err != nil {
			return err
		}
		if err := tx.Save(&n).Error; err != nil {
			return err
		}
		out = n
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) UpdateNote(ctx context.Context, userID, id string, patch models.NotePatch) (*models.Note, error) {
	return s.mutateNote(ctx, userID, id, func(n *models.Note) error {
		patch.Apply(n, s.now())
		return nil
	})
}

func (s *Store) DeleteNote(ctx context.Context, userID, id string) error {
	res := s.db.WithContext(ctx).Scopes(owned(userID, id)).Delete(&models.Note{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) AddComment(ctx context.Context, userID, noteID string, comment models.Comment) error {
	_, err := s.mutateNote(ctx, userID, noteID, func(n *models.Note) error {
		n.Comments = append(n.Comments, comment)
		return nil
	})
	return err
}

func (s *Store) UpdateComment(ctx context.Context, userID, noteID, commentID, content string, at time.Time) error {
	_, err := s.mutateNote(ctx, userID, noteID, func(n *models.Note) error {
		i := n.FindComment(commentID)
		if i < 0 {
			return store.ErrNotFound
		}
		n.Comments[i].Content = content
		n.Comments[i].UpdatedAt = &at
		return nil
	})
	return err
}

func (s *Store) DeleteComment(ctx context.Context, userID, noteID, commentID string) error {
	_, err := s.mutateNote(ctx, userID, noteID, func(n *models.Note) error {
		i := n.FindComment(commentID)
		if i < 0 {
			return store.ErrNotFound
		}
		n.Comments = append(n.Comments[:i], n.Comments[i+1:]...)
		return nil
	})
	return err
}

func (s *Store) UpsertNotes(ctx context.Context, userID string, notes []models.Note) (int, error) {
	written := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, n := range notes {
			n.UserID = userID
			if n.CreatedAt.IsZero() {
				n.Touch(s.now())
			}
			n.Normalize()
			if n.LegacyID != "" {
				var existing models.Note
				err := tx.Where("user_id = ? AND legacy_id = ?", userID, n.LegacyID).First(&existing).Error
				switch {
				case err == nil:
					n.ID = existing.ID
				case !errors.Is(err, gorm.ErrRecordNotFound):
					return err
				}
			}
			if err := tx.Save(&n).Error; err != nil {
				return err
			}
			written++
		}
		return nil
	})
	return written, err
}

func (s *Store) ReassignNotes(ctx context.Context, fromUserID, toUserID string) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Note{}).Where("user_id = ?", fromUserID).Update("user_id", toUserID)
	return res.RowsAffected, res.Error
}
