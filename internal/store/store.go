// Package store defines the persistence contract for notes, settings,
// inventory items, users and uploads. Every user-scoped lookup filters by
// owner: a record that belongs to someone else is reported as ErrNotFound.
package store

import (
	"context"
	"time"

	"github.com/smartwork/assistant/internal/models"
	"github.com/smartwork/assistant/internal/pkg/apperr"
)

// ErrNotFound is returned when no record matches the id and owner.
var ErrNotFound = apperr.ErrNotFound

// ErrConflict is returned when an insert collides with an existing id.
var ErrConflict = apperr.ErrConflict

// RecentWindow is how many of a user's latest notes the duplicate check reads.
const RecentWindow = 50

// NoteQuery filters ListNotes. Empty fields do not filter.
type NoteQuery struct {
	UserID   string
	Status   models.NoteStatus
	Category string
	Label    string
	SubTag   string
	Limit    int
}

// NoteStore persists notes and their comments.
type NoteStore interface {
	// ListRecentNotes returns up to limit notes, most recently created first.
	ListRecentNotes(ctx context.Context, userID string, limit int) ([]models.Note, error)
	ListNotes(ctx context.Context, q NoteQuery) ([]models.Note, error)
	GetNote(ctx context.Context, userID, id string) (*models.Note, error)
	CreateNote(ctx context.Context, note *models.Note) (string, error)
	UpdateNote(ctx context.Context, userID, id string, patch models.NotePatch) (*models.Note, error)
	DeleteNote(ctx context.Context, userID, id string) error

	AddComment(ctx context.Context, userID, noteID string, comment models.Comment) error
	UpdateComment(ctx context.Context, userID, noteID, commentID, content string, at time.Time) error
	DeleteComment(ctx context.Context, userID, noteID, commentID string) error

	// UpsertNotes writes imported notes keyed by LegacyID and returns how many
	// were written.
	UpsertNotes(ctx context.Context, userID string, notes []models.Note) (int, error)
	ReassignNotes(ctx context.Context, fromUserID, toUserID string) (int64, error)
}

// SettingsStore persists per-user keyword configuration.
type SettingsStore interface {
	// GetUserSettings never reports ErrNotFound; a user without settings gets
	// an empty configuration.
	GetUserSettings(ctx context.Context, userID string) (*models.UserSettings, error)
	PutUserSettings(ctx context.Context, userID string, subMenus models.CategoryKeywords) error
	ReassignSettings(ctx context.Context, fromUserID, toUserID string) (bool, error)
	ListSettings(ctx context.Context) ([]models.UserSettings, error)
}

// FeatureStore persists inventory items.
type FeatureStore interface {
	ListFeatures(ctx context.Context, userID string) ([]models.FeatureItem, error)
	CreateFeature(ctx context.Context, item *models.FeatureItem) (string, error)
	UpdateFeature(ctx context.Context, userID, id string, apply func(*models.FeatureItem)) (*models.FeatureItem, error)
	DeleteFeature(ctx context.Context, userID, id string) error
	UpsertFeatures(ctx context.Context, userID string, items []models.FeatureItem) (int, error)
	ReassignFeatures(ctx context.Context, fromUserID, toUserID string) (int64, error)
}

// UserStore persists accounts.
type UserStore interface {
	UpsertUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	SaveGoogleToken(ctx context.Context, userID, sealed string) error
	UserStats(ctx context.Context, userID string) (models.UserStats, error)
}

// UploadStore persists attachment metadata.
type UploadStore interface {
	CreateUpload(ctx context.Context, upload *models.Upload) error
	GetUpload(ctx context.Context, id string) (*models.Upload, error)
}

// Store is the full persistence surface.
type Store interface {
	NoteStore
	SettingsStore
	FeatureStore
	UserStore
	UploadStore

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
