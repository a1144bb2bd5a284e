package history

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/smartwork/assistant/internal/models"
	"github.com/smartwork/assistant/internal/modules/processing/classify"
	"github.com/smartwork/assistant/internal/modules/processing/dedup"
	"github.com/smartwork/assistant/internal/pkg/apperr"
	"github.com/smartwork/assistant/internal/store"
	"go.uber.org/zap"
)

// Service runs the note ingestion flow: duplicate check, classification
// against a settings snapshot, then persistence.
type Service struct {
	store store.Store
	guard *dedup.Guard
	log   *zap.Logger
	now   func() time.Time
}

func NewService(st store.Store, guard *dedup.Guard, log *zap.Logger) *Service {
	if guard == nil {
		guard = dedup.NewGuard(st)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: st, guard: guard, log: log, now: time.Now}
}

func (s *Service) List(ctx context.Context, q store.NoteQuery) ([]models.Note, error) {
	if q.Status == "all" {
		q.Status = ""
	}
	notes, err := s.store.ListNotes(ctx, q)
	if err != nil {
		return nil, apperr.Upstream(err)
	}
	return notes, nil
}

func (s *Service) CheckDuplicate(ctx context.Context, userID, content string) ([]models.Note, error) {
	return s.guard.Check(ctx, userID, content)
}

// Classify derives labels and the sub tag for content under category using
// the user's current settings.
func (s *Service) Classify(ctx context.Context, userID string, dto ClassifyDTO) (classify.Result, error) {
	settings, err := s.store.GetUserSettings(ctx, userID)
	if err != nil {
		return classify.Result{}, apperr.Upstream(err)
	}
	return classify.Classify(classify.ForSettings(settings, dto.MenuID, dto.Content, dto.Summary, dto.Labels)), nil
}

// Create persists a new note. With checkDuplicate set and no confirmation, a
// near-duplicate returns a *DuplicateError and nothing is written.
func (s *Service) Create(ctx context.Context, userID string, dto CreateNoteDTO, checkDuplicate bool) (*models.Note, error) {
	if strings.TrimSpace(dto.Content) == "" {
		return nil, apperr.Validation("content is required")
	}
	if checkDuplicate && !dto.Confirm {
		dups, err := s.guard.Check(ctx, userID, dto.Content)
		if err != nil {
			return nil, err
		}
		if len(dups) > 0 {
			return nil, &DuplicateError{Duplicates: dups}
		}
	}

	result, err := s.Classify(ctx, userID, ClassifyDTO{
		MenuID: dto.MenuID, Content: dto.Content, Summary: dto.Summary, Labels: dto.Labels,
	})
	if err != nil {
		return nil, err
	}

	note := &models.Note{
		Base:            models.Base{UserID: userID},
		Category:        dto.MenuID,
		CategoryName:    dto.MenuName,
		Content:         dto.Content,
		Summary:         dto.Summary,
		Labels:          result.Labels,
		SubTag:          result.SubTag,
		Status:          models.NoteStatus(dto.Status),
		Priority:        models.Priority(dto.Priority),
		AttachmentURLs:  models.StringArray(dto.Images),
		CalendarEventID: dto.CalendarEventID,
	}
	note.Normalize()
	now := s.now()
	note.Touch(now)
	if note.Status == models.StatusCompleted {
		note.CompletedAt = &now
	}

	if _, err := s.store.CreateNote(ctx, note); err != nil {
		s.log.Error("create note failed", zap.String("user", userID), zap.Error(err))
		return nil, apperr.Upstream(err)
	}
	return note, nil
}

// Update applies a partial edit. Labels are not re-derived.
func (s *Service) Update(ctx context.Context, userID, id string, patch models.NotePatch) (*models.Note, error) {
	note, err := s.store.UpdateNote(ctx, userID, id, patch)
	if err != nil {
		return nil, wrap(err)
	}
	return note, nil
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	return wrap(s.store.DeleteNote(ctx, userID, id))
}

// AdvanceStatus moves a note to the next status in the cycle.
func (s *Service) AdvanceStatus(ctx context.Context, userID, id string) (*models.Note, error) {
	note, err := s.store.GetNote(ctx, userID, id)
	if err != nil {
		return nil, wrap(err)
	}
	next := note.Status.Next()
	return s.Update(ctx, userID, id, models.NotePatch{Status: &next})
}

func (s *Service) TogglePriority(ctx context.Context, userID, id string) (*models.Note, error) {
	note, err := s.store.GetNote(ctx, userID, id)
	if err != nil {
		return nil, wrap(err)
	}
	next := note.Priority.Toggle()
	return s.Update(ctx, userID, id, models.NotePatch{Priority: &next})
}

func (s *Service) AddComment(ctx context.Context, userID, noteID, content string) (*models.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperr.Validation("content is required")
	}
	c := models.NewComment(userID, content, s.now())
	if err := s.store.AddComment(ctx, userID, noteID, c); err != nil {
		return nil, wrap(err)
	}
	return &c, nil
}

func (s *Service) UpdateComment(ctx context.Context, userID, noteID string, dto CommentDTO) error {
	if dto.CommentID == "" || strings.TrimSpace(dto.Content) == "" {
		return apperr.Validation("commentId and content are required")
	}
	err := s.store.UpdateComment(ctx, userID, noteID, dto.CommentID, dto.Content, s.now())
	if err != nil {
		return commentErr(err)
	}
	return nil
}

func (s *Service) DeleteComment(ctx context.Context, userID, noteID, commentID string) error {
	if commentID == "" {
		return apperr.Validation("commentId is required")
	}
	if err := s.store.DeleteComment(ctx, userID, noteID, commentID); err != nil {
		return commentErr(err)
	}
	return nil
}

func wrap(err error) error {
	if err == nil {
		return nil
	}
	if isNotFound(err) {
		return apperr.NotFound("Item not found")
	}
	return apperr.Upstream(err)
}

func commentErr(err error) error {
	if isNotFound(err) {
		return apperr.NotFound("Comment not found")
	}
	return apperr.Upstream(err)
}

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
