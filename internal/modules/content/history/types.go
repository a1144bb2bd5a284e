package history

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/smartwork/assistant/internal/models"
	"github.com/smartwork/assistant/internal/pkg/apperr"
)

type CreateNoteDTO struct {
	UserID          string   `json:"userId"`
	MenuID          string   `json:"menuId"`
	MenuName        string   `json:"menuName"`
	Content         string   `json:"content"`
	Summary         string   `json:"summary"`
	Images          []string `json:"images"`
	Labels          []string `json:"labels"`
	Status          string   `json:"status"`
	Priority        string   `json:"priority"`
	CalendarEventID string   `json:"calendarEventId"`
	// Confirm saves the note even when duplicates were found.
	Confirm bool `json:"confirm"`
}

// UpdateNoteDTO is a partial update. `_id` and `userId` are not fields here
// and so are ignored when clients send them back.
type UpdateNoteDTO struct {
	MenuID          *string         `json:"menuId"`
	MenuName        *string         `json:"menuName"`
	Content         *string         `json:"content"`
	Summary         *string         `json:"summary"`
	Labels          *[]string       `json:"labels"`
	SubMenuID       json.RawMessage `json:"subMenuId"`
	Status          *string         `json:"status"`
	Priority        *string         `json:"priority"`
	Images          *[]string       `json:"images"`
	CalendarEventID *string         `json:"calendarEventId"`
}

// Patch converts the DTO, rejecting unknown status and priority values.
func (d UpdateNoteDTO) Patch() (models.NotePatch, error) {
	var p models.NotePatch
	p.Category = d.MenuID
	p.CategoryName = d.MenuName
	p.Content = d.Content
	p.Summary = d.Summary
	p.CalendarEventID = d.CalendarEventID
	if d.Labels != nil {
		labels := models.StringArray(*d.Labels).Union()
		p.Labels = &labels
	}
	if d.Images != nil {
		images := models.StringArray(*d.Images)
		p.AttachmentURLs = &images
	}
	if d.Status != nil {
		s := models.NoteStatus(*d.Status)
		if !s.Valid() {
			return p, apperr.Validationf("invalid status %q", *d.Status)
		}
		p.Status = &s
	}
	if d.Priority != nil {
		pr := models.Priority(*d.Priority)
		if !pr.Valid() {
			return p, apperr.Validationf("invalid priority %q", *d.Priority)
		}
		p.Priority = &pr
	}
	if len(d.SubMenuID) > 0 {
		var tag *string
		if !bytes.Equal(bytes.TrimSpace(d.SubMenuID), []byte("null")) {
			var s string
			if err := json.Unmarshal(d.SubMenuID, &s); err != nil {
				return p, apperr.Validation("subMenuId must be a string or null")
			}
			if s = strings.TrimSpace(s); s != "" {
				tag = &s
			}
		}
		p.SubTag = &tag
	}
	return p, nil
}

type ContentDTO struct {
	Content string `json:"content"`
}

type ClassifyDTO struct {
	MenuID  string   `json:"menuId"`
	Content string   `json:"content"`
	Summary string   `json:"summary"`
	Labels  []string `json:"labels"`
}

type CommentDTO struct {
	CommentID string `json:"commentId"`
	Content   string `json:"content"`
}

// DuplicateError carries the notes that blocked a create.
type DuplicateError struct {
	Duplicates []models.Note
}

func (e *DuplicateError) Error() string { return "Duplicate content" }

func (e *DuplicateError) Is(target error) bool { return target == apperr.ErrConflict }
