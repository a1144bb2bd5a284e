package migrate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/smartwork/assistant/internal/models"
)

// Payload is an export of the previous deployment's data.
type Payload struct {
	HistoryItems []LegacyNote    `json:"historyItems"`
	UserSettings json.RawMessage `json:"userSettings"`
	Features     []LegacyFeature `json:"features"`
}

// LegacyID accepts string and numeric ids.
type LegacyID string

func (id *LegacyID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = LegacyID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("legacy id: %w", err)
	}
	if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
		*id = LegacyID(strconv.FormatInt(i, 10))
		return nil
	}
	*id = LegacyID(n.String())
	return nil
}

type LegacyComment struct {
	ID        LegacyID        `json:"id"`
	Content   string          `json:"content"`
	UserID    string          `json:"userId"`
	CreatedAt models.FlexTime `json:"createdAt"`
	UpdatedAt models.FlexTime `json:"updatedAt"`
}

type LegacyNote struct {
	ID              LegacyID        `json:"id"`
	MenuID          string          `json:"menuId"`
	MenuName        string          `json:"menuName"`
	Content         string          `json:"content"`
	Summary         string          `json:"summary"`
	Labels          []string        `json:"labels"`
	SubMenuID       *string         `json:"subMenuId"`
	Status          string          `json:"status"`
	Priority        string          `json:"priority"`
	Comments        []LegacyComment `json:"comments"`
	Images          []string        `json:"images"`
	CalendarEventID string          `json:"calendarEventId"`
	CreatedAt       models.FlexTime `json:"createdAt"`
	UpdatedAt       models.FlexTime `json:"updatedAt"`
	CompletedAt     models.FlexTime `json:"completedAt"`
}

// Model converts the legacy record. userID replaces whatever owner the export
// carried.
func (l LegacyNote) Model(userID string) models.Note {
	n := models.Note{
		Base: models.Base{
			UserID:    userID,
			CreatedAt: l.CreatedAt.Time,
			UpdatedAt: l.UpdatedAt.Or(l.CreatedAt.Time),
		},
		Category:        l.MenuID,
		CategoryName:    l.MenuName,
		Content:         l.Content,
		Summary:         l.Summary,
		Labels:          models.StringArray(l.Labels).Union(),
		SubTag:          l.SubMenuID,
		Status:          models.NoteStatus(l.Status),
		Priority:        models.Priority(l.Priority),
		AttachmentURLs:  models.StringArray(l.Images),
		CalendarEventID: l.CalendarEventID,
		CompletedAt:     l.CompletedAt.Ptr(),
		LegacyID:        string(l.ID),
	}
	for _, c := range l.Comments {
		id := string(c.ID)
		if id == "" {
			id = models.NewID()
		}
		owner := c.UserID
		if owner == "" {
			owner = userID
		}
		n.Comments = append(n.Comments, models.Comment{
			ID:        id,
			Content:   c.Content,
			UserID:    owner,
			CreatedAt: c.CreatedAt.Or(n.CreatedAt),
			UpdatedAt: c.UpdatedAt.Ptr(),
		})
	}
	n.Normalize()
	if n.Status != models.StatusCompleted {
		n.CompletedAt = nil
	}
	return n
}

type LegacyFeature struct {
	ID                 LegacyID        `json:"id"`
	Name               string          `json:"name"`
	Description        string          `json:"description"`
	Status             string          `json:"status"`
	Progress           int             `json:"progress"`
	Type               string          `json:"type"`
	Priority           string          `json:"priority"`
	TechStack          []string        `json:"techStack"`
	RelatedDocumentIDs []string        `json:"relatedDocumentIds"`
	CreatedAt          models.FlexTime `json:"createdAt"`
	UpdatedAt          models.FlexTime `json:"updatedAt"`
}

func (l LegacyFeature) Model(userID string) models.FeatureItem {
	f := models.FeatureItem{
		Base: models.Base{
			UserID:    userID,
			CreatedAt: l.CreatedAt.Time,
			UpdatedAt: l.UpdatedAt.Or(l.CreatedAt.Time),
		},
		Name:               l.Name,
		Description:        l.Description,
		Status:             models.FeatureStatus(l.Status),
		Progress:           l.Progress,
		Type:               models.FeatureType(l.Type),
		Priority:           models.FeaturePriority(l.Priority),
		TechStack:          models.StringArray(l.TechStack),
		RelatedDocumentIDs: models.StringArray(l.RelatedDocumentIDs),
		LegacyID:           string(l.ID),
	}
	f.Normalize()
	return f
}

// ParseSettings reads userSettings either as {subMenus: {...}} or as the
// category map itself. A missing or null value yields nil.
func ParseSettings(raw json.RawMessage) (models.CategoryKeywords, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	var wrapped struct {
		SubMenus models.CategoryKeywords `json:"subMenus"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.SubMenus != nil {
		return wrapped.SubMenus.Normalize(), nil
	}
	var direct models.CategoryKeywords
	if err := json.Unmarshal(raw, &direct); err != nil {
		return nil, fmt.Errorf("userSettings: %w", err)
	}
	return direct.Normalize(), nil
}
