package models

import "time"

// NoteStatus is the workflow state of a note.
type NoteStatus string

const (
	StatusPending    NoteStatus = "pending"
	StatusInProgress NoteStatus = "in-progress"
	StatusCompleted  NoteStatus = "completed"
)

// Valid reports whether s is one of the known statuses.
func (s NoteStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Next returns the status that follows s in the pending → in-progress →
// completed → pending cycle.
func (s NoteStatus) Next() NoteStatus {
	switch s {
	case StatusPending:
		return StatusInProgress
	case StatusInProgress:
		return StatusCompleted
	default:
		return StatusPending
	}
}

// Priority of a note.
type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	return p == PriorityNormal || p == PriorityHigh
}

// Toggle flips normal and high.
func (p Priority) Toggle() Priority {
	if p == PriorityHigh {
		return PriorityNormal
	}
	return PriorityHigh
}

// Note is a work-log entry (a "history item").
type Note struct {
	Base
	Category        string      `json:"menuId"                    gorm:"type:varchar(64);index"`
	CategoryName    string      `json:"menuName,omitempty"        gorm:"type:varchar(191)"`
	Content         string      `json:"content"                   gorm:"type:longtext"`
	Summary         string      `json:"summary,omitempty"         gorm:"type:longtext"`
	Labels          StringArray `json:"labels"                    gorm:"type:longtext"`
	SubTag          *string     `json:"subMenuId"                 gorm:"type:varchar(191);index"`
	Status          NoteStatus  `json:"status"                    gorm:"type:varchar(16);index"`
	Priority        Priority    `json:"priority"                  gorm:"type:varchar(16)"`
	Comments        []Comment   `json:"comments"                  gorm:"type:longtext;serializer:json"`
	AttachmentURLs  StringArray `json:"images"                    gorm:"column:images;type:longtext"`
	CalendarEventID string      `json:"calendarEventId,omitempty" gorm:"type:varchar(191)"`
	CompletedAt     *time.Time  `json:"completedAt,omitempty"`
	// LegacyID is the app-assigned id carried over from the previous store.
	LegacyID string `json:"-" gorm:"type:varchar(64);index"`
}

func (Note) TableName() string { return "history" }

// Normalize fills defaults for a freshly created note.
func (n *Note) Normalize() {
	if !n.Status.Valid() {
		n.Status = StatusPending
	}
	if !n.Priority.Valid() {
		n.Priority = PriorityNormal
	}
	if n.Labels == nil {
		n.Labels = StringArray{}
	}
	if n.AttachmentURLs == nil {
		n.AttachmentURLs = StringArray{}
	}
	if n.Comments == nil {
		n.Comments = []Comment{}
	}
}

// ApplyStatus sets the status and keeps CompletedAt consistent with it.
func (n *Note) ApplyStatus(status NoteStatus, now time.Time) {
	n.Status = status
	if status == StatusCompleted {
		if n.CompletedAt == nil {
			t := now
			n.CompletedAt = &t
		}
		return
	}
	n.CompletedAt = nil
}

// FindComment returns the index of the comment with id, or -1.
func (n *Note) FindComment(id string) int {
	for i := range n.Comments {
		if n.Comments[i].ID == id {
			return i
		}
	}
	return -1
}

// NotePatch is a partial update. Nil fields are left unchanged.
type NotePatch struct {
	Category        *string      `json:"menuId,omitempty"`
	CategoryName    *string      `json:"menuName,omitempty"`
	Content         *string      `json:"content,omitempty"`
	Summary         *string      `json:"summary,omitempty"`
	Labels          *StringArray `json:"labels,omitempty"`
	SubTag          **string     `json:"-"`
	Status          *NoteStatus  `json:"status,omitempty"`
	Priority        *Priority    `json:"priority,omitempty"`
	AttachmentURLs  *StringArray `json:"images,omitempty"`
	CalendarEventID *string      `json:"calendarEventId,omitempty"`
}

// Empty reports whether the patch carries no field.
func (p NotePatch) Empty() bool {
	return p.Category == nil && p.CategoryName == nil && p.Content == nil && p.Summary == nil &&
		p.Labels == nil && p.SubTag == nil && p.Status == nil && p.Priority == nil &&
		p.AttachmentURLs == nil && p.CalendarEventID == nil
}

// Apply writes the patch onto n and stamps UpdatedAt.
func (p NotePatch) Apply(n *Note, now time.Time) {
	if p.Category != nil {
		n.Category = *p.Category
	}
	if p.CategoryName != nil {
		n.CategoryName = *p.CategoryName
	}
	if p.Content != nil {
		n.Content = *p.Content
	}
	if p.Summary != nil {
		n.Summary = *p.Summary
	}
	if p.Labels != nil {
		n.Labels = append(StringArray{}, (*p.Labels)...)
	}
	if p.SubTag != nil {
		n.SubTag = *p.SubTag
	}
	if p.Status != nil {
		n.ApplyStatus(*p.Status, now)
	}
	if p.Priority != nil {
		n.Priority = *p.Priority
	}
	if p.AttachmentURLs != nil {
		n.AttachmentURLs = append(StringArray{}, (*p.AttachmentURLs)...)
	}
	if p.CalendarEventID != nil {
		n.CalendarEventID = *p.CalendarEventID
	}
	n.UpdatedAt = now
}
