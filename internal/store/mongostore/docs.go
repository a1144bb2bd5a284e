package mongostore

import (
	"github.com/smartwork/assistant/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type commentDoc struct {
	ID        string          `bson:"id"`
	Content   string          `bson:"content"`
	UserID    string          `bson:"userId,omitempty"`
	CreatedAt models.FlexTime `bson:"createdAt"`
	UpdatedAt models.FlexTime `bson:"updatedAt,omitempty"`
}

type noteDoc struct {
	OID             primitive.ObjectID `bson:"_id,omitempty"`
	ID              string             `bson:"id,omitempty"`
	UserID          string             `bson:"userId"`
	MenuID          string             `bson:"menuId"`
	MenuName        string             `bson:"menuName,omitempty"`
	Content         string             `bson:"content"`
	Summary         string             `bson:"summary,omitempty"`
	Labels          []string           `bson:"labels"`
	SubMenuID       *string            `bson:"subMenuId"`
	Status          string             `bson:"status"`
	Priority        string             `bson:"priority,omitempty"`
	Comments        []commentDoc       `bson:"comments,omitempty"`
	Images          []string           `bson:"images,omitempty"`
	CalendarEventID string             `bson:"calendarEventId,omitempty"`
	CreatedAt       models.FlexTime    `bson:"createdAt"`
	UpdatedAt       models.FlexTime    `bson:"updatedAt"`
	CompletedAt     models.FlexTime    `bson:"completedAt,omitempty"`
}

// canonicalID is the string id clients address the note by.
func canonicalID(oid primitive.ObjectID, id string) string {
	if id != "" {
		return id
	}
	if oid.IsZero() {
		return ""
	}
	return oid.Hex()
}

func (d noteDoc) model() models.Note {
	n := models.Note{
		Base: models.Base{
			ID:        canonicalID(d.OID, d.ID),
			UserID:    d.UserID,
			CreatedAt: d.CreatedAt.Time,
			UpdatedAt: d.UpdatedAt.Or(d.CreatedAt.Time),
		},
		Category:        d.MenuID,
		CategoryName:    d.MenuName,
		Content:         d.Content,
		Summary:         d.Summary,
		Labels:          models.StringArray(d.Labels),
		SubTag:          d.SubMenuID,
		Status:          models.NoteStatus(d.Status),
		Priority:        models.Priority(d.Priority),
		AttachmentURLs:  models.StringArray(d.Images),
		CalendarEventID: d.CalendarEventID,
		CompletedAt:     d.CompletedAt.Ptr(),
		Comments:        make([]models.Comment, 0, len(d.Comments)),
	}
	if d.ID != "" && !d.OID.IsZero() && d.ID != d.OID.Hex() {
		n.LegacyID = d.ID
	}
	for _, c := range d.Comments {
		n.Comments = append(n.Comments, models.Comment{
			ID:        c.ID,
			Content:   c.Content,
			UserID:    c.UserID,
			CreatedAt: c.CreatedAt.Time,
			UpdatedAt: c.UpdatedAt.Ptr(),
		})
	}
	n.Normalize()
	return n
}

func noteToDoc(n models.Note) noteDoc {
	d := noteDoc{
		ID:              n.ID,
		UserID:          n.UserID,
		MenuID:          n.Category,
		MenuName:        n.CategoryName,
		Content:         n.Content,
		Summary:         n.Summary,
		Labels:          []string(n.Labels),
		SubMenuID:       n.SubTag,
		Status:          string(n.Status),
		Priority:        string(n.Priority),
		Images:          []string(n.AttachmentURLs),
		CalendarEventID: n.CalendarEventID,
		CreatedAt:       models.FlexTime{Time: n.CreatedAt},
		UpdatedAt:       models.FlexTime{Time: n.UpdatedAt},
	}
	if n.LegacyID != "" {
		d.ID = n.LegacyID
	}
	if d.Labels == nil {
		d.Labels = []string{}
	}
	if n.CompletedAt != nil {
		d.CompletedAt = models.FlexTime{Time: *n.CompletedAt}
	}
	for _, c := range n.Comments {
		d.Comments = append(d.Comments, commentToDoc(c))
	}
	return d
}

func commentToDoc(c models.Comment) commentDoc {
	cd := commentDoc{
		ID:        c.ID,
		Content:   c.Content,
		UserID:    c.UserID,
		CreatedAt: models.FlexTime{Time: c.CreatedAt},
	}
	if c.UpdatedAt != nil {
		cd.UpdatedAt = models.FlexTime{Time: *c.UpdatedAt}
	}
	return cd
}

type settingsDoc struct {
	UserID    string                  `bson:"userId"`
	SubMenus  models.CategoryKeywords `bson:"subMenus"`
	UpdatedAt models.FlexTime         `bson:"updatedAt"`
}

func (d settingsDoc) model() models.UserSettings {
	subMenus := d.SubMenus
	if subMenus == nil {
		subMenus = models.CategoryKeywords{}
	}
	return models.UserSettings{UserID: d.UserID, SubMenus: subMenus, UpdatedAt: d.UpdatedAt.Time}
}

type featureDoc struct {
	OID                primitive.ObjectID `bson:"_id,omitempty"`
	ID                 string             `bson:"id,omitempty"`
	UserID             string             `bson:"userId"`
	Name               string             `bson:"name"`
	Description        string             `bson:"description"`
	Status             string             `bson:"status"`
	Progress           int                `bson:"progress"`
	Type               string             `bson:"type"`
	Priority           string             `bson:"priority"`
	TechStack          []string           `bson:"techStack"`
	RelatedDocumentIDs []string           `bson:"relatedDocumentIds"`
	CreatedAt          models.FlexTime    `bson:"createdAt"`
	UpdatedAt          models.FlexTime    `bson:"updatedAt"`
}

func (d featureDoc) model() models.FeatureItem {
	f := models.FeatureItem{
		Base: models.Base{
			ID:        canonicalID(d.OID, d.ID),
			UserID:    d.UserID,
			CreatedAt: d.CreatedAt.Time,
			UpdatedAt: d.UpdatedAt.Or(d.CreatedAt.Time),
		},
		Name:               d.Name,
		Description:        d.Description,
		Status:             models.FeatureStatus(d.Status),
		Progress:           d.Progress,
		Type:               models.FeatureType(d.Type),
		Priority:           models.FeaturePriority(d.Priority),
		TechStack:          models.StringArray(d.TechStack),
		RelatedDocumentIDs: models.StringArray(d.RelatedDocumentIDs),
	}
	if d.ID != "" && !d.OID.IsZero() && d.ID != d.OID.Hex() {
		f.LegacyID = d.ID
	}
	f.Normalize()
	return f
}

func featureToDoc(f models.FeatureItem) featureDoc {
	d := featureDoc{
		ID:                 f.ID,
		UserID:             f.UserID,
		Name:               f.Name,
		Description:        f.Description,
		Status:             string(f.Status),
		Progress:           f.Progress,
		Type:               string(f.Type),
		Priority:           string(f.Priority),
		TechStack:          []string(f.TechStack),
		RelatedDocumentIDs: []string(f.RelatedDocumentIDs),
		CreatedAt:          models.FlexTime{Time: f.CreatedAt},
		UpdatedAt:          models.FlexTime{Time: f.UpdatedAt},
	}
	if f.LegacyID != "" {
		d.ID = f.LegacyID
	}
	return d
}

type userDoc struct {
	ID          string          `bson:"id"`
	Email       string          `bson:"email"`
	Name        string          `bson:"name"`
	Image       string          `bson:"image,omitempty"`
	GoogleToken string          `bson:"googleToken,omitempty"`
	LastLoginAt models.FlexTime `bson:"lastLoginAt,omitempty"`
	CreatedAt   models.FlexTime `bson:"createdAt"`
	UpdatedAt   models.FlexTime `bson:"updatedAt"`
}

func (d userDoc) model() models.User {
	return models.User{
		ID:          d.ID,
		Email:       d.Email,
		Name:        d.Name,
		Image:       d.Image,
		GoogleToken: d.GoogleToken,
		LastLoginAt: d.LastLoginAt.Ptr(),
		CreatedAt:   d.CreatedAt.Time,
		UpdatedAt:   d.UpdatedAt.Time,
	}
}

type uploadDoc struct {
	ID          string          `bson:"id"`
	UserID      string          `bson:"userId"`
	Filename    string          `bson:"filename"`
	ContentType string          `bson:"contentType"`
	Size        int64           `bson:"size"`
	StorageKey  string          `bson:"storageKey"`
	UploadedAt  models.FlexTime `bson:"uploadedAt"`
}

func (d uploadDoc) model() models.Upload {
	return models.Upload{
		ID:          d.ID,
		UserID:      d.UserID,
		Filename:    d.Filename,
		ContentType: d.ContentType,
		Size:        d.Size,
		StorageKey:  d.StorageKey,
		UploadedAt:  d.UploadedAt.Time,
	}
}
