package models

// FeatureStatus tracks an inventory item's lifecycle.
type FeatureStatus string

const (
	FeaturePlanned     FeatureStatus = "planned"
	FeatureInProgress  FeatureStatus = "in-progress"
	FeatureCompleted   FeatureStatus = "completed"
	FeatureMaintenance FeatureStatus = "maintenance"
	FeatureDeprecated  FeatureStatus = "deprecated"
)

// FeatureType is the layer a feature belongs to.
type FeatureType string

const (
	FeatureFrontend FeatureType = "frontend"
	FeatureBackend  FeatureType = "backend"
	FeatureDatabase FeatureType = "database"
	FeatureExternal FeatureType = "external"
	FeatureOther    FeatureType = "other"
)

// FeaturePriority ranks inventory items.
type FeaturePriority string

const (
	FeaturePriorityLow      FeaturePriority = "low"
	FeaturePriorityMedium   FeaturePriority = "medium"
	FeaturePriorityHigh     FeaturePriority = "high"
	FeaturePriorityCritical FeaturePriority = "critical"
)

func (s FeatureStatus) Valid() bool {
	switch s {
	case FeaturePlanned, FeatureInProgress, FeatureCompleted, FeatureMaintenance, FeatureDeprecated:
		return true
	}
	return false
}

func (t FeatureType) Valid() bool {
	switch t {
	case FeatureFrontend, FeatureBackend, FeatureDatabase, FeatureExternal, FeatureOther:
		return true
	}
	return false
}

func (p FeaturePriority) Valid() bool {
	switch p {
	case FeaturePriorityLow, FeaturePriorityMedium, FeaturePriorityHigh, FeaturePriorityCritical:
		return true
	}
	return false
}

// FeatureItem is a user-authored description of a project feature.
type FeatureItem struct {
	Base
	Name               string          `json:"name"                gorm:"type:varchar(191);not null"`
	Description        string          `json:"description"         gorm:"type:longtext"`
	Status             FeatureStatus   `json:"status"              gorm:"type:varchar(16)"`
	Progress           int             `json:"progress"`
	Type               FeatureType     `json:"type"                gorm:"type:varchar(16)"`
	Priority           FeaturePriority `json:"priority"            gorm:"type:varchar(16)"`
	TechStack          StringArray     `json:"techStack"           gorm:"type:longtext"`
	RelatedDocumentIDs StringArray     `json:"relatedDocumentIds"  gorm:"column:related_document_ids;type:longtext"`
	LegacyID           string          `json:"-"                   gorm:"type:varchar(64);index"`
}

func (FeatureItem) TableName() string { return "features" }

// Normalize clamps progress and fills defaults for unknown enum values.
func (f *FeatureItem) Normalize() {
	if !f.Status.Valid() {
		f.Status = FeaturePlanned
	}
	if !f.Type.Valid() {
		f.Type = FeatureOther
	}
	if !f.Priority.Valid() {
		f.Priority = FeaturePriorityMedium
	}
	if f.Progress < 0 {
		f.Progress = 0
	}
	if f.Progress > 100 {
		f.Progress = 100
	}
	if f.TechStack == nil {
		f.TechStack = StringArray{}
	}
	if f.RelatedDocumentIDs == nil {
		f.RelatedDocumentIDs = StringArray{}
	}
}
