package models

import "time"

// Upload is the metadata row for an attachment; the bytes live in the blob
// backend under StorageKey.
type Upload struct {
	ID          string    `json:"id"          gorm:"type:varchar(64);primaryKey"`
	UserID      string    `json:"userId"      gorm:"type:varchar(191);index"`
	Filename    string    `json:"filename"    gorm:"type:varchar(255)"`
	ContentType string    `json:"contentType" gorm:"type:varchar(128)"`
	Size        int64     `json:"size"`
	StorageKey  string    `json:"-"           gorm:"type:varchar(255)"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

func (Upload) TableName() string { return "uploads" }

// URL is the path the file is served from.
func (u Upload) URL() string {
	return "/api/file/" + u.ID
}
