package models

import (
	"strings"
	"time"
)

// CategoryKeywords maps a category id to its ordered keyword list. Order is
// the priority used for subTag selection.
type CategoryKeywords map[string][]string

// UserSettings holds the per-user keyword configuration.
type UserSettings struct {
	UserID    string           `json:"userId"    gorm:"type:varchar(191);primaryKey"`
	SubMenus  CategoryKeywords `json:"subMenus"  gorm:"type:longtext;serializer:json"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

func (UserSettings) TableName() string { return "user_settings" }

// Keywords returns the keyword list for a category (nil when unset).
func (s *UserSettings) Keywords(category string) []string {
	if s == nil || s.SubMenus == nil {
		return nil
	}
	return s.SubMenus[category]
}

// NormalizeKeywords trims every keyword, drops empties and repeats, and keeps
// the first occurrence's position.
func NormalizeKeywords(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, raw := range in {
		k := strings.TrimSpace(raw)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

// Normalize applies NormalizeKeywords to every category and drops blank
// category ids.
func (m CategoryKeywords) Normalize() CategoryKeywords {
	out := make(CategoryKeywords, len(m))
	for category, keywords := range m {
		id := strings.TrimSpace(category)
		if id == "" {
			continue
		}
		out[id] = NormalizeKeywords(keywords)
	}
	return out
}

// Clone returns a deep copy.
func (m CategoryKeywords) Clone() CategoryKeywords {
	out := make(CategoryKeywords, len(m))
	for k, v := range m {
		out[k] = append([]string(nil), v...)
	}
	return out
}
