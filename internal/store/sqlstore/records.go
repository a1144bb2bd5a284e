package sqlstore

import (
	"context"
	"errors"

	"github.com/smartwork/assistant/internal/models"
	"github.com/smartwork/assistant/internal/store"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (s *Store) GetUserSettings(ctx context.Context, userID string) (*models.UserSettings, error) {
	var st models.UserSettings
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&st).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.UserSettings{UserID: userID, SubMenus: models.CategoryKeywords{}}, nil
	}
	if err != nil {
		return nil, err
	}
	if st.SubMenus == nil {
		st.SubMenus = models.CategoryKeywords{}
	}
	return &st, nil
}

func (s *Store) PutUserSettings(ctx context.Context, userID string, subMenus models.CategoryKeywords) error {
	if subMenus == nil {
		subMenus = models.CategoryKeywords{}
	}
	st := models.UserSettings{UserID: userID, SubMenus: subMenus, UpdatedAt: s.now()}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&st).Error
}

func (s *Store) ReassignSettings(ctx context.Context, fromUserID, toUserID string) (bool, error) {
	moved := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var st models.UserSettings
		err := forUpdate(tx).Where("user_id = ?", fromUserID).First(&st).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := tx.Where("user_id IN ?", []string{fromUserID, toUserID}).Delete(&models.UserSettings{}).Error; err != nil {
			return err
		}
		st.UserID = toUserID
		st.UpdatedAt = s.now()
		if err := tx.Create(&st).Error; err != nil {
			return err
		}
		moved = true
		return nil
	})
	return moved, err
}

func (s *Store) ListSettings(ctx context.Context) ([]models.UserSettings, error) {
	out := make([]models.UserSettings, 0)
	err := s.db.WithContext(ctx).Order("user_id").Find(&out).Error
	return out, err
}

func (s *Store) ListFeatures(ctx context.Context, userID string) ([]models.FeatureItem, error) {
	out := make([]models.FeatureItem, 0)
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Normalize()
	}
	return out, nil
}

func (s *Store) CreateFeature(ctx context.Context, item *models.FeatureItem) (string, error) {
	if item.CreatedAt.IsZero() {
		item.Touch(s.now())
	}
	if err := s.db.WithContext(ctx).Create(item).Error; err != nil {
		return "", duplicate(err)
	}
	return item.ID, nil
}

func (s *Store) UpdateFeature(ctx context.Context, userID, id string, apply func(*models.FeatureItem)) (*models.FeatureItem, error) {
	var out models.FeatureItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var f models.FeatureItem
		if err := forUpdate(tx).Scopes(owned(userID, id)).First(&f).Error; err != nil {
			return notFound(err)
		}
		apply(&f)
		f.UserID = userID
		f.UpdatedAt = s.now()
		if err := tx.Save(&f).Error; err != nil {
			return err
		}
		out = f
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) DeleteFeature(ctx context.Context, userID, id string) error {
	res := s.db.WithContext(ctx).Scopes(owned(userID, id)).Delete(&models.FeatureItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) UpsertFeatures(ctx context.Context, userID string, items []models.FeatureItem) (int, error) {
	written := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, item := range items {
			item.UserID = userID
			if item.CreatedAt.IsZero() {
				item.Touch(s.now())
			}
			item.Normalize()
			if item.LegacyID != "" {
				var existing models.FeatureItem
				err := tx.Where("user_id = ? AND legacy_id = ?", userID, item.LegacyID).First(&existing).Error
				switch {
				case err == nil:
					item.ID = existing.ID
				case !errors.Is(err, gorm.ErrRecordNotFound):
					return err
				}
			}
			if err := tx.Save(&item).Error; err != nil {
				return err
			}
			written++
		}
		return nil
	})
	return written, err
}

func (s *Store) ReassignFeatures(ctx context.Context, fromUserID, toUserID string) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.FeatureItem{}).Where("user_id = ?", fromUserID).Update("user_id", toUserID)
	return res.RowsAffected, res.Error
}

func (s *Store) UpsertUser(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := s.now()
		var existing models.User
		err := forUpdate(tx).Where("id = ?", user.ID).First(&existing).Error
		switch {
		case err == nil:
			user.CreatedAt = existing.CreatedAt
			if user.GoogleToken == "" {
				user.GoogleToken = existing.GoogleToken
			}
			if user.LastLoginAt == nil {
				user.LastLoginAt = existing.LastLoginAt
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			if user.CreatedAt.IsZero() {
				user.CreatedAt = now
			}
		default:
			return err
		}
		user.UpdatedAt = now
		return tx.Save(user).Error
	})
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	out := make([]models.User, 0)
	err := s.db.WithContext(ctx).Order("created_at").Find(&out).Error
	return out, err
}

func (s *Store) SaveGoogleToken(ctx context.Context, userID, sealed string) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).
		Updates(map[string]interface{}{"google_token": sealed, "updated_at": s.now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) UserStats(ctx context.Context, userID string) (models.UserStats, error) {
	stats := models.UserStats{UserID: userID}
	db := s.db.WithContext(ctx)
	if err := db.Model(&models.Note{}).Where("user_id = ?", userID).Count(&stats.Notes).Error; err != nil {
		return stats, err
	}
	if err := db.Model(&models.FeatureItem{}).Where("user_id = ?", userID).Count(&stats.Features).Error; err != nil {
		return stats, err
	}
	var n int64
	if err := db.Model(&models.UserSettings{}).Where("user_id = ?", userID).Count(&n).Error; err != nil {
		return stats, err
	}
	stats.Settings = n > 0
	return stats, nil
}

func (s *Store) CreateUpload(ctx context.Context, upload *models.Upload) error {
	if upload.ID == "" {
		upload.ID = models.NewID()
	}
	if upload.UploadedAt.IsZero() {
		upload.UploadedAt = s.now()
	}
	return duplicate(s.db.WithContext(ctx).Create(upload).Error)
}

func (s *Store) GetUpload(ctx context.Context, id string) (*models.Upload, error) {
	var u models.Upload
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}
