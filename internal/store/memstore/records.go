package memstore

import (
	"context"
	"sort"

	"github.com/smartwork/assistant/internal/models"
	"github.com/smartwork/assistant/internal/store"
)

func (s *Store) GetUserSettings(ctx context.Context, userID string) (*models.UserSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.settings[userID]
	if !ok {
		return &models.UserSettings{UserID: userID, SubMenus: models.CategoryKeywords{}}, nil
	}
	st.SubMenus = st.SubMenus.Clone()
	return &st, nil
}

func (s *Store) PutUserSettings(ctx context.Context, userID string, subMenus models.CategoryKeywords) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[userID] = models.UserSettings{
		UserID:    userID,
		SubMenus:  subMenus.Clone(),
		UpdatedAt: s.now(),
	}
	return nil
}

func (s *Store) ReassignSettings(ctx context.Context, fromUserID, toUserID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.settings[fromUserID]
	if !ok {
		return false, nil
	}
	delete(s.settings, fromUserID)
	st.UserID = toUserID
	st.UpdatedAt = s.now()
	s.settings[toUserID] = st
	return true, nil
}

func (s *Store) ListSettings(ctx context.Context) ([]models.UserSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.UserSettings, 0, len(s.settings))
	for _, st := range s.settings {
		st.SubMenus = st.SubMenus.Clone()
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func cloneFeature(f models.FeatureItem) models.FeatureItem {
	out := f
	out.TechStack = append(models.StringArray{}, f.TechStack...)
	out.RelatedDocumentIDs = append(models.StringArray{}, f.RelatedDocumentIDs...)
	return out
}

func (s *Store) ListFeatures(ctx context.Context, userID string) ([]models.FeatureItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.FeatureItem, 0)
	for _, f := range s.features {
		if f.UserID == userID {
			out = append(out, cloneFeature(*f))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return s.featSeq[out[i].ID] > s.featSeq[out[j].ID]
	})
	return out, nil
}

func (s *Store) CreateFeature(ctx context.Context, item *models.FeatureItem) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item.ID == "" {
		item.ID = models.NewID()
	}
	if item.CreatedAt.IsZero() {
		item.Touch(s.now())
	}
	cp := cloneFeature(*item)
	s.seq++
	s.features[item.ID] = &cp
	s.featSeq[item.ID] = s.seq
	return item.ID, nil
}

func (s *Store) featureFor(userID, id string) *models.FeatureItem {
	if f, ok := s.features[id]; ok && f.UserID == userID {
		return f
	}
	for _, f := range s.features {
		if f.LegacyID != "" && f.LegacyID == id && f.UserID == userID {
			return f
		}
	}
	return nil
}

func (s *Store) UpdateFeature(ctx context.Context, userID, id string, apply func(*models.FeatureItem)) (*models.FeatureItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.featureFor(userID, id)
	if f == nil {
		return nil, store.ErrNotFound
	}
	apply(f)
	f.UserID = userID
	f.UpdatedAt = s.now()
	out := cloneFeature(*f)
	return &out, nil
}

func (s *Store) DeleteFeature(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.featureFor(userID, id)
	if f == nil {
		return store.ErrNotFound
	}
	delete(s.features, f.ID)
	delete(s.featSeq, f.ID)
	return nil
}

func (s *Store) UpsertFeatures(ctx context.Context, userID string, items []models.FeatureItem) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	written := 0
	for _, item := range items {
		item.UserID = userID
		if item.LegacyID != "" {
			if f := s.featureFor(userID, item.LegacyID); f != nil {
				item.ID = f.ID
				*f = cloneFeature(item)
				written++
				continue
			}
		}
		if item.ID == "" {
			item.ID = models.NewID()
		}
		cp := cloneFeature(item)
		s.seq++
		s.features[item.ID] = &cp
		s.featSeq[item.ID] = s.seq
		written++
	}
	return written, nil
}

func (s *Store) ReassignFeatures(ctx context.Context, fromUserID, toUserID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, f := range s.features {
		if f.UserID == fromUserID {
			f.UserID = toUserID
			n++
		}
	}
	return n, nil
}

func (s *Store) UpsertUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if existing, ok := s.users[user.ID]; ok {
		user.CreatedAt = existing.CreatedAt
		if user.GoogleToken == "" {
			user.GoogleToken = existing.GoogleToken
		}
	} else if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	s.users[user.ID] = *user
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) SaveGoogleToken(ctx context.Context, userID, sealed string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	u.GoogleToken = sealed
	u.UpdatedAt = s.now()
	s.users[userID] = u
	return nil
}

func (s *Store) UserStats(ctx context.Context, userID string) (models.UserStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := models.UserStats{UserID: userID}
	for _, e := range s.notes {
		if e.note.UserID == userID {
			stats.Notes++
		}
	}
	for _, f := range s.features {
		if f.UserID == userID {
			stats.Features++
		}
	}
	_, stats.Settings = s.settings[userID]
	return stats, nil
}

func (s *Store) CreateUpload(ctx context.Context, upload *models.Upload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if upload.ID == "" {
		upload.ID = models.NewID()
	}
	if upload.UploadedAt.IsZero() {
		upload.UploadedAt = s.now()
	}
	s.uploads[upload.ID] = *upload
	return nil
}

func (s *Store) GetUpload(ctx context.Context, id string) (*models.Upload, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.uploads[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}
