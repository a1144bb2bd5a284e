package mongostore

import (
	"context"
	"errors"

	"github.com/smartwork/assistant/internal/models"
	"github.com/smartwork/assistant/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (s *Store) GetUserSettings(ctx context.Context, userID string) (*models.UserSettings, error) {
	var d settingsDoc
	err := s.db.Collection(collSettings).FindOne(ctx, bson.M{"userId": userID}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return &models.UserSettings{UserID: userID, SubMenus: models.CategoryKeywords{}}, nil
	}
	if err != nil {
		return nil, err
	}
	st := d.model()
	return &st, nil
}

func (s *Store) PutUserSettings(ctx context.Context, userID string, subMenus models.CategoryKeywords) error {
	if subMenus == nil {
		subMenus = models.CategoryKeywords{}
	}
	_, err := s.db.Collection(collSettings).UpdateOne(ctx,
		bson.M{"userId": userID},
		bson.M{"$set": bson.M{
			"userId":    userID,
			"subMenus":  subMenus,
			"updatedAt": models.FlexTime{Time: s.now()},
		}},
		options.Update().SetUpsert(true))
	return err
}

// ReassignSettings moves the source document onto the target owner,
// replacing whatever the target had.
func (s *Store) ReassignSettings(ctx context.Context, fromUserID, toUserID string) (bool, error) {
	coll := s.db.Collection(collSettings)
	var d settingsDoc
	err := coll.FindOne(ctx, bson.M{"userId": fromUserID}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := s.PutUserSettings(ctx, toUserID, d.SubMenus); err != nil {
		return false, err
	}
	if _, err := coll.DeleteOne(ctx, bson.M{"userId": fromUserID}); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) ListSettings(ctx context.Context) ([]models.UserSettings, error) {
	cur, err := s.db.Collection(collSettings).Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "userId", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []settingsDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]models.UserSettings, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.model())
	}
	return out, nil
}

func (s *Store) features() *mongo.Collection { return s.db.Collection(collFeatures) }

func (s *Store) ListFeatures(ctx context.Context, userID string) ([]models.FeatureItem, error) {
	cur, err := s.features().Find(ctx, bson.M{"userId": userID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}))
	if err != nil {
		return nil, err
	}
	var docs []featureDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]models.FeatureItem, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.model())
	}
	return out, nil
}

func (s *Store) CreateFeature(ctx context.Context, item *models.FeatureItem) (string, error) {
	if item.CreatedAt.IsZero() {
		item.Touch(s.now())
	}
	oid := primitive.NewObjectID()
	if item.ID == "" {
		item.ID = oid.Hex()
	}
	d := featureToDoc(*item)
	d.OID = oid
	if _, err := s.features().InsertOne(ctx, d); err != nil {
		return "", duplicate(err)
	}
	return item.ID, nil
}

func (s *Store) UpdateFeature(ctx context.Context, userID, id string, apply func(*models.FeatureItem)) (*models.FeatureItem, error) {
	var d featureDoc
	if err := s.features().FindOne(ctx, idFilter(userID, id)).Decode(&d); err != nil {
		return nil, notFound(err)
	}
	f := d.model()
	apply(&f)
	f.UserID = userID
	f.UpdatedAt = s.now()

	next := featureToDoc(f)
	next.OID = d.OID
	res, err := s.features().ReplaceOne(ctx, bson.M{"_id": d.OID, "userId": userID}, next)
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		return nil, store.ErrNotFound
	}
	return &f, nil
}

func (s *Store) DeleteFeature(ctx context.Context, userID, id string) error {
	res, err := s.features().DeleteOne(ctx, idFilter(userID, id))
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) UpsertFeatures(ctx context.Context, userID string, items []models.FeatureItem) (int, error) {
	written := 0
	for _, item := range items {
		item.UserID = userID
		if item.CreatedAt.IsZero() {
			item.Touch(s.now())
		}
		item.Normalize()
		d := featureToDoc(item)
		if d.ID == "" {
			oid := primitive.NewObjectID()
			d.OID, d.ID = oid, oid.Hex()
			if _, err := s.features().InsertOne(ctx, d); err != nil {
				return written, err
			}
			written++
			continue
		}
		_, err := s.features().ReplaceOne(ctx,
			bson.M{"userId": userID, "id": d.ID}, d,
			options.Replace().SetUpsert(true))
		if err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}

func (s *Store) ReassignFeatures(ctx context.Context, fromUserID, toUserID string) (int64, error) {
	res, err := s.features().UpdateMany(ctx, bson.M{"userId": fromUserID}, bson.M{"$set": bson.M{"userId": toUserID}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// UpsertUser keeps createdAt and any stored Google token of an existing
// account.
func (s *Store) UpsertUser(ctx context.Context, user *models.User) error {
	now := s.now()
	set := bson.M{
		"email":     user.Email,
		"name":      user.Name,
		"image":     user.Image,
		"updatedAt": models.FlexTime{Time: now},
	}
	if user.LastLoginAt != nil {
		set["lastLoginAt"] = models.FlexTime{Time: *user.LastLoginAt}
	}
	if user.GoogleToken != "" {
		set["googleToken"] = user.GoogleToken
	}
	created := user.CreatedAt
	if created.IsZero() {
		created = now
	}

	coll := s.db.Collection(collUsers)
	_, err := coll.UpdateOne(ctx, bson.M{"id": user.ID}, bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"id": user.ID, "createdAt": models.FlexTime{Time: created}},
	}, options.Update().SetUpsert(true))
	if err != nil {
		return err
	}

	var d userDoc
	if err := coll.FindOne(ctx, bson.M{"id": user.ID}).Decode(&d); err != nil {
		return notFound(err)
	}
	*user = d.model()
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	var d userDoc
	if err := s.db.Collection(collUsers).FindOne(ctx, bson.M{"id": id}).Decode(&d); err != nil {
		return nil, notFound(err)
	}
	u := d.model()
	return &u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	cur, err := s.db.Collection(collUsers).Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]models.User, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.model())
	}
	return out, nil
}

func (s *Store) SaveGoogleToken(ctx context.Context, userID, sealed string) error {
	res, err := s.db.Collection(collUsers).UpdateOne(ctx, bson.M{"id": userID}, bson.M{
		"$set": bson.M{"googleToken": sealed, "updatedAt": models.FlexTime{Time: s.now()}},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) UserStats(ctx context.Context, userID string) (models.UserStats, error) {
	stats := models.UserStats{UserID: userID}
	var err error
	if stats.Notes, err = s.history().CountDocuments(ctx, bson.M{"userId": userID}); err != nil {
		return stats, err
	}
	if stats.Features, err = s.features().CountDocuments(ctx, bson.M{"userId": userID}); err != nil {
		return stats, err
	}
	n, err := s.db.Collection(collSettings).CountDocuments(ctx, bson.M{"userId": userID})
	if err != nil {
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
	_, err := s.db.Collection(collUploads).InsertOne(ctx, uploadDoc{
		ID:          upload.ID,
		UserID:      upload.UserID,
		Filename:    upload.Filename,
		ContentType: upload.ContentType,
		Size:        upload.Size,
		StorageKey:  upload.StorageKey,
		UploadedAt:  models.FlexTime{Time: upload.UploadedAt},
	})
	return duplicate(err)
}

func (s *Store) GetUpload(ctx context.Context, id string) (*models.Upload, error) {
	var d uploadDoc
	if err := s.db.Collection(collUploads).FindOne(ctx, bson.M{"id": id}).Decode(&d); err != nil {
		return nil, notFound(err)
	}
	u := d.model()
	return &u, nil
}
