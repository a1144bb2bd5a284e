package mongostore

import (
	"context"
	"time"

	"github.com/smartwork/assistant/internal/models"
	"github.com/smartwork/assistant/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (s *Store) history() *mongo.Collection { return s.db.Collection(collHistory) }

func (s *Store) ListRecentNotes(ctx context.Context, userID string, limit int) ([]models.Note, error) {
	return s.ListNotes(ctx, store.NoteQuery{UserID: userID, Limit: limit})
}

func (s *Store) ListNotes(ctx context.Context, q store.NoteQuery) ([]models.Note, error) {
	filter := bson.M{"userId": q.UserID}
	if q.Status != "" {
		filter["status"] = string(q.Status)
	}
	if q.Category != "" {
		filter["menuId"] = q.Category
	}
	if q.Label != "" {
		filter["labels"] = q.Label
	}
	if q.SubTag != "" {
		filter["subMenuId"] = q.SubTag
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cur, err := s.history().Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []noteDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]models.Note, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.model())
	}
	return out, nil
}

func (s *Store) findNote(ctx context.Context, userID, id string) (noteDoc, error) {
	var d noteDoc
	err := s.history().FindOne(ctx, idFilter(userID, id)).Decode(&d)
	return d, notFound(err)
}

func (s *Store) GetNote(ctx context.Context, userID, id string) (*models.Note, error) {
	d, err := s.findNote(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	n := d.model()
	return &n, nil
}

func (s *Store) CreateNote(ctx context.Context, note *models.Note) (string, error) {
	if note.CreatedAt.IsZero() {
		note.Touch(s.now())
	}
	oid := primitive.NewObjectID()
	if note.ID == "" {
		note.ID = oid.Hex()
	}
	d := noteToDoc(*note)
	d.OID = oid
	if _, err := s.history().InsertOne(ctx, d); err != nil {
		return "", duplicate(err)
	}
	return note.ID, nil
}

// UpdateNote applies the patch in memory and writes back only the touched
// fields so concurrent comment pushes are not overwritten.
func (s *Store) UpdateNote(ctx context.Context, userID, id string, patch models.NotePatch) (*models.Note, error) {
	d, err := s.findNote(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	n := d.model()
	patch.Apply(&n, s.now())
	next := noteToDoc(n)

	set := bson.M{"updatedAt": next.UpdatedAt}
	unset := bson.M{}
	if patch.Category != nil {
		set["menuId"] = next.MenuID
	}
	if patch.CategoryName != nil {
		set["menuName"] = next.MenuName
	}
	if patch.Content != nil {
		set["content"] = next.Content
	}
	if patch.Summary != nil {
		set["summary"] = next.Summary
	}
	if patch.Labels != nil {
		set["labels"] = next.Labels
	}
	if patch.SubTag != nil {
		set["subMenuId"] = next.SubMenuID
	}
	if patch.Status != nil {
		set["status"] = next.Status
		if n.CompletedAt != nil {
			set["completedAt"] = next.CompletedAt
		} else {
			unset["completedAt"] = ""
		}
	}
	if patch.Priority != nil {
		set["priority"] = next.Priority
	}
	if patch.AttachmentURLs != nil {
		set["images"] = next.Images
	}
	if patch.CalendarEventID != nil {
		set["calendarEventId"] = next.CalendarEventID
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	res, err := s.history().UpdateOne(ctx, bson.M{"_id": d.OID, "userId": userID}, update)
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		return nil, store.ErrNotFound
	}
	return &n, nil
}

func (s *Store) DeleteNote(ctx context.Context, userID, id string) error {
	res, err := s.history().DeleteOne(ctx, idFilter(userID, id))
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) AddComment(ctx context.Context, userID, noteID string, comment models.Comment) error {
	res, err := s.history().UpdateOne(ctx, idFilter(userID, noteID), bson.M{
		"$push": bson.M{"comments": commentToDoc(comment)},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) UpdateComment(ctx context.Context, userID, noteID, commentID, content string, at time.Time) error {
	filter := idFilter(userID, noteID)
	filter["comments.id"] = commentID
	res, err := s.history().UpdateOne(ctx, filter, bson.M{
		"$set": bson.M{
			"comments.$.content":   content,
			"comments.$.updatedAt": models.FlexTime{Time: at},
		},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteComment(ctx context.Context, userID, noteID, commentID string) error {
	filter := idFilter(userID, noteID)
	filter["comments.id"] = commentID
	res, err := s.history().UpdateOne(ctx, filter, bson.M{
		"$pull": bson.M{"comments": bson.M{"id": commentID}},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) UpsertNotes(ctx context.Context, userID string, notes []models.Note) (int, error) {
	written := 0
	for _, n := range notes {
		n.UserID = userID
		if n.CreatedAt.IsZero() {
			n.Touch(s.now())
		}
		if n.UpdatedAt.IsZero() {
			n.UpdatedAt = n.CreatedAt
		}
		d := noteToDoc(n)
		if d.ID == "" {
			oid := primitive.NewObjectID()
			d.OID, d.ID = oid, oid.Hex()
			if _, err := s.history().InsertOne(ctx, d); err != nil {
				return written, err
			}
			written++
			continue
		}
		_, err := s.history().ReplaceOne(ctx,
			bson.M{"userId": userID, "id": d.ID}, d,
			options.Replace().SetUpsert(true))
		if err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}

func (s *Store) ReassignNotes(ctx context.Context, fromUserID, toUserID string) (int64, error) {
	res, err := s.history().UpdateMany(ctx, bson.M{"userId": fromUserID}, bson.M{"$set": bson.M{"userId": toUserID}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
