package blob

import (
	"context"
	"errors"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const gridFSBucketName = "uploads"

// GridFS keeps blobs in a MongoDB GridFS bucket, using the key as file id.
type GridFS struct {
	db *mongo.Database
}

func NewGridFS(db *mongo.Database) *GridFS {
	return &GridFS{db: db}
}

func (g *GridFS) bucket() (*gridfs.Bucket, error) {
	return gridfs.NewBucket(g.db, options.GridFSBucket().SetName(gridFSBucketName))
}

func deadline(ctx context.Context) time.Time {
	if d, ok := ctx.Deadline(); ok {
		return d
	}
	return time.Now().Add(2 * time.Minute)
}

func (g *GridFS) Put(ctx context.Context, key, contentType string, body io.Reader, _ int64) error {
	b, err := g.bucket()
	if err != nil {
		return err
	}
	if err := b.SetWriteDeadline(deadline(ctx)); err != nil {
		return err
	}
	opts := options.GridFSUpload().SetMetadata(bson.M{"contentType": contentType})
	return b.UploadFromStreamWithID(key, key, readerWithContext(ctx, body), opts)
}

func (g *GridFS) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	b, err := g.bucket()
	if err != nil {
		return nil, err
	}
	if err := b.SetReadDeadline(deadline(ctx)); err != nil {
		return nil, err
	}
	stream, err := b.OpenDownloadStream(key)
	if errors.Is(err, gridfs.ErrFileNotFound) {
		return nil, ErrNotExist
	}
	if err != nil {
		return nil, err
	}
	return stream, nil
}

func (g *GridFS) Delete(ctx context.Context, key string) error {
	b, err := g.bucket()
	if err != nil {
		return err
	}
	err = b.DeleteContext(ctx, key)
	if errors.Is(err, gridfs.ErrFileNotFound) {
		return nil
	}
	return err
}
