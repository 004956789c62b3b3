// Package files stores uploaded supporting documents. Only PDF, JPEG and PNG
// content is accepted, judged by the bytes rather than the file name.
package files

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"landregistry/internal/storage"
	dErrors "landregistry/pkg/domain-errors"
	"landregistry/pkg/requestcontext"
)

// DefaultMaxBytes caps a single upload.
const DefaultMaxBytes = 10 << 20

var extensions = map[string]string{
	"application/pdf": ".pdf",
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
}

type upload struct {
	body        []byte
	contentType string
	ext         string
}

// prepare reads at most maxBytes and sniffs the content type.
func prepare(r io.Reader, maxBytes int64) (*upload, error) {
	body, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "failed to read upload")
	}
	if len(body) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "file is empty")
	}
	if int64(len(body)) > maxBytes {
		return nil, dErrors.New(dErrors.CodeValidation, "file is too large")
	}
	mtype := mimetype.Detect(body)
	for m := mtype; m != nil; m = m.Parent() {
		if ext, ok := extensions[m.String()]; ok {
			return &upload{body: body, contentType: m.String(), ext: ext}, nil
		}
	}
	return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unsupported file type %s", mtype.String()))
}

// Key lays uploads out by day: uploads/<yyyy>/<mm>/<dd>/<uuid><ext>.
func Key(now time.Time, ext string) string {
	now = now.UTC()
	return fmt.Sprintf("uploads/%04d/%02d/%02d/%s%s", now.Year(), int(now.Month()), now.Day(), uuid.New(), ext)
}

// S3Store writes uploads to a bucket and returns the object key as the path.
type S3Store struct {
	client   storage.ObjectAPI
	bucket   string
	maxBytes int64
}

func NewS3(client storage.ObjectAPI, bucket string) *S3Store {
	return &S3Store{client: client, bucket: bucket, maxBytes: DefaultMaxBytes}
}

// Put stores the file and returns its opaque path. name is kept as object
// metadata only.
func (s *S3Store) Put(ctx context.Context, name string, r io.Reader) (string, error) {
	up, err := prepare(r, s.maxBytes)
	if err != nil {
		return "", err
	}
	key := Key(requestcontext.Now(ctx), up.ext)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(up.body),
		ContentLength: aws.Int64(int64(len(up.body))),
		ContentType:   aws.String(up.contentType),
		Metadata:      map[string]string{"original-name": name},
	})
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeUpstreamSyncFailure, "failed to store file")
	}
	return key, nil
}

type Object struct {
	Name        string
	ContentType string
	Body        []byte
}

// InMemoryStore backs tests and local runs without object storage.
type InMemoryStore struct {
	mu       sync.RWMutex
	objects  map[string]Object
	maxBytes int64
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{objects: make(map[string]Object), maxBytes: DefaultMaxBytes}
}

func (s *InMemoryStore) Put(ctx context.Context, name string, r io.Reader) (string, error) {
	up, err := prepare(r, s.maxBytes)
	if err != nil {
		return "", err
	}
	key := Key(requestcontext.Now(ctx), up.ext)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = Object{Name: name, ContentType: up.contentType, Body: up.body}
	return key, nil
}

func (s *InMemoryStore) Get(path string) (Object, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[path]
	return obj, ok
}
