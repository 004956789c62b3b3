// Package content stores verification envelopes under the BLAKE3 hash of
// their canonical JSON form, so equal envelopes always land on the same key.
package content

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/gowebpki/jcs"
	"github.com/zeebo/blake3"

	"landregistry/internal/storage"
)

// Canonicalize returns the JCS bytes of envelope and their hex BLAKE3 hash.
func Canonicalize(envelope any) ([]byte, string, error) {
	raw, err := json.Marshal(envelope)
	if err != nil {
		return nil, "", fmt.Errorf("marshal envelope: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return nil, "", fmt.Errorf("canonicalize envelope: %w", err)
	}
	sum := blake3.Sum256(canonical)
	return canonical, hex.EncodeToString(sum[:]), nil
}

func Key(hash string) string {
	return "documents/" + hash + ".json"
}

type S3Store struct {
	client storage.ObjectAPI
	bucket string
}

func NewS3(client storage.ObjectAPI, bucket string) *S3Store {
	return &S3Store{client: client, bucket: bucket}
}

// Put uploads the envelope unless an object with the same hash exists.
func (s *S3Store) Put(ctx context.Context, envelope any) (string, error) {
	body, hash, err := Canonicalize(envelope)
	if err != nil {
		return "", err
	}
	key := Key(hash)

	_, err = s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)})
	if err == nil {
		return hash, nil
	}
	var notFound *types.NotFound
	if !errors.As(err, &notFound) {
		return "", fmt.Errorf("head %s: %w", key, err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	return hash, nil
}

type InMemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
	fail    error
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{objects: make(map[string][]byte)}
}

func (s *InMemoryStore) Put(_ context.Context, envelope any) (string, error) {
	body, hash, err := Canonicalize(envelope)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return "", s.fail
	}
	s.objects[Key(hash)] = body
	return hash, nil
}

func (s *InMemoryStore) Get(hash string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.objects[Key(hash)]
	return b, ok
}

func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

// FailWith makes subsequent Puts return err; nil restores normal behaviour.
func (s *InMemoryStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = err
}
