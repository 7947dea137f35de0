package blob

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// ErrCorrupt is returned when an object's content does not match its
// recorded checksum, or the object belongs to another version.
var ErrCorrupt = errors.New("blob corrupt")

// DocumentObject is the JSON stored at DocumentKey. VersionID names the
// version the content belongs to so readers can detect a stale object.
type DocumentObject struct {
	DocumentID    string `json:"documentId"`
	VersionID     string `json:"versionId"`
	VersionNumber int    `json:"versionNumber"`
	Title         string `json:"title,omitempty"`
	Content       string `json:"content"`
	WordCount     int    `json:"wordCount"`
	Checksum      string `json:"checksum"`
	UpdatedAt     int64  `json:"updatedAt"`
}

// VersionObject is the JSON stored at VersionKey. It carries the whole
// version record, so history survives without the metadata database.
type VersionObject struct {
	VersionID         string `json:"versionId"`
	DocumentID        string `json:"documentId"`
	VersionNumber     int    `json:"versionNumber"`
	Content           string `json:"content"`
	ChangeDescription string `json:"changeDescription,omitempty"`
	Diff              string `json:"diff,omitempty"`
	WordCount         int    `json:"wordCount"`
	CreatedBy         string `json:"createdBy"`
	Checksum          string `json:"checksum"`
	CreatedAt         int64  `json:"createdAt"`
}

// Checksum returns the hex blake2b-256 digest of content.
func Checksum(content string) string {
	sum := blake2b.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// PutJSON marshals v and stores it at key.
func PutJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return s.Put(ctx, key, data)
}

// CreateJSON marshals v and stores it at key unless the key is taken.
func CreateJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return s.Create(ctx, key, data)
}

// GetDocument reads and verifies a DocumentObject.
func GetDocument(ctx context.Context, s Store, key string) (*DocumentObject, error) {
	var o DocumentObject
	if err := getJSON(ctx, s, key, &o); err != nil {
		return nil, err
	}
	if err := verify(key, o.Content, o.Checksum); err != nil {
		return nil, err
	}
	return &o, nil
}

// GetVersion reads and verifies the VersionObject for versionID. An object
// at key written for any other version is reported as ErrCorrupt. An empty
// versionID accepts whichever version the object holds.
func GetVersion(ctx context.Context, s Store, key, versionID string) (*VersionObject, error) {
	var o VersionObject
	if err := getJSON(ctx, s, key, &o); err != nil {
		return nil, err
	}
	if versionID != "" && o.VersionID != versionID {
		return nil, fmt.Errorf("%w: %s holds version %s, want %s", ErrCorrupt, key, o.VersionID, versionID)
	}
	if err := verify(key, o.Content, o.Checksum); err != nil {
		return nil, err
	}
	return &o, nil
}

func getJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorrupt, key, err)
	}
	return nil
}

// verify accepts objects without a checksum.
func verify(key, content, checksum string) error {
	if checksum != "" && checksum != Checksum(content) {
		return fmt.Errorf("%w: %s", ErrCorrupt, key)
	}
	return nil
}
