package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"careflow/careflow/config"
	"careflow/careflow/sources/psql/models"
)

type MinIOClient struct {
	client *minio.Client
	bucket string
}

// TranscriptObject is the archived form of one session transcript.
type TranscriptObject struct {
	SessionID  string               `json:"session_id"`
	UserID     int                  `json:"user_id"`
	ContextID  string               `json:"context_id,omitempty"`
	Turns      []models.ChatMessage `json:"turns"`
	ArchivedAt time.Time            `json:"archived_at"`
}

func NewMinIOClient(cfg config.Config) (*MinIOClient, error) {
	bucket := cfg.MinIOBucket
	client, err := minio.New(
		cfg.MinIOEndpoint,
		&minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIOAccessKey, cfg.MinIOSecretKey, ""),
			Secure: false,
		},
	)
	if err != nil {
		return nil, err
	}
	// Create bucket if not exists
	exists, err := client.BucketExists(context.Background(), bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := client.MakeBucket(context.Background(), bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, err
		}
	}
	return &MinIOClient{client: client, bucket: bucket}, nil
}

// UploadTranscript archives a session transcript snapshot and returns the
// object key.
func (m *MinIOClient) UploadTranscript(ctx context.Context, userID int, sessionID, contextID string, turns []models.ChatMessage) (string, error) {
	key := filepath.Join("transcripts", fmt.Sprintf("%d", userID), fmt.Sprintf("%s.json", sessionID))

	obj := TranscriptObject{
		SessionID:  sessionID,
		UserID:     userID,
		ContextID:  contextID,
		Turns:      turns,
		ArchivedAt: time.Now(),
	}
	data, err := json.Marshal(obj)
	if err != nil {
		return "", err
	}

	_, err = m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return "", err
	}

	return key, nil
}

// GetTranscript fetches an archived transcript by key.
func (m *MinIOClient) GetTranscript(ctx context.Context, key string) (*TranscriptObject, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()
	var t TranscriptObject
	if err := json.NewDecoder(obj).Decode(&t); err != nil {
		return nil, err
	}
	return &t, nil
}
