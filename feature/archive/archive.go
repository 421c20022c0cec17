// Package archive keeps run reports as JSON objects in object storage under
// <prefix>/<subject>/<run id>.json.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"inventory-reconciler/core/reconcile"
	"inventory-reconciler/core/storage"

	"github.com/minio/minio-go/v7"
)

// ErrNotFound is returned by Load for an unknown run.
var ErrNotFound = errors.New("report not found")

const unknownSubject = "_unknown"

// Entry describes one archived report.
type Entry struct {
	RunID        string    `json:"run_id"`
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// Archive stores run reports in a bucket.
type Archive struct {
	client storage.Client
	bucket string
	prefix string
}

// New creates an archive on client using the bucket and prefix of cfg.
func New(client storage.Client, cfg storage.Config) *Archive {
	return &Archive{client: client, bucket: cfg.Bucket, prefix: strings.Trim(cfg.Prefix, "/")}
}

// EnsureBucket creates the bucket when it does not exist yet.
func (a *Archive) EnsureBucket(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", a.bucket, err)
	}
	if exists {
		return nil
	}
	if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", a.bucket, err)
	}
	return nil
}

func (a *Archive) dir(subject string) string {
	if subject == "" {
		subject = unknownSubject
	}
	return path.Join(a.prefix, subject) + "/"
}

// Key returns the object name of a run's report.
func (a *Archive) Key(subject, runID string) string {
	return a.dir(subject) + runID + ".json"
}

// Store uploads the report and returns its object name.
func (a *Archive) Store(ctx context.Context, report *reconcile.Report) (string, error) {
	body, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode report %s: %w", report.RunID, err)
	}
	key := a.Key(report.Subject, report.RunID)
	_, err = a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload report %s: %w", key, err)
	}
	return key, nil
}

// List returns the archived reports of subject, newest first.
func (a *Archive) List(ctx context.Context, subject string) ([]Entry, error) {
	var entries []Entry
	for obj := range a.client.ListObjects(ctx, a.bucket, minio.ListObjectsOptions{Prefix: a.dir(subject), Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list reports of %s: %w", subject, obj.Err)
		}
		if !strings.HasSuffix(obj.Key, ".json") {
			continue
		}
		entries = append(entries, Entry{
			RunID:        strings.TrimSuffix(path.Base(obj.Key), ".json"),
			Key:          obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].LastModified.After(entries[j].LastModified)
	})
	return entries, nil
}

// Load downloads one report.
func (a *Archive) Load(ctx context.Context, subject, runID string) (*reconcile.Report, error) {
	key := a.Key(subject, runID)
	obj, err := a.client.GetObject(ctx, a.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch report %s: %w", key, err)
	}
	defer obj.Close()

	body, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("failed to read report %s: %w", key, err)
	}

	var report reconcile.Report
	if err := json.Unmarshal(body, &report); err != nil {
		return nil, fmt.Errorf("failed to decode report %s: %w", key, err)
	}
	return &report, nil
}

// Prune removes all but the newest keep reports of subject and returns how
// many were removed.
func (a *Archive) Prune(ctx context.Context, subject string, keep int) (int, error) {
	entries, err := a.List(ctx, subject)
	if err != nil {
		return 0, err
	}
	if keep < 0 {
		keep = 0
	}
	if len(entries) <= keep {
		return 0, nil
	}
	stale := entries[keep:]

	objects := make(chan minio.ObjectInfo, len(stale))
	for _, e := range stale {
		objects <- minio.ObjectInfo{Key: e.Key}
	}
	close(objects)

	var errs []error
	for rerr := range a.client.RemoveObjects(ctx, a.bucket, objects, minio.RemoveObjectsOptions{}) {
		errs = append(errs, fmt.Errorf("%s: %w", rerr.ObjectName, rerr.Err))
	}
	if len(errs) > 0 {
		return len(stale) - len(errs), fmt.Errorf("failed to prune reports of %s: %w", subject, errors.Join(errs...))
	}
	return len(stale), nil
}
