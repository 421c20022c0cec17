// Package storage wraps the MinIO client behind a small interface so the
// run-report archive can be tested with core/storage/mocks.
//
//	client, err := storage.NewClient(cfg)
//	exists, err := client.BucketExists(ctx, cfg.Bucket)
package storage
