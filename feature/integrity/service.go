package integrity

import (
	"context"
	"errors"

	"inventory-reconciler/core/database"
	"inventory-reconciler/core/storage"
	"inventory-reconciler/feature/inventory"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrArchiveDisabled is returned by the bucket checks without a storage client.
var ErrArchiveDisabled = errors.New("run-report archive is disabled")

// Service handles integrity checks.
type Service struct {
	db     *gorm.DB
	client storage.Client
	bucket string
	logger *zap.Logger
}

// NewService creates a new integrity service. client may be nil when the
// run-report archive is disabled.
func NewService(db *gorm.DB, client storage.Client, bucket string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		db:     db,
		client: client,
		bucket: bucket,
		logger: logger,
	}
}

// CheckSchema returns the tables that drifted from the inventory models.
func (s *Service) CheckSchema(ctx context.Context) ([]database.SchemaDrift, error) {
	return inventory.CheckSchema(ctx, s.db)
}

// FixSchema migrates the inventory tables.
func (s *Service) FixSchema(ctx context.Context) error {
	s.logger.Info("Migrating inventory schema")
	return inventory.Migrate(ctx, s.db)
}

// CheckBucket reports whether the run-report bucket exists.
func (s *Service) CheckBucket(ctx context.Context) (bool, error) {
	if s.client == nil {
		return false, ErrArchiveDisabled
	}
	return s.client.BucketExists(ctx, s.bucket)
}

// FixBucket creates the run-report bucket.
func (s *Service) FixBucket(ctx context.Context) error {
	if s.client == nil {
		return ErrArchiveDisabled
	}
	s.logger.Info("Creating run-report bucket", zap.String("bucket", s.bucket))
	return s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
}

// Bucket returns the name of the run-report bucket.
func (s *Service) Bucket() string { return s.bucket }
