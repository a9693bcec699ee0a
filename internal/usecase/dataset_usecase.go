package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/h19overflow/PipeWeave/internal/config"
	"github.com/h19overflow/PipeWeave/internal/domain"
	"github.com/h19overflow/PipeWeave/internal/domain/entity"
)

// Presigned URL lifetimes.
const (
	uploadURLExpiry   = 5 * time.Minute
	downloadURLExpiry = time.Hour
)

type datasetUsecase struct {
	datasetRepo domain.DatasetRepository
	store       domain.ObjectStore
	queue       domain.TaskQueue
	cfg         config.StorageConfig
	logger      *slog.Logger
}

// NewDatasetUsecase creates the dataset business logic.
func NewDatasetUsecase(
	datasetRepo domain.DatasetRepository,
	store domain.ObjectStore,
	queue domain.TaskQueue,
	cfg config.StorageConfig,
	logger *slog.Logger,
) domain.DatasetUsecase {
	return &datasetUsecase{
		datasetRepo: datasetRepo,
		store:       store,
		queue:       queue,
		cfg:         cfg,
		logger:      logger,
	}
}

// Create registers an uploading dataset and returns a presigned PUT URL for
// the client to push the CSV directly to object storage.
func (u *datasetUsecase) Create(ctx context.Context, in domain.CreateDatasetInput) (*domain.DatasetUploadTicket, error) {
	if err := u.validateCreateInput(in); err != nil {
		return nil, err
	}

	ds := &entity.Dataset{
		UserID:        in.UserID,
		Name:          in.Name,
		Description:   in.Description,
		S3Bucket:      u.cfg.Bucket,
		FileSizeBytes: in.SizeBytes,
		ContentType:   in.ContentType,
		Status:        entity.DatasetUploading,
	}
	if err := u.datasetRepo.Create(ctx, ds); err != nil {
		return nil, fmt.Errorf("failed to create dataset: %w", err)
	}

	// The key embeds the generated dataset ID, so it is written after Create.
	ds.S3KeyRaw = domain.DatasetRawKey(in.UserID, ds.ID, path.Base(in.Filename))
	if err := u.datasetRepo.Update(ctx, ds); err != nil {
		return nil, fmt.Errorf("failed to store object key: %w", err)
	}

	url, err := u.store.PresignedPut(ctx, ds.S3KeyRaw, in.ContentType, uploadURLExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to presign upload: %w", err)
	}

	u.logger.Info("dataset upload started", "dataset_id", ds.ID, "user_id", in.UserID)
	return &domain.DatasetUploadTicket{
		Dataset:   ds,
		UploadURL: url,
		ExpiresIn: uploadURLExpiry,
	}, nil
}

// CompleteUpload confirms the object landed, records its hash and size, and
// queues background validation.
func (u *datasetUsecase) CompleteUpload(ctx context.Context, userID, datasetID string) (*entity.Dataset, error) {
	ds, err := u.getOwned(ctx, userID, datasetID)
	if err != nil {
		return nil, err
	}
	if ds.Status != entity.DatasetUploading {
		return nil, domain.NewConflictError(fmt.Sprintf("dataset is %s, expected uploading", ds.Status))
	}

	size, _, err := u.store.Stat(ctx, ds.S3KeyRaw)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, domain.NewInvalidInputError("no uploaded file found for dataset")
		}
		return nil, fmt.Errorf("failed to stat upload: %w", err)
	}
	if u.cfg.MaxDatasetSizeBytes > 0 && size > u.cfg.MaxDatasetSizeBytes {
		return nil, domain.NewInvalidInputError(fmt.Sprintf("file exceeds maximum size of %d bytes", u.cfg.MaxDatasetSizeBytes))
	}

	hash, err := u.hashObject(ctx, ds.S3KeyRaw)
	if err != nil {
		return nil, fmt.Errorf("failed to hash upload: %w", err)
	}

	// Compare-and-swap guards against a concurrent complete call.
	if err := u.datasetRepo.UpdateStatus(ctx, ds.ID, entity.DatasetUploading, entity.DatasetUploaded); err != nil {
		return nil, err
	}
	ds.Status = entity.DatasetUploaded
	ds.FileSizeBytes = size
	ds.FileHashSHA256 = hash
	if err := u.datasetRepo.Update(ctx, ds); err != nil {
		return nil, fmt.Errorf("failed to record upload: %w", err)
	}

	taskID, err := u.queue.EnqueueDatasetValidation(ctx, ds.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to queue validation: %w", err)
	}

	u.logger.Info("dataset upload completed", "dataset_id", ds.ID, "size_bytes", size, "task_id", taskID)
	return ds, nil
}

// GetByID returns a dataset owned by the user.
func (u *datasetUsecase) GetByID(ctx context.Context, userID, datasetID string) (*entity.Dataset, error) {
	return u.getOwned(ctx, userID, datasetID)
}

// List returns the user's datasets.
func (u *datasetUsecase) List(ctx context.Context, f domain.DatasetFilter) ([]*entity.Dataset, int64, error) {
	return u.datasetRepo.List(ctx, f)
}

// DownloadURL presigns a GET for the raw CSV.
func (u *datasetUsecase) DownloadURL(ctx context.Context, userID, datasetID string) (string, time.Duration, error) {
	ds, err := u.getOwned(ctx, userID, datasetID)
	if err != nil {
		return "", 0, err
	}
	if ds.S3KeyRaw == "" {
		return "", 0, domain.NewConflictError("dataset has no uploaded file")
	}
	url, err := u.store.PresignedGet(ctx, ds.S3KeyRaw, downloadURLExpiry)
	if err != nil {
		return "", 0, fmt.Errorf("failed to presign download: %w", err)
	}
	return url, downloadURLExpiry, nil
}

// Delete soft deletes the record and removes the stored objects.
func (u *datasetUsecase) Delete(ctx context.Context, userID, datasetID string) error {
	ds, err := u.getOwned(ctx, userID, datasetID)
	if err != nil {
		return err
	}
	if err := u.datasetRepo.SoftDelete(ctx, ds.ID, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to delete dataset: %w", err)
	}

	// Object cleanup is best effort: a leaked object is recoverable, a
	// failed API delete is not.
	for _, key := range []string{ds.S3KeyRaw, ds.S3KeyProcessed} {
		if key == "" {
			continue
		}
		if err := u.store.Delete(ctx, key); err != nil {
			u.logger.Error("failed to remove object", "error", err, "key", key)
		}
	}

	u.logger.Info("dataset deleted", "dataset_id", ds.ID, "user_id", userID)
	return nil
}

func (u *datasetUsecase) getOwned(ctx context.Context, userID, datasetID string) (*entity.Dataset, error) {
	ds, err := u.datasetRepo.GetByID(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	// Other users' datasets read as absent rather than forbidden.
	if ds.UserID != userID {
		return nil, domain.NewNotFoundError("dataset", datasetID)
	}
	return ds, nil
}

func (u *datasetUsecase) validateCreateInput(in domain.CreateDatasetInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return domain.NewInvalidInputError("dataset name is required")
	}
	if len(in.Name) > 255 {
		return domain.NewInvalidInputError("dataset name too long (max 255 characters)")
	}
	if !strings.HasSuffix(strings.ToLower(in.Filename), ".csv") {
		return domain.NewInvalidInputError("only .csv files are supported")
	}
	if in.SizeBytes <= 0 {
		return domain.NewInvalidInputError("file size must be positive")
	}
	if u.cfg.MaxDatasetSizeBytes > 0 && in.SizeBytes > u.cfg.MaxDatasetSizeBytes {
		return domain.NewInvalidInputError(fmt.Sprintf("file exceeds maximum size of %d bytes", u.cfg.MaxDatasetSizeBytes))
	}
	return nil
}

func (u *datasetUsecase) hashObject(ctx context.Context, key string) (string, error) {
	body, err := u.store.Get(ctx, key)
	if err != nil {
		return "", err
	}
	defer body.Close()

	h := sha256.New()
	if _, err := io.Copy(h, body); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
