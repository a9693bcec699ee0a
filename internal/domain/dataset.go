package domain

import (
	"context"
	"time"

	"github.com/h19overflow/PipeWeave/internal/domain/entity"
)

// DatasetFilter narrows dataset listings.
type DatasetFilter struct {
	UserID string
	Status entity.DatasetStatus
	Search string
	Offset int
	Limit  int
}

// DatasetRepository is the persistence contract for datasets.
type DatasetRepository interface {
	Create(ctx context.Context, ds *entity.Dataset) error
	GetByID(ctx context.Context, id string) (*entity.Dataset, error)
	Update(ctx context.Context, ds *entity.Dataset) error
	UpdateStatus(ctx context.Context, id string, from, to entity.DatasetStatus) error
	SoftDelete(ctx context.Context, id string, at time.Time) error
	List(ctx context.Context, f DatasetFilter) ([]*entity.Dataset, int64, error)
}

// CreateDatasetInput starts an upload and yields a presigned PUT URL.
type CreateDatasetInput struct {
	UserID      string
	Name        string
	Description string
	Filename    string
	ContentType string
	SizeBytes   int64
}

// DatasetUploadTicket is returned from Create: the record plus the upload URL.
type DatasetUploadTicket struct {
	Dataset   *entity.Dataset
	UploadURL string
	ExpiresIn time.Duration
}

// DatasetUsecase is the dataset business logic.
type DatasetUsecase interface {
	Create(ctx context.Context, in CreateDatasetInput) (*DatasetUploadTicket, error)
	CompleteUpload(ctx context.Context, userID, datasetID string) (*entity.Dataset, error)
	GetByID(ctx context.Context, userID, datasetID string) (*entity.Dataset, error)
	List(ctx context.Context, f DatasetFilter) ([]*entity.Dataset, int64, error)
	DownloadURL(ctx context.Context, userID, datasetID string) (string, time.Duration, error)
	Delete(ctx context.Context, userID, datasetID string) error
}
