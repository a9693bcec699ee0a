package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/h19overflow/PipeWeave/internal/domain"
	"github.com/h19overflow/PipeWeave/internal/domain/entity"
	"github.com/h19overflow/PipeWeave/internal/rules"
	"github.com/h19overflow/PipeWeave/pkg/dataframe"
)

// schemaSampleSize is how many non-missing values per column feed deduction.
const schemaSampleSize = 10

var allowedColumnTypes = map[string]bool{
	"numeric": true, "categorical": true, "datetime": true, "text": true, "boolean": true,
}

type schemaUsecase struct {
	schemaRepo  domain.SchemaRepository
	datasetRepo domain.DatasetRepository
	store       domain.ObjectStore
	agent       domain.SchemaAgent
	logger      *slog.Logger
}

// NewSchemaUsecase creates the schema deduction business logic.
func NewSchemaUsecase(
	schemaRepo domain.SchemaRepository,
	datasetRepo domain.DatasetRepository,
	store domain.ObjectStore,
	agent domain.SchemaAgent,
	logger *slog.Logger,
) domain.SchemaUsecase {
	return &schemaUsecase{
		schemaRepo:  schemaRepo,
		datasetRepo: datasetRepo,
		store:       store,
		agent:       agent,
		logger:      logger,
	}
}

// Propose samples the dataset and stores a fresh type proposal.
func (u *schemaUsecase) Propose(ctx context.Context, userID, datasetID string) (*entity.SchemaDeduction, error) {
	ds, err := u.datasetRepo.GetByID(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	if ds.UserID != userID {
		return nil, domain.NewNotFoundError("dataset", datasetID)
	}
	if ds.Status != entity.DatasetValidated {
		return nil, domain.NewConflictError(fmt.Sprintf("dataset is %s, schema deduction requires validated", ds.Status))
	}

	meta, err := u.sampleColumns(ctx, ds)
	if err != nil {
		return nil, err
	}

	schema, agentVersion, err := u.agent.DeduceSchema(ctx, meta)
	if err != nil {
		return nil, fmt.Errorf("failed to deduce schema: %w", err)
	}

	// Fill the parse-success signal now that types are known, and average
	// per-column confidence into the overall score.
	var confidenceSum float64
	for i := range schema {
		meta[i].ParseSuccess = rules.ParseSuccessRate(rules.ColumnType(schema[i].SuggestedType), meta[i].SampleValues)
		confidenceSum += schema[i].Confidence
	}

	sd := &entity.SchemaDeduction{
		DatasetID:       ds.ID,
		UserID:          userID,
		ProposedSchema:  schema,
		ColumnMetadata:  meta,
		Status:          entity.SchemaProposed,
		ConfidenceScore: confidenceSum / float64(len(schema)),
		AgentVersion:    agentVersion,
	}
	if err := u.schemaRepo.Create(ctx, sd); err != nil {
		return nil, fmt.Errorf("failed to store schema proposal: %w", err)
	}

	u.logger.Info("schema proposed", "deduction_id", sd.ID, "dataset_id", ds.ID,
		"columns", len(schema), "confidence", sd.ConfidenceScore)
	return sd, nil
}

// GetByID returns a deduction owned by the user.
func (u *schemaUsecase) GetByID(ctx context.Context, userID, id string) (*entity.SchemaDeduction, error) {
	return u.getOwned(ctx, userID, id)
}

// Latest returns the most recent deduction for a dataset.
func (u *schemaUsecase) Latest(ctx context.Context, userID, datasetID string) (*entity.SchemaDeduction, error) {
	sd, err := u.schemaRepo.GetLatestByDataset(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	if sd.UserID != userID {
		return nil, domain.NewNotFoundError("schema deduction", datasetID)
	}
	return sd, nil
}

// Accept marks the proposal accepted, applying any reviewer overrides first.
// A previously accepted deduction for the same dataset becomes superseded.
func (u *schemaUsecase) Accept(ctx context.Context, userID, id string, overrides []domain.SchemaOverride) (*entity.SchemaDeduction, error) {
	sd, err := u.getOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if sd.Status != entity.SchemaProposed {
		return nil, domain.NewConflictError(fmt.Sprintf("schema deduction is %s, expected proposed", sd.Status))
	}

	for _, ov := range overrides {
		if !allowedColumnTypes[ov.Type] {
			return nil, domain.NewInvalidInputError(fmt.Sprintf("unknown column type %q", ov.Type))
		}
		found := false
		for i := range sd.ProposedSchema {
			if sd.ProposedSchema[i].Name == ov.Column {
				sd.ProposedSchema[i].SuggestedType = ov.Type
				sd.ProposedSchema[i].Reasoning = "Overridden by reviewer"
				found = true
				break
			}
		}
		if !found {
			return nil, domain.NewInvalidInputError(fmt.Sprintf("override for unknown column %q", ov.Column))
		}
	}

	if err := u.schemaRepo.SupersedeByDataset(ctx, sd.DatasetID); err != nil {
		return nil, fmt.Errorf("failed to supersede prior schemas: %w", err)
	}
	sd.Status = entity.SchemaAccepted
	if err := u.schemaRepo.Update(ctx, sd); err != nil {
		return nil, fmt.Errorf("failed to accept schema: %w", err)
	}

	u.logger.Info("schema accepted", "deduction_id", sd.ID, "dataset_id", sd.DatasetID, "overrides", len(overrides))
	return sd, nil
}

// Reject marks the proposal rejected with the reviewer's reason.
func (u *schemaUsecase) Reject(ctx context.Context, userID, id, reason string) (*entity.SchemaDeduction, error) {
	sd, err := u.getOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if sd.Status != entity.SchemaProposed {
		return nil, domain.NewConflictError(fmt.Sprintf("schema deduction is %s, expected proposed", sd.Status))
	}

	sd.Status = entity.SchemaRejected
	sd.RejectionReason = reason
	if err := u.schemaRepo.Update(ctx, sd); err != nil {
		return nil, fmt.Errorf("failed to reject schema: %w", err)
	}

	u.logger.Info("schema rejected", "deduction_id", sd.ID, "dataset_id", sd.DatasetID)
	return sd, nil
}

// History lists every deduction recorded for a dataset, newest first.
func (u *schemaUsecase) History(ctx context.Context, userID, datasetID string, offset, limit int) ([]*entity.SchemaDeduction, int64, error) {
	ds, err := u.datasetRepo.GetByID(ctx, datasetID)
	if err != nil {
		return nil, 0, err
	}
	if ds.UserID != userID {
		return nil, 0, domain.NewNotFoundError("dataset", datasetID)
	}
	return u.schemaRepo.ListByDataset(ctx, datasetID, offset, limit)
}

func (u *schemaUsecase) getOwned(ctx context.Context, userID, id string) (*entity.SchemaDeduction, error) {
	sd, err := u.schemaRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sd.UserID != userID {
		return nil, domain.NewNotFoundError("schema deduction", id)
	}
	return sd, nil
}

// sampleColumns loads the raw CSV and extracts the per-column signals the
// deduction agent works from.
func (u *schemaUsecase) sampleColumns(ctx context.Context, ds *entity.Dataset) ([]entity.ColumnMetadata, error) {
	body, err := u.store.Get(ctx, ds.S3KeyRaw)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch dataset: %w", err)
	}
	defer body.Close()

	df, err := dataframe.ReadCSV(body)
	if err != nil {
		return nil, domain.NewInvalidInputError(fmt.Sprintf("dataset is not parseable: %v", err))
	}

	cols := df.Columns()
	meta := make([]entity.ColumnMetadata, 0, len(cols))
	for _, name := range cols {
		values, err := df.Column(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read column %q: %w", name, err)
		}
		unique := make(map[string]struct{}, len(values))
		nonMissing := 0
		for _, v := range values {
			if dataframe.IsMissing(v) {
				continue
			}
			nonMissing++
			unique[v] = struct{}{}
		}
		ratio := 0.0
		if nonMissing > 0 {
			ratio = float64(len(unique)) / float64(nonMissing)
		}
		sample, err := df.Sample(name, schemaSampleSize)
		if err != nil {
			return nil, fmt.Errorf("failed to sample column %q: %w", name, err)
		}
		meta = append(meta, entity.ColumnMetadata{
			Name:         name,
			SampleValues: sample,
			UniqueRatio:  ratio,
		})
	}
	return meta, nil
}
