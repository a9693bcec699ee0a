package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/h19overflow/PipeWeave/internal/domain"
	"github.com/h19overflow/PipeWeave/internal/domain/entity"
	"github.com/h19overflow/PipeWeave/internal/rules"
)

type pipelineUsecase struct {
	pipelineRepo domain.PipelineRepository
	datasetRepo  domain.DatasetRepository
	schemaRepo   domain.SchemaRepository
	edaUc        domain.EDAUsecase
	agent        domain.PipelineAgent
	logger       *slog.Logger
}

// NewPipelineUsecase creates the pipeline business logic.
func NewPipelineUsecase(
	pipelineRepo domain.PipelineRepository,
	datasetRepo domain.DatasetRepository,
	schemaRepo domain.SchemaRepository,
	edaUc domain.EDAUsecase,
	agent domain.PipelineAgent,
	logger *slog.Logger,
) domain.PipelineUsecase {
	return &pipelineUsecase{
		pipelineRepo: pipelineRepo,
		datasetRepo:  datasetRepo,
		schemaRepo:   schemaRepo,
		edaUc:        edaUc,
		agent:        agent,
		logger:       logger,
	}
}

// Recommend runs the builder agent over the accepted schema and the latest
// profiling report and stores the result as a draft pipeline.
func (u *pipelineUsecase) Recommend(ctx context.Context, userID, datasetID, targetColumn string) (*entity.Pipeline, error) {
	if strings.TrimSpace(targetColumn) == "" {
		return nil, domain.NewInvalidInputError("target column is required")
	}

	ds, err := u.getOwnedDataset(ctx, userID, datasetID)
	if err != nil {
		return nil, err
	}
	if ds.Status != entity.DatasetValidated {
		return nil, domain.NewConflictError(fmt.Sprintf("dataset is %s, recommendation requires validated", ds.Status))
	}

	sd, err := u.schemaRepo.GetLatestByDataset(ctx, datasetID)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, domain.NewConflictError("dataset has no schema deduction, propose and accept one first")
		}
		return nil, err
	}
	if sd.Status != entity.SchemaAccepted {
		return nil, domain.NewConflictError(fmt.Sprintf("latest schema deduction is %s, expected accepted", sd.Status))
	}

	// Profiling stats sharpen the strategy choices but are not required.
	profile := u.latestProfile(ctx, userID, datasetID)

	cfg, err := u.agent.RecommendPipeline(ctx, sd.ProposedSchema, profile, targetColumn)
	if err != nil {
		return nil, fmt.Errorf("failed to recommend pipeline: %w", err)
	}

	p := &entity.Pipeline{
		UserID:      userID,
		DatasetID:   datasetID,
		Name:        fmt.Sprintf("Recommended pipeline for %s", ds.Name),
		Description: u.agent.DescribePlan(ctx, cfg),
		Config:      cfg,
		Version:     1,
		Status:      entity.PipelineDraft,
	}
	if err := u.pipelineRepo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}

	u.logger.Info("pipeline recommended", "pipeline_id", p.ID, "dataset_id", datasetID,
		"steps", len(cfg.Steps), "task_type", cfg.TaskType)
	return p, nil
}

// Create stores a hand-built draft pipeline.
func (u *pipelineUsecase) Create(ctx context.Context, in domain.CreatePipelineInput) (*entity.Pipeline, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, domain.NewInvalidInputError("pipeline name is required")
	}
	if in.Config.TargetColumn == "" {
		return nil, domain.NewInvalidInputError("target column is required")
	}
	if _, err := u.getOwnedDataset(ctx, in.UserID, in.DatasetID); err != nil {
		return nil, err
	}

	p := &entity.Pipeline{
		UserID:      in.UserID,
		DatasetID:   in.DatasetID,
		Name:        in.Name,
		Description: in.Description,
		Config:      in.Config,
		Version:     1,
		Status:      entity.PipelineDraft,
	}
	if err := u.pipelineRepo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}

	u.logger.Info("pipeline created", "pipeline_id", p.ID, "dataset_id", in.DatasetID)
	return p, nil
}

// GetByID returns a pipeline owned by the user.
func (u *pipelineUsecase) GetByID(ctx context.Context, userID, id string) (*entity.Pipeline, error) {
	return u.getOwned(ctx, userID, id)
}

// Update mutates a draft. Validated and archived pipelines are immutable;
// editing a plan that jobs may reference would corrupt their lineage.
func (u *pipelineUsecase) Update(ctx context.Context, userID, id string, in domain.UpdatePipelineInput) (*entity.Pipeline, error) {
	p, err := u.getOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if p.Status != entity.PipelineDraft {
		return nil, domain.NewConflictError(fmt.Sprintf("pipeline is %s, only drafts can be updated", p.Status))
	}

	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, domain.NewInvalidInputError("pipeline name is required")
		}
		p.Name = *in.Name
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Config != nil {
		p.Config = *in.Config
		p.Version++
	}

	if err := u.pipelineRepo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to update pipeline: %w", err)
	}
	return p, nil
}

// Validate runs the structural checks and promotes the draft.
func (u *pipelineUsecase) Validate(ctx context.Context, userID, id string) (*entity.Pipeline, error) {
	p, err := u.getOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	switch p.Status {
	case entity.PipelineValidated:
		return p, nil
	case entity.PipelineArchived:
		return nil, domain.NewConflictError("archived pipelines cannot be validated")
	}

	ds, err := u.getOwnedDataset(ctx, userID, p.DatasetID)
	if err != nil {
		return nil, err
	}
	if len(ds.ColumnNames) == 0 {
		return nil, domain.NewConflictError("dataset has no recorded columns, validate the dataset first")
	}

	result := rules.ValidatePipelineConfig(p.Config, ds.ColumnNames)
	if !result.Valid {
		return nil, domain.NewInvalidInputError("pipeline validation failed: " + strings.Join(result.Errors, "; "))
	}

	now := time.Now().UTC()
	p.Status = entity.PipelineValidated
	p.ValidatedAt = &now
	if err := u.pipelineRepo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to validate pipeline: %w", err)
	}

	u.logger.Info("pipeline validated", "pipeline_id", p.ID)
	return p, nil
}

// Archive retires a pipeline. Drafts are soft deleted outright; validated
// pipelines keep their row because jobs and models reference it.
func (u *pipelineUsecase) Archive(ctx context.Context, userID, id string) error {
	p, err := u.getOwned(ctx, userID, id)
	if err != nil {
		return err
	}

	switch p.Status {
	case entity.PipelineDraft:
		if err := u.pipelineRepo.SoftDelete(ctx, p.ID, time.Now().UTC()); err != nil {
			return fmt.Errorf("failed to delete pipeline: %w", err)
		}
	case entity.PipelineValidated:
		p.Status = entity.PipelineArchived
		if err := u.pipelineRepo.Update(ctx, p); err != nil {
			return fmt.Errorf("failed to archive pipeline: %w", err)
		}
	default:
		return domain.NewConflictError("pipeline is already archived")
	}

	u.logger.Info("pipeline archived", "pipeline_id", p.ID)
	return nil
}

// List returns the user's pipelines.
func (u *pipelineUsecase) List(ctx context.Context, f domain.PipelineFilter) ([]*entity.Pipeline, int64, error) {
	return u.pipelineRepo.List(ctx, f)
}

func (u *pipelineUsecase) getOwned(ctx context.Context, userID, id string) (*entity.Pipeline, error) {
	p, err := u.pipelineRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, domain.NewNotFoundError("pipeline", id)
	}
	return p, nil
}

func (u *pipelineUsecase) getOwnedDataset(ctx context.Context, userID, datasetID string) (*entity.Dataset, error) {
	ds, err := u.datasetRepo.GetByID(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	if ds.UserID != userID {
		return nil, domain.NewNotFoundError("dataset", datasetID)
	}
	return ds, nil
}

// latestProfile loads the column profiles from the newest completed report,
// or nil when profiling has not run.
func (u *pipelineUsecase) latestProfile(ctx context.Context, userID, datasetID string) []entity.ColumnProfile {
	report, err := u.edaUc.Latest(ctx, userID, datasetID)
	if err != nil || report.Status != entity.EDACompleted {
		return nil
	}
	full, err := u.edaUc.FullReport(ctx, userID, report.ID)
	if err != nil {
		u.logger.Warn("failed to load profiling report for recommendation", "error", err, "report_id", report.ID)
		return nil
	}
	return full.Columns
}
