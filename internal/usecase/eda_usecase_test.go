package usecase

import (
	"context"
	"testing"

	"github.com/bytedance/sonic"

	"github.com/h19overflow/PipeWeave/internal/domain"
	"github.com/h19overflow/PipeWeave/internal/domain/entity"
)

func TestGenerateEDA(t *testing.T) {
	edaRepo := newFakeEDARepo()
	datasetRepo := newFakeDatasetRepo()
	queue := newFakeQueue()
	uc := NewEDAUsecase(edaRepo, datasetRepo, newFakeStore(), queue, testLogger())

	ds := seedValidatedDataset(datasetRepo, nil, "u1")

	report, err := uc.Generate(context.Background(), "u1", ds.ID)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if report.Status != entity.EDAQueued {
		t.Errorf("status = %s, want queued", report.Status)
	}
	if report.TaskID == "" {
		t.Error("task id not recorded")
	}
	if len(queue.profiled) != 1 || queue.profiled[0] != report.ID {
		t.Errorf("enqueued %v, want [%s]", queue.profiled, report.ID)
	}

	ds.Status = entity.DatasetUploaded
	if _, err := uc.Generate(context.Background(), "u1", ds.ID); !domain.IsConflict(err) {
		t.Errorf("generate on uploaded dataset = %v, want conflict", err)
	}
	if _, err := uc.Generate(context.Background(), "u2", ds.ID); !domain.IsNotFound(err) {
		t.Errorf("cross-user generate = %v, want not found", err)
	}
}

func TestFullReportInline(t *testing.T) {
	edaRepo := newFakeEDARepo()
	uc := NewEDAUsecase(edaRepo, newFakeDatasetRepo(), newFakeStore(), newFakeQueue(), testLogger())

	full := &entity.EDAFullReport{
		Summary:       entity.EDASummary{NumRows: 100, NumColumns: 3},
		ReportVersion: "1.0",
	}
	report := &entity.EDAReport{
		DatasetID:       "ds-1",
		UserID:          "u1",
		Status:          entity.EDACompleted,
		StorageLocation: entity.StoragePostgres,
		FullReport:      full,
	}
	edaRepo.Create(context.Background(), report)

	got, err := uc.FullReport(context.Background(), "u1", report.ID)
	if err != nil {
		t.Fatalf("FullReport: %v", err)
	}
	if got.Summary.NumRows != 100 {
		t.Errorf("rows = %d, want 100", got.Summary.NumRows)
	}
}

func TestFullReportFromObjectStore(t *testing.T) {
	edaRepo := newFakeEDARepo()
	store := newFakeStore()
	uc := NewEDAUsecase(edaRepo, newFakeDatasetRepo(), store, newFakeQueue(), testLogger())

	full := entity.EDAFullReport{
		Summary:       entity.EDASummary{NumRows: 5000},
		ReportVersion: "1.0",
	}
	raw, err := sonic.Marshal(full)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	key := "eda_reports/u1/big/report.json"
	store.objects[key] = raw

	report := &entity.EDAReport{
		DatasetID:       "ds-1",
		UserID:          "u1",
		Status:          entity.EDACompleted,
		StorageLocation: entity.StorageS3,
		S3Key:           key,
	}
	edaRepo.Create(context.Background(), report)

	got, err := uc.FullReport(context.Background(), "u1", report.ID)
	if err != nil {
		t.Fatalf("FullReport: %v", err)
	}
	if got.Summary.NumRows != 5000 {
		t.Errorf("rows = %d, want 5000", got.Summary.NumRows)
	}
}

func TestFullReportGuards(t *testing.T) {
	edaRepo := newFakeEDARepo()
	uc := NewEDAUsecase(edaRepo, newFakeDatasetRepo(), newFakeStore(), newFakeQueue(), testLogger())

	report := &entity.EDAReport{
		DatasetID: "ds-1",
		UserID:    "u1",
		Status:    entity.EDARunning,
	}
	edaRepo.Create(context.Background(), report)

	if _, err := uc.FullReport(context.Background(), "u1", report.ID); !domain.IsConflict(err) {
		t.Errorf("incomplete report = %v, want conflict", err)
	}
	if _, err := uc.FullReport(context.Background(), "u2", report.ID); !domain.IsNotFound(err) {
		t.Errorf("cross-user report = %v, want not found", err)
	}
}
