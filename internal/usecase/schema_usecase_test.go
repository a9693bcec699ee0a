package usecase

import (
	"context"
	"testing"

	"github.com/h19overflow/PipeWeave/internal/domain"
	"github.com/h19overflow/PipeWeave/internal/domain/entity"
)

func seedValidatedDataset(repo *fakeDatasetRepo, store *fakeStore, userID string) *entity.Dataset {
	ds := &entity.Dataset{
		UserID:   userID,
		Name:     "people",
		S3KeyRaw: "datasets/" + userID + "/ds/raw/people.csv",
		Status:   entity.DatasetValidated,
		ColumnNames: []string{
			"age", "city", "label",
		},
	}
	repo.Create(context.Background(), ds)
	if store != nil {
		store.objects[ds.S3KeyRaw] = []byte("age,city,label\n20,Lisbon,yes\n30,Porto,no\n40,Faro,yes\n")
	}
	return ds
}

func newSchemaUsecaseUnderTest(t *testing.T) (domain.SchemaUsecase, *fakeSchemaRepo, *fakeDatasetRepo, *fakeStore) {
	t.Helper()
	schemaRepo := newFakeSchemaRepo()
	datasetRepo := newFakeDatasetRepo()
	store := newFakeStore()
	uc := NewSchemaUsecase(schemaRepo, datasetRepo, store, &fakeSchemaAgent{}, testLogger())
	return uc, schemaRepo, datasetRepo, store
}

func TestProposeSchema(t *testing.T) {
	uc, _, datasetRepo, store := newSchemaUsecaseUnderTest(t)
	ds := seedValidatedDataset(datasetRepo, store, "u1")

	sd, err := uc.Propose(context.Background(), "u1", ds.ID)
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}
	if sd.Status != entity.SchemaProposed {
		t.Errorf("status = %s, want proposed", sd.Status)
	}
	if len(sd.ProposedSchema) != 3 {
		t.Fatalf("columns = %d, want 3", len(sd.ProposedSchema))
	}
	if sd.ConfidenceScore <= 0 || sd.ConfidenceScore > 1 {
		t.Errorf("confidence = %v", sd.ConfidenceScore)
	}
	if sd.AgentVersion == "" {
		t.Error("agent version not recorded")
	}
	if len(sd.ColumnMetadata) != 3 || len(sd.ColumnMetadata[0].SampleValues) == 0 {
		t.Error("column metadata not captured")
	}
}

func TestProposeSchemaUniqueRatio(t *testing.T) {
	uc, _, datasetRepo, store := newSchemaUsecaseUnderTest(t)
	ds := seedValidatedDataset(datasetRepo, store, "u1")
	// Six rows: id is all distinct, city repeats two values, label has a
	// missing cell that must not count toward the ratio.
	store.objects[ds.S3KeyRaw] = []byte(
		"id,city,label\n" +
			"1,Lisbon,yes\n2,Porto,no\n3,Lisbon,yes\n4,Porto,\n5,Lisbon,no\n6,Porto,yes\n")

	sd, err := uc.Propose(context.Background(), "u1", ds.ID)
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}

	ratios := map[string]float64{}
	for _, m := range sd.ColumnMetadata {
		ratios[m.Name] = m.UniqueRatio
	}
	if ratios["id"] != 1.0 {
		t.Errorf("id unique ratio = %v, want 1.0", ratios["id"])
	}
	if got, want := ratios["city"], 2.0/6.0; got != want {
		t.Errorf("city unique ratio = %v, want %v", got, want)
	}
	if got, want := ratios["label"], 2.0/5.0; got != want {
		t.Errorf("label unique ratio = %v, want %v", got, want)
	}
}

func TestProposeSchemaRequiresValidated(t *testing.T) {
	uc, _, datasetRepo, store := newSchemaUsecaseUnderTest(t)
	ds := seedValidatedDataset(datasetRepo, store, "u1")
	ds.Status = entity.DatasetUploaded

	if _, err := uc.Propose(context.Background(), "u1", ds.ID); !domain.IsConflict(err) {
		t.Errorf("propose on uploaded dataset = %v, want conflict", err)
	}
	if _, err := uc.Propose(context.Background(), "u2", ds.ID); !domain.IsNotFound(err) {
		t.Errorf("cross-user propose = %v, want not found", err)
	}
}

func TestAcceptSchemaWithOverrides(t *testing.T) {
	uc, schemaRepo, datasetRepo, store := newSchemaUsecaseUnderTest(t)
	ds := seedValidatedDataset(datasetRepo, store, "u1")

	first, err := uc.Propose(context.Background(), "u1", ds.ID)
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}
	if _, err := uc.Accept(context.Background(), "u1", first.ID, nil); err != nil {
		t.Fatalf("Accept: %v", err)
	}

	// A second proposal accepted with an override supersedes the first.
	second, err := uc.Propose(context.Background(), "u1", ds.ID)
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}
	accepted, err := uc.Accept(context.Background(), "u1", second.ID, []domain.SchemaOverride{
		{Column: "age", Type: "numeric"},
	})
	if err != nil {
		t.Fatalf("Accept with override: %v", err)
	}

	for _, col := range accepted.ProposedSchema {
		if col.Name == "age" && col.SuggestedType != "numeric" {
			t.Errorf("override not applied, age type = %s", col.SuggestedType)
		}
	}
	if schemaRepo.deductions[first.ID].Status != entity.SchemaSuperseded {
		t.Errorf("first deduction = %s, want superseded", schemaRepo.deductions[first.ID].Status)
	}

	// Re-accepting a non-proposed deduction is a conflict.
	if _, err := uc.Accept(context.Background(), "u1", accepted.ID, nil); !domain.IsConflict(err) {
		t.Errorf("double accept = %v, want conflict", err)
	}
}

func TestAcceptSchemaInvalidOverride(t *testing.T) {
	uc, _, datasetRepo, store := newSchemaUsecaseUnderTest(t)
	ds := seedValidatedDataset(datasetRepo, store, "u1")

	sd, err := uc.Propose(context.Background(), "u1", ds.ID)
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}

	tests := []struct {
		name     string
		override domain.SchemaOverride
	}{
		{"unknown type", domain.SchemaOverride{Column: "age", Type: "complex"}},
		{"unknown column", domain.SchemaOverride{Column: "ghost", Type: "numeric"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := uc.Accept(context.Background(), "u1", sd.ID, []domain.SchemaOverride{tt.override}); !domain.IsInvalidInput(err) {
				t.Errorf("Accept = %v, want invalid input", err)
			}
		})
	}
}

func TestRejectSchema(t *testing.T) {
	uc, _, datasetRepo, store := newSchemaUsecaseUnderTest(t)
	ds := seedValidatedDataset(datasetRepo, store, "u1")

	sd, err := uc.Propose(context.Background(), "u1", ds.ID)
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}

	rejected, err := uc.Reject(context.Background(), "u1", sd.ID, "types look wrong")
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if rejected.Status != entity.SchemaRejected || rejected.RejectionReason != "types look wrong" {
		t.Errorf("rejected = %s/%q", rejected.Status, rejected.RejectionReason)
	}

	if _, err := uc.Accept(context.Background(), "u1", sd.ID, nil); !domain.IsConflict(err) {
		t.Errorf("accept after reject = %v, want conflict", err)
	}
}

func TestLatestSchema(t *testing.T) {
	uc, _, datasetRepo, store := newSchemaUsecaseUnderTest(t)
	ds := seedValidatedDataset(datasetRepo, store, "u1")

	if _, err := uc.Latest(context.Background(), "u1", ds.ID); !domain.IsNotFound(err) {
		t.Errorf("latest without proposals = %v, want not found", err)
	}

	first, _ := uc.Propose(context.Background(), "u1", ds.ID)
	second, _ := uc.Propose(context.Background(), "u1", ds.ID)
	_ = first

	latest, err := uc.Latest(context.Background(), "u1", ds.ID)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if latest.ID != second.ID {
		t.Errorf("latest = %s, want %s", latest.ID, second.ID)
	}
}
