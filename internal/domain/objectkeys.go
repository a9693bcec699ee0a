package domain

import "fmt"

// Object key layout. Raw uploads and derived artifacts are namespaced by
// owner so per-user cleanup is a prefix delete.

// DatasetRawKey is where an uploaded CSV lands.
func DatasetRawKey(userID, datasetID, filename string) string {
	return fmt.Sprintf("datasets/%s/%s/raw/%s", userID, datasetID, filename)
}

// DatasetProcessedKey is where a preprocessed copy lands.
func DatasetProcessedKey(userID, datasetID string) string {
	return fmt.Sprintf("datasets/%s/%s/processed/data.csv", userID, datasetID)
}

// EDAReportKey is where an oversized profiling report body lands.
func EDAReportKey(userID, reportID string) string {
	return fmt.Sprintf("eda_reports/%s/%s/report.json", userID, reportID)
}

// ModelArtifactKey is where a trained forest is serialized.
func ModelArtifactKey(userID, jobID string) string {
	return fmt.Sprintf("models/%s/%s/model.gob", userID, jobID)
}

// ModelConfigKey is where the training-time pipeline snapshot lands.
func ModelConfigKey(userID, jobID string) string {
	return fmt.Sprintf("models/%s/%s/config.json", userID, jobID)
}

// ModelMetadataKey is where evaluation metadata lands.
func ModelMetadataKey(userID, jobID string) string {
	return fmt.Sprintf("models/%s/%s/metadata.json", userID, jobID)
}
