package entity

import "time"

// EDAStatus tracks report generation.
type EDAStatus string

const (
	EDAQueued    EDAStatus = "queued"
	EDARunning   EDAStatus = "running"
	EDACompleted EDAStatus = "completed"
	EDAFailed    EDAStatus = "failed"
)

// StorageLocation says where the full report body lives.
type StorageLocation string

const (
	StoragePostgres StorageLocation = "postgres"
	StorageS3       StorageLocation = "s3"
)

// EDASummary is the compact overview always stored inline.
type EDASummary struct {
	NumRows           int64   `json:"num_rows"`
	NumColumns        int     `json:"num_columns"`
	MissingPercentage float64 `json:"missing_percentage"`
	DuplicateRows     int64   `json:"duplicate_rows"`
	MemoryUsageBytes  int64   `json:"memory_usage_bytes"`
}

// EDAInsight is a single data quality finding from the insight rules.
type EDAInsight struct {
	Type           string   `json:"type"`
	Severity       string   `json:"severity"`
	Column         string   `json:"column,omitempty"`
	Columns        []string `json:"columns,omitempty"`
	Message        string   `json:"message"`
	Recommendation string   `json:"recommendation"`
}

// ColumnProfile is the per-column section of the full report.
type ColumnProfile struct {
	Name         string   `json:"name"`
	Type         string   `json:"type"`
	MissingCount int64    `json:"missing_count"`
	MissingPct   float64  `json:"missing_pct"`
	UniqueCount  int64    `json:"unique_count"`
	Mean         *float64 `json:"mean,omitempty"`
	Std          *float64 `json:"std,omitempty"`
	Min          *float64 `json:"min,omitempty"`
	Max          *float64 `json:"max,omitempty"`
	Q25          *float64 `json:"q25,omitempty"`
	Q50          *float64 `json:"q50,omitempty"`
	Q75          *float64 `json:"q75,omitempty"`
	Skewness     *float64 `json:"skewness,omitempty"`
	OutlierCount int64    `json:"outlier_count"`
	TopValues    []string `json:"top_values,omitempty"`
}

// CorrelationPair is one entry of the numeric correlation matrix.
type CorrelationPair struct {
	ColumnA     string  `json:"column_a"`
	ColumnB     string  `json:"column_b"`
	Correlation float64 `json:"correlation"`
}

// EDAFullReport is the complete profiling output.
type EDAFullReport struct {
	Summary               EDASummary        `json:"summary"`
	Columns               []ColumnProfile   `json:"columns"`
	Correlations          []CorrelationPair `json:"correlations"`
	Insights              []EDAInsight      `json:"insights"`
	SummaryRecommendation string            `json:"summary_recommendation"`
	ReportVersion         string            `json:"report_version"`
}

// EDAReport is the tracked profiling run for a dataset.
type EDAReport struct {
	ID                string
	DatasetID         string
	UserID            string
	Summary           *EDASummary
	ReportSizeBytes   int64
	StorageLocation   StorageLocation
	FullReport        *EDAFullReport
	S3Bucket          string
	S3Key             string
	ReportVersion     string
	GenerationSeconds *float64
	Status            EDAStatus
	ErrorMessage      string
	TaskID            string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
