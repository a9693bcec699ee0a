package entity

import "time"

// SchemaStatus tracks the review state of a schema proposal.
type SchemaStatus string

const (
	SchemaProposed   SchemaStatus = "proposed"
	SchemaAccepted   SchemaStatus = "accepted"
	SchemaRejected   SchemaStatus = "rejected"
	SchemaSuperseded SchemaStatus = "superseded"
)

// ColumnSchema is a single column's inferred type in a schema proposal.
type ColumnSchema struct {
	Name           string  `json:"name"`
	SuggestedType  string  `json:"suggested_type"`
	Confidence     float64 `json:"confidence"`
	Reasoning      string  `json:"reasoning"`
	DatetimeFormat string  `json:"datetime_format,omitempty"`
}

// ColumnMetadata carries the statistical signals that informed the proposal.
type ColumnMetadata struct {
	Name         string   `json:"name"`
	SampleValues []string `json:"sample_values"`
	UniqueRatio  float64  `json:"unique_ratio"`
	ParseSuccess float64  `json:"parse_success"`
}

// SchemaDeduction is an agent-proposed column type assignment for a dataset.
type SchemaDeduction struct {
	ID              string
	DatasetID       string
	UserID          string
	ProposedSchema  []ColumnSchema
	ColumnMetadata  []ColumnMetadata
	Status          SchemaStatus
	ConfidenceScore float64
	AgentVersion    string
	RejectionReason string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsTerminal reports whether the deduction can no longer change state.
func (s *SchemaDeduction) IsTerminal() bool {
	return s.Status == SchemaRejected || s.Status == SchemaSuperseded
}
