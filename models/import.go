package models

import (
	"encoding/json"
	"time"
)

// ValidationResult lists every rule a candidate row failed.
type ValidationResult struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

// ImportError reports why the row at Index of the submitted batch was rejected.
// Row is the 1-based line in the uploaded sheet, zero when the batch did not
// come from a CSV or XLSX file.
type ImportError struct {
	Product ProductInput `json:"product"`
	Error   string       `json:"error"`
	Index   int          `json:"index"`
	Row     int          `json:"row,omitempty"`
}

// ImportResult is the outcome of one batch.
// len(Successful)+len(Failed) always equals TotalProcessed.
type ImportResult struct {
	Successful     []Product     `json:"successful"`
	Failed         []ImportError `json:"failed"`
	TotalProcessed int           `json:"totalProcessed"`
}

// ImportSource identifies where a batch came from.
type ImportSource string

const (
	SourceJSON ImportSource = "json"
	SourceCSV  ImportSource = "csv"
	SourceXLSX ImportSource = "xlsx"
	SourceCLI  ImportSource = "cli"
)

// ImportRun is the audit row written after every executed batch.
type ImportRun struct {
	ID         string       `gorm:"type:uuid;primaryKey" json:"id"`
	JobID      string       `gorm:"index" json:"jobId,omitempty"`
	Source     ImportSource `gorm:"type:varchar(16);not null" json:"source"`
	Actor      string       `gorm:"type:varchar(255)" json:"actor,omitempty"`
	Total      int          `gorm:"not null" json:"total"`
	Succeeded  int          `gorm:"not null" json:"succeeded"`
	Failed     int          `gorm:"not null" json:"failed"`
	StartedAt  time.Time    `gorm:"not null" json:"startedAt"`
	FinishedAt time.Time    `gorm:"not null" json:"finishedAt"`
}

// TableName pins the gorm table name.
func (ImportRun) TableName() string { return "import_runs" }

// JobStatus is the lifecycle state of an async import job.
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobDone       JobStatus = "done"
	JobFailed     JobStatus = "failed"
)

// ImportJob is the metadata kept in Redis for a queued file import.
type ImportJob struct {
	ID        string        `json:"id"`
	Status    JobStatus     `json:"status"`
	ObjectKey string        `json:"object_key"`
	Source    ImportSource  `json:"source"`
	Actor     string        `json:"actor,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	Error     string        `json:"error,omitempty"`
	Result    *ImportResult `json:"result,omitempty"`
}

// NumberValue reports whether v is a JSON or Go numeric value and returns it as float64.
// Numeric text is not a number.
func NumberValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
