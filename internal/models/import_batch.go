package models

import (
	"time"

	"github.com/google/uuid"
)

// ImportStatus is the outcome of an executed import
type ImportStatus string

const (
	ImportStatusSucceeded ImportStatus = "succeeded"
	ImportStatusPartial   ImportStatus = "partial"
	ImportStatusFailed    ImportStatus = "failed"
)

// ImportBatch records one executed import of an export file
type ImportBatch struct {
	ID            uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uint         `gorm:"index;not null" json:"user_id"`
	AccountID     uint         `gorm:"index;not null" json:"account_id"`
	FileName      string       `gorm:"size:255" json:"file_name"`
	FileSHA256    string       `gorm:"column:file_sha256;size:64;index" json:"file_sha256"`
	TotalRows     int          `json:"total_rows"`
	ValidRows     int          `json:"valid_rows"`
	DuplicateRows int          `json:"duplicate_rows"`
	ErrorRows     int          `json:"error_rows"`
	ImportedRows  int          `json:"imported_rows"`
	Status        ImportStatus `gorm:"size:20;not null" json:"status"`
	FailureReason string       `gorm:"size:255" json:"failure_reason,omitempty"`
	CreatedAt     time.Time    `gorm:"index" json:"created_at"`

	// Relations
	Account Account `gorm:"foreignKey:AccountID" json:"-"`
}

// TableName specifies the table name for ImportBatch model
func (ImportBatch) TableName() string {
	return "import_batches"
}
