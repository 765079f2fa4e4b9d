package file

import "time"

// Status is the upload protocol state. pending is the only non-terminal
// state: a new upload always creates a new row.
type Status string

const (
	StatusPending  Status = "pending"
	StatusUploaded Status = "uploaded"
	StatusFailed   Status = "failed"
)

// Error codes recorded on failed uploads.
const (
	ErrCodeObjectNotFound = "ObjectNotFound"
	ErrCodeQuotaExceeded  = "QuotaExceeded"
	ErrCodeUploadExpired  = "UploadExpired"
)

// CloudFile is the server-side record of an object in the blob store.
// StorageKey is globally unique and immutable once issued; StoragePath is the
// derived owner-relative canonical path and is recomputed when ancestor
// folders are renamed or moved.
//
// DeletedAt is a plain nullable timestamp, not gorm's soft-delete type:
// scoping is explicit in the repository (FindActive…, FindDeleted…), never a
// hidden default filter.
type CloudFile struct {
	ID          string  `gorm:"column:id;primaryKey" json:"id"`
	OwnerID     string  `gorm:"column:owner_id;index" json:"owner_id"`
	FolderID    *string `gorm:"column:folder_id;index" json:"folder_id,omitempty"`
	FileName    string  `gorm:"column:file_name" json:"file_name"`
	Size        int64   `gorm:"column:size" json:"size"`
	ContentType string  `gorm:"column:content_type" json:"content_type"`

	Status       Status `gorm:"column:status;index" json:"status"`
	ErrorCode    string `gorm:"column:error_code" json:"error_code,omitempty"`
	ErrorMessage string `gorm:"column:error_message" json:"error_message,omitempty"`
	Checksum     string `gorm:"column:checksum" json:"checksum,omitempty"`

	StorageKey  string `gorm:"column:storage_key;uniqueIndex" json:"-"`
	StoragePath string `gorm:"column:storage_path;index" json:"storage_path"`

	DeletedAt *time.Time `gorm:"column:deleted_at;index" json:"deleted_at,omitempty"`
	CreatedAt time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time  `gorm:"column:updated_at" json:"updated_at"`
}

func (CloudFile) TableName() string { return "cloud_files" }

// IsDeleted reports whether the file is in the trash.
func (f *CloudFile) IsDeleted() bool { return f.DeletedAt != nil }
