package folder

import "time"

// Folder is a node in a tenant's namespace tree. ParentID nil means the
// folder is a tenant root; each tenant may have several roots.
// (owner_id, parent_id, name) is unique case-insensitively.
type Folder struct {
	ID       string  `gorm:"column:id;primaryKey" json:"id"`
	OwnerID  string  `gorm:"column:owner_id;index" json:"owner_id"`
	ParentID *string `gorm:"column:parent_id;index" json:"parent_id,omitempty"`
	Name     string  `gorm:"column:name" json:"name"`

	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Folder) TableName() string { return "folders" }

// IsRoot reports whether the folder is a tenant root.
func (f *Folder) IsRoot() bool { return f.ParentID == nil }

// PathRebuild is a queued request to recompute derived storage paths for
// every file under a folder. Rows are deleted once the rebuild succeeds;
// failed runs are retried by the maintenance job. The job only recomputes
// derived state, so re-running it from scratch is always safe.
type PathRebuild struct {
	ID       string `gorm:"column:id;primaryKey" json:"id"`
	FolderID string `gorm:"column:folder_id;index" json:"folder_id"`
	Attempts int    `gorm:"column:attempts" json:"attempts"`

	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (PathRebuild) TableName() string { return "path_rebuilds" }

// NamespaceLock is a per-tenant row used for exclusive acquisition during
// structural namespace mutations (create/rename/move/delete).
type NamespaceLock struct {
	OwnerID string `gorm:"column:owner_id;primaryKey"`
}

func (NamespaceLock) TableName() string { return "namespace_locks" }

// FileRef is the view of a file the namespace needs during a path rebuild.
type FileRef struct {
	ID       string
	FileName string
}
