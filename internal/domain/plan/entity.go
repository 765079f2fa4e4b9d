package plan

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ID identifies a subscription tier
type ID string

const (
	PlanFree     ID = "free"
	PlanPlus     ID = "plus"
	PlanBusiness ID = "business"
)

// Status of a subscription
type Status string

const (
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
)

// Feature codes resolved by the policy resolver.
const (
	FeatureStorage    = "storage"
	FeatureShareLinks = "share_links"
	FeatureFolders    = "folders"
)

// Keys understood inside feature metadata.
const (
	KeyMaxStorageMB            = "max_storage_mb"
	KeyMaxFileSizeMB           = "max_file_size_mb"
	KeyMaxActiveLinks          = "max_active_links"
	KeyMaxExpirationDays       = "max_expiration_days"
	KeyCustomExpirationAllowed = "custom_expiration_allowed"
	KeyPasswordAllowed         = "password_allowed"
	KeyFolderSharingAllowed    = "folder_sharing_allowed"
	KeyFoldersEnabled          = "enabled"
)

// BytesPerMB converts plan storage limits to bytes. Decimal megabytes, not
// binary: pricing is quoted in decimal MB and the factor must stay exact.
const BytesPerMB = 1_000_000

// Metadata is a JSON object column holding feature configuration.
type Metadata map[string]any

func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *Metadata) Scan(src any) error {
	if src == nil {
		*m = nil
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("unsupported metadata column type %T", src)
	}
}

// Plan defines a subscription tier available to tenants.
type Plan struct {
	ID           ID      `gorm:"column:id;primaryKey" json:"id"`
	Name         string  `gorm:"column:name" json:"name"`
	Description  string  `gorm:"column:description" json:"description"`
	PriceMonthly float64 `gorm:"column:price_monthly" json:"price_monthly"`

	IsActive  bool      `gorm:"column:is_active" json:"is_active"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Plan) TableName() string { return "plans" }

// Feature holds the default configuration for one feature, as a metadata map.
type Feature struct {
	Code     string   `gorm:"column:code;primaryKey" json:"code"`
	Name     string   `gorm:"column:name" json:"name"`
	Metadata Metadata `gorm:"column:metadata;type:json" json:"metadata"`
}

func (Feature) TableName() string { return "features" }

// PlanFeature is a plan-specific override of a feature's defaults. Only the
// keys it defines differ from the feature defaults; the override wins
// key-by-key, not wholesale.
type PlanFeature struct {
	PlanID      ID       `gorm:"column:plan_id;primaryKey" json:"plan_id"`
	FeatureCode string   `gorm:"column:feature_code;primaryKey" json:"feature_code"`
	Metadata    Metadata `gorm:"column:metadata;type:json" json:"metadata"`
}

func (PlanFeature) TableName() string { return "plan_features" }

// Subscription tracks the active plan for a tenant.
type Subscription struct {
	ID           string       `gorm:"column:id;primaryKey" json:"id"`
	OwnerID      string       `gorm:"column:owner_id;index" json:"owner_id"`
	PlanID       ID           `gorm:"column:plan_id" json:"plan_id"`
	Status       Status       `gorm:"column:status" json:"status"`
	StartedAt    time.Time    `gorm:"column:started_at" json:"started_at"`
	ExpiresAt    sql.NullTime `gorm:"column:expires_at" json:"expires_at,omitempty"`
	CancelledAt  sql.NullTime `gorm:"column:cancelled_at" json:"cancelled_at,omitempty"`
	CancelReason sql.NullString `gorm:"column:cancel_reason" json:"cancel_reason,omitempty"`
	CreatedAt    time.Time    `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"column:updated_at" json:"updated_at"`
}

func (Subscription) TableName() string { return "subscriptions" }

// IsExpired checks if the subscription has passed its expiry date
func (s *Subscription) IsExpired() bool {
	if !s.ExpiresAt.Valid {
		return false
	}
	return time.Now().After(s.ExpiresAt.Time)
}

// IsActive checks if subscription is currently usable
func (s *Subscription) IsActive() bool {
	return s.Status == StatusActive && !s.IsExpired()
}

// SharePolicy is the effective share-link policy for a tenant's plan.
// Nil numeric limits mean unlimited.
type SharePolicy struct {
	MaxActiveLinks          *int64
	MaxExpirationDays       *int64
	CustomExpirationAllowed bool
	PasswordAllowed         bool
	FolderSharingAllowed    bool
}
