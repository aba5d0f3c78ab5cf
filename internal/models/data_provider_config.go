package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ConnectedProvider represents the GORM model for connected_providers
type ConnectedProvider struct {
	ID               string     `gorm:"column:id;primaryKey;type:uuid"`
	ProviderTypeID   string     `gorm:"column:provider_type_id;type:varchar(50);not null;index"`
	Name             string     `gorm:"column:name;type:varchar(255);not null"`
	Category         string     `gorm:"column:category;type:varchar(50);not null"`
	Status           string     `gorm:"column:status;type:varchar(20);not null;default:'active'"`
	Description      string     `gorm:"column:description;type:text"`
	Credentials      StringMap  `gorm:"column:credentials;type:jsonb"`
	FieldMappings    StringMap  `gorm:"column:field_mappings;type:jsonb"`
	RecordsProcessed int64      `gorm:"column:records_processed;default:0"`
	ErrorCount       int        `gorm:"column:error_count;default:0"`
	LastSyncAt       *time.Time `gorm:"column:last_sync_at"`
	CreatedAt        time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (ConnectedProvider) TableName() string {
	return "connected_providers"
}

// BeforeCreate assigns an ID when the caller did not set one
func (p *ConnectedProvider) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// StringMap is a string-to-string map stored as a JSONB column
type StringMap map[string]string

// Scan implements the sql.Scanner interface for StringMap
func (m *StringMap) Scan(value interface{}) error {
	if value == nil {
		*m = StringMap{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("unsupported StringMap source %T", value)
	}

	result := make(map[string]string)
	if len(bytes) > 0 {
		if err := json.Unmarshal(bytes, &result); err != nil {
			return err
		}
	}

	*m = result
	return nil
}

// Value implements the driver.Valuer interface for StringMap
func (m StringMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
