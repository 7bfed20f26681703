package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// TrackingEntry is one recorded tracking-file upload for a service, with the
// camera diff computed against the previous camera list at upload time.
type TrackingEntry struct {
	Path    string   `json:"path"`
	Kind    string   `json:"kind"`
	Date    string   `json:"date"`
	Added   []string `json:"added,omitempty"`
	Removed []string `json:"removed,omitempty"`
}

// TrackingList stores tracking history as JSON in the database.
type TrackingList []TrackingEntry

// Value implements the driver.Valuer interface for database serialization.
func (l TrackingList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
func (l *TrackingList) Scan(value interface{}) error {
	if value == nil {
		*l = TrackingList{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan TrackingList")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, l)
}

// Service represents a tracked telecommunications circuit/line. IDs are
// assigned by the operations team, not auto-generated, so registrations
// arrive with an explicit primary key. CarrierCode holds the identifier the
// carrier uses for the same circuit (e.g. "CRT-000123" for TELXIUS).
type Service struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	Name         string       `gorm:"type:text;index" json:"name"`
	ClientName   string       `gorm:"type:text;index" json:"client_name,omitempty"`
	ClientID     *uint        `gorm:"index" json:"client_id,omitempty"`
	TrackingPath string       `gorm:"type:text" json:"tracking_path,omitempty"`
	Trackings    TrackingList `gorm:"type:text" json:"trackings,omitempty"`
	Cameras      StringArray  `gorm:"type:text" json:"cameras,omitempty"`
	CarrierName  string       `gorm:"type:text" json:"carrier_name,omitempty"`
	CarrierCode  string       `gorm:"type:text;index" json:"carrier_code,omitempty"`
	CarrierID    *uint        `gorm:"index" json:"carrier_id,omitempty"`
	CreatedAt    time.Time    `gorm:"index" json:"created_at"`
}

// TableName returns the database table name for Service.
func (Service) TableName() string {
	return "services"
}
