package domain

import "time"

// Incident is an open claim against a service, unique per (service_id, number).
type Incident struct {
	ID                  uint       `gorm:"primaryKey" json:"id"`
	ServiceID           uint       `gorm:"not null;index;uniqueIndex:uix_incident_number" json:"service_id"`
	Number              string     `gorm:"type:text;index;uniqueIndex:uix_incident_number" json:"number"`
	OpenedAt            *time.Time `gorm:"index" json:"opened_at,omitempty"`
	ClosedAt            *time.Time `gorm:"index" json:"closed_at,omitempty"`
	SolutionType        string     `gorm:"type:text" json:"solution_type,omitempty"`
	SolutionDescription string     `gorm:"type:text" json:"solution_description,omitempty"`
	Description         string     `gorm:"type:text" json:"description,omitempty"`
}

// TableName returns the database table name for Incident.
func (Incident) TableName() string {
	return "incidents"
}

// Camera is a registered splice chamber / street cabinet a service runs
// through, unique per (service_id, name).
type Camera struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Name      string `gorm:"type:text;index;uniqueIndex:uix_camera_service" json:"name"`
	ServiceID uint   `gorm:"index;uniqueIndex:uix_camera_service" json:"service_id"`
}

// TableName returns the database table name for Camera.
func (Camera) TableName() string {
	return "cameras"
}

// CameraAccess logs a field visit to a camera, with date and technician.
type CameraAccess struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ServiceID  uint      `gorm:"index" json:"service_id"`
	CameraID   *uint     `gorm:"index" json:"camera_id,omitempty"`
	CameraName string    `gorm:"type:text;index" json:"camera_name"`
	AccessedAt time.Time `gorm:"index" json:"accessed_at"`
	User       string    `gorm:"type:text" json:"user,omitempty"`
}

// TableName returns the database table name for CameraAccess.
func (CameraAccess) TableName() string {
	return "camera_accesses"
}
