package domain

import "time"

// TaskType labels the kind of maintenance work a carrier reports.
// Carriers rarely agree on terminology, so the field stays free text;
// these are the values the extraction pipeline produces on its own.
const (
	TaskTypeMaintenance = "Mantenimiento"
	TaskTypeScheduled   = "Programada"
	TaskTypeEmergency   = "Emergencia"
)

// ScheduledTask represents one carrier-reported maintenance window.
// The pair (carrier_id, internal_id) is unique when both are present: a
// re-reported task with the same pair updates the existing row instead of
// creating a duplicate.
type ScheduledTask struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	StartAt     time.Time `gorm:"index;index:idx_tasks_window" json:"start_at"`
	EndAt       time.Time `gorm:"index:idx_tasks_window" json:"end_at"`
	TaskType    string    `gorm:"type:text" json:"task_type"`
	Affectation string    `gorm:"type:text" json:"affectation,omitempty"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	CarrierID   *uint     `gorm:"index;uniqueIndex:uix_carrier_internal" json:"carrier_id,omitempty"`
	InternalID  *string   `gorm:"type:text;index;uniqueIndex:uix_carrier_internal" json:"internal_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the database table name for ScheduledTask.
func (ScheduledTask) TableName() string {
	return "scheduled_tasks"
}

// ServiceTaskLink associates a ScheduledTask with an affected Service,
// unique per (task_id, service_id) pair. On every re-processing of a task
// its full link set is deleted and recreated; replacement is total.
type ServiceTaskLink struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	TaskID    uint `gorm:"not null;index;uniqueIndex:uix_task_service" json:"task_id"`
	ServiceID uint `gorm:"not null;uniqueIndex:uix_task_service;index" json:"service_id"`
}

// TableName returns the database table name for ServiceTaskLink.
func (ServiceTaskLink) TableName() string {
	return "service_task_links"
}

// PendingService records a carrier-supplied identifier that could not be
// matched to any known Service, tied to the task that referenced it.
// Rows are never deduplicated across processing runs: repeated processing
// of the same email leaves an audit trail of overlapping entries.
type PendingService struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	TaskID      uint      `gorm:"not null;index" json:"task_id"`
	CarrierCode string    `gorm:"type:text;index" json:"carrier_code"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName returns the database table name for PendingService.
func (PendingService) TableName() string {
	return "pending_services"
}
