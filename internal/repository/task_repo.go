package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/ventanaops/ventana/internal/domain"
	"github.com/ventanaops/ventana/internal/logger"
)

// TaskRepository persists scheduled maintenance tasks, their service links
// and the pending identifiers that could not be resolved.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// UpsertParams carries the fields of a scheduled task to create or refresh.
type UpsertParams struct {
	StartAt     time.Time
	EndAt       time.Time
	TaskType    string
	Affectation string
	Description string
	CarrierID   *uint
	InternalID  *string
}

// Upsert creates a scheduled task or, when a task with the same
// (carrier_id, internal_id) pair already exists, refreshes its window and
// description. The returned flag is true when a new row was created.
// Tasks without both carrier and internal id never match an existing row.
func (r *TaskRepository) Upsert(ctx context.Context, p UpsertParams) (*domain.ScheduledTask, bool, error) {
	db := r.db.WithContext(ctx)

	if p.CarrierID != nil && p.InternalID != nil && *p.InternalID != "" {
		var existing domain.ScheduledTask
		err := db.Where("carrier_id = ? AND internal_id = ?", *p.CarrierID, *p.InternalID).
			First(&existing).Error
		switch {
		case err == nil:
			r.apply(&existing, p)
			if err := db.Save(&existing).Error; err != nil {
				return nil, false, fmt.Errorf("update scheduled task: %w", err)
			}
			return &existing, false, nil
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, false, fmt.Errorf("lookup scheduled task: %w", err)
		}
	}

	task := &domain.ScheduledTask{}
	r.apply(task, p)
	if err := db.Create(task).Error; err != nil {
		// A concurrent insert of the same (carrier, internal_id) pair can
		// win the race; recover by updating the row it created.
		if p.CarrierID != nil && p.InternalID != nil && *p.InternalID != "" {
			var existing domain.ScheduledTask
			lerr := db.Where("carrier_id = ? AND internal_id = ?", *p.CarrierID, *p.InternalID).
				First(&existing).Error
			if lerr == nil {
				r.apply(&existing, p)
				if uerr := db.Save(&existing).Error; uerr != nil {
					return nil, false, fmt.Errorf("update scheduled task after insert race: %w", uerr)
				}
				logger.With(logger.Fields{logger.FieldTaskID: existing.ID}).
					Info(ctx, "recovered duplicate task insert")
				return &existing, false, nil
			}
		}
		return nil, false, fmt.Errorf("create scheduled task: %w", err)
	}
	return task, true, nil
}

func (r *TaskRepository) apply(task *domain.ScheduledTask, p UpsertParams) {
	task.StartAt = p.StartAt
	task.EndAt = p.EndAt
	task.TaskType = p.TaskType
	task.Affectation = p.Affectation
	task.Description = p.Description
	task.CarrierID = p.CarrierID
	task.InternalID = p.InternalID
}

// ReplaceLinks swaps the full set of service links of a task for the given
// service ids, deduplicated preserving first occurrence.
func (r *TaskRepository) ReplaceLinks(ctx context.Context, taskID uint, serviceIDs []uint) error {
	db := r.db.WithContext(ctx)

	seen := make(map[uint]struct{}, len(serviceIDs))
	unique := make([]uint, 0, len(serviceIDs))
	for _, id := range serviceIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", taskID).Delete(&domain.ServiceTaskLink{}).Error; err != nil {
			return fmt.Errorf("clear service links: %w", err)
		}
		if len(unique) == 0 {
			return nil
		}
		links := make([]domain.ServiceTaskLink, 0, len(unique))
		for _, sid := range unique {
			links = append(links, domain.ServiceTaskLink{TaskID: taskID, ServiceID: sid})
		}
		if err := tx.Create(&links).Error; err != nil {
			return fmt.Errorf("create service links: %w", err)
		}
		return nil
	})
}

// AddPending records a carrier-side identifier that could not be resolved to
// a known service. Repeated identifiers are kept as an audit trail.
func (r *TaskRepository) AddPending(ctx context.Context, taskID uint, carrierCode string) error {
	row := &domain.PendingService{TaskID: taskID, CarrierCode: carrierCode}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("create pending service: %w", err)
	}
	return nil
}

// GetByID loads a task with no associations.
func (r *TaskRepository) GetByID(ctx context.Context, id uint) (*domain.ScheduledTask, error) {
	var task domain.ScheduledTask
	if err := r.db.WithContext(ctx).First(&task, id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// LinkedServiceIDs returns the service ids linked to a task ordered by link id,
// which preserves insertion order.
func (r *TaskRepository) LinkedServiceIDs(ctx context.Context, taskID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&domain.ServiceTaskLink{}).
		Where("task_id = ?", taskID).
		Order("id").
		Pluck("service_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list service links: %w", err)
	}
	return ids, nil
}

// PendingCodes returns the unresolved carrier codes recorded for a task.
func (r *TaskRepository) PendingCodes(ctx context.Context, taskID uint) ([]string, error) {
	var codes []string
	err := r.db.WithContext(ctx).
		Model(&domain.PendingService{}).
		Where("task_id = ?", taskID).
		Order("id").
		Pluck("carrier_code", &codes).Error
	if err != nil {
		return nil, fmt.Errorf("list pending services: %w", err)
	}
	return codes, nil
}

// ListUpcoming returns tasks whose window ends at or after the given instant,
// soonest first.
func (r *TaskRepository) ListUpcoming(ctx context.Context, after time.Time, limit int) ([]domain.ScheduledTask, error) {
	var tasks []domain.ScheduledTask
	q := r.db.WithContext(ctx).
		Where("end_at >= ?", after).
		Order("start_at")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list upcoming tasks: %w", err)
	}
	return tasks, nil
}

// NextTask returns the next task starting at or after the given instant, or
// nil when there is none.
func (r *TaskRepository) NextTask(ctx context.Context, after time.Time) (*domain.ScheduledTask, error) {
	var task domain.ScheduledTask
	err := r.db.WithContext(ctx).
		Where("start_at >= ?", after).
		Order("start_at").
		First(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("next task: %w", err)
	}
	return &task, nil
}

// TasksForService returns the tasks linked to a service, most recent window
// first.
func (r *TaskRepository) TasksForService(ctx context.Context, serviceID uint) ([]domain.ScheduledTask, error) {
	var tasks []domain.ScheduledTask
	err := r.db.WithContext(ctx).
		Joins("JOIN service_task_links stl ON stl.task_id = scheduled_tasks.id").
		Where("stl.service_id = ?", serviceID).
		Order("scheduled_tasks.start_at DESC").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("tasks for service: %w", err)
	}
	return tasks, nil
}

// Delete removes a task together with its links and pending rows.
func (r *TaskRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", id).Delete(&domain.ServiceTaskLink{}).Error; err != nil {
			return err
		}
		if err := tx.Where("task_id = ?", id).Delete(&domain.PendingService{}).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.ScheduledTask{}, id).Error
	})
}
