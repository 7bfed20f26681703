package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/ventanaops/ventana/internal/domain"
)

// IncidentRepository persists incidents, cameras and camera access logs.
type IncidentRepository struct {
	db *gorm.DB
}

func NewIncidentRepository(db *gorm.DB) *IncidentRepository {
	return &IncidentRepository{db: db}
}

// CreateIncident records an incident. When an incident with the same
// (service_id, number) pair exists, the stored row is refreshed instead.
func (r *IncidentRepository) CreateIncident(ctx context.Context, inc *domain.Incident) (*domain.Incident, bool, error) {
	db := r.db.WithContext(ctx)

	var existing domain.Incident
	err := db.Where("service_id = ? AND number = ?", inc.ServiceID, inc.Number).
		First(&existing).Error
	if err == nil {
		existing.OpenedAt = inc.OpenedAt
		existing.ClosedAt = inc.ClosedAt
		existing.SolutionType = inc.SolutionType
		existing.SolutionDescription = inc.SolutionDescription
		existing.Description = inc.Description
		if err := db.Save(&existing).Error; err != nil {
			return nil, false, fmt.Errorf("update incident: %w", err)
		}
		return &existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("lookup incident: %w", err)
	}

	if err := db.Create(inc).Error; err != nil {
		var again domain.Incident
		lerr := db.Where("service_id = ? AND number = ?", inc.ServiceID, inc.Number).
			First(&again).Error
		if lerr == nil {
			return &again, false, nil
		}
		return nil, false, fmt.Errorf("create incident: %w", err)
	}
	return inc, true, nil
}

// ListIncidents returns the incidents of a service, newest first.
func (r *IncidentRepository) ListIncidents(ctx context.Context, serviceID uint) ([]domain.Incident, error) {
	var incidents []domain.Incident
	err := r.db.WithContext(ctx).
		Where("service_id = ?", serviceID).
		Order("id DESC").
		Find(&incidents).Error
	if err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}
	return incidents, nil
}

// GetOrCreateCamera returns the camera with the given name on a service,
// creating it on first sight.
func (r *IncidentRepository) GetOrCreateCamera(ctx context.Context, name string, serviceID uint) (*domain.Camera, error) {
	db := r.db.WithContext(ctx)

	var cam domain.Camera
	err := db.Where("name = ? AND service_id = ?", name, serviceID).First(&cam).Error
	if err == nil {
		return &cam, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lookup camera: %w", err)
	}

	cam = domain.Camera{Name: name, ServiceID: serviceID}
	if err := db.Create(&cam).Error; err != nil {
		var again domain.Camera
		if lerr := db.Where("name = ? AND service_id = ?", name, serviceID).First(&again).Error; lerr == nil {
			return &again, nil
		}
		return nil, fmt.Errorf("create camera: %w", err)
	}
	return &cam, nil
}

// LogAccess records that a user consulted a camera of a service. The camera
// row is created on demand so access logs never fail on unknown cameras.
func (r *IncidentRepository) LogAccess(ctx context.Context, serviceID uint, cameraName, user string) (*domain.CameraAccess, error) {
	access := &domain.CameraAccess{
		ServiceID:  serviceID,
		CameraName: cameraName,
		User:       user,
		AccessedAt: time.Now(),
	}
	if cameraName != "" {
		cam, err := r.GetOrCreateCamera(ctx, cameraName, serviceID)
		if err != nil {
			return nil, err
		}
		access.CameraID = &cam.ID
	}
	if err := r.db.WithContext(ctx).Create(access).Error; err != nil {
		return nil, fmt.Errorf("log camera access: %w", err)
	}
	return access, nil
}

// ListAccesses returns the access log of a service, newest first.
func (r *IncidentRepository) ListAccesses(ctx context.Context, serviceID uint, limit int) ([]domain.CameraAccess, error) {
	if limit <= 0 {
		limit = 50
	}
	var accesses []domain.CameraAccess
	err := r.db.WithContext(ctx).
		Where("service_id = ?", serviceID).
		Order("accessed_at DESC").
		Limit(limit).
		Find(&accesses).Error
	if err != nil {
		return nil, fmt.Errorf("list camera accesses: %w", err)
	}
	return accesses, nil
}

// PurgeDuplicateIncidents removes incidents sharing (service_id, number)
// with another row, keeping the highest id of each group.
func (r *IncidentRepository) PurgeDuplicateIncidents(ctx context.Context) (int, error) {
	db := r.db.WithContext(ctx)

	type group struct {
		ServiceID uint
		Number    string
		KeepID    uint
	}
	var groups []group
	err := db.Raw(`
		SELECT service_id, number, MAX(id) AS keep_id
		FROM incidents
		GROUP BY service_id, number
		HAVING COUNT(*) > 1`).Scan(&groups).Error
	if err != nil {
		return 0, fmt.Errorf("scan duplicate incidents: %w", err)
	}

	removed := 0
	for _, g := range groups {
		res := db.Where("service_id = ? AND number = ? AND id <> ?", g.ServiceID, g.Number, g.KeepID).
			Delete(&domain.Incident{})
		if res.Error != nil {
			return removed, fmt.Errorf("delete duplicate incidents: %w", res.Error)
		}
		removed += int(res.RowsAffected)
	}
	return removed, nil
}
