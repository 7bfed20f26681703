package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/ventanaops/ventana/internal/domain"
	"github.com/ventanaops/ventana/internal/logger"
)

// ServiceRepository persists the service catalog.
type ServiceRepository struct {
	db *gorm.DB
}

func NewServiceRepository(db *gorm.DB) *ServiceRepository {
	return &ServiceRepository{db: db}
}

// GetByID returns the service with the given operations id, or nil.
func (r *ServiceRepository) GetByID(ctx context.Context, id uint) (*domain.Service, error) {
	var svc domain.Service
	err := r.db.WithContext(ctx).First(&svc, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get service: %w", err)
	}
	return &svc, nil
}

// GetByCarrierCode returns the first service whose carrier code matches, or nil.
func (r *ServiceRepository) GetByCarrierCode(ctx context.Context, code string) (*domain.Service, error) {
	var svc domain.Service
	err := r.db.WithContext(ctx).Where("carrier_code = ?", code).First(&svc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get service by carrier code: %w", err)
	}
	return &svc, nil
}

// RegisterParams carries the optional fields of a service registration.
// Nil fields keep the stored value when the service already exists.
type RegisterParams struct {
	Name        *string
	ClientName  *string
	ClientID    *uint
	CarrierName *string
	CarrierCode *string
	CarrierID   *uint
}

// Register creates a service under an operations-assigned id or merges the
// provided fields into the existing row.
func (r *ServiceRepository) Register(ctx context.Context, id uint, p RegisterParams) (*domain.Service, bool, error) {
	db := r.db.WithContext(ctx)

	var svc domain.Service
	err := db.First(&svc, id).Error
	if err == nil {
		if p.Name != nil {
			svc.Name = *p.Name
		}
		if p.ClientName != nil {
			svc.ClientName = *p.ClientName
		}
		if p.ClientID != nil {
			svc.ClientID = p.ClientID
		}
		if p.CarrierName != nil {
			svc.CarrierName = *p.CarrierName
		}
		if p.CarrierCode != nil {
			svc.CarrierCode = *p.CarrierCode
		}
		if p.CarrierID != nil {
			svc.CarrierID = p.CarrierID
		}
		if err := db.Save(&svc).Error; err != nil {
			return nil, false, fmt.Errorf("update service: %w", err)
		}
		return &svc, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("lookup service: %w", err)
	}

	svc = domain.Service{ID: id, CreatedAt: time.Now()}
	if p.Name != nil {
		svc.Name = *p.Name
	}
	if p.ClientName != nil {
		svc.ClientName = *p.ClientName
	}
	if p.ClientID != nil {
		svc.ClientID = p.ClientID
	}
	if p.CarrierName != nil {
		svc.CarrierName = *p.CarrierName
	}
	if p.CarrierCode != nil {
		svc.CarrierCode = *p.CarrierCode
	}
	if p.CarrierID != nil {
		svc.CarrierID = p.CarrierID
	}
	if err := db.Create(&svc).Error; err != nil {
		return nil, false, fmt.Errorf("create service: %w", err)
	}
	return &svc, true, nil
}

// AssignCarrier stamps the carrier onto the given services. Called after a
// maintenance email resolves services so the catalog reflects the sender.
func (r *ServiceRepository) AssignCarrier(ctx context.Context, serviceIDs []uint, carrier *domain.Carrier) error {
	if len(serviceIDs) == 0 || carrier == nil {
		return nil
	}
	err := r.db.WithContext(ctx).
		Model(&domain.Service{}).
		Where("id IN ?", serviceIDs).
		Updates(map[string]interface{}{
			"carrier_id":   carrier.ID,
			"carrier_name": carrier.Name,
		}).Error
	if err != nil {
		return fmt.Errorf("assign carrier: %w", err)
	}
	logger.With(logger.Fields{
		logger.FieldCarrier: carrier.Name,
		logger.FieldCount:   len(serviceIDs),
	}).Info(ctx, "carrier assigned to services")
	return nil
}

// List returns the whole catalog ordered by id.
func (r *ServiceRepository) List(ctx context.Context) ([]domain.Service, error) {
	var services []domain.Service
	if err := r.db.WithContext(ctx).Order("id").Find(&services).Error; err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	return services, nil
}

// ListByClient returns the services of a client ordered by id.
func (r *ServiceRepository) ListByClient(ctx context.Context, clientID uint) ([]domain.Service, error) {
	var services []domain.Service
	err := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("id").
		Find(&services).Error
	if err != nil {
		return nil, fmt.Errorf("list services by client: %w", err)
	}
	return services, nil
}

// SearchByCamera returns services whose camera list contains the given name.
// Matching is accent- and case-insensitive; exact requires the whole camera
// name to match, otherwise substring containment is enough.
func (r *ServiceRepository) SearchByCamera(ctx context.Context, name string, exact bool) ([]domain.Service, error) {
	needle := normalizeCamera(name)
	if needle == "" {
		return nil, nil
	}

	var candidates []domain.Service
	err := r.db.WithContext(ctx).
		Where("cameras IS NOT NULL AND cameras <> '' AND cameras <> '[]'").
		Find(&candidates).Error
	if err != nil {
		return nil, fmt.Errorf("search services by camera: %w", err)
	}

	var out []domain.Service
	for _, svc := range candidates {
		for _, cam := range svc.Cameras {
			norm := normalizeCamera(cam)
			if exact && norm == needle ||
				!exact && (strings.Contains(norm, needle) || strings.Contains(needle, norm)) {
				out = append(out, svc)
				break
			}
		}
	}
	return out, nil
}

// AppendTracking records a tracking-file upload for a service, replacing the
// camera list and computing which cameras appeared or disappeared compared to
// the previous upload.
func (r *ServiceRepository) AppendTracking(ctx context.Context, id uint, path, kind string, cameras []string) (*domain.TrackingEntry, error) {
	db := r.db.WithContext(ctx)

	var svc domain.Service
	if err := db.First(&svc, id).Error; err != nil {
		return nil, fmt.Errorf("lookup service: %w", err)
	}

	added, removed := diffCameras(svc.Cameras, cameras)
	entry := domain.TrackingEntry{
		Path:    path,
		Kind:    kind,
		Date:    time.Now().Format("2006-01-02 15:04:05"),
		Added:   added,
		Removed: removed,
	}
	svc.Trackings = append(svc.Trackings, entry)
	svc.TrackingPath = path
	svc.Cameras = domain.StringArray(cameras)

	if err := db.Save(&svc).Error; err != nil {
		return nil, fmt.Errorf("update tracking: %w", err)
	}
	return &entry, nil
}

// PurgeDuplicates removes services sharing (name, client_name) with another
// row, keeping the most recent (highest) id of each group. Returns how many
// rows were removed.
func (r *ServiceRepository) PurgeDuplicates(ctx context.Context) (int, error) {
	db := r.db.WithContext(ctx)

	type group struct {
		Name       string
		ClientName string
		KeepID     uint
	}
	var groups []group
	err := db.Raw(`
		SELECT name, client_name, MAX(id) AS keep_id
		FROM services
		WHERE name <> ''
		GROUP BY name, client_name
		HAVING COUNT(*) > 1`).Scan(&groups).Error
	if err != nil {
		return 0, fmt.Errorf("scan duplicate services: %w", err)
	}

	removed := 0
	for _, g := range groups {
		res := db.Where("name = ? AND client_name = ? AND id <> ?", g.Name, g.ClientName, g.KeepID).
			Delete(&domain.Service{})
		if res.Error != nil {
			return removed, fmt.Errorf("delete duplicate services: %w", res.Error)
		}
		removed += int(res.RowsAffected)
	}
	return removed, nil
}

func diffCameras(before, after []string) (added, removed []string) {
	prev := make(map[string]struct{}, len(before))
	for _, c := range before {
		prev[normalizeCamera(c)] = struct{}{}
	}
	next := make(map[string]struct{}, len(after))
	for _, c := range after {
		next[normalizeCamera(c)] = struct{}{}
	}
	for _, c := range after {
		if _, ok := prev[normalizeCamera(c)]; !ok {
			added = append(added, c)
		}
	}
	for _, c := range before {
		if _, ok := next[normalizeCamera(c)]; !ok {
			removed = append(removed, c)
		}
	}
	return added, removed
}

var cameraAccentReplacer = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u", "ñ", "n",
	"Á", "A", "É", "E", "Í", "I", "Ó", "O", "Ú", "U", "Ü", "U", "Ñ", "N",
)

func normalizeCamera(name string) string {
	s := cameraAccentReplacer.Replace(name)
	s = strings.ToUpper(strings.TrimSpace(s))
	return strings.Join(strings.Fields(s), " ")
}
