package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/ventanaops/ventana/internal/domain"
)

// CatalogRepository handles carriers, clients, notification recipients and
// the conversation log.
type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// GetOrCreateCarrier looks a carrier up by name, creating it on first sight.
func (r *CatalogRepository) GetOrCreateCarrier(ctx context.Context, name string) (*domain.Carrier, error) {
	if name == "" {
		return nil, errors.New("carrier name is empty")
	}
	db := r.db.WithContext(ctx)

	var carrier domain.Carrier
	err := db.Where("name = ?", name).First(&carrier).Error
	if err == nil {
		return &carrier, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lookup carrier: %w", err)
	}

	carrier = domain.Carrier{Name: name}
	if err := db.Create(&carrier).Error; err != nil {
		// Lost a race with a concurrent create; the row exists now.
		var again domain.Carrier
		if lerr := db.Where("name = ?", name).First(&again).Error; lerr == nil {
			return &again, nil
		}
		return nil, fmt.Errorf("create carrier: %w", err)
	}
	return &carrier, nil
}

// GetClientByName returns the client with the given name, or nil.
func (r *CatalogRepository) GetClientByName(ctx context.Context, name string) (*domain.Client, error) {
	var client domain.Client
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&client).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup client: %w", err)
	}
	return &client, nil
}

// GetOrCreateClient looks a client up by name, creating it on first sight.
func (r *CatalogRepository) GetOrCreateClient(ctx context.Context, name string) (*domain.Client, error) {
	if name == "" {
		return nil, errors.New("client name is empty")
	}
	db := r.db.WithContext(ctx)

	var client domain.Client
	err := db.Where("name = ?", name).First(&client).Error
	if err == nil {
		return &client, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lookup client: %w", err)
	}

	client = domain.Client{Name: name}
	if err := db.Create(&client).Error; err != nil {
		var again domain.Client
		if lerr := db.Where("name = ?", name).First(&again).Error; lerr == nil {
			return &again, nil
		}
		return nil, fmt.Errorf("create client: %w", err)
	}
	return &client, nil
}

// Recipients returns the notification addresses of a client. With a carrier
// name only the carrier-specific list counts: an absent entry means nobody is
// notified for that carrier, never the general list. Without a carrier the
// general list is returned.
func (r *CatalogRepository) Recipients(ctx context.Context, clientID uint, carrierName string) ([]string, error) {
	var client domain.Client
	if err := r.db.WithContext(ctx).First(&client, clientID).Error; err != nil {
		return nil, fmt.Errorf("lookup client: %w", err)
	}
	if carrierName != "" {
		if client.CarrierRecipients == nil {
			return nil, nil
		}
		return client.CarrierRecipients[carrierName], nil
	}
	return client.Recipients, nil
}

// SetRecipients replaces the recipient list of a client. With a carrier name
// the carrier-specific list is replaced, otherwise the general one.
func (r *CatalogRepository) SetRecipients(ctx context.Context, clientID uint, carrierName string, addresses []string) error {
	db := r.db.WithContext(ctx)

	var client domain.Client
	if err := db.First(&client, clientID).Error; err != nil {
		return fmt.Errorf("lookup client: %w", err)
	}
	if carrierName != "" {
		if client.CarrierRecipients == nil {
			client.CarrierRecipients = domain.RecipientMap{}
		}
		if len(addresses) == 0 {
			delete(client.CarrierRecipients, carrierName)
		} else {
			client.CarrierRecipients[carrierName] = addresses
		}
	} else {
		client.Recipients = domain.StringArray(addresses)
	}
	if err := db.Save(&client).Error; err != nil {
		return fmt.Errorf("update recipients: %w", err)
	}
	return nil
}

// LogConversation appends an exchange to the conversation history.
func (r *CatalogRepository) LogConversation(ctx context.Context, conv *domain.Conversation) error {
	if err := r.db.WithContext(ctx).Create(conv).Error; err != nil {
		return fmt.Errorf("log conversation: %w", err)
	}
	return nil
}

// RecentConversations returns the latest exchanges of a user, newest first.
func (r *CatalogRepository) RecentConversations(ctx context.Context, userID string, limit int) ([]domain.Conversation, error) {
	if limit <= 0 {
		limit = 20
	}
	var convs []domain.Conversation
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Find(&convs).Error
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return convs, nil
}
