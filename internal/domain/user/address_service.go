// internal/domain/user/address_service.go
package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/your-org/storefront-backend/internal/config"
	"gorm.io/gorm"
)

// ErrAddressNotFound is returned for missing or foreign addresses
var ErrAddressNotFound = errors.New("address not found")

// AddressService handles address business logic. The single-default
// invariant is enforced here, in the service layer, inside the same
// transaction as the write.
type AddressService struct {
	db     *gorm.DB
	config *config.Config
}

// NewAddressService creates a new address service
func NewAddressService(db *gorm.DB, cfg *config.Config) *AddressService {
	return &AddressService{
		db:     db,
		config: cfg,
	}
}

// CreateAddressRequest represents address creation data
type CreateAddressRequest struct {
	Type         string `json:"type" binding:"required,oneof=shipping billing"`
	FirstName    string `json:"first_name" binding:"required"`
	LastName     string `json:"last_name" binding:"required"`
	AddressLine1 string `json:"address_line1" binding:"required"`
	AddressLine2 string `json:"address_line2"`
	City         string `json:"city" binding:"required"`
	State        string `json:"state"`
	PostalCode   string `json:"postal_code" binding:"required"`
	Country      string `json:"country" binding:"required,len=2"` // ISO 2-letter code
	Phone        string `json:"phone"`
	IsDefault    bool   `json:"is_default"`
}

// UpdateAddressRequest represents address update data
type UpdateAddressRequest struct {
	FirstName    *string `json:"first_name"`
	LastName     *string `json:"last_name"`
	AddressLine1 *string `json:"address_line1"`
	AddressLine2 *string `json:"address_line2"`
	City         *string `json:"city"`
	State        *string `json:"state"`
	PostalCode   *string `json:"postal_code"`
	Country      *string `json:"country" binding:"omitempty,len=2"`
	Phone        *string `json:"phone"`
	IsDefault    *bool   `json:"is_default"`
}

// List retrieves all addresses for a user, defaults first
func (s *AddressService) List(ctx context.Context, userID uint, addressType string) ([]Address, error) {
	var addresses []Address

	query := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if addressType != "" {
		query = query.Where("type = ?", addressType)
	}

	if err := query.Order("is_default DESC, created_at DESC").Find(&addresses).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve addresses: %w", err)
	}

	return addresses, nil
}

// Get retrieves a specific address owned by the user
func (s *AddressService) Get(ctx context.Context, userID, addressID uint) (*Address, error) {
	var address Address
	result := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", addressID, userID).First(&address)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrAddressNotFound
		}
		return nil, fmt.Errorf("failed to retrieve address: %w", result.Error)
	}
	return &address, nil
}

// GetDefault retrieves the user's default address of the given type,
// falling back to the newest one
func (s *AddressService) GetDefault(ctx context.Context, userID uint, addressType string) (*Address, error) {
	var address Address
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND type = ?", userID, addressType).
		Order("is_default DESC, created_at DESC").
		First(&address).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAddressNotFound
		}
		return nil, fmt.Errorf("failed to retrieve default address: %w", err)
	}
	return &address, nil
}

// Create creates a new address. The first address of a type becomes
// the default automatically.
func (s *AddressService) Create(ctx context.Context, userID uint, req *CreateAddressRequest) (*Address, error) {
	address := Address{
		UserID:       userID,
		Type:         req.Type,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		AddressLine1: req.AddressLine1,
		AddressLine2: req.AddressLine2,
		City:         req.City,
		State:        req.State,
		PostalCode:   req.PostalCode,
		Country:      req.Country,
		Phone:        req.Phone,
		IsDefault:    req.IsDefault,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Address{}).
			Where("user_id = ? AND type = ?", userID, req.Type).
			Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count addresses: %w", err)
		}
		if count == 0 {
			address.IsDefault = true
		}

		if address.IsDefault {
			if err := s.unsetDefaults(ctx, tx, userID, req.Type, 0); err != nil {
				return err
			}
		}

		if err := tx.Create(&address).Error; err != nil {
			return fmt.Errorf("failed to create address: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &address, nil
}

// Update updates an address; setting is_default unsets any other
// default of the same type in the same transaction
func (s *AddressService) Update(ctx context.Context, userID, addressID uint, req *UpdateAddressRequest) (*Address, error) {
	address, err := s.Get(ctx, userID, addressID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.FirstName != nil {
		updates["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		updates["last_name"] = *req.LastName
	}
	if req.AddressLine1 != nil {
		updates["address_line1"] = *req.AddressLine1
	}
	if req.AddressLine2 != nil {
		updates["address_line2"] = *req.AddressLine2
	}
	if req.City != nil {
		updates["city"] = *req.City
	}
	if req.State != nil {
		updates["state"] = *req.State
	}
	if req.PostalCode != nil {
		updates["postal_code"] = *req.PostalCode
	}
	if req.Country != nil {
		updates["country"] = *req.Country
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.IsDefault != nil {
		updates["is_default"] = *req.IsDefault
	}

	if len(updates) == 0 {
		return address, nil
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if req.IsDefault != nil && *req.IsDefault {
			if err := s.unsetDefaults(ctx, tx, userID, address.Type, address.ID); err != nil {
				return err
			}
		}
		if err := tx.Model(address).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update address: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, userID, addressID)
}

// SetDefault marks an address as the single default of its type
func (s *AddressService) SetDefault(ctx context.Context, userID, addressID uint) (*Address, error) {
	isDefault := true
	return s.Update(ctx, userID, addressID, &UpdateAddressRequest{IsDefault: &isDefault})
}

// Delete removes an address
func (s *AddressService) Delete(ctx context.Context, userID, addressID uint) error {
	result := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", addressID, userID).Delete(&Address{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete address: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrAddressNotFound
	}
	return nil
}

// unsetDefaults clears the default flag on every other address of the
// user and type
func (s *AddressService) unsetDefaults(ctx context.Context, tx *gorm.DB, userID uint, addressType string, keepID uint) error {
	query := tx.WithContext(ctx).Model(&Address{}).
		Where("user_id = ? AND type = ? AND is_default = ?", userID, addressType, true)
	if keepID > 0 {
		query = query.Where("id <> ?", keepID)
	}
	if err := query.Update("is_default", false).Error; err != nil {
		return fmt.Errorf("failed to unset default addresses: %w", err)
	}
	return nil
}
