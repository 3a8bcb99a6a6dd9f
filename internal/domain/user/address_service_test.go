// internal/domain/user/address_service_test.go
package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addressRequest(isDefault bool) *CreateAddressRequest {
	return &CreateAddressRequest{
		Type:         "shipping",
		FirstName:    "Alice",
		LastName:     "Smith",
		AddressLine1: "1 Main St",
		City:         "Springfield",
		PostalCode:   "12345",
		Country:      "US",
		IsDefault:    isDefault,
	}
}

func defaultCount(t *testing.T, svc *AddressService, userID uint, addressType string) int {
	t.Helper()
	addresses, err := svc.List(context.Background(), userID, addressType)
	require.NoError(t, err)

	count := 0
	for _, a := range addresses {
		if a.IsDefault {
			count++
		}
	}
	return count
}

func TestFirstAddressBecomesDefault(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAddressService(db, testConfig())

	a, err := svc.Create(context.Background(), 1, addressRequest(false))
	require.NoError(t, err)
	assert.True(t, a.IsDefault)
}

func TestSingleDefaultPerType(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAddressService(db, testConfig())

	first, err := svc.Create(context.Background(), 1, addressRequest(false))
	require.NoError(t, err)

	second, err := svc.Create(context.Background(), 1, addressRequest(true))
	require.NoError(t, err)
	assert.True(t, second.IsDefault)

	// the first address lost its default flag
	reloaded, err := svc.Get(context.Background(), 1, first.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.IsDefault)

	assert.Equal(t, 1, defaultCount(t, svc, 1, "shipping"))
}

func TestSetDefaultSwitchesFlag(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAddressService(db, testConfig())

	first, err := svc.Create(context.Background(), 1, addressRequest(false))
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), 1, addressRequest(false))
	require.NoError(t, err)
	assert.False(t, second.IsDefault)

	updated, err := svc.SetDefault(context.Background(), 1, second.ID)
	require.NoError(t, err)
	assert.True(t, updated.IsDefault)

	reloaded, err := svc.Get(context.Background(), 1, first.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.IsDefault)
	assert.Equal(t, 1, defaultCount(t, svc, 1, "shipping"))
}

func TestDefaultsIndependentPerType(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAddressService(db, testConfig())

	_, err := svc.Create(context.Background(), 1, addressRequest(true))
	require.NoError(t, err)

	billing := addressRequest(true)
	billing.Type = "billing"
	_, err = svc.Create(context.Background(), 1, billing)
	require.NoError(t, err)

	assert.Equal(t, 1, defaultCount(t, svc, 1, "shipping"))
	assert.Equal(t, 1, defaultCount(t, svc, 1, "billing"))
}

func TestAddressOwnershipScoped(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAddressService(db, testConfig())

	a, err := svc.Create(context.Background(), 1, addressRequest(false))
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), 2, a.ID)
	assert.ErrorIs(t, err, ErrAddressNotFound)

	err = svc.Delete(context.Background(), 2, a.ID)
	assert.ErrorIs(t, err, ErrAddressNotFound)
}
