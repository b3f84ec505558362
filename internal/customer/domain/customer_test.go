package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/ecommerce/internal/common"
)

func TestNewCustomer(t *testing.T) {
	c, err := NewCustomer("Ada", "Lovelace", "  Ada@Example.COM ", "")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", c.Email)
	assert.Equal(t, "Ada Lovelace", c.FullName())
	assert.True(t, c.IsActive)
	assert.False(t, c.RegistrationDate.IsZero())

	_, err = NewCustomer("", "Lovelace", "ada@example.com", "")
	assert.ErrorIs(t, err, common.ErrValidationFailed)
	_, err = NewCustomer("Ada", "Lovelace", " ", "")
	assert.ErrorIs(t, err, common.ErrValidationFailed)
}

func TestCustomer_Deactivate(t *testing.T) {
	c, err := NewCustomer("Grace", "Hopper", "grace@example.com", "+1-555-0100")
	require.NoError(t, err)
	c.Deactivate()
	assert.False(t, c.IsActive)
	c.Activate()
	assert.True(t, c.IsActive)
}
