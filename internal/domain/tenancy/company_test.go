package tenancy

import (
	"testing"

	"github.com/crpledger/core/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCompany(t *testing.T) {
	company, err := NewCompany("acme", "Acme Oy", "eur")
	require.NoError(t, err)

	assert.Equal(t, "ACME", company.Code)
	assert.Equal(t, "acme", company.SubdomainPrefix)
	assert.Equal(t, "EUR", company.DefaultCurrencyCode)
	assert.True(t, company.IsActive)
	assert.False(t, company.SuspendedByAdmin)
	assert.Equal(t, 1, company.Version)
}

func TestNewCompanyDefaultsCurrency(t *testing.T) {
	company, err := NewCompany("acme", "Acme Oy", "")
	require.NoError(t, err)
	assert.Equal(t, "USD", company.DefaultCurrencyCode)
}

func TestNewCompanyValidation(t *testing.T) {
	tests := []struct {
		name        string
		code        string
		companyName string
	}{
		{"empty code", "", "Acme"},
		{"code with spaces", "ac me", "Acme"},
		{"code with slash", "ac/me", "Acme"},
		{"empty name", "acme", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCompany(tt.code, tt.companyName, "USD")
			assert.ErrorIs(t, err, shared.ErrValidationFailed)
		})
	}
}

func TestEffectiveIsActive(t *testing.T) {
	company, err := NewCompany("acme", "Acme Oy", "USD")
	require.NoError(t, err)
	assert.True(t, company.EffectiveIsActive())

	// An admin suspension overrides the company's own flag.
	require.NoError(t, company.Suspend())
	assert.True(t, company.IsActive)
	assert.False(t, company.EffectiveIsActive())

	require.NoError(t, company.Reinstate())
	assert.True(t, company.EffectiveIsActive())

	require.NoError(t, company.Deactivate())
	assert.False(t, company.EffectiveIsActive())

	require.NoError(t, company.Activate())
	assert.True(t, company.EffectiveIsActive())
}

func TestLifecycleTransitionsRejectNoops(t *testing.T) {
	company, err := NewCompany("acme", "Acme Oy", "USD")
	require.NoError(t, err)

	assert.Error(t, company.Reinstate())
	require.NoError(t, company.Suspend())
	assert.Error(t, company.Suspend())

	assert.Error(t, company.Activate())
	require.NoError(t, company.Deactivate())
	assert.Error(t, company.Deactivate())
}
