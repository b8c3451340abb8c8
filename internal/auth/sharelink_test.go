package auth

import (
	"testing"
	"time"

	"github.com/flexprice/contractflow/internal/config"
	ierr "github.com/flexprice/contractflow/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShareLinkRoundTrip(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	a := NewShareLinkAuth(config.GetDefaultConfig()).WithClock(func() time.Time { return now })

	token, expiresAt, err := a.GenerateToken("tenant_1", "ctr_1", "ctrr_1", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), expiresAt)

	claims, err := a.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "tenant_1", claims.TenantID)
	assert.Equal(t, "ctr_1", claims.ContractID)
	assert.Equal(t, "ctrr_1", claims.ContractorID)
	assert.Equal(t, expiresAt, claims.ExpiresAt)

	assert.Equal(t, "http://localhost:8080/v1/share/"+token, a.LinkURL(token))
}

func TestShareLinkExpiryCheckedAtResolution(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := now
	a := NewShareLinkAuth(config.GetDefaultConfig()).WithClock(func() time.Time { return clock })

	token, _, err := a.GenerateToken("tenant_1", "ctr_1", "ctrr_1", time.Hour)
	require.NoError(t, err)

	clock = now.Add(2 * time.Hour)
	_, err = a.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, ierr.IsPermissionDenied(err))
}

func TestShareLinkRejectsForeignSecret(t *testing.T) {
	cfg := config.GetDefaultConfig()
	token, _, err := NewShareLinkAuth(cfg).GenerateToken("tenant_1", "ctr_1", "ctrr_1", time.Hour)
	require.NoError(t, err)

	other := config.GetDefaultConfig()
	other.ShareLink.Secret = "another-secret"
	_, err = NewShareLinkAuth(other).ValidateToken(token)
	require.Error(t, err)
	assert.True(t, ierr.IsPermissionDenied(err))
}
