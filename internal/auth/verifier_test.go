package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fieldworks/realtime-service/internal/domain/apperr"
)

func TestVerifier_RoundTrip(t *testing.T) {
	req := require.New(t)
	v := NewVerifier("test-secret", "fieldworks")

	token, err := v.Sign(Identity{UserID: "user-1", Email: "pm@acme-builders.test", Role: RoleCompanyAdmin}, time.Minute)
	req.NoError(err)

	ident, err := v.Verify(token)
	req.NoError(err)
	req.Equal("user-1", ident.UserID)
	req.Equal("pm@acme-builders.test", ident.Email)
	req.Equal(RoleCompanyAdmin, ident.Role)
}

func TestVerifier_RejectsBadCredentials(t *testing.T) {
	req := require.New(t)
	v := NewVerifier("test-secret", "fieldworks")

	expired, err := v.Sign(Identity{UserID: "user-1"}, -time.Minute)
	req.NoError(err)

	otherSecret := NewVerifier("other-secret", "fieldworks")
	foreign, err := otherSecret.Sign(Identity{UserID: "user-1"}, time.Minute)
	req.NoError(err)

	otherIssuer := NewVerifier("test-secret", "someone-else")
	wrongIssuer, err := otherIssuer.Sign(Identity{UserID: "user-1"}, time.Minute)
	req.NoError(err)

	tests := []struct {
		name  string
		token string
	}{
		{"missing", ""},
		{"garbage", "not-a-jwt"},
		{"expired", expired},
		{"wrong signature", foreign},
		{"wrong issuer", wrongIssuer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(tt.token)
			require.ErrorIs(t, err, apperr.ErrUnauthenticated)
		})
	}
}

func TestIdentity_RoleScopes(t *testing.T) {
	req := require.New(t)

	req.True(Identity{Role: RoleSuperadmin}.Elevated())
	req.True(Identity{Role: RoleAdmin}.Elevated())
	req.False(Identity{Role: RoleCompanyAdmin}.Elevated())

	req.True(Identity{Role: RoleAdmin}.CompanyScoped())
	req.True(Identity{Role: RoleCompanyAdmin}.CompanyScoped())
	req.False(Identity{Role: RoleProjectManager}.CompanyScoped())
	req.False(Identity{Role: "subcontractor"}.CompanyScoped())
}
