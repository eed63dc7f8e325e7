package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"opsdash/internal/identity"
	"opsdash/internal/profile"
	id "opsdash/pkg/domain"
)

func TestIsRecoveryFragment(t *testing.T) {
	cases := []struct {
		name     string
		fragment string
		want     bool
	}{
		{"recovery link", "#access_token=abc&type=recovery", true},
		{"without hash prefix", "access_token=abc&type=recovery", true},
		{"magic link", "#access_token=abc&type=magiclink", false},
		{"empty", "", false},
		{"plain route fragment", "#/settings", false},
		{"unparseable", "#%zz;&type=recovery", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsRecoveryFragment(tc.fragment))
		})
	}
}

func TestResolvedUser_ProfileNameWins(t *testing.T) {
	userID := id.NewUserID()
	claims := identity.Claims{
		UserID:       userID,
		Email:        "ada@example.com",
		DisplayName:  "Provider Name",
		LastSignInAt: time.Unix(1700000000, 0),
	}
	stored := &profile.Profile{
		ID:         userID,
		Name:       "Stored Name",
		Username:   "ada",
		Privilege:  profile.PrivilegeAdmin,
		Department: "ops",
	}

	u := resolvedUser(claims, stored)

	assert.Equal(t, "Stored Name", u.DisplayName)
	assert.Equal(t, "ada", u.Username)
	assert.Equal(t, profile.PrivilegeAdmin, u.Privilege)
	assert.False(t, u.Provisional)

	stored.Name = ""
	u = resolvedUser(claims, stored)
	assert.Equal(t, "Provider Name", u.DisplayName)
}

func TestProvisionalUser_Defaults(t *testing.T) {
	claims := identity.Claims{UserID: id.NewUserID(), Email: "ada@example.com"}

	u := provisionalUser(claims)

	assert.True(t, u.Provisional)
	assert.Equal(t, profile.PrivilegeViewer, u.Privilege)
	assert.Empty(t, u.Username)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "unauthenticated", StateUnauthenticated.String())
	assert.Equal(t, "evaluating", StateEvaluating.String())
	assert.Equal(t, "provisional", StateProvisional.String())
	assert.Equal(t, "resolved", StateResolved.String())
}
