package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func contextWithRoles(roles ...string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := context.WithValue(req.Context(), UserRolesKey, roles)
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestRequireRole_Allowed(t *testing.T) {
	c, rec := contextWithRoles(RoleClinician)

	err := RequireRole(RoleClinician)(okHandler)(c)
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestRequireRole_Denied(t *testing.T) {
	c, _ := contextWithRoles("billing")

	err := RequireRole(RoleClinician)(okHandler)(c)
	expectStatus(t, err, http.StatusForbidden)
}

func TestRequireRole_NoRoles(t *testing.T) {
	c, _ := contextWithRoles()
	expectStatus(t, RequireRole(RoleClinician)(okHandler)(c), http.StatusForbidden)
}

func TestRequireRole_AdminBypass(t *testing.T) {
	c, _ := contextWithRoles(RoleAdmin)

	if err := RequireRole(RoleClinician)(okHandler)(c); err != nil {
		t.Error("admin should bypass role checks")
	}
}

func TestHasAnyRole(t *testing.T) {
	tests := []struct {
		have []string
		want []string
		ok   bool
	}{
		{[]string{"clinician"}, []string{"clinician"}, true},
		{[]string{"nurse", "clinician"}, []string{"clinician"}, true},
		{[]string{"admin"}, []string{"anything"}, true},
		{nil, []string{"clinician"}, false},
		{[]string{"clinician"}, nil, false},
	}
	for _, tt := range tests {
		if got := HasAnyRole(tt.have, tt.want...); got != tt.ok {
			t.Errorf("HasAnyRole(%v, %v) = %v, want %v", tt.have, tt.want, got, tt.ok)
		}
	}
}

func TestIdentityFromContext_Empty(t *testing.T) {
	ctx := context.Background()
	if UserIDFromContext(ctx) != "" || EmailFromContext(ctx) != "" || RolesFromContext(ctx) != nil {
		t.Error("expected empty identity")
	}
}
