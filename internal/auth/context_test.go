package auth

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/DukeRupert/catalogadmin/internal/domain"
)

func TestActorContext(t *testing.T) {
	if got := GetActor(context.Background()); got != nil {
		t.Fatalf("expected nil actor, got %+v", got)
	}

	actor := &Actor{Role: domain.RoleAdmin, TenantID: "t-1"}
	req := httptest.NewRequest("GET", "/catalog", nil)
	req = req.WithContext(SetActor(req.Context(), actor))

	if got := GetActorFromRequest(req); got != actor {
		t.Errorf("expected stored actor, got %+v", got)
	}
}

func TestActor_CanSeeAllTenants(t *testing.T) {
	tests := []struct {
		name  string
		actor *Actor
		want  bool
	}{
		{"nil actor", nil, false},
		{"standard admin", &Actor{Role: domain.RoleAdmin}, false},
		{"site admin", &Actor{Role: domain.RoleSiteAdmin}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.actor.CanSeeAllTenants(); got != tt.want {
				t.Errorf("CanSeeAllTenants() = %v, want %v", got, tt.want)
			}
		})
	}
}
