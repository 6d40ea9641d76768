package session

import (
	"testing"

	"consulting-marketplace/client/internal/api"
)

func TestStoreSetGetClear(t *testing.T) {
	s := NewStore()
	if _, ok := s.Get(); ok {
		t.Fatal("new store should be empty")
	}
	if err := s.Set("tok", api.User{ID: "u1", Role: api.RoleClient}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok := s.Get()
	if !ok || got.Token != "tok" || got.User.ID != "u1" {
		t.Errorf("Get = %+v, %v", got, ok)
	}
	s.Clear()
	if _, ok := s.Get(); ok {
		t.Error("store should be empty after Clear")
	}
}

func TestStoreReplacesWholesale(t *testing.T) {
	s := NewStore()
	_ = s.Set("tok1", api.User{ID: "u1", Role: api.RoleClient})
	_ = s.Set("tok2", api.User{ID: "u2", Role: api.RoleConsultant})
	got, _ := s.Get()
	if got.Token != "tok2" || got.User.ID != "u2" {
		t.Errorf("session not replaced: %+v", got)
	}
}

func TestStoreRejectsDisallowedRoles(t *testing.T) {
	s := NewStore()
	if err := s.Set("tok", api.User{ID: "a1", Role: api.RoleAdmin}); err != ErrRoleNotAllowed {
		t.Fatalf("Set(admin) err = %v, want ErrRoleNotAllowed", err)
	}
	if err := s.Set("tok", api.User{ID: "x1", Role: api.Role("superuser")}); err != ErrRoleNotAllowed {
		t.Fatalf("Set(superuser) err = %v, want ErrRoleNotAllowed", err)
	}
	if _, ok := s.Get(); ok {
		t.Error("no session must be stored after rejected Set")
	}
}
