package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLoginSuccessDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)
		if in["identifier"] != "user@example.com" {
			t.Errorf("identifier = %q", in["identifier"])
		}
		_ = json.NewEncoder(w).Encode(AuthPayload{
			Token: "tok-1",
			User:  User{ID: "u1", Role: RoleClient, Email: "user@example.com"},
		})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, time.Second)
	got, err := c.Login(context.Background(), "user@example.com", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if got.Token != "tok-1" || got.User.Role != RoleClient {
		t.Errorf("unexpected payload: %+v", got)
	}
}

func TestErrorResponseCarriesMessageAndCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"Your account is pending approval","code":"account_pending"}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, time.Second)
	_, err := c.Login(context.Background(), "user@example.com", "secret")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("want *APIError, got %T: %v", err, err)
	}
	if apiErr.Status != http.StatusForbidden {
		t.Errorf("Status = %d", apiErr.Status)
	}
	if apiErr.Message != "Your account is pending approval" {
		t.Errorf("Message = %q", apiErr.Message)
	}
	if apiErr.Code != "account_pending" {
		t.Errorf("Code = %q", apiErr.Code)
	}
}

func TestErrorResponseWithPlainBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream unavailable"))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, time.Second)
	_, err := c.SendOTP(context.Background(), "9876543210")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("want *APIError, got %T: %v", err, err)
	}
	if apiErr.Message != "upstream unavailable" {
		t.Errorf("Message = %q", apiErr.Message)
	}
}

func TestCategoriesDecodesHierarchy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/categories" || r.Method != http.MethodGet {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_, _ = w.Write([]byte(`[{"id":"c1","title":"Legal","subcategories":[{"id":"s1","name":"Tax"}]}]`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, time.Second)
	cats, err := c.Categories(context.Background())
	if err != nil {
		t.Fatalf("Categories: %v", err)
	}
	if len(cats) != 1 || cats[0].Title != "Legal" || len(cats[0].Subcategories) != 1 {
		t.Errorf("unexpected categories: %+v", cats)
	}
}

func TestRequestHonorsContextCancellation(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	c := NewHTTPClient(srv.URL, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Login(ctx, "a@b.co", "pw"); err == nil {
		t.Fatal("want error from cancelled context")
	}
}
