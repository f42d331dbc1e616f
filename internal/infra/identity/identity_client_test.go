//go:build !integration

package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"course-payments/internal/domain"
)

func TestClientSignUp(t *testing.T) {
	t.Run("fresh email returns the provider user id", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/auth/v1/signup" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if r.Header.Get("apikey") == "" {
				t.Error("missing apikey header")
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"uid-1","email":"ana@example.com"}`))
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "anon-key")
		id, err := c.SignUp(context.Background(), "ana@example.com", "pw", nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if id != "uid-1" {
			t.Errorf("id %q", id)
		}
	})

	t.Run("registered email maps to ErrAlreadyExists", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"msg":"User already registered"}`))
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "anon-key")
		if _, err := c.SignUp(context.Background(), "ana@example.com", "pw", nil); err != domain.ErrAlreadyExists {
			t.Errorf("got %v, want ErrAlreadyExists", err)
		}
	})

	t.Run("provider outage surfaces as error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "anon-key")
		if _, err := c.SignUp(context.Background(), "ana@example.com", "pw", nil); err == nil {
			t.Error("expected error from a 500 response")
		}
	})
}

func TestClientSignInWithPassword(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/token" || r.URL.Query().Get("grant_type") != "password" {
			t.Errorf("unexpected request %s?%s", r.URL.Path, r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at-1","refresh_token":"rt-1","expires_in":3600}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "anon-key")
	sess, err := c.SignInWithPassword(context.Background(), "ana@example.com", "pw")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.AccessToken != "at-1" || sess.RefreshToken != "rt-1" || sess.ExpiresIn != 3600 {
		t.Errorf("session %+v", sess)
	}
}
