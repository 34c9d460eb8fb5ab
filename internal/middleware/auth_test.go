package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"sasbridge/internal/auth"
	"sasbridge/internal/domain"
)

type fakeUserRepo struct {
	users map[string]*domain.User // by ID
}

func (f *fakeUserRepo) Create(context.Context, *domain.User) error { return nil }

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUserRepo) GetByAPIKey(_ context.Context, key string) (*domain.User, error) {
	for _, u := range f.users {
		if u.APIKey == key {
			return u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUserRepo) RotateAPIKey(_ context.Context, userID, newKey string) error {
	f.users[userID].APIKey = newKey
	return nil
}

func (f *fakeUserRepo) SetMonthlyLimit(_ context.Context, userID string, limit int) error {
	f.users[userID].MonthlyLimit = limit
	return nil
}

func authTestSetup() (*fakeUserRepo, AuthConfig, time.Time) {
	now := time.Date(2025, time.July, 10, 9, 0, 0, 0, time.UTC)
	repo := &fakeUserRepo{users: map[string]*domain.User{
		"u1": {ID: "u1", Email: "a@example.com", APIKey: "sb_key_one", MonthlyLimit: 100, IsActive: true},
		"u2": {ID: "u2", Email: "b@example.com", APIKey: "sb_key_two", MonthlyLimit: 100, IsActive: false},
	}}
	cfg := AuthConfig{
		Secret: "test-secret",
		Users:  repo,
		Now:    func() time.Time { return now },
		Logger: zerolog.Nop(),
	}
	return repo, cfg, now
}

func runAuth(t *testing.T, cfg AuthConfig, prepare func(r *http.Request)) (*httptest.ResponseRecorder, *domain.User) {
	t.Helper()
	var seen *domain.User
	handler := Authenticate(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest("GET", "/api/projects", nil)
	if prepare != nil {
		prepare(req)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr, seen
}

func TestAuthenticateBearer(t *testing.T) {
	repo, cfg, now := authTestSetup()
	token, err := auth.IssueToken(cfg.Secret, repo.users["u1"], now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	rr, seen := runAuth(t, cfg, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if seen == nil || seen.ID != "u1" {
		t.Fatalf("resolved user = %+v, want u1", seen)
	}
}

func TestAuthenticateExpiredToken(t *testing.T) {
	repo, cfg, now := authTestSetup()
	// Issued so that it expired one second before "now".
	token, err := auth.IssueToken(cfg.Secret, repo.users["u1"], now.Add(-auth.TokenLifetime-time.Second))
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	tests := []struct {
		name    string
		prepare func(r *http.Request)
	}{
		{
			name: "expired bearer alone",
			prepare: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer "+token)
			},
		},
		{
			name: "expired bearer with bogus api key",
			prepare: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer "+token)
				r.Header.Set(APIKeyHeader, "sb_not_a_real_key")
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr, _ := runAuth(t, cfg, tt.prepare)
			if rr.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rr.Code)
			}
		})
	}
}

func TestAuthenticateAPIKey(t *testing.T) {
	_, cfg, _ := authTestSetup()
	rr, seen := runAuth(t, cfg, func(r *http.Request) {
		r.Header.Set(APIKeyHeader, "sb_key_one")
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if seen == nil || seen.ID != "u1" {
		t.Fatalf("resolved user = %+v, want u1", seen)
	}
}

func TestAuthenticateRotatedKeyStopsResolving(t *testing.T) {
	repo, cfg, _ := authTestSetup()
	oldKey := repo.users["u1"].APIKey
	if err := repo.RotateAPIKey(context.Background(), "u1", "sb_key_rotated"); err != nil {
		t.Fatalf("RotateAPIKey: %v", err)
	}

	rr, _ := runAuth(t, cfg, func(r *http.Request) {
		r.Header.Set(APIKeyHeader, oldKey)
	})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("old key status = %d, want 401", rr.Code)
	}

	rr, seen := runAuth(t, cfg, func(r *http.Request) {
		r.Header.Set(APIKeyHeader, "sb_key_rotated")
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("new key status = %d, want 200", rr.Code)
	}
	if seen == nil || seen.ID != "u1" {
		t.Fatalf("resolved user = %+v, want u1", seen)
	}
}

func TestAuthenticateMissingOrInactive(t *testing.T) {
	_, cfg, _ := authTestSetup()

	tests := []struct {
		name    string
		prepare func(r *http.Request)
	}{
		{name: "no credentials", prepare: nil},
		{
			name: "inactive user api key",
			prepare: func(r *http.Request) {
				r.Header.Set(APIKeyHeader, "sb_key_two")
			},
		},
		{
			name: "malformed authorization",
			prepare: func(r *http.Request) {
				r.Header.Set("Authorization", "Token abc")
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr, _ := runAuth(t, cfg, tt.prepare)
			if rr.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rr.Code)
			}
		})
	}
}

type staleCache struct {
	entries map[string]string
	sets    int
}

func (s *staleCache) GetIdentity(_ context.Context, apiKey string) (string, error) {
	return s.entries[apiKey], nil
}

func (s *staleCache) SetIdentity(_ context.Context, apiKey, userID string) error {
	s.sets++
	s.entries[apiKey] = userID
	return nil
}

func TestAuthenticateStaleCacheEntryIgnored(t *testing.T) {
	repo, cfg, _ := authTestSetup()
	// Cache still maps the old key to u1, but the user has rotated away.
	repo.users["u1"].APIKey = "sb_key_rotated"
	cfg.Cache = &staleCache{entries: map[string]string{"sb_key_one": "u1"}}

	rr, _ := runAuth(t, cfg, func(r *http.Request) {
		r.Header.Set(APIKeyHeader, "sb_key_one")
	})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401; stale cache entry must not authenticate", rr.Code)
	}
}
