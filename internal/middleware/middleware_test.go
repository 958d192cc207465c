package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/niramoy/health-assistant/pkg/logger"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret, subject string, expires time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	})
	s, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(GetUserID(r.Context())))
	})
}

func TestAuth(t *testing.T) {
	h := Auth(testSecret)(echoUser())
	valid := signToken(t, testSecret, "u1", time.Now().Add(time.Hour))

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"missing", "", http.StatusUnauthorized, ""},
		{"bad scheme", "Basic abc", http.StatusUnauthorized, ""},
		{"wrong secret", "Bearer " + signToken(t, "other", "u1", time.Now().Add(time.Hour)), http.StatusUnauthorized, ""},
		{"expired", "Bearer " + signToken(t, testSecret, "u1", time.Now().Add(-time.Hour)), http.StatusUnauthorized, ""},
		{"valid", "Bearer " + valid, http.StatusOK, "u1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if tt.body != "" && rec.Body.String() != tt.body {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.body)
			}
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	h := OptionalAuth(testSecret)(echoUser())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "" {
		t.Errorf("guest: status = %d, body = %q", rec.Code, rec.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, "u1", time.Now().Add(time.Hour)))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Body.String() != "u1" {
		t.Errorf("user: body = %q", rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("invalid token: status = %d, want 401", rec.Code)
	}
}

func TestLoggingCorrelationID(t *testing.T) {
	var seen string
	r := chi.NewRouter()
	r.Use(Logging(logger.NewNop()))
	r.Get("/x", func(w http.ResponseWriter, r *http.Request) {
		seen = GetCorrelationID(r.Context())
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	if seen == "" || rec.Header().Get("X-Correlation-ID") != seen {
		t.Errorf("generated id = %q, header = %q", seen, rec.Header().Get("X-Correlation-ID"))
	}

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Correlation-ID", "abc")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if seen != "abc" {
		t.Errorf("propagated id = %q, want abc", seen)
	}
}

func TestRateLimit(t *testing.T) {
	h := RateLimit(2, time.Minute)(echoUser())

	codes := make([]int, 3)
	for i := range codes {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes[i] = rec.Code
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v", codes)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	req = req.WithContext(WithUserID(req.Context(), "u1"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("signed-in user shares the guest bucket: status = %d", rec.Code)
	}
}

func TestValidation(t *testing.T) {
	if err := ValidateID("consultation ID", "not-a-uuid"); err == nil {
		t.Error("expected invalid id error")
	}
	if err := ValidateID("consultation ID", "0190a1b2-c3d4-7e5f-8a9b-0c1d2e3f4a5b"); err != nil {
		t.Errorf("ValidateID() error = %v", err)
	}
	if err := ValidateText("question", "\xff", MaxTextLength); err == nil {
		t.Error("expected invalid UTF-8 error")
	}
	if err := ValidateText("question", string(make([]byte, 11)), 10); err == nil {
		t.Error("expected length error")
	}
}
