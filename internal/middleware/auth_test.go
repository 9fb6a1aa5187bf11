package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const testSecret = "test-secret-key"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return signed
}

func authedHandler(t *testing.T, wantUser uuid.UUID, wantAdmin bool) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := GetUserID(r.Context()); got != wantUser {
			t.Errorf("GetUserID = %s, expected %s", got, wantUser)
		}
		if got := IsAdmin(r.Context()); got != wantAdmin {
			t.Errorf("IsAdmin = %v, expected %v", got, wantAdmin)
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestJWTAuth_ValidToken(t *testing.T) {
	auth := NewJWTAuth(testSecret)
	userID := uuid.New()

	tokenStr := signToken(t, jwt.MapClaims{
		"sub":   userID.String(),
		"admin": false,
		"exp":   time.Now().Add(time.Minute).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/user/me", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	rec := httptest.NewRecorder()

	auth.Middleware(authedHandler(t, userID, false)).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestJWTAuth_RejectsMissingHeader(t *testing.T) {
	auth := NewJWTAuth(testSecret)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/user/me", nil)
	rec := httptest.NewRecorder()

	auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Handler should not be reached without a token")
	})).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", rec.Code)
	}
	assertErrorCode(t, rec, "UNAUTHORIZED")
}

func TestJWTAuth_RejectsMalformedHeader(t *testing.T) {
	auth := NewJWTAuth(testSecret)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/user/me", nil)
	req.Header.Set("Authorization", "Token abc123")
	rec := httptest.NewRecorder()

	auth.Middleware(nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", rec.Code)
	}
}

func TestJWTAuth_ExpiredToken(t *testing.T) {
	auth := NewJWTAuth(testSecret)

	tokenStr := signToken(t, jwt.MapClaims{
		"sub": uuid.New().String(),
		"exp": time.Now().Add(-time.Minute).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/user/me", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	rec := httptest.NewRecorder()

	auth.Middleware(nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", rec.Code)
	}
	assertErrorCode(t, rec, "TOKEN_EXPIRED")
}

func TestJWTAuth_WrongSecret(t *testing.T) {
	auth := NewJWTAuth(testSecret)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": uuid.New().String(),
		"exp": time.Now().Add(time.Minute).Unix(),
	})
	tokenStr, err := token.SignedString([]byte("other-secret"))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/user/me", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	rec := httptest.NewRecorder()

	auth.Middleware(nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", rec.Code)
	}
}

func TestJWTAuth_InvalidSubject(t *testing.T) {
	auth := NewJWTAuth(testSecret)

	tokenStr := signToken(t, jwt.MapClaims{
		"sub": "not-a-uuid",
		"exp": time.Now().Add(time.Minute).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/user/me", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	rec := httptest.NewRecorder()

	auth.Middleware(nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", rec.Code)
	}
}

func TestRequireAdmin(t *testing.T) {
	auth := NewJWTAuth(testSecret)
	userID := uuid.New()

	tests := []struct {
		name     string
		admin    bool
		expected int
	}{
		{"admin passes", true, http.StatusOK},
		{"non-admin forbidden", false, http.StatusForbidden},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tokenStr := signToken(t, jwt.MapClaims{
				"sub":   userID.String(),
				"admin": tc.admin,
				"exp":   time.Now().Add(time.Minute).Unix(),
			})

			req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats", nil)
			req.Header.Set("Authorization", "Bearer "+tokenStr)
			rec := httptest.NewRecorder()

			handler := auth.Middleware(auth.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})))
			handler.ServeHTTP(rec, req)

			if rec.Code != tc.expected {
				t.Errorf("Expected %d, got %d", tc.expected, rec.Code)
			}
		})
	}
}

func assertErrorCode(t *testing.T, rec *httptest.ResponseRecorder, expected string) {
	t.Helper()

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding error body: %v", err)
	}
	if body.Error.Code != expected {
		t.Errorf("Expected error code %q, got %q", expected, body.Error.Code)
	}
}
