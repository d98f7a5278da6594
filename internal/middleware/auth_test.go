package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"spendtree/internal/config"
	"spendtree/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
	config.Set(&config.Config{JWTSecret: "test-secret", JWTExpirationDur: time.Hour})
}

func protectedRouter() *gin.Engine {
	r := gin.New()
	r.GET("/me", AuthMiddleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString("userID"), "email": c.GetString("email")})
	})
	return r
}

func get(r *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddleware(t *testing.T) {
	user := &models.User{Base: models.Base{ID: "0190a6b2-7c1e-7e3a-9d2f-3b4c5d6e7f80"}, Email: "ana@example.com"}

	t.Run("accepts a freshly issued token", func(t *testing.T) {
		token, err := GenerateToken(user)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		rec := get(protectedRouter(), "Bearer "+token)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("rejects a missing header", func(t *testing.T) {
		rec := get(protectedRouter(), "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("rejects a malformed header", func(t *testing.T) {
		rec := get(protectedRouter(), "Token abc")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("rejects a token signed with another secret", func(t *testing.T) {
		token, err := GenerateToken(user)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		config.Set(&config.Config{JWTSecret: "rotated", JWTExpirationDur: time.Hour})
		defer config.Set(&config.Config{JWTSecret: "test-secret", JWTExpirationDur: time.Hour})

		rec := get(protectedRouter(), "Bearer "+token)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("rejects an expired token", func(t *testing.T) {
		config.Set(&config.Config{JWTSecret: "test-secret", JWTExpirationDur: -time.Minute})
		token, err := GenerateToken(user)
		config.Set(&config.Config{JWTSecret: "test-secret", JWTExpirationDur: time.Hour})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		rec := get(protectedRouter(), "Bearer "+token)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
}

func TestParseToken(t *testing.T) {
	token, err := GenerateToken(&models.User{Base: models.Base{ID: "0190a6b2-7c1e-7e3a-9d2f-3b4c5d6e7f80"}, Email: "ana@example.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	claims, err := ParseToken(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.UserID != "0190a6b2-7c1e-7e3a-9d2f-3b4c5d6e7f80" || claims.Subject != claims.UserID {
		t.Errorf("unexpected claims %+v", claims)
	}
}
