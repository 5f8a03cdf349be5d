package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return s
}

func internalRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(InternalAuth())
	router.POST("/internal/run", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"party_id": c.GetString("partyID")})
	})
	return router
}

func TestInternalAuth_MissingHeader(t *testing.T) {
	router := internalRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/internal/run", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestInternalAuth_MalformedHeader(t *testing.T) {
	router := internalRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/internal/run", nil)
	req.Header.Set("Authorization", "not-a-bearer-token")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestInternalAuth_MissingPartyClaim(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	router := internalRouter()

	token := signedToken(t, "test-secret", jwt.MapClaims{
		"role": "shipper",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/internal/run", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestInternalAuth_ValidTokenResolvesParty(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	router := internalRouter()

	token := signedToken(t, "test-secret", jwt.MapClaims{
		"party_id": "SHIPPER_1",
		"role":     "shipper",
		"exp":      time.Now().Add(time.Hour).Unix(),
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/internal/run", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if body := w.Body.String(); !strings.Contains(body, "SHIPPER_1") {
		t.Errorf("expected party id in response, got %s", body)
	}
}

func TestInternalAuth_WrongSecretRejected(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	router := internalRouter()

	token := signedToken(t, "some-other-secret", jwt.MapClaims{
		"party_id": "SHIPPER_1",
		"exp":      time.Now().Add(time.Hour).Unix(),
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/internal/run", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}
