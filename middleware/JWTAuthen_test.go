package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func protected() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/me", AccessTokenMiddleware(), func(c *gin.Context) {
		claims := c.MustGet("claims").(*AccessClaims)
		c.JSON(http.StatusOK, gin.H{"userId": c.MustGet("userId").(int), "issuer": claims.Issuer})
	})
	return r
}

func TestAccessTokenMiddleware(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "test-secret")
	router := protected()

	valid, err := CreateAccessToken(7)
	if err != nil {
		t.Fatalf("create token: %v", err)
	}
	expired, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, &AccessClaims{
		UserID: 7,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}).SignedString([]byte("test-secret"))
	foreign, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, &AccessClaims{UserID: 7}).SignedString([]byte("other-secret"))
	noUser, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "x"}).SignedString([]byte("test-secret"))
	textUser, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"userId": "7"}).SignedString([]byte("test-secret"))
	fractional, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"userId": 7.5}).SignedString([]byte("test-secret"))
	negative, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, &AccessClaims{UserID: -3}).SignedString([]byte("test-secret"))

	tests := []struct {
		name   string
		header string
		query  string
		want   int
	}{
		{"valid header", "Bearer " + valid, "", http.StatusOK},
		{"valid query", "", "?token=" + valid, http.StatusOK},
		{"missing", "", "", http.StatusUnauthorized},
		{"expired", "Bearer " + expired, "", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + foreign, "", http.StatusUnauthorized},
		{"no user claim", "Bearer " + noUser, "", http.StatusUnauthorized},
		{"user id as text", "Bearer " + textUser, "", http.StatusUnauthorized},
		{"fractional user id", "Bearer " + fractional, "", http.StatusUnauthorized},
		{"negative user id", "Bearer " + negative, "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/me"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.want, w.Body.String())
			}
			if w.Header().Get(RequestIDHeader) == "" {
				t.Fatal("response has no request id")
			}
			if tt.want == http.StatusOK {
				var body struct {
					UserID int    `json:"userId"`
					Issuer string `json:"issuer"`
				}
				if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
					t.Fatalf("decode: %v", err)
				}
				if body.UserID != 7 || body.Issuer != "dunzo" {
					t.Fatalf("body = %+v", body)
				}
			}
		})
	}
}

func TestTokenTTL(t *testing.T) {
	t.Setenv("JWT_TTL_HOURS", "")
	if tokenTTL() != defaultTokenTTL {
		t.Fatalf("ttl = %v", tokenTTL())
	}
	t.Setenv("JWT_TTL_HOURS", "2")
	if tokenTTL() != 2*time.Hour {
		t.Fatalf("ttl = %v", tokenTTL())
	}
}

func TestRequestIDKeepsCallerValue(t *testing.T) {
	router := protected()
	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if got := w.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Fatalf("request id = %q", got)
	}
}
