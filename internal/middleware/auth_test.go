package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trade-journal/internal/config"
	"github.com/trade-journal/internal/middleware"
	"github.com/trade-journal/internal/models"
	"github.com/trade-journal/internal/repository"
	"github.com/trade-journal/internal/service"
)

const secret = "test-secret"

func signToken(t *testing.T, key string, method jwt.SigningMethod, expires time.Time) string {
	t.Helper()
	return signClaims(t, key, method, &service.JWTClaims{
		UserID:   7,
		Username: "trader",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expires),
			Issuer:    "trade-journal",
		},
	})
}

func signClaims(t *testing.T, key string, method jwt.SigningMethod, claims *service.JWTClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return token
}

func newAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	authService := service.NewAuthService(nil, config.JWTConfig{Secret: secret, ExpireHours: 1})

	r := gin.New()
	r.GET("/me", middleware.AuthMiddleware(authService), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": middleware.GetUserID(c), "username": middleware.GetUsername(c)})
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	r := newAuthRouter()

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer " + signToken(t, secret, jwt.SigningMethodHS256, time.Now().Add(time.Hour)), http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"expired", "Bearer " + signToken(t, secret, jwt.SigningMethodHS256, time.Now().Add(-time.Hour)), http.StatusUnauthorized},
		{"wrong key", "Bearer " + signToken(t, "other", jwt.SigningMethodHS256, time.Now().Add(time.Hour)), http.StatusUnauthorized},
		{"empty token", "Bearer ", http.StatusUnauthorized},
		{"foreign issuer", "Bearer " + signClaims(t, secret, jwt.SigningMethodHS256, &service.JWTClaims{
			UserID: 7,
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
				Issuer:    "someone-else",
			},
		}), http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestAuthMiddlewareSetsUser(t *testing.T) {
	r := newAuthRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, secret, jwt.SigningMethodHS256, time.Now().Add(time.Hour)))
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":7,"username":"trader"}`, w.Body.String())
}

type ownedAccounts map[uint]*models.Account

func (o ownedAccounts) GetAccountByID(userID, accountID uint) (*models.Account, error) {
	if accountID == 99 {
		return nil, errors.New("connection reset")
	}
	a, ok := o[accountID]
	if !ok || a.UserID != userID {
		return nil, repository.ErrAccountNotFound
	}
	return a, nil
}

func newScopedRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	authService := service.NewAuthService(nil, config.JWTConfig{Secret: secret, ExpireHours: 1})
	accounts := ownedAccounts{
		3: {ID: 3, UserID: 7, Name: "Sim101", Timezone: "Europe/Berlin"},
		4: {ID: 4, UserID: 8, Name: "Someone else"},
	}

	r := gin.New()
	r.GET("/accounts/:id", middleware.AuthMiddleware(authService), middleware.AccountScopeMiddleware(accounts), func(c *gin.Context) {
		account := middleware.GetAccount(c)
		c.JSON(http.StatusOK, gin.H{"id": account.ID, "timezone": account.Timezone})
	})
	return r
}

func TestAccountScopeMiddleware(t *testing.T) {
	r := newScopedRouter()
	token := "Bearer " + signToken(t, secret, jwt.SigningMethodHS256, time.Now().Add(time.Hour))

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"own account", "/accounts/3", token, http.StatusOK},
		{"other user's account", "/accounts/4", token, http.StatusNotFound},
		{"missing account", "/accounts/5", token, http.StatusNotFound},
		{"non numeric id", "/accounts/abc", token, http.StatusBadRequest},
		{"zero id", "/accounts/0", token, http.StatusBadRequest},
		{"lookup failure", "/accounts/99", token, http.StatusInternalServerError},
		{"no token", "/accounts/3", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestAccountScopeStoresAccount(t *testing.T) {
	r := newScopedRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/accounts/3", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, secret, jwt.SigningMethodHS256, time.Now().Add(time.Hour)))
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":3,"timezone":"Europe/Berlin"}`, w.Body.String())
}

func TestGetAccountWithoutScope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, middleware.GetAccount(c))
	assert.Zero(t, middleware.GetUserID(c))
}
