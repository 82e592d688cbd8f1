package middleware

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/trade-journal/internal/models"
	"github.com/trade-journal/internal/repository"
	"github.com/trade-journal/internal/service"
	"github.com/trade-journal/pkg/response"
)

const (
	// ContextKeyUserID is the key for user ID in gin context
	ContextKeyUserID = "user_id"
	// ContextKeyUsername is the key for username in gin context
	ContextKeyUsername = "username"
	// ContextKeyAccount is the key for the journal account a route is scoped to
	ContextKeyAccount = "account"
)

// TokenValidator turns a bearer token into its claims
type TokenValidator interface {
	ValidateToken(token string) (*service.JWTClaims, error)
}

// AccountResolver loads an account only if it belongs to the user
type AccountResolver interface {
	GetAccountByID(userID, accountID uint) (*models.Account, error)
}

// AuthMiddleware rejects requests without a valid bearer token and stores
// the token's user in the context.
func AuthMiddleware(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			response.Unauthorized(c, "missing or malformed bearer token")
			c.Abort()
			return
		}

		claims, err := tokens.ValidateToken(token)
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set(ContextKeyUserID, claims.UserID)
		c.Set(ContextKeyUsername, claims.Username)
		c.Next()
	}
}

// AccountScopeMiddleware resolves the :id route parameter to an account of
// the authenticated user. Accounts of other users answer 404 like missing ones.
// It must run after AuthMiddleware.
func AccountScopeMiddleware(accounts AccountResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil || accountID == 0 {
			response.BadRequest(c, "invalid account id")
			c.Abort()
			return
		}

		userID := GetUserID(c)
		account, err := accounts.GetAccountByID(userID, uint(accountID))
		if err != nil {
			if errors.Is(err, repository.ErrAccountNotFound) {
				response.NotFound(c, "account not found")
			} else {
				LogError("Account lookup failed: user=%d account=%d err=%v", userID, accountID, err)
				response.InternalError(c, "failed to load account")
			}
			c.Abort()
			return
		}

		c.Set(ContextKeyAccount, account)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// GetUserID gets the user ID from the gin context
func GetUserID(c *gin.Context) uint {
	return c.GetUint(ContextKeyUserID)
}

// GetUsername gets the username from the gin context
func GetUsername(c *gin.Context) string {
	return c.GetString(ContextKeyUsername)
}

// GetAccount returns the account resolved by AccountScopeMiddleware, or nil
func GetAccount(c *gin.Context) *models.Account {
	v, ok := c.Get(ContextKeyAccount)
	if !ok {
		return nil
	}
	account, _ := v.(*models.Account)
	return account
}
