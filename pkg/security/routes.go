package security

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	inventorylog "github.com/aleciaid/crm-bj/internal/inventory/inventory_log"
	"github.com/aleciaid/crm-bj/internal/rate_limiter"
	"github.com/aleciaid/crm-bj/internal/storage"
	"github.com/aleciaid/crm-bj/pkg/metadata"
	"github.com/aleciaid/crm-bj/pkg/models"
)

type LoginHandler struct {
	store        storage.Store
	tokens       *TokenIssuer
	rateLimiter  *rate_limiter.RateLimiter
	inventoryLog *inventorylog.InventoryLog
	logger       *zap.Logger
}

func NewLoginHandler(store storage.Store, tokens *TokenIssuer, rateLimiter *rate_limiter.RateLimiter, inventoryLog *inventorylog.InventoryLog, logger *zap.Logger) *LoginHandler {
	return &LoginHandler{
		store:        store,
		tokens:       tokens,
		rateLimiter:  rateLimiter,
		inventoryLog: inventoryLog,
		logger:       logger,
	}
}

func (l *LoginHandler) RegisterRoutes(router gin.IRoutes) {
	router.POST("/auth", l.LoginHandler())
}

func (l *LoginHandler) RegisterProtectedRoutes(router gin.IRoutes) {
	router.POST("/logout", l.LogoutHandler())
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (l *LoginHandler) LoginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientKey := clientKey(c)

		if !l.rateLimiter.IsAllowed(clientKey) {
			remaining := l.rateLimiter.GetRemainingRequests(clientKey)
			resetAt := time.Now().Add(l.rateLimiter.Window()).Format(time.RFC3339)
			c.Header("X-RateLimit-Limit", strconv.Itoa(l.rateLimiter.Limit()))
			c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
			c.Header("X-RateLimit-Reset", resetAt)
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":     "Too many login attempts. Try again later.",
				"remaining": remaining,
				"reset_at":  resetAt,
			})
			return
		}

		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
			return
		}

		account, err := AuthenticateUser(c.Request.Context(), l.store, req.Username, req.Password)
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
			return
		case errors.Is(err, ErrAccountInactive):
			c.JSON(http.StatusForbidden, gin.H{"error": "Account is inactive"})
			return
		case err != nil:
			l.logger.Error("Login lookup failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to authenticate"})
			return
		}

		token, err := l.tokens.GenerateJWT(account)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
			return
		}

		actor := models.Actor{UserID: account.ID, Username: account.Username, Role: account.Role}
		l.inventoryLog.CreateSessionLogEntry(c.Request.Context(), l.store, actor, metadata.ActionLogin)

		c.JSON(http.StatusOK, gin.H{"token": token, "user": account})
	}
}

func (l *LoginHandler) LogoutHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := ActorFromContext(c)
		l.inventoryLog.CreateSessionLogEntry(c.Request.Context(), l.store, actor, metadata.ActionLogout)

		c.Status(http.StatusNoContent)
	}
}

// clientKey prefers proxy headers; private addresses are combined with the
// user agent so that clients behind one NAT do not share a budget.
func clientKey(c *gin.Context) string {
	clientIP := c.GetHeader("X-Forwarded-For")
	if clientIP == "" {
		clientIP = c.GetHeader("X-Real-IP")
	}
	if clientIP == "" {
		clientIP = c.ClientIP()
	}

	if strings.Contains(clientIP, ",") {
		clientIP = strings.TrimSpace(strings.Split(clientIP, ",")[0])
	}

	if isPrivateIP(clientIP) {
		clientIP = clientIP + ":" + c.GetHeader("User-Agent")
	}
	return clientIP
}

func isPrivateIP(ip string) bool {
	privatePrefixes := []string{
		"10.",
		"172.16.", "172.17.", "172.18.", "172.19.",
		"172.20.", "172.21.", "172.22.", "172.23.",
		"172.24.", "172.25.", "172.26.", "172.27.",
		"172.28.", "172.29.", "172.30.", "172.31.",
		"192.168.",
		"127.",
		"169.254.",
		"::1",
		"fc00::",
		"fe80::",
	}

	for _, prefix := range privatePrefixes {
		if strings.HasPrefix(ip, prefix) {
			return true
		}
	}
	return false
}
