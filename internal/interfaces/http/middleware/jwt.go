package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ledgerly/backend/internal/infrastructure/auth"
	"github.com/ledgerly/backend/internal/infrastructure/logger"
	"github.com/ledgerly/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// gin context keys written by the JWT middleware
const (
	JWTClaimsKey   = "jwt_claims"
	JWTUserIDKey   = "jwt_user_id"
	JWTTenantIDKey = "jwt_tenant_id"
	JWTUsernameKey = "jwt_username"

	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// JWTMiddlewareConfig configures JWTAuthMiddlewareWithConfig.
// Paths in Public and paths under PublicPrefixes skip authentication.
type JWTMiddlewareConfig struct {
	JWTService     *auth.JWTService
	Public         []string
	PublicPrefixes []string
	Logger         *zap.Logger
}

// DefaultJWTConfig leaves the health probes and swagger UI public
func DefaultJWTConfig(jwtService *auth.JWTService) JWTMiddlewareConfig {
	return JWTMiddlewareConfig{
		JWTService:     jwtService,
		Public:         []string{"/health", "/api/v1/health"},
		PublicPrefixes: []string{"/swagger"},
	}
}

func JWTAuthMiddleware(jwtService *auth.JWTService) gin.HandlerFunc {
	return JWTAuthMiddlewareWithConfig(DefaultJWTConfig(jwtService))
}

// JWTAuthMiddlewareWithConfig resolves the tenant of every ledger request.
// The tenant and user ids land in the gin context and in the request
// context, where the repositories and the tenant guard read them.
func JWTAuthMiddlewareWithConfig(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	public := make(map[string]struct{}, len(cfg.Public))
	for _, p := range cfg.Public {
		public[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := public[c.Request.URL.Path]; ok || hasAnyPrefix(c.Request.URL.Path, cfg.PublicPrefixes) {
			c.Next()
			return
		}

		token, reason := bearerToken(c.GetHeader(AuthHeaderKey))
		if reason != "" {
			rejectToken(c, log, auth.ErrInvalidToken, dto.ErrCodeUnauthorized, reason)
			return
		}

		claims, err := cfg.JWTService.Validate(token)
		if err != nil {
			code, msg := classifyTokenError(err)
			rejectToken(c, log, err, code, msg)
			return
		}

		c.Set(JWTClaimsKey, claims)
		c.Set(JWTTenantIDKey, claims.TenantID)
		c.Set(JWTUserIDKey, claims.UserID)
		c.Set(JWTUsernameKey, claims.Username)

		ctx := logger.WithUserID(logger.WithTenantID(c.Request.Context(), claims.TenantID), claims.UserID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// bearerToken returns the token or, when the header is unusable, the reason
func bearerToken(header string) (string, string) {
	switch {
	case header == "":
		return "", "Missing authorization header"
	case !strings.HasPrefix(header, BearerPrefix):
		return "", "Invalid authorization header format"
	}
	token := strings.TrimSpace(header[len(BearerPrefix):])
	if token == "" {
		return "", "Missing token"
	}
	return token, ""
}

func classifyTokenError(err error) (string, string) {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return dto.ErrCodeTokenExpired, "Token has expired"
	case errors.Is(err, auth.ErrTokenNotYetValid):
		return dto.ErrCodeTokenInvalid, "Token is not yet valid"
	case errors.Is(err, auth.ErrMissingTenantID), errors.Is(err, auth.ErrMissingUserID), errors.Is(err, auth.ErrInvalidClaims):
		return dto.ErrCodeTokenInvalid, "Token is missing tenant or user"
	default:
		return dto.ErrCodeTokenInvalid, "Invalid token"
	}
}

func rejectToken(c *gin.Context, log *zap.Logger, err error, code, msg string) {
	log.Warn("Rejected ledger request",
		zap.Error(err),
		zap.String("reason", msg),
		zap.String("path", c.Request.URL.Path),
	)
	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.NewErrorResponseWithRequestID(code, msg, c.GetString(RequestIDKey)))
}

func hasAnyPrefix(p string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}

// GetJWTClaims returns the validated claims, or nil on public routes
func GetJWTClaims(c *gin.Context) *auth.Claims {
	v, ok := c.Get(JWTClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*auth.Claims)
	return claims
}

func GetJWTUserID(c *gin.Context) string   { return c.GetString(JWTUserIDKey) }
func GetJWTTenantID(c *gin.Context) string { return c.GetString(JWTTenantIDKey) }
