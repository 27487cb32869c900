package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/infrastructure/auth"
	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/infrastructure/logger"
	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/interfaces/http/dto"
)

const (
	// TenantHeader names the tenant when header tenancy is allowed
	TenantHeader = "X-Tenant-ID"
	// ClaimsKey holds the verified *auth.Claims in the gin context
	ClaimsKey = "jwt_claims"

	tenantUUIDKey = "tenant_uuid"
)

// TokenVerifier validates bearer tokens
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// AuthConfig configures tenant resolution
type AuthConfig struct {
	Verifier TokenVerifier
	// AllowTenantHeader accepts X-Tenant-ID when no bearer token is sent.
	// A token always wins over the header.
	AllowTenantHeader bool
	Logger            *zap.Logger
}

// TenantAuth resolves the calling tenant from the bearer token's tenant_id
// claim, or from X-Tenant-ID when allowed. Requests without a tenant are
// rejected with 401.
func TenantAuth(cfg AuthConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		tenantID, code, err := resolveTenant(c, cfg)
		if err != nil {
			log.Debug("Request rejected by tenant auth",
				zap.String("path", c.FullPath()),
				zap.String("code", code),
				zap.Error(err),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewErrorResponseWithRequestID(code, err.Error(), GetRequestID(c)))
			return
		}

		c.Set(TenantIDKey, tenantID.String())
		c.Set(tenantUUIDKey, tenantID)
		c.Request = c.Request.WithContext(logger.WithTenantID(c.Request.Context(), tenantID.String()))
		c.Next()
	}
}

func resolveTenant(c *gin.Context, cfg AuthConfig) (uuid.UUID, string, error) {
	header := c.GetHeader("Authorization")
	if header != "" {
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return uuid.Nil, dto.ErrCodeTokenInvalid, errors.New("authorization header must be a bearer token")
		}
		if cfg.Verifier == nil {
			return uuid.Nil, dto.ErrCodeUnauthorized, errors.New("token authentication is not configured")
		}
		claims, err := cfg.Verifier.Verify(token)
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) {
				return uuid.Nil, dto.ErrCodeTokenExpired, err
			}
			return uuid.Nil, dto.ErrCodeTokenInvalid, err
		}
		tenantID, err := claims.TenantUUID()
		if err != nil {
			return uuid.Nil, dto.ErrCodeTokenInvalid, err
		}
		c.Set(ClaimsKey, claims)
		return tenantID, "", nil
	}

	if cfg.AllowTenantHeader {
		if raw := c.GetHeader(TenantHeader); raw != "" {
			tenantID, err := uuid.Parse(raw)
			if err != nil {
				return uuid.Nil, dto.ErrCodeUnauthorized, errors.New("X-Tenant-ID must be a UUID")
			}
			return tenantID, "", nil
		}
	}
	return uuid.Nil, dto.ErrCodeUnauthorized, errors.New("authentication required")
}

// GetTenantUUID returns the tenant resolved by TenantAuth
func GetTenantUUID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(tenantUUIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok && id != uuid.Nil
}

// GetClaims returns the verified token claims, if the request carried a token
func GetClaims(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok
}
