package middleware

import (
	"errors"
	"strings"

	"github.com/clinicstock/backend/internal/infrastructure/auth"
	"github.com/clinicstock/backend/internal/infrastructure/logger"
	"github.com/clinicstock/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Identity context keys and headers
const (
	IdentityKey   = "identity"
	UserIDHeader  = "X-User-ID"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// TokenValidator turns a bearer token into the caller's identity
type TokenValidator interface {
	Validate(token string) (*auth.Identity, error)
}

// IdentityConfig configures how callers are identified
type IdentityConfig struct {
	// Validator checks bearer tokens; nil trusts the X-User-ID header instead
	Validator TokenValidator
	// SkipPaths are served without an identity
	SkipPaths []string
	Logger    *zap.Logger
}

// Identity resolves the acting user of every request. With a validator the user comes from the
// token's user_id claim; without one the X-User-ID header is trusted.
func Identity(cfg IdentityConfig) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		identity, err := resolveIdentity(c, cfg.Validator)
		if err != nil {
			log.Warn("Authentication failed", zap.Error(err), zap.String("path", c.Request.URL.Path))
			code, message := dto.ErrCodeUnauthorized, "Authentication required"
			if errors.Is(err, auth.ErrExpiredToken) {
				code, message = dto.ErrCodeTokenExpired, "Token has expired"
			}
			abortWithError(c, code, message)
			return
		}

		c.Set(IdentityKey, identity)
		ctx := logger.WithActorID(c.Request.Context(), identity.UserID.String())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func resolveIdentity(c *gin.Context, validator TokenValidator) (*auth.Identity, error) {
	if validator == nil {
		userID, err := uuid.Parse(c.GetHeader(UserIDHeader))
		if err != nil || userID == uuid.Nil {
			return nil, errors.New("missing or invalid " + UserIDHeader + " header")
		}
		return &auth.Identity{UserID: userID}, nil
	}

	header := c.GetHeader(AuthHeaderKey)
	if !strings.HasPrefix(header, BearerPrefix) {
		return nil, auth.ErrInvalidToken
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
	if token == "" {
		return nil, auth.ErrInvalidToken
	}
	return validator.Validate(token)
}

// GetIdentity returns the identity stored by the Identity middleware
func GetIdentity(c *gin.Context) (*auth.Identity, bool) {
	v, ok := c.Get(IdentityKey)
	if !ok {
		return nil, false
	}
	identity, ok := v.(*auth.Identity)
	return identity, ok && identity != nil
}

// ActorID returns the acting user's id, or uuid.Nil when the request is anonymous
func ActorID(c *gin.Context) uuid.UUID {
	if identity, ok := GetIdentity(c); ok {
		return identity.UserID
	}
	return uuid.Nil
}
