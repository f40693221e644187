package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/caseboard/api/transport"
	"github.com/fastygo/caseboard/domain"
	"github.com/fastygo/caseboard/pkg/httpcontext"
	authUC "github.com/fastygo/caseboard/usecase/auth"
)

// Authenticator resolves verified claims into an Actor.
type Authenticator interface {
	Authenticate(ctx context.Context, claims authUC.Claims) (domain.Actor, error)
}

// JWTAuth verifies the bearer token, resolves the actor and stores both on
// the request for handlers.
func JWTAuth(tokens *TokenService, authenticator Authenticator, timeout time.Duration, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			raw := extractToken(ctx)
			if raw == "" {
				reject(ctx, http.StatusUnauthorized, domain.ErrUnauthorized)
				return
			}

			claims, err := tokens.Verify(raw)
			if err != nil {
				logger.Warn("invalid jwt token", zap.Error(err))
				reject(ctx, http.StatusUnauthorized, domain.ErrUnauthorized)
				return
			}

			authCtx, cancel := context.WithTimeout(context.Background(), timeout)
			actor, err := authenticator.Authenticate(authCtx, claims)
			cancel()
			if err != nil {
				if domain.IsDomainError(err, domain.ErrCodeUnauthorized) {
					logger.Info("authentication rejected", zap.Int64("user_id", claims.UserID), zap.Error(err))
					reject(ctx, http.StatusUnauthorized, err)
					return
				}
				logger.Error("authentication failed", zap.Error(err))
				reject(ctx, http.StatusServiceUnavailable, domain.WrapError(domain.ErrCodeStorage, "authentication unavailable", nil))
				return
			}

			httpcontext.SetActor(ctx, actor)
			httpcontext.SetToken(ctx, httpcontext.TokenInfo{
				ID:        claims.TokenID,
				UserID:    claims.UserID,
				ExpiresAt: claims.ExpiresAt,
			})
			next(ctx)
		}
	}
}

// RequireElevated lets only administrator tiers through. It must run after JWTAuth.
func RequireElevated(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		actor, ok := httpcontext.ActorFrom(ctx)
		if !ok {
			reject(ctx, http.StatusUnauthorized, domain.ErrUnauthorized)
			return
		}
		if !actor.IsElevated() {
			reject(ctx, http.StatusForbidden, domain.NewError(domain.ErrCodeForbidden, "administrator role required"))
			return
		}
		next(ctx)
	}
}

func reject(ctx *fasthttp.RequestCtx, status int, err error) {
	code := string(domain.ErrCodeUnauthorized)
	var dErr *domain.Error
	if errors.As(err, &dErr) {
		code = string(dErr.Code)
	}
	body, _ := json.Marshal(transport.NewError(code, err.Error(), nil))
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}

func extractToken(ctx *fasthttp.RequestCtx) string {
	header := strings.TrimSpace(string(ctx.Request.Header.Peek("Authorization")))
	if header == "" {
		return ""
	}
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}
