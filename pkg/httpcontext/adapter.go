package httpcontext

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	"github.com/fastygo/caseboard/domain"
	appLogger "github.com/fastygo/caseboard/pkg/logger"
)

// Key represents a context value key exported for reuse.
type Key string

const (
	KeyRemoteAddr Key = "remote_addr"
	KeyUserAgent  Key = "user_agent"
)

const (
	actorValue = "caseboard.actor"
	tokenValue = "caseboard.token"
)

// TokenInfo describes the bearer token that authenticated a request.
type TokenInfo struct {
	ID        string
	UserID    int64
	ExpiresAt time.Time
}

// Adapter converts fasthttp.RequestCtx into a stdlib context with deadlines and metadata.
type Adapter struct {
	timeout time.Duration
}

func NewAdapter(timeout time.Duration) *Adapter {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Adapter{timeout: timeout}
}

// Attach creates a context with the adapter timeout, carrying the request id,
// the authenticated actor (when present) and connection metadata.
func (a *Adapter) Attach(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	stdCtx, cancel := context.WithTimeout(context.Background(), a.timeout)

	reqID := requestID(ctx)
	stdCtx = appLogger.ContextWithRequestID(stdCtx, reqID)
	ctx.Response.Header.Set("X-Request-ID", reqID)

	if actor, ok := ActorFrom(ctx); ok {
		stdCtx = appLogger.ContextWithActorID(stdCtx, actor.UserID)
	}
	if remoteAddr := ctx.RemoteAddr(); remoteAddr != nil {
		stdCtx = context.WithValue(stdCtx, KeyRemoteAddr, remoteAddr.String())
	}
	if ua := string(ctx.Request.Header.UserAgent()); ua != "" {
		stdCtx = context.WithValue(stdCtx, KeyUserAgent, ua)
	}

	return stdCtx, cancel
}

// SetActor stores the authenticated actor on the request.
func SetActor(ctx *fasthttp.RequestCtx, actor domain.Actor) {
	ctx.SetUserValue(actorValue, actor)
}

// ActorFrom returns the actor stored by SetActor.
func ActorFrom(ctx *fasthttp.RequestCtx) (domain.Actor, bool) {
	if ctx == nil {
		return domain.Actor{}, false
	}
	actor, ok := ctx.UserValue(actorValue).(domain.Actor)
	return actor, ok
}

func SetToken(ctx *fasthttp.RequestCtx, token TokenInfo) {
	ctx.SetUserValue(tokenValue, token)
}

func TokenFrom(ctx *fasthttp.RequestCtx) (TokenInfo, bool) {
	if ctx == nil {
		return TokenInfo{}, false
	}
	token, ok := ctx.UserValue(tokenValue).(TokenInfo)
	return token, ok
}

func requestID(ctx *fasthttp.RequestCtx) string {
	if ctx == nil {
		return uuid.NewString()
	}
	if header := strings.TrimSpace(string(ctx.Request.Header.Peek("X-Request-ID"))); header != "" {
		return header
	}
	return uuid.NewString()
}
