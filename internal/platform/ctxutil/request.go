package ctxutil

import (
	"context"

	"github.com/google/uuid"
)

type requestDataKey struct{}

// RequestData travels with every HTTP request. RequestMiddleware fills the
// correlation fields and the client IP; authentication adds the caller.
type RequestData struct {
	RequestID string
	TraceID   string
	ClientIP  string

	TokenString string
	UserID      uuid.UUID
	Role        string
}

// WithCaller returns a copy of rd carrying the authenticated caller.
// A nil rd starts from empty request data.
func (rd *RequestData) WithCaller(token string, userID uuid.UUID, role string) *RequestData {
	out := &RequestData{}
	if rd != nil {
		*out = *rd
	}
	out.TokenString = token
	out.UserID = userID
	out.Role = role
	return out
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	if ctx == nil {
		return nil
	}
	rd, _ := ctx.Value(requestDataKey{}).(*RequestData)
	return rd
}

// Default returns context.Background() when ctx is nil.
func Default(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
