package reqctx

import "context"

type ctxKey string

const (
	keyRequestID ctxKey = "request_id"
	keyUID       ctxKey = "uid"
	keyRole      ctxKey = "role"
)

// WithRequestID stores the correlation id for request logs.
func WithRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, keyRequestID, rid)
}

// RequestID returns correlation id if present.
func RequestID(ctx context.Context) string {
	v, _ := ctx.Value(keyRequestID).(string)
	return v
}

// WithUser stores the verified caller.
func WithUser(ctx context.Context, uid, role string) context.Context {
	ctx = context.WithValue(ctx, keyUID, uid)
	return context.WithValue(ctx, keyRole, role)
}

// UID returns the verified caller uid if present.
func UID(ctx context.Context) string {
	v, _ := ctx.Value(keyUID).(string)
	return v
}

// Role returns the verified caller role if present.
func Role(ctx context.Context) string {
	v, _ := ctx.Value(keyRole).(string)
	return v
}
