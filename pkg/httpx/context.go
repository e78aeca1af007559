package httpx

import "context"

type ctxKey string

const (
	CtxKeyUserID   ctxKey = "user_id"
	CtxKeyUserName ctxKey = "user_name"
	CtxKeyScopes   ctxKey = "scopes"
)

// UserIDFromCtx returns the authenticated subject, or "" when anonymous.
func UserIDFromCtx(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyUserID).(string); ok {
		return v
	}
	return ""
}

// UserNameFromCtx returns the authenticated display name, or "".
func UserNameFromCtx(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyUserName).(string); ok {
		return v
	}
	return ""
}

func scopesFromCtx(ctx context.Context) []string {
	if v, ok := ctx.Value(CtxKeyScopes).([]string); ok {
		return v
	}
	return nil
}
