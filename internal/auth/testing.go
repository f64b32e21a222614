package auth

import "context"

// SetUserIDForTest injects a user ID into the context, standing in for
// Middleware in handler tests.
func SetUserIDForTest(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}
