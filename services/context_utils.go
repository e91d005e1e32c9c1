package services

import "context"

// DetachedContext keeps ctx values but drops its cancellation, so a sync
// started by an HTTP request survives the client disconnecting.
func DetachedContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return context.WithoutCancel(ctx)
}
