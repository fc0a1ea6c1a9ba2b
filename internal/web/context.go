package web

import (
	"context"
	"net/http"

	"github.com/thauanfonseca/HDA/internal/core"
)

// WithRequestMetadata adds the client IP to context for job logging.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	return core.ContextWithClientIP(ctx, clientKey(r))
}
