package testutil

import (
	"context"
	"net/http"
	"time"

	"ivory/pkg/requestcontext"
)

// FixedTime returns a context pinned to t.
func FixedTime(ctx context.Context, t time.Time) context.Context {
	return requestcontext.WithTime(ctx, t)
}

// AtTime returns req as if it arrived at t.
func AtTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(FixedTime(req.Context(), t))
}
