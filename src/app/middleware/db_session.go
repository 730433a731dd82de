package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"budgettool/src/app/http/response"
	"budgettool/src/infra/db"
)

// Leaser hands out request-scoped connection leases.
type Leaser interface {
	Acquire(ctx context.Context) (*db.Lease, error)
}

// PostgresSession acquires one lease per request, stores it in the request
// context for the repository and releases it when the chain returns, on
// every path: success, error response, panic or client disconnect.
//
// Failing to acquire aborts the request: a saturated pool answers 503 with
// Retry-After, a closed pool 503.
func PostgresSession(pool Leaser) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		lease, err := pool.Acquire(ctx)
		if err != nil {
			if ctx.Err() != nil {
				// client went away; nobody is listening for a body
				c.Abort()
				return
			}
			response.FromDomainError(c, err, GetRequestID(c))
			return
		}
		defer lease.Release()

		c.Request = c.Request.WithContext(db.NewContext(ctx, lease))
		c.Next()
	}
}
