package middleware

import (
	"context"

	ierr "github.com/classbank/classbank/internal/errors"
	"github.com/classbank/classbank/internal/types"
	"github.com/gin-gonic/gin"
)

func RequestIDMiddleware(c *gin.Context) {
	ctx := c.Request.Context()

	requestID := c.GetHeader(types.HeaderRequestID)
	if requestID == "" {
		requestID = types.GenerateUUID()
	}

	ctx = context.WithValue(ctx, types.CtxRequestID, requestID)
	c.Request = c.Request.WithContext(ctx)

	c.Header(types.HeaderRequestID, requestID)

	c.Next()
}

// TenantMiddleware attaches the tenant scope and acting user to the
// request context. Every request touching ledger or claims data must
// carry a tenant scope; a missing header is rejected before any handler
// runs.
func TenantMiddleware(c *gin.Context) {
	ctx := c.Request.Context()

	tenantID := c.GetHeader(types.HeaderTenantID)
	if tenantID == "" {
		c.Error(ierr.NewError("missing tenant scope").
			WithHint("The " + types.HeaderTenantID + " header is required").
			Mark(ierr.ErrPermissionDenied))
		c.Abort()
		return
	}

	ctx = types.SetTenantID(ctx, tenantID)
	if userID := c.GetHeader(types.HeaderUserID); userID != "" {
		ctx = types.SetUserID(ctx, userID)
	}
	c.Request = c.Request.WithContext(ctx)

	c.Next()
}
