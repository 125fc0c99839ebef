// Package appcontext carries request-scoped identifiers through context.
package appcontext

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	workspaceIDKey contextKey = "workspace_id"
	requestIDKey   contextKey = "request_id"
)

// WorkspaceHeader is the header the workspace middleware reads.
const WorkspaceHeader = "X-Workspace-ID"

// SetWorkspaceID returns a context carrying the workspace identifier.
func SetWorkspaceID(ctx context.Context, workspaceID string) context.Context {
	return context.WithValue(ctx, workspaceIDKey, workspaceID)
}

// GetWorkspaceID returns the workspace identifier, or "" when absent.
func GetWorkspaceID(ctx context.Context) string {
	id, _ := ctx.Value(workspaceIDKey).(string)
	return id
}

// SetRequestID returns a context carrying the request identifier.
func SetRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID returns the request identifier, or "" when absent.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WorkspaceMiddleware requires X-Workspace-ID on every request and stores it
// in the request context. Authentication is handled upstream; this layer only
// scopes data access.
func WorkspaceMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			workspaceID := c.Request().Header.Get(WorkspaceHeader)
			if workspaceID == "" {
				return echo.NewHTTPError(http.StatusBadRequest, "X-Workspace-ID header is required")
			}
			ctx := SetWorkspaceID(c.Request().Context(), workspaceID)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}
