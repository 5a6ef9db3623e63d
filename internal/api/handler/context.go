package handler

import (
	"context"

	"github.com/pandalpath/pandalpath/internal/api/middleware"
)

// GetAdminID retrieves the authenticated admin ID from the context.
// This is a convenience wrapper around middleware.GetAdminID.
func GetAdminID(ctx context.Context) string {
	return middleware.GetAdminID(ctx)
}

// GetDeviceID retrieves the caller's device ID from the context.
// This is a convenience wrapper around middleware.GetDeviceID.
func GetDeviceID(ctx context.Context) string {
	return middleware.GetDeviceID(ctx)
}
