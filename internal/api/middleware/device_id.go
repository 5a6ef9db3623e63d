package middleware

import (
	"context"
	"net/http"
	"regexp"
)

// deviceIDKey is the context key for the caller's device ID.
type deviceIDKey struct{}

// DeviceIDHeader carries the anonymous device identifier on progress routes.
const DeviceIDHeader = "X-Device-Id"

// deviceIDPattern bounds accepted device identifiers. They are opaque client
// tokens, so only the alphabet and length are enforced.
var deviceIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{8,128}$`)

// RequireDeviceID creates middleware that extracts and validates the device
// identifier header. Requests without a usable device ID are rejected.
func RequireDeviceID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			deviceID := r.Header.Get(DeviceIDHeader)
			if deviceID == "" {
				writeUnauthorized(w, r, "missing device identifier header")
				return
			}
			if !deviceIDPattern.MatchString(deviceID) {
				writeUnauthorized(w, r, "invalid device identifier")
				return
			}

			ctx := context.WithValue(r.Context(), deviceIDKey{}, deviceID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetDeviceID retrieves the device ID from the context.
// Returns an empty string if the request carried none.
func GetDeviceID(ctx context.Context) string {
	if id, ok := ctx.Value(deviceIDKey{}).(string); ok {
		return id
	}
	return ""
}
