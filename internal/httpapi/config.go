package httpapi

import "time"

const defaultMaxBodyBytes int64 = 16 << 20

// maxBodyBytes caps the JSON body of POST /render.
var maxBodyBytes = defaultMaxBodyBytes

// SetMaxBodyBytes sets the request body limit; n <= 0 restores the 16 MiB default.
func SetMaxBodyBytes(n int64) {
	if n <= 0 {
		maxBodyBytes = defaultMaxBodyBytes
		return
	}
	maxBodyBytes = n
}

// renderTimeout bounds a whole /render request on top of the per-step
// timeouts of the manager. Zero disables it.
var renderTimeout time.Duration

// SetRenderTimeoutSeconds sets the render timeout in seconds (0 disables).
func SetRenderTimeoutSeconds(sec int64) {
	if sec < 0 {
		sec = 0
	}
	renderTimeout = time.Duration(sec) * time.Second
}

// retryAfterSeconds is sent with 503 responses for transient engine failures.
var retryAfterSeconds = 2

// CORS configuration (opt-in). If disabled, no CORS middleware is added.
var (
	corsEnabled        bool
	corsAllowedOrigins []string
	corsAllowedMethods []string
	corsAllowedHeaders []string
)

// SetCORSOptions configures CORS behavior for the HTTP server.
func SetCORSOptions(enabled bool, origins, methods, headers []string) {
	corsEnabled = enabled
	corsAllowedOrigins = append([]string(nil), origins...)
	corsAllowedMethods = append([]string(nil), methods...)
	corsAllowedHeaders = append([]string(nil), headers...)
}
