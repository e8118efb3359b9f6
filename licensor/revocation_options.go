package licensor

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// RevocationOption configures a RevocationChecker.
type RevocationOption func(*RevocationChecker)

// WithHTTPClient sets the HTTP client used for the revocation GET.
// The client is copied, not modified, when WithTimeout is also given.
func WithHTTPClient(c *http.Client) RevocationOption {
	return func(r *RevocationChecker) {
		r.httpClient = c
	}
}

// WithTimeout bounds each revocation request. Zero keeps the transport default.
func WithTimeout(d time.Duration) RevocationOption {
	return func(r *RevocationChecker) {
		r.timeout = d
	}
}

// WithUserAgent sets the User-Agent header. An empty value omits the header
// override.
func WithUserAgent(ua string) RevocationOption {
	return func(r *RevocationChecker) {
		r.userAgent = ua
	}
}

// WithForceOnline sets the policy used by IsRevoked: true treats an
// unreachable endpoint as revoked.
func WithForceOnline(force bool) RevocationOption {
	return func(r *RevocationChecker) {
		r.forceOnline = force
	}
}

// WithLogger sets the logger for revocation decisions.
func WithLogger(l *zap.Logger) RevocationOption {
	return func(r *RevocationChecker) {
		r.logger = l
	}
}
