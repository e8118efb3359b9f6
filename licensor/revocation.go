package licensor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	// LicenseIDPlaceholder is replaced by the license identifier in the
	// revocation URL.
	LicenseIDPlaceholder = "${licenseId}"

	defaultUserAgent = "licensor-go/1.0"
	tracerName       = "github.com/CloudNativeWorks/cnw-licensor/licensor"
	maxDrainBytes    = 1 << 20 // 1 MB
)

// SetRevocationURL stores the revocation URL. It may contain
// LicenseIDPlaceholder, so it is kept as a plain string.
func (d *Document) SetRevocationURL(raw string) {
	d.SetFeature(FeatureRevocationURL, raw)
}

// RevocationURL resolves the revocationUrl feature. Every LicenseIDPlaceholder
// is replaced by the licenseId feature when that feature holds a valid
// identifier; otherwise the placeholder is left as is in u.Path. On the wire
// such a leftover placeholder is percent-encoded by u.EscapedPath, so the
// endpoint receives "$%7BlicenseId%7D", which decodes back to the template.
// ok is false when the document has no revocation URL.
func (d *Document) RevocationURL() (u *url.URL, ok bool, err error) {
	raw, ok := d.features.Get(FeatureRevocationURL)
	if !ok {
		return nil, false, nil
	}
	if id, hasID := d.LicenseID(); hasID {
		raw = strings.ReplaceAll(raw, LicenseIDPlaceholder, id.String())
	}
	u, err = url.Parse(raw)
	if err != nil {
		return nil, true, fmt.Errorf("parse %s: %w", FeatureRevocationURL, err)
	}
	return u, true, nil
}

// RevocationChecker asks the revocation endpoint of a license whether it is
// still valid. A 200 response means not revoked; any other status means
// revoked. It holds no mutable state and is safe for concurrent use.
type RevocationChecker struct {
	httpClient  *http.Client
	timeout     time.Duration
	userAgent   string
	forceOnline bool
	logger      *zap.Logger
	tracer      trace.Tracer
}

// NewRevocationChecker creates a checker. Without WithTimeout the transport
// default applies.
func NewRevocationChecker(opts ...RevocationOption) *RevocationChecker {
	c := &RevocationChecker{
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	// Apply timeout after all options so ordering doesn't matter.
	if c.timeout > 0 {
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	c.tracer = otel.Tracer(tracerName)
	return c
}

// IsRevoked checks revocation with the checker's default policy, which is
// lenient (an unreachable endpoint means not revoked) unless the checker was
// built WithForceOnline(true).
func (c *RevocationChecker) IsRevoked(ctx context.Context, doc *Document) bool {
	return c.IsRevokedWith(ctx, doc, c.forceOnline)
}

// IsRevokedWith checks whether doc has been revoked. It issues one GET to the
// resolved revocation URL. When the endpoint cannot be reached the result is
// forceOnline: true treats the license as revoked, false as not revoked.
//
// A document without a revocation URL is never revoked, even when forceOnline
// is true. This is the one case that does not fail closed: a license that
// names no endpoint opts out of online revocation.
func (c *RevocationChecker) IsRevokedWith(ctx context.Context, doc *Document, forceOnline bool) bool {
	u, ok, err := doc.RevocationURL()
	if !ok {
		return false
	}
	log := c.logger.With(zap.String("license_id", doc.licenseIDString()), zap.Bool("force_online", forceOnline))
	if err == nil && u.Scheme == "" {
		err = errRelativeURL
	}
	if err != nil {
		log.Warn("revocation url unusable", zap.Error(err))
		return forceOnline
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		log.Warn("revocation url is not http", zap.String("url", u.Redacted()))
		return true
	}

	status, err := c.Probe(ctx, u)
	if err != nil {
		log.Warn("revocation endpoint unreachable", zap.String("url", u.Redacted()), zap.Error(err))
		return forceOnline
	}
	if status != http.StatusOK {
		log.Info("license revoked", zap.String("url", u.Redacted()), zap.Int("status", status))
		return true
	}
	return false
}

// Probe performs the revocation GET and returns the HTTP status code.
// Transport failures are returned as *NetworkError.
func (c *RevocationChecker) Probe(ctx context.Context, u *url.URL) (int, error) {
	ctx, span := c.tracer.Start(ctx, "licensor.revocation.probe",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("url.full", u.Redacted())),
	)
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return 0, c.probeFailed(span, u, fmt.Errorf("create request: %w", err))
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, c.probeFailed(span, u, err)
	}
	defer resp.Body.Close()
	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	return resp.StatusCode, nil
}

func (c *RevocationChecker) probeFailed(span trace.Span, u *url.URL, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, "revocation probe failed")
	return &NetworkError{URL: u.Redacted(), Err: err}
}

func (d *Document) licenseIDString() string {
	if id, ok := d.LicenseID(); ok {
		return id.String()
	}
	return ""
}
