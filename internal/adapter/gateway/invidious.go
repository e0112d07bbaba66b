package gateway

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"progress-hub/internal/domain"
	"progress-hub/utils/metrics"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	feedAuthPath     = "/api/v1/auth/feed"
	sessionCookie    = "SID"
	maxDrainBodySize = 64 << 10
)

var tracer = otel.Tracer("progress-hub/gateway")

// InvidiousGateway implements domain.SessionVerifier against an Invidious instance.
type InvidiousGateway struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

// InvidiousOption tunes the gateway.
type InvidiousOption func(*InvidiousGateway)

// WithHTTPClient replaces the default tuned client.
func WithHTTPClient(c *http.Client) InvidiousOption {
	return func(g *InvidiousGateway) { g.httpClient = c }
}

// WithInsecureTLS disables certificate verification, for local instances only.
func WithInsecureTLS() InvidiousOption {
	return func(g *InvidiousGateway) {
		if t, ok := g.httpClient.Transport.(*http.Transport); ok {
			t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // debug mode only
		}
	}
}

// NewInvidiousGateway creates a new gateway with tuned HTTP transport.
func NewInvidiousGateway(baseURL string, timeout time.Duration, opts ...InvidiousOption) *InvidiousGateway {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,
	}

	g := &InvidiousGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// VerifySession asks Invidious whether the credential belongs to a live
// session. A session-wrapped token goes up as a bearer token, a raw session
// id as the SID cookie.
func (g *InvidiousGateway) VerifySession(ctx context.Context, cred domain.Credential) error {
	ctx, span := tracer.Start(ctx, "Invidious.VerifySession")
	defer span.End()
	span.SetAttributes(attribute.String("credential.kind", cred.Kind.String()))

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+feedAuthPath, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvidiousUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	switch cred.Kind {
	case domain.CredentialSessionWrapped:
		req.Header.Set("Authorization", "Bearer "+cred.Value)
	default:
		// Set verbatim; http.Cookie would silently drop bytes it considers invalid.
		req.Header.Set("Cookie", sessionCookie+"="+cred.Value)
	}

	start := time.Now()
	resp, err := g.httpClient.Do(req)
	if err != nil {
		metrics.RecordExternalValidation(cred.Kind.String(), "error", time.Since(start).Seconds())
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport error")
		return fmt.Errorf("%w: %w", domain.ErrInvidiousUnavailable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBodySize))

	metrics.RecordExternalValidation(cred.Kind.String(), fmt.Sprint(resp.StatusCode), time.Since(start).Seconds())
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode != http.StatusOK {
		span.SetStatus(codes.Error, "session rejected")
		return fmt.Errorf("%w: invidious returned status %d", domain.ErrExternalRejected, resp.StatusCode)
	}
	return nil
}
