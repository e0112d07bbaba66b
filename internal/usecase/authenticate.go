package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"progress-hub/internal/domain"
	"progress-hub/utils/metrics"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/singleflight"
)

var tracer = otel.Tracer("progress-hub/usecase")

// Authenticate bridges Invidious credentials to account identities with a
// cache-through strategy.
type Authenticate struct {
	verifier domain.SessionVerifier
	sessions domain.SessionStore
	cache    domain.AuthCache
	logger   *slog.Logger
	inflight singleflight.Group
}

// NewAuthenticate creates a new Authenticate usecase.
func NewAuthenticate(v domain.SessionVerifier, s domain.SessionStore, c domain.AuthCache, l *slog.Logger) *Authenticate {
	return &Authenticate{verifier: v, sessions: s, cache: c, logger: l}
}

// Execute authenticates an Authorization header value.
func (uc *Authenticate) Execute(ctx context.Context, authorization string) (domain.Identity, error) {
	credential, err := domain.ExtractBearer(authorization)
	if err != nil {
		uc.rejected(ctx, err)
		return "", err
	}
	return uc.executeCredential(ctx, credential)
}

func (uc *Authenticate) executeCredential(ctx context.Context, credential string) (domain.Identity, error) {
	if credential == "" {
		uc.rejected(ctx, domain.ErrMissingCredential)
		return "", domain.ErrMissingCredential
	}

	if id, found := uc.cached(ctx, credential); found {
		metrics.RecordAuth("authenticated", "cache")
		return id, nil
	}

	// Identical concurrent misses share one upstream round trip. The flight
	// outlives any single caller; the gateway timeout still bounds it.
	flightCtx := context.WithoutCancel(ctx)
	ch := uc.inflight.DoChan(credential, func() (any, error) {
		return uc.resolve(flightCtx, credential)
	})

	select {
	case <-ctx.Done():
		err := fmt.Errorf("%w: %w", domain.ErrUnauthorized, ctx.Err())
		uc.rejected(ctx, err)
		return "", err
	case res := <-ch:
		if res.Err != nil {
			uc.rejected(ctx, res.Err)
			return "", res.Err
		}
		metrics.RecordAuth("authenticated", "validated")
		return res.Val.(domain.Identity), nil
	}
}

func (uc *Authenticate) resolve(ctx context.Context, credential string) (domain.Identity, error) {
	ctx, span := tracer.Start(ctx, "Authenticate.resolve")
	defer span.End()

	cred := domain.ClassifyCredential(credential)
	span.SetAttributes(attribute.String("credential.kind", cred.Kind.String()))

	if err := uc.verifier.VerifySession(ctx, cred); err != nil {
		span.SetStatus(codes.Error, domain.RejectionReason(err))
		return "", err
	}

	sessionID, err := cred.SessionID()
	if err != nil {
		span.SetStatus(codes.Error, domain.RejectionReason(err))
		return "", err
	}

	id, err := uc.sessions.LookupIdentity(ctx, sessionID)
	if err != nil {
		span.SetStatus(codes.Error, domain.RejectionReason(err))
		return "", err
	}

	if err := uc.cache.Set(ctx, credential, id); err != nil {
		uc.logger.WarnContext(ctx, "auth cache write failed", "error", err)
	}
	return id, nil
}

func (uc *Authenticate) cached(ctx context.Context, credential string) (domain.Identity, bool) {
	id, found, err := uc.cache.Get(ctx, credential)
	if err != nil {
		uc.logger.WarnContext(ctx, "auth cache read failed, falling back to validation", "error", err)
		found = false
	}
	metrics.RecordCacheLookup(found)
	return id, found
}

func (uc *Authenticate) rejected(ctx context.Context, err error) {
	reason := domain.RejectionReason(err)
	metrics.RecordAuth("rejected", reason)

	if errors.Is(err, domain.ErrInvidiousUnavailable) || errors.Is(err, domain.ErrSessionStoreUnavailable) {
		uc.logger.WarnContext(ctx, "authentication rejected by unavailable dependency", "reason", reason, "error", err)
		return
	}
	uc.logger.DebugContext(ctx, "authentication rejected", "reason", reason)
}
