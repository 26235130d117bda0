// Copyright (c) 2026 RoverLabs. All rights reserved.

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/roverlabs/clubhub/internal/platform/apperr"
	"github.com/roverlabs/clubhub/internal/platform/audit"
	"github.com/roverlabs/clubhub/internal/platform/constants"
	"github.com/roverlabs/clubhub/internal/platform/ctxutil"
	"github.com/roverlabs/clubhub/internal/platform/respond"
	"github.com/roverlabs/clubhub/internal/platform/sec"
)

// IdentityResolver turns a raw bearer token into a caller identity.
//
// # Why an interface?
//
// Resolution is more than signature verification: the implementation consults
// the revocation blacklist when a session store is configured and re-fetches
// the account so a deactivated user fails immediately, not at token expiry.
// Defining the contract here decouples the middleware from the auth service
// and allows mocks during unit testing.
type IdentityResolver interface {
	ResolveAccess(ctx context.Context, rawToken string) (*sec.Identity, error)
}

// ResourceLookup fetches the ownership view of a resource by its URL id.
// It must read fresh state: a concurrently deleted resource is reported as
// NotFound, never authorized from a stale copy.
type ResourceLookup func(ctx context.Context, id string) (*OwnedResource, error)

// OwnedResource is the minimal ownership view a resource exposes to the
// guard chain.
type OwnedResource struct {
	// OwnerID is the user id of the resource owner.
	OwnerID string

	// MemberIDs lists additional users granted owner-equivalent access
	// (e.g. a project team roster).
	MemberIDs []string
}

// Authenticate extracts and verifies the bearer access token, rejecting the
// request when absent or invalid.
//
// # Flow
//  1. Check for 'Authorization: Bearer <token>' header; reject if missing.
//  2. Resolve the token via [IdentityResolver] (signature, expiry, type,
//     blacklist, live account status).
//  3. Record the attempt to the audit sink, success or failure.
//  4. Inject [*sec.Identity] into the request context for downstream use.
func Authenticate(resolver IdentityResolver, sink audit.Sink) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			identity, err := resolveRequest(resolver, sink, request)
			if err != nil {
				respond.Error(writer, request, err)
				return
			}

			ctx := ctxutil.WithIdentity(request.Context(), identity)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// AuthenticateOptional resolves a bearer token when one is presented but
// never rejects the request: on any failure it simply proceeds anonymously.
// Used by public read endpoints that personalize output for known callers.
func AuthenticateOptional(resolver IdentityResolver, sink audit.Sink) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if request.Header.Get(constants.HeaderAuthorization) == "" {
				next.ServeHTTP(writer, request)
				return
			}

			identity, err := resolveRequest(resolver, sink, request)
			if err != nil {
				next.ServeHTTP(writer, request)
				return
			}

			ctx := ctxutil.WithIdentity(request.Context(), identity)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireRole blocks requests unless the authenticated caller's role is in
// the allowed set. It implies authentication: an anonymous request gets 401.
//
// # Usage
//
// Must be registered AFTER [Authenticate] (or [AuthenticateOptional]).
func RequireRole(allowed ...sec.Role) func(http.Handler) http.Handler {
	allowedSet := make(map[sec.Role]bool, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			identity := ctxutil.GetIdentity(request.Context())
			if identity == nil {
				respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
				return
			}

			if !allowedSet[identity.Role] {
				respond.Error(writer, request, apperr.Forbidden("Insufficient role"))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}

// RequirePermission blocks requests unless the caller's permission snapshot
// contains EVERY required permission (AND semantics, not OR).
func RequirePermission(required ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			identity := ctxutil.GetIdentity(request.Context())
			if identity == nil {
				respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
				return
			}

			for _, permission := range required {
				if !identity.HasPermission(permission) {
					respond.Error(writer, request, apperr.Forbidden("Insufficient permissions"))
					return
				}
			}

			next.ServeHTTP(writer, request)
		})
	}
}

// RequireOwnership blocks requests unless the caller owns the target resource
// or appears in its membership list. Admins always pass.
//
// The resource is fetched fresh via the injected lookup on every request so a
// concurrent deletion is observed as NotFound rather than a stale Forbidden.
func RequireOwnership(lookup ResourceLookup, idParam string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			identity := ctxutil.GetIdentity(request.Context())
			if identity == nil {
				respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
				return
			}

			if identity.Role == sec.RoleAdmin {
				next.ServeHTTP(writer, request)
				return
			}

			resource, err := lookup(request.Context(), chi.URLParam(request, idParam))
			if err != nil {
				respond.Error(writer, request, err)
				return
			}

			if resource.OwnerID == identity.ID {
				next.ServeHTTP(writer, request)
				return
			}

			for _, memberID := range resource.MemberIDs {
				if memberID == identity.ID {
					next.ServeHTTP(writer, request)
					return
				}
			}

			respond.Error(writer, request, apperr.Forbidden("You do not have access to this resource"))
		})
	}
}

// GetIdentity retrieves the [*sec.Identity] from the [context.Context].
//
// # Returns
//   - The caller identity if the request is authenticated.
//   - nil if the request is anonymous.
func GetIdentity(ctx context.Context) *sec.Identity {
	return ctxutil.GetIdentity(ctx)
}

// resolveRequest performs the shared token extraction, resolution, and audit
// recording for both Authenticate variants.
func resolveRequest(resolver IdentityResolver, sink audit.Sink, request *http.Request) (*sec.Identity, error) {
	event := audit.Event{
		Action:    "authenticate",
		IP:        RealIP(request),
		Path:      request.URL.Path,
		UserAgent: request.UserAgent(),
	}

	authHeader := request.Header.Get(constants.HeaderAuthorization)
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		event.Outcome = audit.OutcomeFailure
		event.Reason = "missing_bearer_token"
		sink.Record(request.Context(), event)
		return nil, apperr.Unauthorized("Authentication required")
	}

	identity, err := resolver.ResolveAccess(request.Context(), strings.TrimSpace(parts[1]))
	if err != nil {
		event.Outcome = audit.OutcomeFailure
		event.Reason = err.Error()
		sink.Record(request.Context(), event)

		if apperr.IsAppError(err) {
			return nil, err
		}
		return nil, apperr.Unauthorized("Invalid or expired token")
	}

	event.Outcome = audit.OutcomeSuccess
	event.SubjectID = identity.ID
	event.Email = identity.Email
	sink.Record(request.Context(), event)

	return identity, nil
}
