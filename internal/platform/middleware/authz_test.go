// Copyright (c) 2026 RoverLabs. All rights reserved.

package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roverlabs/clubhub/internal/platform/apperr"
	"github.com/roverlabs/clubhub/internal/platform/audit"
	"github.com/roverlabs/clubhub/internal/platform/middleware"
	"github.com/roverlabs/clubhub/internal/platform/sec"
)

// fakeResolver resolves a fixed set of tokens to identities.
type fakeResolver struct {
	identities map[string]*sec.Identity
}

func (r *fakeResolver) ResolveAccess(ctx context.Context, rawToken string) (*sec.Identity, error) {
	if identity, ok := r.identities[rawToken]; ok {
		return identity, nil
	}
	return nil, apperr.Unauthorized("Invalid or expired token")
}

func newResolver() *fakeResolver {
	return &fakeResolver{identities: map[string]*sec.Identity{
		"student-token": {
			ID:          "user-student",
			Email:       "student@club.test",
			Role:        sec.RoleStudent,
			Permissions: sec.DefaultPermissions(sec.RoleStudent),
		},
		"mentor-token": {
			ID:          "user-mentor",
			Email:       "mentor@club.test",
			Role:        sec.RoleMentor,
			Permissions: sec.DefaultPermissions(sec.RoleMentor),
		},
		"admin-token": {
			ID:          "user-admin",
			Email:       "admin@club.test",
			Role:        sec.RoleAdmin,
			Permissions: sec.DefaultPermissions(sec.RoleAdmin),
		},
	}}
}

// echoIdentity writes the resolved caller id, or "anonymous".
func echoIdentity(writer http.ResponseWriter, request *http.Request) {
	identity := middleware.GetIdentity(request.Context())
	if identity == nil {
		_, _ = writer.Write([]byte("anonymous"))
		return
	}
	_, _ = writer.Write([]byte(identity.ID))
}

func execute(handler http.Handler, token string, target string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(http.MethodGet, target, nil)
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	return recorder
}

/*
TestAuthenticate verifies the strict guard: valid tokens attach an identity,
everything else is rejected with 401.
*/
func TestAuthenticate(t *testing.T) {
	guard := middleware.Authenticate(newResolver(), audit.Discard{})
	handler := guard(http.HandlerFunc(echoIdentity))

	t.Run("valid token", func(t *testing.T) {
		recorder := execute(handler, "student-token", "/me")
		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, "user-student", recorder.Body.String())
	})

	t.Run("missing header", func(t *testing.T) {
		recorder := execute(handler, "", "/me")
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("unknown token", func(t *testing.T) {
		recorder := execute(handler, "garbage", "/me")
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("malformed scheme", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/me", nil)
		request.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})
}

/*
TestAuthenticateOptional verifies the lenient guard: failures fall through to
an anonymous request instead of rejecting.
*/
func TestAuthenticateOptional(t *testing.T) {
	guard := middleware.AuthenticateOptional(newResolver(), audit.Discard{})
	handler := guard(http.HandlerFunc(echoIdentity))

	t.Run("valid token attaches identity", func(t *testing.T) {
		recorder := execute(handler, "mentor-token", "/feed")
		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, "user-mentor", recorder.Body.String())
	})

	t.Run("no header proceeds anonymously", func(t *testing.T) {
		recorder := execute(handler, "", "/feed")
		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, "anonymous", recorder.Body.String())
	})

	t.Run("bad token proceeds anonymously", func(t *testing.T) {
		recorder := execute(handler, "garbage", "/feed")
		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, "anonymous", recorder.Body.String())
	})
}

/*
TestRequireRole verifies the role gate: 401 for anonymous callers, 403 for
authenticated callers outside the allowed set.
*/
func TestRequireRole(t *testing.T) {
	authenticate := middleware.Authenticate(newResolver(), audit.Discard{})
	requireMentor := middleware.RequireRole(sec.RoleMentor, sec.RoleAdmin)
	handler := authenticate(requireMentor(http.HandlerFunc(echoIdentity)))

	t.Run("allowed role passes", func(t *testing.T) {
		recorder := execute(handler, "mentor-token", "/workshops")
		assert.Equal(t, http.StatusOK, recorder.Code)
	})

	t.Run("second allowed role passes", func(t *testing.T) {
		recorder := execute(handler, "admin-token", "/workshops")
		assert.Equal(t, http.StatusOK, recorder.Code)
	})

	t.Run("outside the set is forbidden", func(t *testing.T) {
		recorder := execute(handler, "student-token", "/workshops")
		assert.Equal(t, http.StatusForbidden, recorder.Code)
	})

	t.Run("anonymous is unauthorized", func(t *testing.T) {
		// Role check alone, no authenticate step in front.
		bare := requireMentor(http.HandlerFunc(echoIdentity))
		recorder := execute(bare, "", "/workshops")
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})
}

/*
TestRequirePermission verifies the AND semantics of the permission gate.
*/
func TestRequirePermission(t *testing.T) {
	authenticate := middleware.Authenticate(newResolver(), audit.Discard{})

	t.Run("single permission passes", func(t *testing.T) {
		guard := middleware.RequirePermission("read:projects")
		handler := authenticate(guard(http.HandlerFunc(echoIdentity)))
		recorder := execute(handler, "student-token", "/projects")
		assert.Equal(t, http.StatusOK, recorder.Code)
	})

	t.Run("all permissions required", func(t *testing.T) {
		guard := middleware.RequirePermission("read:projects", "write:projects")
		handler := authenticate(guard(http.HandlerFunc(echoIdentity)))

		// Mentors hold both; students only read.
		assert.Equal(t, http.StatusOK, execute(handler, "mentor-token", "/projects").Code)
		assert.Equal(t, http.StatusForbidden, execute(handler, "student-token", "/projects").Code)
	})

	t.Run("anonymous is unauthorized", func(t *testing.T) {
		guard := middleware.RequirePermission("read:projects")
		handler := guard(http.HandlerFunc(echoIdentity))
		recorder := execute(handler, "", "/projects")
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})
}

/*
TestRequireOwnership verifies owner, member, admin-bypass, stranger, and
missing-resource behavior of the ownership gate.
*/
func TestRequireOwnership(t *testing.T) {
	lookup := func(ctx context.Context, id string) (*middleware.OwnedResource, error) {
		switch id {
		case "project-1":
			return &middleware.OwnedResource{
				OwnerID:   "user-student",
				MemberIDs: []string{"user-mentor"},
			}, nil
		default:
			return nil, apperr.NotFound("Project")
		}
	}

	authenticate := middleware.Authenticate(newResolver(), audit.Discard{})
	ownership := middleware.RequireOwnership(lookup, "id")

	router := chi.NewRouter()
	router.With(authenticate, ownership).Get("/projects/{id}", echoIdentity)

	t.Run("owner passes", func(t *testing.T) {
		recorder := execute(router, "student-token", "/projects/project-1")
		assert.Equal(t, http.StatusOK, recorder.Code)
	})

	t.Run("member passes", func(t *testing.T) {
		recorder := execute(router, "mentor-token", "/projects/project-1")
		assert.Equal(t, http.StatusOK, recorder.Code)
	})

	t.Run("admin bypasses lookup", func(t *testing.T) {
		// Even a missing resource does not block an admin.
		recorder := execute(router, "admin-token", "/projects/missing")
		assert.Equal(t, http.StatusOK, recorder.Code)
	})

	t.Run("stranger is forbidden", func(t *testing.T) {
		resolver := newResolver()
		resolver.identities["other-token"] = &sec.Identity{ID: "user-other", Role: sec.RoleStudent}
		r := chi.NewRouter()
		r.With(middleware.Authenticate(resolver, audit.Discard{}), ownership).Get("/projects/{id}", echoIdentity)

		recorder := execute(r, "other-token", "/projects/project-1")
		assert.Equal(t, http.StatusForbidden, recorder.Code)
	})

	t.Run("missing resource is not found", func(t *testing.T) {
		recorder := execute(router, "student-token", "/projects/missing")
		require.Equal(t, http.StatusNotFound, recorder.Code)
	})
}
