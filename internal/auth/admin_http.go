// Copyright (c) 2026 RoverLabs. All rights reserved.

package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/roverlabs/clubhub/internal/platform/request"
	"github.com/roverlabs/clubhub/internal/platform/respond"
	"github.com/roverlabs/clubhub/internal/platform/validate"
	"github.com/roverlabs/clubhub/pkg/pagination"
)

// AdminHandler implements the administrative HTTP endpoints: the pre-approval
// registry and member account management. Every route requires an
// authenticated administrator; the guards are applied in Routes.
type AdminHandler struct {
	authService *Service
	guards      []func(http.Handler) http.Handler
}

// NewAdminHandler constructs a new [AdminHandler]. The guards typically chain
// authentication with an admin role requirement and are applied to the whole
// router.
func NewAdminHandler(service *Service, guards ...func(http.Handler) http.Handler) *AdminHandler {
	return &AdminHandler{authService: service, guards: guards}
}

// Routes returns a [chi.Router] configured with the administrative routes.
//
// # Endpoints
//   - PUT    /approvals               : Creates or replaces a registry entry.
//   - GET    /approvals               : Lists registry entries.
//   - DELETE /approvals/{email}       : Removes a registry entry.
//   - GET    /users                   : Lists member accounts.
//   - PATCH  /users/{id}/role         : Changes a member's role.
//   - POST   /users/{id}/deactivate   : Soft-deactivates an account.
//   - POST   /users/{id}/reactivate   : Restores a deactivated account.
func (handler *AdminHandler) Routes() chi.Router {
	router := chi.NewRouter()

	for _, guard := range handler.guards {
		router.Use(guard)
	}

	router.Put("/approvals", handler.upsertApproval)
	router.Get("/approvals", handler.listApprovals)
	router.Delete("/approvals/{email}", handler.deleteApproval)

	router.Get("/users", handler.listUsers)
	router.Patch("/users/{id}/role", handler.updateUserRole)
	router.Post("/users/{id}/deactivate", handler.deactivateUser)
	router.Post("/users/{id}/reactivate", handler.reactivateUser)

	return router
}

// # Request Payloads

type approvalRequest struct {
	Email string   `json:"email"`
	Roles []string `json:"roles"`
	Note  string   `json:"note"`
}

type roleUpdateRequest struct {
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

/*
UpsertApproval creates or replaces a pre-approval registry entry.

PUT /api/v1/admin/approvals

Description: The email is the natural key; repeating the call replaces the
role set rather than erroring.

Request:
  - Body: approvalRequest (Email, Roles, Note)

Response:
  - 200: RoleApproval: Persisted entry
  - 400: ErrInvalidJSON: Bad input, unknown role, or empty role set
*/
func (handler *AdminHandler) upsertApproval(writer http.ResponseWriter, request *http.Request) {
	actor, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input approvalRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).Email(FieldEmail, input.Email)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	approval, err := handler.authService.UpsertApproval(request.Context(), ApprovalInput{
		Email:   input.Email,
		Roles:   input.Roles,
		Note:    input.Note,
		ActorID: actor.ID,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, approval)
}

/*
ListApprovals returns a page of registry entries.

GET /api/v1/admin/approvals?page=&limit=

Response:
  - 200: []RoleApproval with pagination metadata
*/
func (handler *AdminHandler) listApprovals(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)

	approvals, total, err := handler.authService.ListApprovals(request.Context(), params.Limit, params.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, approvals, pagination.NewMeta(params.Page, params.Limit, total))
}

/*
DeleteApproval removes a registry entry.

DELETE /api/v1/admin/approvals/{email}

Description: Accounts that already hold an approved role keep it; the
registry only gates future self-assignment.

Response:
  - 204: No Content: Entry removed
  - 404: ErrNotFound: No entry for this email
*/
func (handler *AdminHandler) deleteApproval(writer http.ResponseWriter, request *http.Request) {
	actor, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	email := requestutil.Param(request, "email")

	if err := handler.authService.DeleteApproval(request.Context(), email, actor.ID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
ListUsers returns a page of member accounts.

GET /api/v1/admin/users?page=&limit=

Response:
  - 200: []User with pagination metadata
*/
func (handler *AdminHandler) listUsers(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)

	users, total, err := handler.authService.ListUsers(request.Context(), params.Limit, params.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, users, pagination.NewMeta(params.Page, params.Limit, total))
}

/*
UpdateUserRole performs an administrative role change.

PATCH /api/v1/admin/users/{id}/role

Description: Bypasses the pre-approval registry. The change lands in fresh
tokens; tokens already in the wild keep the old snapshot until they expire.

Request:
  - Body: roleUpdateRequest (Role, Permissions)

Response:
  - 200: User: Updated account
  - 400: ErrInvalidJSON: Unknown role
  - 404: ErrNotFound: No such account
*/
func (handler *AdminHandler) updateUserRole(writer http.ResponseWriter, request *http.Request) {
	actor, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input roleUpdateRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	if input.Role == "" {
		respond.Error(writer, request, validate.RequiredError(FieldRole, "is required"))
		return
	}

	user, err := handler.authService.UpdateUserRole(request.Context(), RoleUpdateInput{
		UserID:      requestutil.Param(request, "id"),
		Role:        input.Role,
		Permissions: input.Permissions,
		ActorID:     actor.ID,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
DeactivateUser soft-deactivates a member account.

POST /api/v1/admin/users/{id}/deactivate

Description: Revokes the stored refresh session immediately; the record and
its history stay intact.

Response:
  - 200: User: Deactivated account
  - 404: ErrNotFound: No such account
*/
func (handler *AdminHandler) deactivateUser(writer http.ResponseWriter, request *http.Request) {
	handler.setActive(writer, request, false)
}

/*
ReactivateUser restores a deactivated account.

POST /api/v1/admin/users/{id}/reactivate

Response:
  - 200: User: Reactivated account
  - 404: ErrNotFound: No such account
*/
func (handler *AdminHandler) reactivateUser(writer http.ResponseWriter, request *http.Request) {
	handler.setActive(writer, request, true)
}

func (handler *AdminHandler) setActive(writer http.ResponseWriter, request *http.Request, active bool) {
	actor, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.authService.SetUserActive(request.Context(), requestutil.Param(request, "id"), active, actor.ID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}
