// FilePath: api/resources/api.resource.members.go
package resources

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/hivetool/apiaryhub/api/middleware"
	"github.com/hivetool/apiaryhub/internal/errors"
	"github.com/hivetool/apiaryhub/internal/hubservice"
	"github.com/hivetool/apiaryhub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// MemberHandlers encapsulates the membership HTTP handlers
type MemberHandlers struct {
	hubservice *hubservice.HubService
}

type memberRequest struct {
	UserID string      `json:"user_id"`
	Role   models.Role `json:"role"`
}

// @Summary Add a member
// @Description Add a user to an apiary; requires the ADMIN role or above
// @Tags members
// @Accept json
// @Produce json
// @Param id path string true "Apiary ID"
// @Param member body memberRequest true "User and role to add"
// @Success 201 {array} models.Member
// @Failure 400 {object} errors.APIError
// @Failure 403 {object} errors.APIError
// @Failure 409 {object} errors.APIError
// @Router /apiaries/{id}/members [post]
// @Security BearerAuth
func (h *MemberHandlers) AddMember(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	apiaryID := mux.Vars(r)["id"]
	user := middleware.GetUserContext(r.Context())
	if user == nil {
		respondWithError(w, errors.NewAuthError("no user context found", nil).WithRequestID(requestID))
		return
	}

	var req memberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, errors.NewValidationError("invalid request body", err).WithRequestID(requestID))
		return
	}
	if req.UserID == "" {
		respondWithError(w, errors.NewValidationError("user_id is required", nil).WithRequestID(requestID))
		return
	}

	members, err := h.hubservice.AddMember(r.Context(), apiaryID, user.ID, req.UserID, req.Role)
	if err != nil {
		respondWithServiceError(w, requestID, err, "failed to add member")
		return
	}

	respondWithJSON(w, http.StatusCreated, members)
}

// @Summary List members
// @Description List the members of an apiary the caller belongs to
// @Tags members
// @Produce json
// @Param id path string true "Apiary ID"
// @Success 200 {array} models.Member
// @Failure 404 {object} errors.APIError
// @Router /apiaries/{id}/members [get]
// @Security BearerAuth
func (h *MemberHandlers) ListMembers(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	apiaryID := mux.Vars(r)["id"]
	user := middleware.GetUserContext(r.Context())
	if user == nil {
		respondWithError(w, errors.NewAuthError("no user context found", nil).WithRequestID(requestID))
		return
	}

	apiary, err := h.hubservice.GetApiary(r.Context(), apiaryID, user.ID)
	if err != nil {
		respondWithServiceError(w, requestID, err, "failed to list members")
		return
	}

	respondWithJSON(w, http.StatusOK, apiary.Members)
}

// @Summary Change a member's role
// @Description Set a member's role to USER or ADMIN; the creator's role is immutable
// @Tags members
// @Accept json
// @Produce json
// @Param id path string true "Apiary ID"
// @Param userId path string true "Member user ID"
// @Param member body memberRequest true "New role"
// @Success 200 {array} models.Member
// @Failure 400 {object} errors.APIError
// @Failure 403 {object} errors.APIError
// @Failure 404 {object} errors.APIError
// @Router /apiaries/{id}/members/{userId} [put]
// @Security BearerAuth
func (h *MemberHandlers) UpdateMemberRole(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	vars := mux.Vars(r)
	apiaryID := vars["id"]
	targetUserID := vars["userId"]
	user := middleware.GetUserContext(r.Context())
	if user == nil {
		respondWithError(w, errors.NewAuthError("no user context found", nil).WithRequestID(requestID))
		return
	}

	var req memberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, errors.NewValidationError("invalid request body", err).WithRequestID(requestID))
		return
	}

	members, err := h.hubservice.UpdateMemberRole(r.Context(), apiaryID, user.ID, targetUserID, req.Role)
	if err != nil {
		respondWithServiceError(w, requestID, err, "failed to update member role")
		return
	}

	respondWithJSON(w, http.StatusOK, members)
}

// @Summary Remove a member
// @Description Remove a member from an apiary; the creator cannot be removed
// @Tags members
// @Produce json
// @Param id path string true "Apiary ID"
// @Param userId path string true "Member user ID"
// @Success 200 {array} models.Member
// @Failure 400 {object} errors.APIError
// @Failure 403 {object} errors.APIError
// @Failure 404 {object} errors.APIError
// @Router /apiaries/{id}/members/{userId} [delete]
// @Security BearerAuth
func (h *MemberHandlers) RemoveMember(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	vars := mux.Vars(r)
	apiaryID := vars["id"]
	targetUserID := vars["userId"]
	user := middleware.GetUserContext(r.Context())
	if user == nil {
		respondWithError(w, errors.NewAuthError("no user context found", nil).WithRequestID(requestID))
		return
	}

	members, err := h.hubservice.RemoveMember(r.Context(), apiaryID, user.ID, targetUserID)
	if err != nil {
		respondWithServiceError(w, requestID, err, "failed to remove member")
		return
	}

	respondWithJSON(w, http.StatusOK, members)
}
