// FilePath: api/resources/api.resource.apiaries.go
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

// ApiaryHandlers encapsulates the apiary-related HTTP handlers
type ApiaryHandlers struct {
	hubservice *hubservice.HubService
}

// @Summary Create a new apiary
// @Description Create a new apiary; the caller becomes its creator
// @Tags apiaries
// @Accept json
// @Produce json
// @Param apiary body models.Apiary true "Apiary details"
// @Success 201 {object} models.Apiary
// @Failure 400 {object} errors.APIError
// @Failure 401 {object} errors.APIError
// @Router /apiaries [post]
// @Security BearerAuth
func (h *ApiaryHandlers) CreateApiary(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	user := middleware.GetUserContext(r.Context())
	if user == nil {
		respondWithError(w, errors.NewAuthError("no user context found", nil).WithRequestID(requestID))
		return
	}

	var apiary models.Apiary
	if err := json.NewDecoder(r.Body).Decode(&apiary); err != nil {
		respondWithError(w, errors.NewValidationError("invalid request body", err).WithRequestID(requestID))
		return
	}

	if err := h.hubservice.CreateApiary(r.Context(), &apiary, user.ID); err != nil {
		respondWithServiceError(w, requestID, err, "failed to create apiary")
		return
	}

	respondWithJSON(w, http.StatusCreated, apiary)
}

// @Summary List apiaries
// @Description List all apiaries the caller is a member of
// @Tags apiaries
// @Produce json
// @Success 200 {array} models.Apiary
// @Failure 401 {object} errors.APIError
// @Router /apiaries [get]
// @Security BearerAuth
func (h *ApiaryHandlers) ListApiaries(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	user := middleware.GetUserContext(r.Context())
	if user == nil {
		respondWithError(w, errors.NewAuthError("no user context found", nil).WithRequestID(requestID))
		return
	}

	apiaries, err := h.hubservice.ListApiaries(r.Context(), user.ID)
	if err != nil {
		respondWithServiceError(w, requestID, err, "failed to list apiaries")
		return
	}

	respondWithJSON(w, http.StatusOK, apiaries)
}

// @Summary Get an apiary by ID
// @Description Get detailed information about an apiary the caller belongs to
// @Tags apiaries
// @Produce json
// @Param id path string true "Apiary ID"
// @Success 200 {object} models.Apiary
// @Failure 404 {object} errors.APIError
// @Router /apiaries/{id} [get]
// @Security BearerAuth
func (h *ApiaryHandlers) GetApiary(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	id := mux.Vars(r)["id"]
	user := middleware.GetUserContext(r.Context())
	if user == nil {
		respondWithError(w, errors.NewAuthError("no user context found", nil).WithRequestID(requestID))
		return
	}

	apiary, err := h.hubservice.GetApiary(r.Context(), id, user.ID)
	if err != nil {
		respondWithServiceError(w, requestID, err, "failed to get apiary")
		return
	}

	respondWithJSON(w, http.StatusOK, apiary)
}

// @Summary Rename an apiary
// @Description Update an apiary's name; requires the ADMIN role or above
// @Tags apiaries
// @Accept json
// @Produce json
// @Param id path string true "Apiary ID"
// @Param apiary body models.Apiary true "New apiary name"
// @Success 200 {object} models.Apiary
// @Failure 400 {object} errors.APIError
// @Failure 403 {object} errors.APIError
// @Failure 404 {object} errors.APIError
// @Router /apiaries/{id} [put]
// @Security BearerAuth
func (h *ApiaryHandlers) UpdateApiary(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	id := mux.Vars(r)["id"]
	user := middleware.GetUserContext(r.Context())
	if user == nil {
		respondWithError(w, errors.NewAuthError("no user context found", nil).WithRequestID(requestID))
		return
	}

	var payload models.Apiary
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, errors.NewValidationError("invalid request body", err).WithRequestID(requestID))
		return
	}

	apiary, err := h.hubservice.UpdateApiaryName(r.Context(), id, user.ID, payload.Name)
	if err != nil {
		respondWithServiceError(w, requestID, err, "failed to update apiary")
		return
	}

	respondWithJSON(w, http.StatusOK, apiary)
}

// @Summary Delete an apiary
// @Description Delete an apiary with its devices and datapoint series; creator only
// @Tags apiaries
// @Produce json
// @Param id path string true "Apiary ID"
// @Success 204 "No Content"
// @Failure 403 {object} errors.APIError
// @Failure 404 {object} errors.APIError
// @Router /apiaries/{id} [delete]
// @Security BearerAuth
func (h *ApiaryHandlers) DeleteApiary(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	id := mux.Vars(r)["id"]
	user := middleware.GetUserContext(r.Context())
	if user == nil {
		respondWithError(w, errors.NewAuthError("no user context found", nil).WithRequestID(requestID))
		return
	}

	if err := h.hubservice.DeleteApiary(r.Context(), id, user.ID); err != nil {
		respondWithServiceError(w, requestID, err, "failed to delete apiary")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
