// FilePath: api/resources/api.resource.devices.go
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

// DeviceHandlers encapsulates the device registry HTTP handlers
type DeviceHandlers struct {
	hubservice *hubservice.HubService
}

// @Summary Register a device
// @Description Register a device to an apiary; requires the ADMIN role or above
// @Tags devices
// @Accept json
// @Produce json
// @Param id path string true "Apiary ID"
// @Param device body models.Device true "Device details"
// @Success 201 {object} models.Device
// @Failure 400 {object} errors.APIError
// @Failure 403 {object} errors.APIError
// @Failure 409 {object} errors.APIError
// @Router /apiaries/{id}/devices [post]
// @Security BearerAuth
func (h *DeviceHandlers) CreateDevice(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	apiaryID := mux.Vars(r)["id"]
	user := middleware.GetUserContext(r.Context())
	if user == nil {
		respondWithError(w, errors.NewAuthError("no user context found", nil).WithRequestID(requestID))
		return
	}

	var device models.Device
	if err := json.NewDecoder(r.Body).Decode(&device); err != nil {
		respondWithError(w, errors.NewValidationError("invalid request body", err).WithRequestID(requestID))
		return
	}

	created, err := h.hubservice.AddDevice(r.Context(), apiaryID, user.ID, &device)
	if err != nil {
		respondWithServiceError(w, requestID, err, "failed to register device")
		return
	}

	respondWithJSON(w, http.StatusCreated, created)
}

// @Summary List devices
// @Description List an apiary's devices with fields filtered by the caller's role
// @Tags devices
// @Produce json
// @Param id path string true "Apiary ID"
// @Success 200 {array} models.Device
// @Failure 404 {object} errors.APIError
// @Router /apiaries/{id}/devices [get]
// @Security BearerAuth
func (h *DeviceHandlers) ListDevices(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	apiaryID := mux.Vars(r)["id"]
	user := middleware.GetUserContext(r.Context())
	if user == nil {
		respondWithError(w, errors.NewAuthError("no user context found", nil).WithRequestID(requestID))
		return
	}

	devices, err := h.hubservice.GetDevices(r.Context(), apiaryID, user.ID)
	if err != nil {
		respondWithServiceError(w, requestID, err, "failed to list devices")
		return
	}

	respondWithJSON(w, http.StatusOK, devices)
}

// @Summary Update a device
// @Description Update a device's name or remote URL; serial numbers are immutable
// @Tags devices
// @Accept json
// @Produce json
// @Param id path string true "Apiary ID"
// @Param deviceId path string true "Device ID"
// @Param device body models.DeviceUpdate true "Fields to update"
// @Success 200 {object} models.Device
// @Failure 400 {object} errors.APIError
// @Failure 403 {object} errors.APIError
// @Failure 404 {object} errors.APIError
// @Router /apiaries/{id}/devices/{deviceId} [put]
// @Security BearerAuth
func (h *DeviceHandlers) UpdateDevice(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	vars := mux.Vars(r)
	apiaryID := vars["id"]
	deviceID := vars["deviceId"]
	user := middleware.GetUserContext(r.Context())
	if user == nil {
		respondWithError(w, errors.NewAuthError("no user context found", nil).WithRequestID(requestID))
		return
	}

	var update models.DeviceUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		respondWithError(w, errors.NewValidationError("invalid request body", err).WithRequestID(requestID))
		return
	}

	device, err := h.hubservice.UpdateDevice(r.Context(), apiaryID, user.ID, deviceID, &update)
	if err != nil {
		respondWithServiceError(w, requestID, err, "failed to update device")
		return
	}

	respondWithJSON(w, http.StatusOK, device)
}

// @Summary Remove a device
// @Description Remove a device and its datapoint series; requires the ADMIN role or above
// @Tags devices
// @Produce json
// @Param id path string true "Apiary ID"
// @Param deviceId path string true "Device ID"
// @Success 204 "No Content"
// @Failure 403 {object} errors.APIError
// @Failure 404 {object} errors.APIError
// @Router /apiaries/{id}/devices/{deviceId} [delete]
// @Security BearerAuth
func (h *DeviceHandlers) DeleteDevice(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	vars := mux.Vars(r)
	apiaryID := vars["id"]
	deviceID := vars["deviceId"]
	user := middleware.GetUserContext(r.Context())
	if user == nil {
		respondWithError(w, errors.NewAuthError("no user context found", nil).WithRequestID(requestID))
		return
	}

	if err := h.hubservice.RemoveDevice(r.Context(), apiaryID, user.ID, deviceID); err != nil {
		respondWithServiceError(w, requestID, err, "failed to remove device")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
