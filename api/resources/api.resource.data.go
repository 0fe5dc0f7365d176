// FilePath: api/resources/api.resource.data.go
package resources

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/schema"
	"github.com/hivetool/apiaryhub/api/middleware"
	"github.com/hivetool/apiaryhub/internal/errors"
	"github.com/hivetool/apiaryhub/internal/hubservice"
	"github.com/hivetool/apiaryhub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// DataHandlers encapsulates the datapoint HTTP handlers
type DataHandlers struct {
	hubservice *hubservice.HubService
}

var queryDecoder = newQueryDecoder()

func newQueryDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}

// @Summary Get chart data for a device
// @Description Get the device's datapoint series, windowed by the filter and downsampled for charting
// @Tags data
// @Produce json
// @Param id path string true "Apiary ID"
// @Param deviceId path string true "Device ID"
// @Param filter query string false "Time window: init, 1day, 1week, 1month, 3month, 6month, 1year, 2year, all"
// @Success 200 {array} models.Datapoint
// @Failure 404 {object} errors.APIError
// @Router /apiaries/{id}/devices/{deviceId}/data [get]
// @Security BearerAuth
func (h *DataHandlers) GetChartData(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	vars := mux.Vars(r)
	apiaryID := vars["id"]
	deviceID := vars["deviceId"]
	user := middleware.GetUserContext(r.Context())
	if user == nil {
		respondWithError(w, errors.NewAuthError("no user context found", nil).WithRequestID(requestID))
		return
	}

	var query models.DataQuery
	if err := queryDecoder.Decode(&query, r.URL.Query()); err != nil {
		respondWithError(w, errors.NewValidationError("invalid query parameters", err).WithRequestID(requestID))
		return
	}

	points, err := h.hubservice.GetChartData(r.Context(), apiaryID, user.ID, deviceID, query.Filter)
	if err != nil {
		respondWithServiceError(w, requestID, err, "failed to get chart data")
		return
	}

	respondWithJSON(w, http.StatusOK, points)
}

// @Summary Get a device overview
// @Description Get the device's online status, offline duration and 24h activity counts
// @Tags data
// @Produce json
// @Param id path string true "Apiary ID"
// @Param deviceId path string true "Device ID"
// @Success 200 {object} models.DeviceOverview
// @Failure 404 {object} errors.APIError
// @Router /apiaries/{id}/devices/{deviceId}/overview [get]
// @Security BearerAuth
func (h *DataHandlers) GetDeviceOverview(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	vars := mux.Vars(r)
	apiaryID := vars["id"]
	deviceID := vars["deviceId"]
	user := middleware.GetUserContext(r.Context())
	if user == nil {
		respondWithError(w, errors.NewAuthError("no user context found", nil).WithRequestID(requestID))
		return
	}

	overview, err := h.hubservice.GetDeviceOverview(r.Context(), apiaryID, user.ID, deviceID)
	if err != nil {
		respondWithServiceError(w, requestID, err, "failed to get device overview")
		return
	}

	respondWithJSON(w, http.StatusOK, overview)
}

// @Summary Ingest a datapoint
// @Description Append a datapoint to a device's series; pipeline role required
// @Tags data
// @Accept json
// @Produce json
// @Param serial path string true "Device serial number"
// @Param datapoint body models.Datapoint true "Datapoint payload"
// @Success 201 {object} models.Datapoint
// @Failure 400 {object} errors.APIError
// @Failure 404 {object} errors.APIError
// @Router /data/{serial} [post]
// @Security BearerAuth
func (h *DataHandlers) IngestDatapoint(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var point models.Datapoint
	if err := json.NewDecoder(r.Body).Decode(&point); err != nil {
		respondWithError(w, errors.NewValidationError("invalid request body", err).WithRequestID(requestID))
		return
	}
	// The path names the series; a serial in the body cannot disagree.
	point.Serial = mux.Vars(r)["serial"]

	stored, err := h.hubservice.IngestDatapoint(r.Context(), &point)
	if err != nil {
		respondWithServiceError(w, requestID, err, "failed to ingest datapoint")
		return
	}

	respondWithJSON(w, http.StatusCreated, stored)
}
