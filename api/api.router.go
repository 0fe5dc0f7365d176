package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/hivetool/apiaryhub/api/middleware"
	"github.com/hivetool/apiaryhub/api/resources"
	"github.com/hivetool/apiaryhub/internal/hubservice"
)

type Router struct {
	router    *mux.Router
	auth      *middleware.KeycloakMiddleware
	resources *resources.Resources
}

func NewRouter(svc *hubservice.HubService, keycloakConfig middleware.KeycloakConfig) *Router {
	r := &Router{
		router:    mux.NewRouter(),
		auth:      middleware.NewKeycloakMiddleware(keycloakConfig),
		resources: resources.NewResources(svc),
	}

	r.setupRoutes()
	return r
}

func (r *Router) Resources() *resources.Resources {
	return r.resources
}

func (r *Router) setupRoutes() {
	// API version prefix
	api := r.router.PathPrefix("/api/v1").Subrouter()

	// Public routes
	api.HandleFunc("/health", func(w http.ResponseWriter, req *http.Request) {
		if r.resources.HealthCheck != nil {
			r.resources.HealthCheck(w, req)
		}
	}).Methods(http.MethodGet)
	api.HandleFunc("/metrics", func(w http.ResponseWriter, req *http.Request) {
		if r.resources.Metrics != nil {
			r.resources.Metrics(w, req)
		}
	}).Methods(http.MethodGet)

	// Protected routes
	protected := api.PathPrefix("").Subrouter()
	protected.Use(r.auth.Authenticate)

	// Apiaries
	apiaries := protected.PathPrefix("/apiaries").Subrouter()
	apiaries.HandleFunc("", r.resources.Apiaries.ListApiaries).Methods(http.MethodGet)
	apiaries.HandleFunc("", r.resources.Apiaries.CreateApiary).Methods(http.MethodPost)
	apiaries.HandleFunc("/{id}", r.resources.Apiaries.GetApiary).Methods(http.MethodGet)
	apiaries.HandleFunc("/{id}", r.resources.Apiaries.UpdateApiary).Methods(http.MethodPut)
	apiaries.HandleFunc("/{id}", r.resources.Apiaries.DeleteApiary).Methods(http.MethodDelete)

	// Members
	apiaries.HandleFunc("/{id}/members", r.resources.Members.ListMembers).Methods(http.MethodGet)
	apiaries.HandleFunc("/{id}/members", r.resources.Members.AddMember).Methods(http.MethodPost)
	apiaries.HandleFunc("/{id}/members/{userId}", r.resources.Members.UpdateMemberRole).Methods(http.MethodPut)
	apiaries.HandleFunc("/{id}/members/{userId}", r.resources.Members.RemoveMember).Methods(http.MethodDelete)

	// Devices
	apiaries.HandleFunc("/{id}/devices", r.resources.Devices.ListDevices).Methods(http.MethodGet)
	apiaries.HandleFunc("/{id}/devices", r.resources.Devices.CreateDevice).Methods(http.MethodPost)
	apiaries.HandleFunc("/{id}/devices/{deviceId}", r.resources.Devices.UpdateDevice).Methods(http.MethodPut)
	apiaries.HandleFunc("/{id}/devices/{deviceId}", r.resources.Devices.DeleteDevice).Methods(http.MethodDelete)
	apiaries.HandleFunc("/{id}/devices/{deviceId}/data", r.resources.Data.GetChartData).Methods(http.MethodGet)
	apiaries.HandleFunc("/{id}/devices/{deviceId}/overview", r.resources.Data.GetDeviceOverview).Methods(http.MethodGet)

	// Datapoint ingest, pipeline role only
	ingest := protected.PathPrefix("/data").Subrouter()
	ingest.Use(r.auth.RequireIngestRole)
	ingest.HandleFunc("/{serial}", r.resources.Data.IngestDatapoint).Methods(http.MethodPost)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}
