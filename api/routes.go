package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Plan-for-tomorrow2013/plan-for-tomorrow-sub002/internal/blob"
	"github.com/Plan-for-tomorrow2013/plan-for-tomorrow-sub002/internal/config"
	"github.com/Plan-for-tomorrow2013/plan-for-tomorrow-sub002/internal/db"
	"github.com/Plan-for-tomorrow2013/plan-for-tomorrow-sub002/internal/engagement"
	"github.com/Plan-for-tomorrow2013/plan-for-tomorrow-sub002/internal/models"
	"github.com/Plan-for-tomorrow2013/plan-for-tomorrow-sub002/internal/repository/sqlite"
	"github.com/Plan-for-tomorrow2013/plan-for-tomorrow-sub002/internal/store"
	"github.com/Plan-for-tomorrow2013/plan-for-tomorrow-sub002/pkg/arcgis"
)

// Deps carries the wired stores and services the route tree serves.
type Deps struct {
	DB        *db.DB
	Service   *engagement.Service
	Tickets   *store.TicketStore
	Orders    *store.WorkOrderStore
	Jobs      *store.JobStore
	Documents *store.DocumentStore
	Blobs     *blob.Store
	GIS       *arcgis.Client
}

func SetupRoutes(cfg *config.Config, version, buildTime string, deps Deps) *mux.Router {
	r := mux.NewRouter()

	// Middleware chain
	r.Use(LoggingMiddleware)
	r.Use(CORSMiddleware)
	r.Use(RecoveryMiddleware)

	// Repository
	repo := sqlite.New(deps.DB, logger)

	// Create handlers
	systemHandler := &SystemHandler{}
	authHandler := NewAuthHandler(repo, cfg.JWTSecret, cfg.TokenDuration)
	ticketsHandler := NewTicketsHandler(deps.Service, deps.Tickets)
	workOrdersHandler := NewWorkOrdersHandler(deps.Service, deps.Orders)
	jobsHandler := NewJobsHandler(deps.Jobs)
	documentsHandler := NewDocumentsHandler(deps.Documents, deps.Blobs)
	adminHandler := NewAdminHandler(repo, repo, repo)

	// Open endpoints
	r.HandleFunc("/version", systemHandler.VersionHandler(version, buildTime)).Methods("GET")
	r.HandleFunc("/health", systemHandler.HealthHandler).Methods("GET")
	r.HandleFunc("/v1/auth/signup", authHandler.Signup).Methods("POST")
	r.HandleFunc("/v1/auth/signin", authHandler.Signin).Methods("POST")

	// API v1 Protected routes
	apiV1 := r.PathPrefix("/v1").Subrouter()
	apiV1.Use(JWTAuthMiddlewareWithSecret(cfg.JWTSecret))

	// Auth endpoints
	authV1 := apiV1.PathPrefix("/auth").Subrouter()
	authV1.HandleFunc("/signout", authHandler.Signout).Methods("POST")

	// Consultant ticket lifecycle
	apiV1.HandleFunc("/consultant-tickets", ticketsHandler.CreateTicket).Methods("POST")
	apiV1.HandleFunc("/consultant-tickets", ticketsHandler.ListTickets).Methods("GET")
	apiV1.HandleFunc("/consultant-tickets/{id}/completed-document", ticketsHandler.AttachCompletedDocument).Methods("POST")
	apiV1.HandleFunc("/consultant-tickets/{id}/return", ticketsHandler.ReturnDocument).Methods("POST")

	// Work orders
	apiV1.HandleFunc("/work-orders/accept", workOrdersHandler.AcceptQuote).Methods("POST")
	apiV1.HandleFunc("/work-orders", workOrdersHandler.ListWorkOrders).Methods("GET")
	apiV1.HandleFunc("/work-orders/{id}/documents", workOrdersHandler.UploadDocument).Methods("POST")
	apiV1.HandleFunc("/work-orders/{id}/complete", workOrdersHandler.Complete).Methods("POST")

	// Jobs
	apiV1.HandleFunc("/jobs", jobsHandler.CreateJob).Methods("POST")
	apiV1.HandleFunc("/jobs", jobsHandler.ListJobs).Methods("GET")
	apiV1.HandleFunc("/jobs/{id}", jobsHandler.GetJob).Methods("GET")
	apiV1.HandleFunc("/jobs/{id}", jobsHandler.PatchJob).Methods("PATCH")

	// Document library
	apiV1.HandleFunc("/documents", documentsHandler.Upload).Methods("POST")
	apiV1.HandleFunc("/documents", documentsHandler.List).Methods("GET")
	apiV1.HandleFunc("/documents/{id}/download", documentsHandler.Download).Methods("GET")
	apiV1.HandleFunc("/documents/{id}", documentsHandler.Delete).Methods("DELETE")

	// Reference data
	apiV1.HandleFunc("/categories", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, models.Categories, http.StatusOK)
	}).Methods("GET")

	// Admin surface
	adminV1 := apiV1.PathPrefix("/admin").Subrouter()
	adminV1.HandleFunc("/announcements", adminHandler.ListAnnouncements).Methods("GET")
	adminV1.HandleFunc("/announcements", adminHandler.CreateAnnouncement).Methods("POST")
	adminV1.HandleFunc("/announcements/{id}", adminHandler.UpdateAnnouncement).Methods("PUT")
	adminV1.HandleFunc("/announcements/{id}", adminHandler.DeleteAnnouncement).Methods("DELETE")
	adminV1.HandleFunc("/consultants", adminHandler.ListConsultants).Methods("GET")
	adminV1.HandleFunc("/consultants", adminHandler.CreateConsultant).Methods("POST")
	adminV1.HandleFunc("/consultants/{id}", adminHandler.UpdateConsultant).Methods("PUT")
	adminV1.HandleFunc("/consultants/{id}", adminHandler.DeleteConsultant).Methods("DELETE")
	adminV1.HandleFunc("/assessment-templates", adminHandler.ListTemplates).Methods("GET")
	adminV1.HandleFunc("/assessment-templates", adminHandler.CreateTemplate).Methods("POST")
	adminV1.HandleFunc("/assessment-templates/{id}", adminHandler.GetTemplate).Methods("GET")
	adminV1.HandleFunc("/assessment-templates/{id}", adminHandler.DeleteTemplate).Methods("DELETE")

	// GIS proxy; absent when the portal client is not configured
	if deps.GIS != nil {
		gisHandler := NewGISHandler(deps.GIS)
		apiV1.HandleFunc("/gis/suggest", gisHandler.Suggest).Methods("GET")
		apiV1.HandleFunc("/gis/parcel", gisHandler.Parcel).Methods("GET")
	}

	return r
}
