package routes

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaggo/swag"
	_ "p9e.in/sitebook/docs"
	"p9e.in/sitebook/handlers"
	"p9e.in/sitebook/middleware"
)

type Options struct {
	// UploadDir is served under /uploads/ when set (local blob driver).
	UploadDir string
	Metrics   bool
	JWTSecret string
}

// RegisterRoutes sets up all application routes
func RegisterRoutes(d handlers.Deps, opts Options) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.RequestLogger(d.Log))

	// =====================================================
	// Public Routes
	// =====================================================
	r.HandleFunc("/health", handleHealth).Methods("GET")
	r.HandleFunc("/swagger/doc.json", handleSwaggerDoc(d.Log)).Methods("GET")
	if opts.Metrics {
		r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	}
	if opts.UploadDir != "" {
		r.PathPrefix("/uploads/").Handler(
			http.StripPrefix("/uploads/", http.FileServer(http.Dir(opts.UploadDir))),
		)
	}

	// =====================================================
	// API Routes
	// =====================================================
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.JWT([]byte(opts.JWTSecret)))

	registerProjectRoutes(api, d)
	registerTeamRoutes(api, d)
	registerMaterialRoutes(api, d)
	registerProgressRoutes(api, d)
	registerDashboardRoutes(api, d)

	return r
}

func registerProjectRoutes(api *mux.Router, d handlers.Deps) {
	h := handlers.NewProjectHandler(d)
	api.HandleFunc("/projects", h.ListProjects).Methods("GET")
	api.HandleFunc("/projects", h.CreateProject).Methods("POST")
	// registered before /projects/{id} so "map" is not taken for an id
	api.HandleFunc("/projects/map", h.ProjectMap).Methods("GET")
	api.HandleFunc("/projects/{id}", h.GetProject).Methods("GET")
	api.HandleFunc("/projects/{id}", h.UpdateProject).Methods("PUT")
	api.HandleFunc("/projects/{id}", h.DeleteProject).Methods("DELETE")
	api.HandleFunc("/projects/{id}/overview", h.ProjectOverview).Methods("GET")
}

func registerTeamRoutes(api *mux.Router, d handlers.Deps) {
	h := handlers.NewTeamMemberHandler(d)
	api.HandleFunc("/team-members", h.ListTeamMembers).Methods("GET")
	api.HandleFunc("/team-members", h.CreateTeamMember).Methods("POST")
	api.HandleFunc("/team-members/{id}", h.UpdateTeamMember).Methods("PUT")
	api.HandleFunc("/team-members/{id}", h.DeleteTeamMember).Methods("DELETE")
}

func registerMaterialRoutes(api *mux.Router, d handlers.Deps) {
	req := handlers.NewMaterialRequestHandler(d)
	api.HandleFunc("/material-requests", req.ListMaterialRequests).Methods("GET")
	api.HandleFunc("/material-requests", req.CreateMaterialRequest).Methods("POST")
	api.HandleFunc("/material-requests/{id}", req.GetMaterialRequest).Methods("GET")
	api.HandleFunc("/material-requests/{id}", req.UpdateMaterialRequest).Methods("PUT")
	api.HandleFunc("/material-requests/{id}", req.DeleteMaterialRequest).Methods("DELETE")
	api.HandleFunc("/material-requests/{id}/status", req.UpdateMaterialRequestStatus).Methods("PUT")

	tr := handlers.NewMaterialTrackingHandler(d)
	api.HandleFunc("/material-tracking", tr.ListMaterialTracking).Methods("GET")
	api.HandleFunc("/material-tracking", tr.CreateMaterialTracking).Methods("POST")
	api.HandleFunc("/material-tracking/{id}", tr.UpdateMaterialTracking).Methods("PUT")
	api.HandleFunc("/material-tracking/{id}", tr.DeleteMaterialTracking).Methods("DELETE")
	api.HandleFunc("/material-tracking/{id}/usage/{date}", tr.SetDailyUsage).Methods("PUT")

	sum := handlers.NewSummaryHandler(d)
	api.HandleFunc("/material-summary", sum.MaterialSummary).Methods("GET")
	api.HandleFunc("/material-summary/export", sum.ExportMaterialSummary).Methods("GET")
}

func registerProgressRoutes(api *mux.Router, d handlers.Deps) {
	h := handlers.NewProgressUpdateHandler(d)
	api.HandleFunc("/progress-updates", h.ListProgressUpdates).Methods("GET")
	api.HandleFunc("/progress-updates", h.CreateProgressUpdate).Methods("POST")
	api.HandleFunc("/progress-updates/{id}", h.UpdateProgressUpdate).Methods("PUT")
	api.HandleFunc("/progress-updates/{id}", h.DeleteProgressUpdate).Methods("DELETE")

	up := handlers.NewUploadHandler(d)
	api.HandleFunc("/uploads", up.UploadImages).Methods("POST")
}

func registerDashboardRoutes(api *mux.Router, d handlers.Deps) {
	h := handlers.NewDashboardHandler(d)
	api.HandleFunc("/notifications", h.Notifications).Methods("GET")
	api.HandleFunc("/stats", h.Stats).Methods("GET")
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func handleSwaggerDoc(log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, err := swag.ReadDoc()
		if err != nil {
			log.Error("read swagger doc", "error", err)
			http.Error(w, "swagger doc unavailable", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(doc))
	}
}
