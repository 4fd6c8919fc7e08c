package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"

	signoffservice "signoff/contexts/editorial-workflow/signoff-service"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "signoff/internal/platform/httpserver/docs"
)

type Server struct {
	mux     *http.ServeMux
	logger  *slog.Logger
	addr    string
	signoff signoffservice.Module
}

func New(
	signoff signoffservice.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:     http.NewServeMux(),
		logger:  logger,
		addr:    addr,
		signoff: signoff,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("GET /api/signoff/items/{item_id}/view", s.handleSignoffView)
	s.mux.HandleFunc("GET /api/signoff/items/{item_id}/summary", s.handleSignoffSummary)
	s.mux.HandleFunc("POST /api/signoff/items/{item_id}/toggle-approval", s.handleSignoffToggleApproval)
	s.mux.HandleFunc("POST /api/signoff/items/{item_id}/toggle-change-request", s.handleSignoffToggleChangeRequest)
	s.mux.HandleFunc("POST /api/signoff/items/{item_id}/notify-changes-done", s.handleSignoffNotifyChangesDone)
	s.mux.HandleFunc("GET /api/signoff/settings/allowed-moderators", s.handleSignoffGetAllowlist)
	s.mux.HandleFunc("PUT /api/signoff/settings/allowed-moderators", s.handleSignoffSaveAllowlist)
}

func (s *Server) decodeJSON(
	w http.ResponseWriter,
	r *http.Request,
	target any,
	writeError func(http.ResponseWriter, int, string, string),
) bool {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
