// Package server exposes provisioning over HTTP: submit a job, poll its
// status, and receive CRM webhooks that trigger runs automatically.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	json "github.com/goccy/go-json"

	"github.com/scteam/adaprov"
	"github.com/scteam/adaprov/events"
	"github.com/scteam/adaprov/internal/jobstore"
)

// ProvisionFunc runs one provisioning job. The hook receives the run's
// progress events; the server wires it to the job record.
type ProvisionFunc func(ctx context.Context, req adaprov.ProvisioningRequest, hook events.Hook) (*adaprov.ProvisioningResult, error)

// Server owns the job store and the route handlers.
type Server struct {
	store *jobstore.Store
	run   ProvisionFunc
	log   *slog.Logger
}

func New(store *jobstore.Store, run ProvisionFunc) *Server {
	return &Server{
		store: store,
		run:   run,
		log:   slog.Default().With("component", "server"),
	}
}

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/provision", s.handleProvision)
		r.Get("/jobs", s.handleListJobs)
		r.Get("/jobs/{id}", s.handleGetJob)
		r.Delete("/jobs/{id}", s.handleDeleteJob)
		r.Post("/webhook/salesforce", s.handleSalesforceWebhook)
	})
	return r
}

// provisionPayload is the submission body for manual provisioning.
type provisionPayload struct {
	CompanyName        string `json:"company_name"`
	AdaAPIKey          string `json:"ada_api_key"`
	AutoRetrieveKey    bool   `json:"auto_retrieve_key"`
	CompanyDescription string `json:"company_description"`
	CompanyWebsite     string `json:"company_website"`
	NumArticles        int    `json:"num_articles"`
	NumQuestions       int    `json:"num_questions"`
	NumConversations   int    `json:"num_conversations"`
	NumActions         int    `json:"num_actions"`
}

func (p provisionPayload) toRequest() adaprov.ProvisioningRequest {
	return adaprov.ProvisioningRequest{
		Company:         p.CompanyName,
		WebsiteURL:      p.CompanyWebsite,
		Description:     p.CompanyDescription,
		APIKey:          p.AdaAPIKey,
		AutoRetrieveKey: p.AutoRetrieveKey,
		Articles:        p.NumArticles,
		Questions:       p.NumQuestions,
		Conversations:   p.NumConversations,
		Actions:         p.NumActions,
	}
}

// salesforcePayload is the CRM webhook body.
type salesforcePayload struct {
	OpportunityID string `json:"opportunity_id"`
	AccountName   string `json:"account_name"`
	Stage         string `json:"stage"`
	AdaAPIKey     string `json:"ada_api_key"`
}

// triggerStage is the pipeline stage that kicks off provisioning.
const triggerStage = "Stage 0"

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleProvision(w http.ResponseWriter, r *http.Request) {
	var payload provisionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req := payload.toRequest()
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	job := s.store.Create(req)
	s.startJob(job)

	writeJSON(w, http.StatusAccepted, map[string]string{
		"job_id":  job.ID().String(),
		"status":  string(jobstore.StatusPending),
		"message": fmt.Sprintf("Provisioning job started for %s", req.Company),
	})
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	views := s.store.List(limit)
	if views == nil {
		views = []jobstore.View{}
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, ok := s.store.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

func (s *Server) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.store.Delete(id) {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "job_id": id})
}

func (s *Server) handleSalesforceWebhook(w http.ResponseWriter, r *http.Request) {
	var payload salesforcePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if payload.Stage != triggerStage {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "ignored",
			"message": fmt.Sprintf("Opportunity not in %s (current: %s)", triggerStage, payload.Stage),
		})
		return
	}
	if payload.AccountName == "" {
		writeError(w, http.StatusBadRequest, "account_name is required")
		return
	}

	req := adaprov.ProvisioningRequest{
		Company:         payload.AccountName,
		APIKey:          payload.AdaAPIKey,
		AutoRetrieveKey: payload.AdaAPIKey == "",
	}
	job := s.store.Create(req, jobstore.FromSource("salesforce_webhook", payload.OpportunityID))
	s.startJob(job)

	writeJSON(w, http.StatusAccepted, map[string]string{
		"status":  "accepted",
		"job_id":  job.ID().String(),
		"message": fmt.Sprintf("Provisioning started for %s", payload.AccountName),
	})
}

// startJob runs the job in the background, detached from the request
// context so a closed connection does not abort provisioning.
func (s *Server) startJob(job *jobstore.Job) {
	go func() {
		job.Start()
		res, err := s.run(context.Background(), job.Request(), jobstore.NewHook(job))
		if err != nil {
			s.log.Error("provisioning job failed", "job_id", job.ID(), "error", err)
			job.Fail(res, err)
			return
		}
		job.Complete(res)
	}()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
