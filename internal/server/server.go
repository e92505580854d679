package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/clarus/internal/advisor"
	"github.com/dukerupert/clarus/internal/auth"
	"github.com/dukerupert/clarus/internal/backup"
	"github.com/dukerupert/clarus/internal/handler"
	"github.com/dukerupert/clarus/internal/middleware"
	"github.com/dukerupert/clarus/internal/store"
	ws "github.com/dukerupert/clarus/internal/websocket"
)

var (
	modelLimit = middleware.Limit{Requests: 20, Window: time.Minute}
	loginLimit = middleware.Limit{Requests: 10, Window: time.Minute}
)

type Server struct {
	hub            *ws.Hub
	sessions       *auth.Sessions
	originPatterns []string

	authH     *handler.AuthHandler
	familyH   *handler.FamilyMemberHandler
	medH      *handler.MedicationHandler
	chatH     *handler.ChatHandler
	reportH   *handler.ReportHandler
	careH     *handler.CareHandler
	wellnessH *handler.WellnessHandler
	profileH  *handler.ProfileHandler
	insightH  *handler.InsightHandler
	backupH   *handler.BackupHandler

	rateLimiter   *middleware.RateLimiter
	backupManager *backup.Manager
	logger        *slog.Logger
}

func New(st *store.Store, sessions *auth.Sessions, adv *advisor.Service, backupCfg backup.Config, originPatterns []string, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	backupMgr := backup.NewManager(backupCfg, st, func(ns store.Namespace, s backup.Status) {
		hub.Broadcast(ns, ws.Message{
			Type:   "backup_status",
			Entity: "backup",
			Action: string(s.State),
			Extra: map[string]any{
				"in_progress": s.InProgress,
				"error":       s.Error,
			},
		})
	}, logger.With("component", "backup"))

	return &Server{
		hub:            hub,
		sessions:       sessions,
		originPatterns: originPatterns,
		authH:          handler.NewAuthHandler(sessions, st, logger.With("component", "auth")),
		familyH:        handler.NewFamilyMemberHandler(st, hub, logger.With("component", "family_member")),
		medH:           handler.NewMedicationHandler(st, hub, logger.With("component", "medication")),
		chatH:          handler.NewChatHandler(st, adv, hub, logger.With("component", "chat")),
		reportH:        handler.NewReportHandler(st, adv, hub, logger.With("component", "report")),
		careH:          handler.NewCareHandler(st, hub, logger.With("component", "care")),
		wellnessH:      handler.NewWellnessHandler(st, hub, logger.With("component", "wellness")),
		profileH:       handler.NewProfileHandler(st, hub, logger.With("component", "profile")),
		insightH:       handler.NewInsightHandler(st, adv, logger.With("component", "insight")),
		backupH:        handler.NewBackupHandler(backupMgr, hub, logger.With("component", "backup_handler")),
		rateLimiter:    middleware.NewRateLimiter(),
		backupManager:  backupMgr,
		logger:         logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// BackupManager returns the backup manager.
func (s *Server) BackupManager() *backup.Manager {
	return s.backupManager
}

// Hub returns the websocket hub.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)

	// Auth
	mux.HandleFunc("POST /api/auth/login", s.limited(middleware.RealIP, loginLimit, s.authH.Login))
	mux.HandleFunc("POST /api/auth/logout", s.authH.Logout)
	mux.HandleFunc("GET /api/auth/me", s.authH.Me)

	// Family
	mux.HandleFunc("GET /api/family-members", s.familyH.List)
	mux.HandleFunc("POST /api/family-members", s.familyH.Create)
	mux.HandleFunc("PATCH /api/family-members/{id}", s.familyH.Update)

	// Medications
	mux.HandleFunc("GET /api/medications", s.medH.List)
	mux.HandleFunc("POST /api/medications", s.medH.Create)
	mux.HandleFunc("GET /api/medications/today", s.medH.Today)
	mux.HandleFunc("GET /api/medications/{id}/logs", s.medH.ListLogs)
	mux.HandleFunc("POST /api/medications/{id}/logs", s.medH.CreateLog)

	// Chat
	mux.HandleFunc("GET /api/chat", s.chatH.History)
	mux.HandleFunc("PUT /api/chat", s.chatH.Replace)
	mux.HandleFunc("POST /api/chat/messages", s.modelLimited(s.chatH.Send))

	// Reports
	mux.HandleFunc("GET /api/reports", s.reportH.List)
	mux.HandleFunc("POST /api/reports/analyze", s.modelLimited(s.reportH.Analyze))

	// Care circle
	mux.HandleFunc("GET /api/care-team", s.careH.ListTeam)
	mux.HandleFunc("POST /api/care-team", s.careH.AddCaregiver)
	mux.HandleFunc("GET /api/notes", s.careH.ListNotes)
	mux.HandleFunc("POST /api/notes", s.careH.AddNote)

	// Wellness
	mux.HandleFunc("GET /api/wellness", s.wellnessH.List)
	mux.HandleFunc("POST /api/wellness", s.wellnessH.Create)
	mux.HandleFunc("GET /api/wellness/points", s.wellnessH.Points)

	// Profile
	mux.HandleFunc("GET /api/onboarding", s.profileH.Onboarding)
	mux.HandleFunc("POST /api/onboarding/complete", s.profileH.CompleteOnboarding)
	mux.HandleFunc("POST /api/reset", s.profileH.Reset)

	// Model insights
	mux.HandleFunc("GET /api/members/{id}/doctor-summary", s.modelLimited(s.insightH.DoctorSummary))
	mux.HandleFunc("GET /api/members/{id}/interactions", s.modelLimited(s.insightH.Interactions))
	mux.HandleFunc("GET /api/insight", s.modelLimited(s.insightH.Insight))
	mux.HandleFunc("POST /api/speech", s.modelLimited(s.insightH.Speech))

	// Backups
	mux.HandleFunc("GET /api/backups", s.backupH.List)
	mux.HandleFunc("POST /api/backups", s.backupH.Create)
	mux.HandleFunc("POST /api/backups/restore", s.backupH.Restore)

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.originPatterns, s.logger.With("component", "websocket")))

	logged := middleware.RequestLogger(s.logger.With("component", "http"))(mux)
	return middleware.ResolveIdentity(s.sessions, s.logger.With("component", "identity"))(logged)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) limited(keyFunc func(*http.Request) string, l middleware.Limit, h http.HandlerFunc) http.HandlerFunc {
	return middleware.RateLimit(s.rateLimiter, keyFunc, l)(h).ServeHTTP
}

// modelLimited bounds calls that reach the remote model, per namespace.
func (s *Server) modelLimited(h http.HandlerFunc) http.HandlerFunc {
	return s.limited(middleware.NamespaceKey, modelLimit, h)
}
