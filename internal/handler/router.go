/*
Package handler provides the HTTP handlers and routing for the Community Hub server.

This file defines the main Router, applying logging, CORS and IP-based rate
limiting before delegating requests to the API and websocket handlers.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"communityhub/internal/pkg/auth/jwt"
	"communityhub/internal/pkg/limiter"
	"communityhub/internal/pkg/logx"
	"communityhub/internal/pkg/resp"
)

const (
	LoginRate    = 0.2
	LoginBurst   = 5
	ConnectRate  = 0.5
	ConnectBurst = 10
)

// Router sets up the HTTP routing table for the application. It initializes
// the per-IP rate limiters, configures CORS for the allowed origins and
// applies the global middleware stack before mounting the API routes and the
// websocket entry point.
func Router(deps *AppDeps) http.Handler {
	loginLimiter := limiter.NewIPRateLimiter(rate.Limit(LoginRate), LoginBurst)
	connectLimiter := limiter.NewIPRateLimiter(rate.Limit(ConnectRate), ConnectBurst)

	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	wsUpgrader := &websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.Environment == "development" {
				return true
			}

			origin := r.Header.Get("Origin")
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.Environment == "development" {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		data := map[string]string{
			"status":  "ok",
			"service": "Community Hub Server",
		}
		resp.RespondSuccess(w, r, data)
	})

	r.Route("/api", func(api chi.Router) {
		rateLimitedLogin := loginLimiter.Middleware(HandleLogin(deps))
		api.Post("/auth/login", rateLimitedLogin.ServeHTTP)

		api.Group(func(authed chi.Router) {
			authed.Use(jwt.RequireAuth(deps.Config.JWTSecret))

			authed.Get("/auth/me", HandleMe(deps))

			authed.Route("/users", func(users chi.Router) {
				users.Use(jwt.RequireAdmin)
				users.Get("/", HandleListUsers(deps))
				users.Post("/", HandleCreateUser(deps))
				users.Patch("/{id}/active", HandleSetUserActive(deps))
			})

			authed.Route("/meetings", func(meetings chi.Router) {
				meetings.Get("/", HandleListMeetings(deps))
				meetings.Post("/", HandleCreateMeeting(deps))
				meetings.Post("/{id}/start", HandleStartMeeting(deps))
				meetings.Post("/{id}/end", HandleEndMeeting(deps))
				meetings.Get("/{id}/messages", HandleListMeetingMessages(deps))
			})

			authed.Route("/announcements", func(announcements chi.Router) {
				announcements.Get("/", HandleListAnnouncements(deps))
				announcements.With(jwt.RequireAdmin).Post("/", HandleCreateAnnouncement(deps))
			})

			authed.Post("/files/presign-upload", HandlePresignUpload(deps))
			authed.Get("/files/presign-download", HandlePresignDownload(deps))
		})
	})

	rateLimitedConnect := connectLimiter.Middleware(HandleWebSocket(deps, wsUpgrader))
	r.Get("/ws", rateLimitedConnect.ServeHTTP)

	return r
}
