package routes

import (
	"github.com/clubvolley/club-system/handlers"
	"github.com/clubvolley/club-system/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
)

type Handlers struct {
	Auth      *handlers.AuthHandler
	Club      *handlers.ClubHandler
	Team      *handlers.TeamHandler
	Player    *handlers.PlayerHandler
	Invite    *handlers.InviteHandler
	Event     *handlers.EventHandler
	Stats     *handlers.StatsHandler
	Functions *handlers.FunctionsHandler
	WebSocket *handlers.WebSocketHandler
}

func SetupRoutes(h Handlers, jwtSecret string) *chi.Mux {
	router := chi.NewRouter()

	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Публичные маршруты
	router.Post("/auth/register", h.Auth.Register)
	router.Post("/auth/login", h.Auth.Login)

	// Табло: зрителям токен не нужен
	router.Get("/ws/sessions/{sessionID}/scoreboard", h.WebSocket.ServeScoreboard)

	// Защищённые маршруты
	router.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(jwtSecret))

		r.Get("/auth/me", h.Auth.GetCurrentProfile)

		r.Route("/clubs", func(r chi.Router) {
			r.Post("/", h.Club.CreateClub)
			r.Get("/own", h.Club.GetOwnClub)
			r.Get("/{clubID}", h.Club.GetClubByID)
			r.Put("/{clubID}", h.Club.UpdateClub)
			r.Post("/{clubID}/crest", h.Club.UploadCrest)

			r.Get("/{clubID}/teams", h.Team.ListClubTeams)
			r.Get("/{clubID}/sessions", h.Stats.ListClubSessions)

			// Коды приглашений и заявки ассистентов
			r.Post("/{clubID}/codes", h.Invite.GenerateClubCode)
			r.Get("/{clubID}/codes", h.Invite.ListClubCodes)
			r.Delete("/{clubID}/codes/{codeID}", h.Invite.RevokeClubCode)
			r.Get("/{clubID}/assistant-requests", h.Invite.ListPendingRequests)
		})

		r.Post("/codes/redeem", h.Invite.RedeemCode)
		r.Post("/assistant-requests/{requestID}/approve", h.Invite.ApproveRequest)
		r.Post("/assistant-requests/{requestID}/reject", h.Invite.RejectRequest)

		r.Route("/teams", func(r chi.Router) {
			r.Post("/", h.Team.CreateTeam)
			r.Get("/{teamID}", h.Team.GetTeamByID)
			r.Put("/{teamID}", h.Team.UpdateTeam)
			r.Delete("/{teamID}", h.Team.DeleteTeam)
			r.Get("/{teamID}/players", h.Player.ListTeamPlayers)
		})

		r.Route("/players", func(r chi.Router) {
			r.Post("/", h.Player.CreatePlayer)
			r.Get("/{playerID}", h.Player.GetPlayerByID)
			r.Put("/{playerID}", h.Player.UpdatePlayer)
			r.Delete("/{playerID}", h.Player.DeletePlayer)
			r.Post("/{playerID}/injuries", h.Player.AddInjuryLog)
			r.Get("/{playerID}/injuries", h.Player.ListInjuryLogs)
		})

		r.Route("/events", func(r chi.Router) {
			r.Post("/", h.Event.CreateEvent)
			r.Get("/", h.Event.ListEvents)
			r.Get("/{eventID}", h.Event.GetEventByID)
			r.Put("/{eventID}", h.Event.UpdateEvent)
			r.Patch("/{eventID}/status", h.Event.UpdateEventStatus)
			r.Post("/{eventID}/crest", h.Event.UploadCrest)

			r.Post("/{eventID}/registrations", h.Event.RegisterTeam)
			r.Get("/{eventID}/registrations", h.Event.ListRegistrations)

			r.Post("/{eventID}/messages", h.Event.SendChatMessage)
			r.Get("/{eventID}/messages", h.Event.ListChatMessages)
		})

		r.Patch("/registrations/{registrationID}", h.Event.DecideRegistration)

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/{sessionID}", h.Stats.GetSession)
			r.Get("/{sessionID}/sets", h.Stats.ListSessionSets)
			r.Get("/{sessionID}/actions", h.Stats.ListSessionActions)
			r.Get("/{sessionID}/summary", h.Stats.SummarizeSession)
		})

		// Функции рекордера, контракт {"success": ...}
		r.Route("/functions", func(r chi.Router) {
			r.Post("/start-session", h.Functions.StartSession)
			r.Post("/record-action", h.Functions.RecordAction)
			r.Post("/undo-last-action", h.Functions.UndoLastAction)
			r.Post("/save-actions-batch", h.Functions.SaveActionsBatch)
		})
	})

	return router
}
