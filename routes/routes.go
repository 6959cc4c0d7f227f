package routes

import (
	"net/http"

	"github.com/Dosada05/prediction-league/docs"
	"github.com/Dosada05/prediction-league/handlers"
	"github.com/Dosada05/prediction-league/middleware"
	"github.com/Dosada05/prediction-league/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

func SetupRoutes(
	router *chi.Mux,
	auth *middleware.Authenticator,
	allowedOrigins []string,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	teamHandler *handlers.TeamHandler,
	matchHandler *handlers.MatchHandler,
	predictionHandler *handlers.PredictionHandler,
	thirdPlaceHandler *handlers.ThirdPlaceHandler,
	bracketHandler *handlers.BracketHandler,
	leaderboardHandler *handlers.LeaderboardHandler,
	squadHandler *handlers.SquadHandler,
	setupHandler *handlers.SetupHandler,
	dashboardHandler *handlers.DashboardHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Документация API
	router.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(docs.OpenAPISpec)
	})
	router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	router.Post("/auth/register", authHandler.Register)
	router.Post("/auth/login", authHandler.Login)

	router.Route("/teams", func(r chi.Router) {
		// Публичные маршруты для просмотра сборных
		r.Get("/", teamHandler.ListTeams)
		r.Get("/{id}", teamHandler.GetTeamByID)

		// Управление сборными доступно только администратору
		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Use(middleware.Authorize(models.RoleAdmin))

			r.Post("/", teamHandler.CreateTeam)
			r.Put("/{id}", teamHandler.UpdateTeam)
			r.Delete("/{id}", teamHandler.DeleteTeam)
			r.Post("/{id}/crest", teamHandler.UploadTeamCrest)
			r.Delete("/{id}/crest", teamHandler.RemoveTeamCrest)
		})
	})

	router.Route("/matches", func(r chi.Router) {
		r.Get("/", matchHandler.ListMatches)
		r.Get("/{number}", matchHandler.GetMatchByNumber)

		// Ввод результатов доступен только администратору
		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Use(middleware.Authorize(models.RoleAdmin))

			r.Post("/{number}/result", matchHandler.SubmitResult)
			r.Post("/{number}/penalty-winner", matchHandler.SetPenaltyWinner)
			r.Post("/{number}/reopen", matchHandler.ReopenMatch)
		})
	})

	// source=mine персонализирует ответ, поэтому токен валидируется, если есть
	router.Group(func(r chi.Router) {
		r.Use(auth.AuthenticateOptional)

		r.Get("/bracket", bracketHandler.GetBracket)
		r.Get("/standings", bracketHandler.GetStandings)
	})

	router.Route("/leaderboard", func(r chi.Router) {
		r.Get("/", leaderboardHandler.GetLeaderboard)
		r.Get("/squads", leaderboardHandler.GetSquadLeaderboard)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Get("/me", leaderboardHandler.GetMyRank)
		})
	})

	router.Group(func(r chi.Router) {
		r.Use(auth.Authenticate)

		r.Get("/me", userHandler.GetMe)
		r.Post("/me/password", userHandler.ChangePassword)
		r.Get("/users/{id}", userHandler.GetUserByID)
		r.Patch("/users/{id}", userHandler.UpdateUserByID)
		r.Delete("/users/{id}", userHandler.DeleteUserByID)

		r.Get("/predictions", predictionHandler.ListMyPredictions)
		r.Get("/predictions/{number}", predictionHandler.GetMyPrediction)
		r.Put("/predictions/{number}", predictionHandler.UpsertPrediction)

		r.Get("/third-place", thirdPlaceHandler.GetBoard)
		r.Put("/third-place", thirdPlaceHandler.SavePicks)
		r.Delete("/third-place", thirdPlaceHandler.ClearPicks)
	})

	router.Route("/squads", func(r chi.Router) {
		r.Get("/", squadHandler.ListSquads)
		r.Get("/{id}", squadHandler.GetSquadByID)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)

			r.Post("/", squadHandler.CreateSquad)
			r.Get("/my", squadHandler.GetMySquad)
			r.Patch("/{id}", squadHandler.RenameSquad)
			r.Delete("/{id}", squadHandler.DeleteSquad)
			r.Post("/{id}/leave", squadHandler.LeaveSquad)
			r.Delete("/{id}/members/{userID}", squadHandler.RemoveMember)
			r.Post("/{id}/invites", squadHandler.CreateInvite)
			r.Get("/{id}/invites", squadHandler.ListInvites)
			r.Delete("/{id}/invites/{inviteID}", squadHandler.RevokeInvite)
			r.Post("/join/{token}", squadHandler.JoinSquad)
		})
	})

	router.Route("/admin", func(r chi.Router) {
		r.Use(auth.Authenticate)
		r.Use(middleware.Authorize(models.RoleAdmin))

		r.Post("/schedule", setupHandler.BootstrapSchedule)
		r.Post("/teams/import", setupHandler.ImportTeams)
		r.Post("/results/import", setupHandler.ImportResults)
		r.Get("/matches/export", setupHandler.ExportMatches)
		r.Post("/simulate", setupHandler.SimulateRemaining)
		r.Post("/rescore", setupHandler.RescoreAll)
		r.Get("/dashboard", dashboardHandler.Stats)
		r.Get("/users", userHandler.ListUsers)
	})

	router.Get("/ws", webSocketHandler.ServeWs)
}
