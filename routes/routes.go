package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/offsideleague/league-engine/handlers"
	"github.com/offsideleague/league-engine/middleware"
)

type Handlers struct {
	Tournaments  *handlers.TournamentHandler
	Participants *handlers.ParticipantHandler
	Groups       *handlers.GroupHandler
	Brackets     *handlers.BracketHandler
	Matches      *handlers.MatchHandler
	Disputes     *handlers.DisputeHandler
	Standings    *handlers.StandingsHandler
	WebSocket    *handlers.WebSocketHandler
}

func Init(h Handlers, jwtSecret string) *chi.Mux {
	router := chi.NewRouter()

	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(jwtSecret)

	router.Route("/tournaments", func(r chi.Router) {
		r.Get("/", h.Tournaments.List)
		r.Get("/{tournamentID}", h.Tournaments.Get)
		r.Get("/{tournamentID}/participants", h.Participants.List)
		r.Get("/{tournamentID}/groups", h.Groups.List)
		r.Get("/{tournamentID}/matches", h.Matches.ListByTournament)
		r.Get("/{tournamentID}/standings", h.Standings.Tournament)
		r.Get("/{tournamentID}/bracket/preview", h.Brackets.Preview)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Post("/", h.Tournaments.Create)
			r.Post("/{tournamentID}/phase", h.Tournaments.AdvancePhase)
			r.Post("/{tournamentID}/crest", h.Tournaments.UploadCrest)
			r.Post("/{tournamentID}/participants", h.Participants.Register)
			r.Post("/{tournamentID}/groups", h.Groups.Create)
			r.Post("/{tournamentID}/bracket", h.Brackets.Publish)
			r.Post("/{tournamentID}/advance-round", h.Brackets.AdvanceRound)
			r.Post("/{tournamentID}/advance-groups", h.Brackets.AdvanceGroups)
		})
	})

	router.Route("/participants", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Put("/{participantID}/seed", h.Participants.Reseed)
			r.Delete("/{participantID}", h.Participants.Remove)
		})
	})

	router.Route("/groups", func(r chi.Router) {
		r.Get("/{groupID}/fixtures", h.Groups.ListFixtures)
		r.Get("/{groupID}/standings", h.Standings.Group)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/{groupID}/participants/{participantID}", h.Groups.AssignParticipant)
			r.Post("/{groupID}/fixtures", h.Groups.GenerateFixtures)
		})
	})

	router.Route("/matches", func(r chi.Router) {
		r.Get("/{matchID}", h.Matches.Get)
		r.Get("/{matchID}/disputes", h.Disputes.ListByMatch)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/{matchID}/report", h.Matches.Report)
			r.Post("/{matchID}/confirm", h.Matches.Confirm)
			r.Post("/{matchID}/forfeit", h.Matches.Forfeit)
			r.Post("/{matchID}/reschedule", h.Matches.Reschedule)
			r.Post("/{matchID}/disputes", h.Disputes.File)
			r.Post("/{matchID}/disputes/resolve", h.Disputes.Resolve)
		})
	})

	router.Get("/ws/tournaments/{tournamentID}", h.WebSocket.ServeWs)

	return router
}
