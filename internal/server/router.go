package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/practicetrack/practicetrack-backend/internal/handlers"
	"github.com/practicetrack/practicetrack-backend/internal/middleware"
	"github.com/practicetrack/practicetrack-backend/internal/types"
	"github.com/practicetrack/practicetrack-backend/internal/utils"
)

type RouterConfig struct {
	AuthMiddleware *middleware.AuthMiddleware

	AuthHandler         *handlers.AuthHandler
	UserHandler         *handlers.UserHandler
	SupervisionHandler  *handlers.SupervisionHandler
	ComplianceHandler   *handlers.ComplianceHandler
	LogbookHandler      *handlers.LogbookHandler
	PDEntryHandler      *handlers.PDEntryHandler
	InviteHandler       *handlers.InviteHandler
	ReferenceHandler    *handlers.ReferenceHandler
	NotificationHandler *handlers.NotificationHandler
	SupportHandler      *handlers.SupportHandler
	SSEHandler          *handlers.SSEHandler
	MediaHandler        *handlers.MediaHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()
	router.Use(otelgin.Middleware(utils.GetEnv("SERVICE_NAME", "practicetrack", nil)))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{utils.GetEnv("FRONTEND_ORIGIN", "http://localhost:5173", nil)},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.Healthcheck)
	router.GET("/media/*key", cfg.MediaHandler.Serve)

	api := router.Group("/api")

	api.POST("/auth/register", cfg.AuthHandler.Register)
	api.POST("/auth/login", cfg.AuthHandler.Login)
	api.POST("/auth/refresh", cfg.AuthHandler.Refresh)

	authed := api.Group("")
	authed.Use(cfg.AuthMiddleware.RequireAuth())
	{
		authed.POST("/auth/logout", cfg.AuthHandler.Logout)

		authed.GET("/sse/stream", cfg.SSEHandler.Stream)

		authed.GET("/me", cfg.UserHandler.Me)
		authed.GET("/users/:id", cfg.UserHandler.GetByID)
		authed.PATCH("/me/name", cfg.UserHandler.UpdateName)
		authed.PATCH("/me/ahpra-number", cfg.UserHandler.UpdateAhpraNumber)
		authed.PATCH("/me/avatar-color", cfg.UserHandler.UpdateAvatarColor)
		authed.POST("/me/avatar", cfg.UserHandler.UploadAvatar)

		authed.GET("/reference/competencies", cfg.ReferenceHandler.ListCompetencies)
		authed.GET("/reference/competencies/:code", cfg.ReferenceHandler.GetCompetency)
		authed.GET("/reference/epas", cfg.ReferenceHandler.ListEPAs)

		authed.GET("/notifications", cfg.NotificationHandler.List)
		authed.POST("/notifications/:id/read", cfg.NotificationHandler.MarkRead)

		authed.POST("/support/tickets", cfg.SupportHandler.OpenTicket)
		authed.GET("/support/tickets", cfg.SupportHandler.ListTickets)
		authed.GET("/support/tickets/:id", cfg.SupportHandler.GetTicket)
		authed.POST("/support/tickets/:id/messages", cfg.SupportHandler.Reply)

		authed.GET("/compliance/report", cfg.ComplianceHandler.GetReport)

		authed.GET("/supervision/entries", cfg.SupervisionHandler.ListEntries)
		authed.GET("/supervision/observations", cfg.SupervisionHandler.ListObservations)

		authed.GET("/logbooks", cfg.LogbookHandler.List)
		authed.GET("/logbooks/:id", cfg.LogbookHandler.Get)
		authed.GET("/logbooks/:id/review-requests", cfg.LogbookHandler.ListReviewRequests)
	}

	trainee := authed.Group("")
	trainee.Use(cfg.AuthMiddleware.RequireRole(types.RoleTrainee))
	{
		trainee.POST("/logbooks", cfg.LogbookHandler.OpenWeek)
		trainee.POST("/logbooks/:id/entries", cfg.LogbookHandler.AddEntry)
		trainee.PUT("/logbook-entries/:entryID", cfg.LogbookHandler.UpdateEntry)
		trainee.DELETE("/logbook-entries/:entryID", cfg.LogbookHandler.RemoveEntry)
		trainee.POST("/logbooks/:id/submit", cfg.LogbookHandler.Submit)
		trainee.POST("/logbooks/:id/resubmit", cfg.LogbookHandler.Resubmit)
		trainee.POST("/review-requests/:requestID/respond", cfg.LogbookHandler.RespondToReviewRequest)

		trainee.POST("/pd-entries", cfg.PDEntryHandler.Create)
		trainee.GET("/pd-entries", cfg.PDEntryHandler.List)
		trainee.GET("/pd-entries/:id", cfg.PDEntryHandler.Get)
		trainee.PUT("/pd-entries/:id", cfg.PDEntryHandler.Update)
		trainee.DELETE("/pd-entries/:id", cfg.PDEntryHandler.Remove)
		trainee.POST("/pd-entries/preview", cfg.PDEntryHandler.Preview)

		trainee.POST("/invites/accept", cfg.InviteHandler.Accept)
		trainee.POST("/invites/decline", cfg.InviteHandler.Decline)
	}

	supervisor := authed.Group("")
	supervisor.Use(cfg.AuthMiddleware.RequireRole(types.RoleSupervisor, types.RoleAdmin))
	{
		supervisor.GET("/users", cfg.UserHandler.ListByRole)

		supervisor.POST("/supervision/entries", cfg.SupervisionHandler.RecordEntry)
		supervisor.PUT("/supervision/entries/:id", cfg.SupervisionHandler.UpdateEntry)
		supervisor.DELETE("/supervision/entries/:id", cfg.SupervisionHandler.RemoveEntry)
		supervisor.POST("/supervision/observations", cfg.SupervisionHandler.RecordObservation)
		supervisor.DELETE("/supervision/observations/:id", cfg.SupervisionHandler.RemoveObservation)

		supervisor.POST("/compliance/recalculate", cfg.ComplianceHandler.Recalculate)

		supervisor.POST("/logbooks/:id/start-review", cfg.LogbookHandler.StartReview)
		supervisor.POST("/logbooks/:id/request-changes", cfg.LogbookHandler.RequestChanges)
		supervisor.POST("/logbooks/:id/approve", cfg.LogbookHandler.Approve)
		supervisor.POST("/logbooks/:id/reject", cfg.LogbookHandler.Reject)
		supervisor.POST("/review-requests/:requestID/complete", cfg.LogbookHandler.CompleteReviewRequest)
		supervisor.POST("/review-requests/:requestID/dismiss", cfg.LogbookHandler.DismissReviewRequest)

		supervisor.POST("/invites", cfg.InviteHandler.Create)
		supervisor.GET("/invites", cfg.InviteHandler.ListMine)
	}

	admin := authed.Group("")
	admin.Use(cfg.AuthMiddleware.RequireRole(types.RoleAdmin))
	{
		admin.POST("/logbooks/:id/lock", cfg.LogbookHandler.Lock)
		admin.PATCH("/support/tickets/:id/status", cfg.SupportHandler.SetStatus)
	}

	return router
}
