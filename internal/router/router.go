package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/stemsi/examcore/internal/authstub"
	"github.com/stemsi/examcore/internal/config"
	"github.com/stemsi/examcore/internal/httpapi"
	"github.com/stemsi/examcore/internal/middleware"
	"github.com/stemsi/examcore/internal/response"
	"github.com/stemsi/examcore/internal/wsadapter"
)

// Handlers groups every handler instance the router wires routes to.
type Handlers struct {
	Session       *httpapi.SessionHandler
	AdminExam     *httpapi.AdminExamHandler
	AdminQuestion *httpapi.AdminQuestionHandler
	AdminGrade    *httpapi.AdminGradeHandler
	WS            *wsadapter.Adapter
}

// SetupRouter configures all Gin route groups with appropriate middleware.
func SetupRouter(issuer *authstub.Issuer, handlers *Handlers, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.Brotli())

	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// ─── Student session surface (bearer auth) ─────────────────────────
	startLimiter := middleware.NewRateLimiter(cfg.StartSessionRateLimit, cfg.StartSessionRateWindow)

	studentAPI := router.Group("/api/v1")
	studentAPI.Use(middleware.RequireStudentAuth(issuer))
	{
		studentAPI.POST("/exams/:id/start", startLimiter.Middleware(), handlers.Session.StartSession)
		studentAPI.GET("/sessions/:token/questions/:order", handlers.Session.GetQuestion)
		studentAPI.POST("/sessions/:token/questions/:order/answer", handlers.Session.SubmitAnswer)
		studentAPI.GET("/sessions/:token/progress", handlers.Session.Progress)
		studentAPI.POST("/sessions/:token/submit", handlers.Session.Submit)
		studentAPI.GET("/sessions/:token/grade", handlers.Session.GetGrade)
	}

	// ─── WebSocket (bearer auth via query param) ───────────────────────
	ws := router.Group("/ws")
	ws.Use(middleware.RequireStudentWSAuth(issuer))
	{
		ws.GET("/exam/:token", handlers.WS.Handle)
	}

	// ─── Admin authoring + grade reads (bearer auth) ───────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAdminAuth(issuer))
	{
		adminAPI.POST("/exams", handlers.AdminExam.Create)
		adminAPI.GET("/exams", handlers.AdminExam.List)
		adminAPI.GET("/exams/:id", handlers.AdminExam.Get)
		adminAPI.PATCH("/exams/:id", handlers.AdminExam.Update)
		adminAPI.DELETE("/exams/:id", handlers.AdminExam.Delete)
		adminAPI.POST("/exams/:id/activate", handlers.AdminExam.Activate)

		adminAPI.POST("/exams/:id/questions", handlers.AdminQuestion.Add)
		adminAPI.GET("/exams/:id/questions", handlers.AdminQuestion.List)
		adminAPI.DELETE("/questions/:qid", handlers.AdminQuestion.Delete)

		adminAPI.GET("/exams/:id/grades", handlers.AdminGrade.List)
	}

	return router
}
