package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"bitbucket.org/mmdatafocus/hr_backend/assistant"
	"bitbucket.org/mmdatafocus/hr_backend/config"
	"bitbucket.org/mmdatafocus/hr_backend/middlewares"
	"bitbucket.org/mmdatafocus/hr_backend/models"
	"bitbucket.org/mmdatafocus/hr_backend/models/reports"
	"bitbucket.org/mmdatafocus/hr_backend/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const defaultPort = "8080"

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func loginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "fields": utils.ProcessValidationErrors(err)})
			return
		}

		token, user, err := models.Login(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			if errors.Is(err, models.ErrInvalidCredentials) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
				return
			}
			config.LogError(config.GetLogger(), "server.go", "loginHandler", "models.Login", req.Username, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"token":    token,
			"username": user.Username,
			"role":     user.Role.DisplayName(),
		})
	}
}

func overviewHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		overview, err := reports.BuildOverview(c.Request.Context())
		if err != nil {
			config.LogError(config.GetLogger(), "server.go", "overviewHandler", "reports.BuildOverview", nil, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build overview"})
			return
		}
		c.JSON(http.StatusOK, overview)
	}
}

type chatRequest struct {
	Question string           `json:"question" binding:"required"`
	History  []assistant.Turn `json:"history" binding:"omitempty,dive"`
}

func chatHandler(router *assistant.Router) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req chatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "fields": utils.ProcessValidationErrors(err)})
			return
		}

		overview, err := reports.BuildOverview(c.Request.Context())
		if err != nil {
			config.LogError(config.GetLogger(), "server.go", "chatHandler", "reports.BuildOverview", nil, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build overview"})
			return
		}
		active, err := models.ListEmployees(c.Request.Context())
		if err != nil {
			config.LogError(config.GetLogger(), "server.go", "chatHandler", "models.ListEmployees", nil, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load employees"})
			return
		}

		answer := router.Route(c.Request.Context(), req.Question, overview, active, req.History)
		if answer.Err != nil {
			// the answer text already explains the degradation to the user
			c.JSON(http.StatusOK, gin.H{"answer": answer, "degraded": true})
			return
		}
		c.JSON(http.StatusOK, gin.H{"answer": answer})
	}
}

func employeesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		employees, err := models.ListEmployees(c.Request.Context())
		if err != nil {
			config.LogError(config.GetLogger(), "server.go", "employeesHandler", "models.ListEmployees", nil, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load employees"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"employees": employees, "count": len(employees)})
	}
}

func exportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		filename := fmt.Sprintf("hr-overview-%s.xlsx", time.Now().Format("2006-01-02"))
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
		if err := reports.ExportOverviewExcel(c.Request.Context(), c.Writer); err != nil {
			config.LogError(config.GetLogger(), "server.go", "exportHandler", "reports.ExportOverviewExcel", nil, err)
			c.Status(http.StatusInternalServerError)
		}
	}
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

// customErrorLogger logs only requests that collected gin errors.
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func newAssistantRouter(logger *logrus.Logger) *assistant.Router {
	if !config.AssistantFallbackEnabled() {
		logger.WithFields(logrus.Fields{"field": "assistant"}).Info("generative fallback disabled; canned intents only")
		return assistant.NewRouter(nil)
	}
	apiKey := strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	if apiKey == "" {
		logger.WithFields(logrus.Fields{"field": "assistant"}).Warn("GEMINI_API_KEY not set; generative fallback unavailable")
		return assistant.NewRouter(nil)
	}
	completer, err := assistant.NewGeminiCompleter(apiKey, os.Getenv("GEMINI_MODEL"))
	if err != nil {
		config.LogError(logger, "server.go", "newAssistantRouter", "NewGeminiCompleter", nil, err)
		return assistant.NewRouter(nil)
	}
	return assistant.NewRouter(completer)
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		// Cloud Run standard env var.
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	// Cloud Run sends SIGTERM on revision shutdown; handle it for graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Start the HTTP server ASAP so the platform considers the revision
	// healthy; app endpoints return 503 until DB/Redis are ready.
	r := gin.New()
	r.Use(middlewares.CorrelationMiddleware())
	r.Use(func(c *gin.Context) {
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		if config.GetDB() == nil || config.GetRedisDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	// Production requires an explicit allowlist; everything else allows all.
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "OPTIONS")
	corsConfig.AddAllowHeaders("Origin", "Content-Type", "Authorization", "X-Correlation-Id", "X-Answer-Language")
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition", "X-Correlation-Id")
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	r.Use(middlewares.LanguageMiddleware())
	r.Use(middlewares.AuthMiddleware())
	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())

	assistantRouter := newAssistantRouter(logger)

	r.POST("/auth/login", loginHandler())

	api := r.Group("/api/hr", middlewares.RequireAuth())
	api.GET("/overview", overviewHandler())
	api.GET("/overview/export", exportHandler())
	api.GET("/employees", employeesHandler())
	api.POST("/chat", chatHandler(assistantRouter))

	r.NoRoute(customNotFoundHandler)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		// ListenAndServe returns http.ErrServerClosed on graceful shutdown.
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()

	// AutoMigrate can run DDL that blocks tables; allow running migrations
	// as a separate job instead.
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		if err := models.AutoMigrateAll(db); err != nil {
			logger.WithFields(logrus.Fields{"field": "migrations"}).Panic(err.Error())
		}
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("listening on http://localhost:", port, "/")

	// Block until shutdown or server error.
	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}
