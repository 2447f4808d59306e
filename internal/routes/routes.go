package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/CodehubPriyanshu/taskhub-central-sub001/docs"
	"github.com/CodehubPriyanshu/taskhub-central-sub001/internal/handlers"
	"github.com/CodehubPriyanshu/taskhub-central-sub001/internal/middleware"
)

type AuthConfig struct {
	Secret []byte
	Leeway time.Duration
}

func SetupRoutes(
	r *gin.Engine,
	auth AuthConfig,
	taskHandler *handlers.TaskHandler,
	eventsHandler *handlers.EventsHandler,
	metricsHandler http.Handler,
) *gin.Engine {

	// ---- public
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.GET("/metrics", gin.WrapH(metricsHandler))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// ---- protected
	api := r.Group("/", middleware.AuthMiddleware(auth.Secret, auth.Leeway), middleware.ReadOnlyGuard())

	tasks := api.Group("/tasks")
	{
		tasks.POST("", taskHandler.Create)
		tasks.GET("", taskHandler.List)
		tasks.GET("/events", eventsHandler.Stream)
		tasks.GET("/:id", taskHandler.Get)
		tasks.PATCH("/:id", taskHandler.Update)

		tasks.POST("/:id/accept", taskHandler.Accept)
		tasks.POST("/:id/reject", taskHandler.Reject)

		tasks.POST("/:id/extension", taskHandler.RequestExtension)
		tasks.POST("/:id/extension/approve", taskHandler.ApproveExtension)
		tasks.POST("/:id/extension/reject", taskHandler.RejectExtension)

		tasks.POST("/:id/edit-request", taskHandler.RequestEdit)
		tasks.POST("/:id/edit-request/approve", taskHandler.ApproveEdit)
		tasks.POST("/:id/edit-request/reject", taskHandler.RejectEdit)

		tasks.POST("/:id/status", taskHandler.SetStatus)
		tasks.POST("/:id/comments", taskHandler.AddComment)
	}

	return r
}
