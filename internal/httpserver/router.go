package httpserver

import (
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"studiosite/internal/service/auth"
	"studiosite/internal/service/customer"
	"studiosite/internal/service/dashboard"
	"studiosite/internal/service/download"
	"studiosite/internal/service/project"
	"studiosite/internal/service/quote"
	"studiosite/internal/service/subscriber"
)

// Deps carries the services the routes are built on.
type Deps struct {
	Auth        *auth.Service
	Customers   *customer.Service
	Projects    *project.Service
	Downloads   *download.Service
	Subscribers *subscriber.Service
	Quotes      *quote.Service
	Dashboard   *dashboard.Service
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, db *pgxpool.Pool, deps Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	router.Use(cors.New(corsCfg))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	h := &handlers{deps: deps, logger: logger}

	api := router.Group("/api")
	{
		api.GET("/portfolio", h.listPortfolio)
		api.GET("/portfolio/:slug", h.getPortfolioProject)
		api.GET("/portfolio/:slug/related", h.getRelatedProjects)

		api.GET("/downloads", h.listPublicDownloads)
		api.GET("/downloads/:id", h.getPublicDownload)
		api.POST("/downloads/:id/download", h.processDownload)

		api.POST("/newsletter/subscribe", h.subscribe)
		api.GET("/newsletter/confirm", h.confirmSubscription)
		api.POST("/newsletter/confirm", h.confirmSubscription)
		api.POST("/newsletter/unsubscribe", h.unsubscribe)

		api.POST("/quotes", h.submitQuote)

		api.POST("/admin/login", h.login)
	}

	admin := api.Group("/admin", h.requireAuth)
	{
		admin.POST("/logout", h.logout)
		admin.GET("/me", h.me)

		admin.GET("/dashboard", h.getDashboard)
		admin.POST("/dashboard/refresh", h.refreshDashboard)

		admin.GET("/customers", h.listCustomers)
		admin.POST("/customers", h.createCustomer)
		admin.GET("/customers/stats", h.customerStats)
		admin.GET("/customers/:id", h.getCustomer)
		admin.PUT("/customers/:id", h.updateCustomer)
		admin.DELETE("/customers/:id", h.deleteCustomer)

		admin.GET("/projects", h.listProjects)
		admin.POST("/projects", h.createProject)
		admin.GET("/projects/stats", h.projectStats)
		admin.POST("/projects/reorder", h.reorderProjects)
		admin.GET("/projects/:id", h.getProject)
		admin.PUT("/projects/:id", h.updateProject)
		admin.DELETE("/projects/:id", h.deleteProject)
		admin.POST("/projects/:id/poster", h.uploadProjectPoster)
		admin.POST("/projects/:id/gallery", h.uploadProjectGallery)
		admin.POST("/projects/:id/documents", h.uploadProjectDocuments)
		admin.DELETE("/projects/:id/media/:mediaId", h.removeProjectMedia)

		admin.GET("/downloads", h.listDownloads)
		admin.POST("/downloads", h.createDownload)
		admin.GET("/downloads/stats", h.downloadStats)
		admin.GET("/downloads/export", h.exportDownloads)
		admin.POST("/downloads/reorder", h.reorderDownloads)
		admin.POST("/downloads/bulk-update", h.bulkUpdateDownloads)
		admin.POST("/downloads/bulk-delete", h.bulkDeleteDownloads)
		admin.GET("/downloads/:id", h.getDownload)
		admin.PUT("/downloads/:id", h.updateDownload)
		admin.DELETE("/downloads/:id", h.deleteDownload)
		admin.POST("/downloads/:id/poster", h.uploadDownloadPoster)
		admin.POST("/downloads/:id/file", h.uploadDownloadFile)
		admin.POST("/downloads/:id/duplicate", h.duplicateDownload)

		admin.GET("/subscribers", h.listSubscribers)
		admin.GET("/subscribers/stats", h.subscriberStats)
		admin.POST("/subscribers/:email/bounce", h.markSubscriberBounced)
		admin.POST("/subscribers/:email/complaint", h.markSubscriberComplained)

		admin.GET("/quotes", h.listQuotes)
		admin.GET("/quotes/stats", h.quoteStats)
		admin.GET("/quotes/:id", h.getQuote)
		admin.PUT("/quotes/:id/status", h.updateQuoteStatus)
	}

	return router
}

type handlers struct {
	deps   Deps
	logger *log.Logger
}
