package server

import (
	"github.com/abduss/contactbook/internal/auth"
	"github.com/abduss/contactbook/internal/config"
	"github.com/abduss/contactbook/internal/contact"
	"github.com/abduss/contactbook/internal/logger"
	"github.com/abduss/contactbook/internal/metrics"
	"github.com/abduss/contactbook/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// Dependencies groups the services required by the HTTP router.
type Dependencies struct {
	Config         config.Config
	DB             *pgxpool.Pool
	ObjectStore    *minio.Client
	Logger         *zap.Logger
	AuthService    *auth.Service
	ContactService *contact.Service
}

// NewRouter builds a Gin engine with foundational middleware and routes.
func NewRouter(deps Dependencies) *gin.Engine {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	router := gin.New()
	router.Use(logger.Middleware(log))
	router.Use(gin.Recovery())
	router.Use(metrics.Middleware())

	registerHealthRoutes(router, deps)
	metrics.Register(router, deps.Config.Metrics.PrometheusPath)

	api := router.Group("/v1")
	if deps.DB != nil {
		api.Use(storage.Session(deps.DB))
	}
	if deps.AuthService != nil {
		auth.RegisterRoutes(api, deps.AuthService)

		protected := api.Group("/")
		protected.Use(auth.Middleware(deps.AuthService))

		if deps.ContactService != nil {
			contact.RegisterRoutes(protected, deps.ContactService)
		}
	}

	return router
}
