package handlers

import (
	"flood-prediction-api/config"
	"flood-prediction-api/middleware"
	"flood-prediction-api/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

type RouterDeps struct {
	Predictions  *services.PredictionService
	Cache        *services.CacheService
	AlertChannel string
	CORS         config.CORSConfig
	Logger       *logrus.Logger
}

func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(deps.Logger))
	router.Use(middleware.SetupCORS(deps.CORS))

	prediction := NewPredictionHandler(deps.Predictions, deps.Logger)

	router.POST("/predict", prediction.Predict)
	router.GET("/health", Health(deps.Predictions))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/ws/alerts", AlertWebSocket(deps.Cache, deps.AlertChannel, deps.Logger))

	return router
}
