package handlers

import (
	"net/http"

	"flood-prediction-api/services"

	"github.com/gin-gonic/gin"
)

func Health(service *services.PredictionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":        "UP",
			"message":       "Flood Prediction API is running",
			"model_version": service.ModelVersion(),
		})
	}
}
