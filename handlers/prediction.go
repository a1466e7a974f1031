package handlers

import (
	"errors"
	"net/http"

	"flood-prediction-api/middleware"
	"flood-prediction-api/models"
	"flood-prediction-api/services"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

type PredictionHandler struct {
	service *services.PredictionService
	logger  *logrus.Logger
}

func NewPredictionHandler(service *services.PredictionService, logger *logrus.Logger) *PredictionHandler {
	return &PredictionHandler{service: service, logger: logger}
}

func (h *PredictionHandler) Predict(c *gin.Context) {
	var req models.PredictionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := fieldErrors(verrs)
			// Binding stops at shape errors; add the calendar rules so every
			// violated field is reported in one response.
			var vErr *services.ValidationError
			if _, err := h.service.Validate(req); errors.As(err, &vErr) {
				fields = mergeFieldErrors(fields, vErr.Fields)
			}
			c.JSON(http.StatusUnprocessableEntity, validationResponse(fields))
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body: " + err.Error()})
		return
	}

	results, err := h.service.Predict(c.Request.Context(), req)
	if err != nil {
		var vErr *services.ValidationError
		if errors.As(err, &vErr) {
			c.JSON(http.StatusUnprocessableEntity, validationResponse(vErr.Fields))
			return
		}
		h.logger.WithError(err).WithFields(logrus.Fields{
			"start_date": req.StartDate,
			"days":       req.Days,
			"request_id": c.GetString(middleware.RequestIDKey),
		}).Error("prediction failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "prediction failed", "detail": err.Error()})
		return
	}

	c.JSON(http.StatusOK, results)
}
