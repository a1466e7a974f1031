package services

import (
	"context"
	"errors"
	"time"

	"flood-prediction-api/models"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const alertPublishTimeout = 10 * time.Second

// OutlookJob forecasts the coming days from today and raises a flood alert
// when any day is labeled flood.
type OutlookJob struct {
	predictions *PredictionService
	publishers  []AlertPublisher
	days        int
	logger      *logrus.Logger
}

func NewOutlookJob(predictions *PredictionService, publishers []AlertPublisher, days int, logger *logrus.Logger) *OutlookJob {
	return &OutlookJob{
		predictions: predictions,
		publishers:  publishers,
		days:        days,
		logger:      logger,
	}
}

// Run performs one outlook cycle. It returns the alert that was raised, or
// nil when no day crosses the threshold.
func (j *OutlookJob) Run(ctx context.Context) (*models.FloodAlert, error) {
	start := time.Now()
	startDate := j.predictions.Today().Format(time.DateOnly)

	results, err := j.predictions.Predict(ctx, models.PredictionRequest{StartDate: startDate, Days: j.days})
	if err != nil {
		outlookRuns.WithLabelValues("failed").Inc()
		return nil, err
	}

	var floodDays []models.PredictionResult
	for _, r := range results {
		if r.Label == models.LabelFlood {
			floodDays = append(floodDays, r)
		}
	}

	if len(floodDays) == 0 {
		outlookRuns.WithLabelValues("clear").Inc()
		j.logger.WithFields(logrus.Fields{
			"start_date": startDate,
			"days":       j.days,
		}).Info("outlook clear, no flood days forecast")
		return nil, nil
	}

	alert := models.FloodAlert{
		ID:           uuid.NewString(),
		IssuedAt:     time.Now().UTC(),
		ModelVersion: j.predictions.ModelVersion(),
		Threshold:    j.predictions.Threshold(),
		StartDate:    startDate,
		Days:         j.days,
		FloodDays:    floodDays,
	}

	err = publishAll(ctx, j.publishers, alert, alertPublishTimeout, j.logger)
	if errors.Is(err, errNoPublishers) {
		j.logger.Warn("flood days forecast but no alert publishers are configured")
		err = nil
	}
	outlookRuns.WithLabelValues("alert").Inc()

	j.logger.WithFields(logrus.Fields{
		"alert_id":   alert.ID,
		"start_date": startDate,
		"flood_days": len(floodDays),
		"elapsed":    time.Since(start).String(),
	}).Warn("flood alert raised")

	return &alert, err
}

// Schedule runs the job on a standard five-field cron spec. The caller owns
// the returned scheduler and must Stop it.
func (j *OutlookJob) Schedule(spec string) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		if _, err := j.Run(context.Background()); err != nil {
			j.logger.WithError(err).Error("outlook run failed")
		}
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	j.logger.WithFields(logrus.Fields{"schedule": spec, "days": j.days}).Info("outlook scheduled")
	return c, nil
}
