package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"flood-prediction-api/forecast"
	"flood-prediction-api/models"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
)

const cacheWriteTimeout = 5 * time.Second

// PredictionService turns a validated date range into labeled forecasts.
// The model is shared read-only across requests.
type PredictionService struct {
	model     forecast.Model
	cache     *CacheService
	cacheTTL  time.Duration
	threshold float64
	logger    *logrus.Logger
	now       func() time.Time

	writeTimeout time.Duration
}

func NewPredictionService(model forecast.Model, cache *CacheService, cacheTTL time.Duration, threshold float64, logger *logrus.Logger) *PredictionService {
	return &PredictionService{
		model:     model,
		cache:     cache,
		cacheTTL:  cacheTTL,
		threshold: threshold,
		logger:    logger,
		now:       time.Now,

		writeTimeout: cacheWriteTimeout,
	}
}

func (s *PredictionService) Threshold() float64 { return s.threshold }

func (s *PredictionService) ModelVersion() string { return s.model.Version() }

// Today is the current server-local calendar date, expressed as midnight UTC
// so it compares directly with parsed request dates.
func (s *PredictionService) Today() time.Time {
	y, m, d := s.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Validate checks the calendar rules and returns the parsed start date.
// All violated fields are reported together.
func (s *PredictionService) Validate(req models.PredictionRequest) (time.Time, error) {
	var fields []FieldError

	start, err := time.Parse(time.DateOnly, req.StartDate)
	if err != nil {
		fields = append(fields, FieldError{Field: "start_date", Message: "must be a date in YYYY-MM-DD format"})
	} else if start.Before(s.Today()) {
		fields = append(fields, FieldError{Field: "start_date", Message: "must not be earlier than today"})
	}

	if req.Days < models.MinForecastDays || req.Days > models.MaxForecastDays {
		fields = append(fields, FieldError{
			Field:   "days",
			Message: fmt.Sprintf("must be between %d and %d", models.MinForecastDays, models.MaxForecastDays),
		})
	}

	if len(fields) > 0 {
		return time.Time{}, &ValidationError{Fields: fields}
	}
	return start, nil
}

// Predict validates req, runs the model over the requested days and labels
// each day. Errors are either *ValidationError or *InferenceError.
func (s *PredictionService) Predict(ctx context.Context, req models.PredictionRequest) ([]models.PredictionResult, error) {
	start, err := s.Validate(req)
	if err != nil {
		predictionRequests.WithLabelValues(outcomeValidationError).Inc()
		return nil, err
	}

	cacheKey := fmt.Sprintf("forecast:%s:%g:%s:%d", s.model.Version(), s.threshold, req.StartDate, req.Days)

	var cached []models.PredictionResult
	hit, err := s.cache.Get(ctx, cacheKey, &cached)
	if err != nil {
		s.logger.WithError(err).WithField("key", cacheKey).Warn("forecast cache read failed")
	}
	if hit && len(cached) == req.Days {
		cacheHits.Inc()
		predictionRequests.WithLabelValues(outcomeOK).Inc()
		return cached, nil
	}

	dates := DateRange(start, req.Days)

	began := time.Now()
	points, err := s.model.Predict(dates)
	inferenceDuration.Observe(time.Since(began).Seconds())
	if err != nil {
		predictionRequests.WithLabelValues(outcomeInferenceError).Inc()
		return nil, &InferenceError{Err: err}
	}

	results, err := s.assemble(dates, points)
	if err != nil {
		predictionRequests.WithLabelValues(outcomeInferenceError).Inc()
		return nil, &InferenceError{Err: err}
	}

	for _, r := range results {
		predictionsLabeled.WithLabelValues(r.Label).Inc()
	}
	predictionRequests.WithLabelValues(outcomeOK).Inc()

	if s.cache.Available() {
		go s.storeForecast(cacheKey, results)
	}

	s.logger.WithFields(logrus.Fields{
		"start_date": req.StartDate,
		"days":       req.Days,
		"peak_yhat":  peakYhat(results),
	}).Debug("prediction completed")

	return results, nil
}

// storeForecast writes results to the cache. It outlives the request, so it
// carries its own deadline.
func (s *PredictionService) storeForecast(key string, results []models.PredictionResult) {
	ctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
	defer cancel()
	if err := s.cache.Set(ctx, key, results, s.cacheTTL); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("forecast cache write failed")
	}
}

// assemble pairs model output with the requested dates. The model must
// return exactly one finite row per date, in order.
func (s *PredictionService) assemble(dates []time.Time, points []forecast.Point) ([]models.PredictionResult, error) {
	if len(points) != len(dates) {
		return nil, fmt.Errorf("model returned %d rows for %d dates", len(points), len(dates))
	}

	results := make([]models.PredictionResult, len(points))
	for i, p := range points {
		if !p.Date.Equal(dates[i]) {
			return nil, fmt.Errorf("model row %d is dated %s, expected %s",
				i, p.Date.Format(time.DateOnly), dates[i].Format(time.DateOnly))
		}
		if !allFinite(p.Yhat, p.YhatLower, p.YhatUpper) {
			return nil, fmt.Errorf("model returned a non-finite value for %s", dates[i].Format(time.DateOnly))
		}
		results[i] = models.PredictionResult{
			Date:      dates[i].Format(time.DateOnly),
			Yhat:      p.Yhat,
			YhatLower: p.YhatLower,
			YhatUpper: p.YhatUpper,
			Label:     Classify(p.Yhat, s.threshold),
		}
	}
	return results, nil
}

// Classify labels a point forecast. Equality with the threshold is not a flood.
func Classify(yhat, threshold float64) string {
	if yhat > threshold {
		return models.LabelFlood
	}
	return models.LabelNoFlood
}

// DateRange returns days consecutive calendar dates starting at start.
func DateRange(start time.Time, days int) []time.Time {
	dates := make([]time.Time, days)
	for i := range dates {
		dates[i] = start.AddDate(0, 0, i)
	}
	return dates
}

func allFinite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func peakYhat(results []models.PredictionResult) float64 {
	if len(results) == 0 {
		return 0
	}
	values := make([]float64, len(results))
	for i, r := range results {
		values[i] = r.Yhat
	}
	return floats.Max(values)
}
