package models

import "time"

const (
	LabelFlood   = "flood"
	LabelNoFlood = "no flood"
)

const (
	MinForecastDays = 1
	MaxForecastDays = 30
)

// PredictionRequest is the POST /predict body. Binding only checks shape;
// calendar rules are enforced by services.PredictionService.
type PredictionRequest struct {
	StartDate string `json:"start_date" binding:"required,datetime=2006-01-02"`
	Days      int    `json:"days" binding:"min=1,max=30"`
}

type PredictionResult struct {
	Date      string  `json:"date"`
	Yhat      float64 `json:"yhat"`
	YhatLower float64 `json:"yhat_lower"`
	YhatUpper float64 `json:"yhat_upper"`
	Label     string  `json:"label"`
}

// FloodAlert is published when an outlook run finds at least one flood day.
type FloodAlert struct {
	ID           string             `json:"id"`
	IssuedAt     time.Time          `json:"issued_at"`
	ModelVersion string             `json:"model_version"`
	Threshold    float64            `json:"threshold"`
	StartDate    string             `json:"start_date"`
	Days         int                `json:"days"`
	FloodDays    []PredictionResult `json:"flood_days"`
}
