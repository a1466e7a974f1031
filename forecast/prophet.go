package forecast

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

const secondsPerDay = 24 * 60 * 60

const (
	growthLinear   = "linear"
	growthFlat     = "flat"
	modeAdditive   = "additive"
	modeMultiplied = "multiplicative"
)

// prophetArtifact mirrors the fields of Prophet's model_to_json output that
// are needed for point forecasts. Pandas-encoded fields (history,
// changepoints as dates) are ignored.
type prophetArtifact struct {
	Growth            string                 `json:"growth"`
	Start             float64                `json:"start"`
	TScale            float64                `json:"t_scale"`
	YScale            float64                `json:"y_scale"`
	YMin              float64                `json:"y_min"`
	Scaling           string                 `json:"scaling"`
	IntervalWidth     float64                `json:"interval_width"`
	ChangepointsT     []float64              `json:"changepoints_t"`
	Seasonalities     []json.RawMessage      `json:"seasonalities"`
	ExtraRegressors   []json.RawMessage      `json:"extra_regressors"`
	TrainHolidayNames json.RawMessage        `json:"train_holiday_names"`
	Params            map[string][][]float64 `json:"params"`
}

type seasonalityArtifact struct {
	Period        float64 `json:"period"`
	FourierOrder  int     `json:"fourier_order"`
	Mode          string  `json:"mode"`
	ConditionName *string `json:"condition_name"`
}

type seasonality struct {
	name   string
	period float64
	order  int
	mode   string
	beta   []float64
}

// Prophet evaluates a fitted Prophet model. It is immutable after Parse and
// safe for concurrent use.
type Prophet struct {
	growth        string
	start         float64
	tScale        float64
	yScale        float64
	floor         float64
	k             float64
	m             float64
	changepointsT []float64
	deltas        []float64
	seasonalities []seasonality
	halfWidth     float64
	version       string
}

// Load reads and parses a Prophet JSON artifact. Every failure is returned as
// an *ArtifactError.
func Load(path string) (*Prophet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ArtifactError{Path: path, Err: err}
	}
	p, err := Parse(data)
	if err != nil {
		return nil, &ArtifactError{Path: path, Err: err}
	}
	return p, nil
}

// Parse builds a Prophet from the bytes of a model_to_json document.
func Parse(data []byte) (*Prophet, error) {
	var a prophetArtifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	if a.Growth == "" {
		a.Growth = growthLinear
	}
	if a.Growth != growthLinear && a.Growth != growthFlat {
		return nil, fmt.Errorf("unsupported growth %q", a.Growth)
	}
	if a.TScale <= 0 {
		return nil, fmt.Errorf("t_scale must be positive, got %v", a.TScale)
	}
	if a.YScale <= 0 {
		return nil, fmt.Errorf("y_scale must be positive, got %v", a.YScale)
	}
	if a.IntervalWidth == 0 {
		a.IntervalWidth = 0.8
	}
	if a.IntervalWidth <= 0 || a.IntervalWidth >= 1 {
		return nil, fmt.Errorf("interval_width must be in (0, 1), got %v", a.IntervalWidth)
	}
	if !isNull(a.TrainHolidayNames) {
		return nil, errors.New("holidays are not supported")
	}
	if err := checkNoRegressors(a.ExtraRegressors); err != nil {
		return nil, err
	}

	k, err := scalarParam(a.Params, "k")
	if err != nil {
		return nil, err
	}
	m, err := scalarParam(a.Params, "m")
	if err != nil {
		return nil, err
	}
	sigma, err := scalarParam(a.Params, "sigma_obs")
	if err != nil {
		return nil, err
	}

	p := &Prophet{
		growth: a.Growth,
		start:  a.Start,
		tScale: a.TScale,
		yScale: a.YScale,
		k:      k,
		m:      m,
	}
	if a.Scaling == "minmax" {
		p.floor = a.YMin
	}

	if a.Growth == growthLinear {
		deltas, err := vectorParam(a.Params, "delta")
		if err != nil {
			return nil, err
		}
		if len(deltas) != len(a.ChangepointsT) {
			return nil, fmt.Errorf("delta has %d entries for %d changepoints", len(deltas), len(a.ChangepointsT))
		}
		p.changepointsT = a.ChangepointsT
		p.deltas = deltas
	}

	if err := p.parseSeasonalities(a); err != nil {
		return nil, err
	}

	z := distuv.UnitNormal.Quantile((1 + a.IntervalWidth) / 2)
	p.halfWidth = z * sigma * a.YScale

	sum := sha256.Sum256(data)
	p.version = hex.EncodeToString(sum[:])[:12]

	return p, nil
}

func (p *Prophet) parseSeasonalities(a prophetArtifact) error {
	if len(a.Seasonalities) == 0 {
		return nil
	}
	if len(a.Seasonalities) != 2 {
		return fmt.Errorf("seasonalities must be [names, props], got %d elements", len(a.Seasonalities))
	}

	var names []string
	if err := json.Unmarshal(a.Seasonalities[0], &names); err != nil {
		return fmt.Errorf("decode seasonality names: %w", err)
	}
	var props map[string]seasonalityArtifact
	if err := json.Unmarshal(a.Seasonalities[1], &props); err != nil {
		return fmt.Errorf("decode seasonality props: %w", err)
	}

	width := 0
	for _, name := range names {
		order := props[name].FourierOrder
		if order < 0 {
			return fmt.Errorf("seasonality %q: negative fourier_order", name)
		}
		width += 2 * order
	}

	var beta []float64
	if width > 0 {
		var err error
		beta, err = vectorParam(a.Params, "beta")
		if err != nil {
			return err
		}
		if len(beta) != width {
			return fmt.Errorf("beta has %d entries, seasonalities need %d (holidays and regressors are not supported)", len(beta), width)
		}
	}

	offset := 0
	for _, name := range names {
		s, ok := props[name]
		if !ok {
			return fmt.Errorf("seasonality %q has no properties", name)
		}
		if s.ConditionName != nil {
			return fmt.Errorf("conditional seasonality %q is not supported", name)
		}
		if s.Period <= 0 {
			return fmt.Errorf("seasonality %q: period must be positive", name)
		}
		mode := s.Mode
		if mode == "" {
			mode = modeAdditive
		}
		if mode != modeAdditive && mode != modeMultiplied {
			return fmt.Errorf("seasonality %q: unsupported mode %q", name, mode)
		}
		n := 2 * s.FourierOrder
		p.seasonalities = append(p.seasonalities, seasonality{
			name:   name,
			period: s.Period,
			order:  s.FourierOrder,
			mode:   mode,
			beta:   beta[offset : offset+n],
		})
		offset += n
	}
	return nil
}

// Predict evaluates the model at each date. Output order matches input order.
func (p *Prophet) Predict(dates []time.Time) ([]Point, error) {
	points := make([]Point, 0, len(dates))
	for _, d := range dates {
		epoch := float64(d.Unix())
		t := (epoch - p.start) / p.tScale

		trend := p.trend(t)*p.yScale + p.floor
		additive, multiplicative := p.seasonal(epoch / secondsPerDay)
		yhat := trend*(1+multiplicative) + additive

		if math.IsNaN(yhat) || math.IsInf(yhat, 0) {
			return nil, fmt.Errorf("non-finite forecast for %s", d.Format(time.DateOnly))
		}

		points = append(points, Point{
			Date:      d,
			Yhat:      yhat,
			YhatLower: yhat - p.halfWidth,
			YhatUpper: yhat + p.halfWidth,
		})
	}
	return points, nil
}

// Version identifies the artifact by content hash.
func (p *Prophet) Version() string {
	return p.version
}

func (p *Prophet) trend(t float64) float64 {
	if p.growth == growthFlat {
		return p.m
	}
	k, m := p.k, p.m
	for i, cp := range p.changepointsT {
		if cp <= t {
			k += p.deltas[i]
			m -= cp * p.deltas[i]
		}
	}
	return k*t + m
}

// seasonal returns the additive component in data units and the
// multiplicative component as a factor.
func (p *Prophet) seasonal(days float64) (float64, float64) {
	var additive, multiplicative float64
	for _, s := range p.seasonalities {
		v := floats.Dot(fourierRow(days, s.period, s.order), s.beta)
		if s.mode == modeMultiplied {
			multiplicative += v
		} else {
			additive += v
		}
	}
	return additive * p.yScale, multiplicative
}

// fourierRow lays features out as sin(1), cos(1), sin(2), cos(2), ...
func fourierRow(days, period float64, order int) []float64 {
	row := make([]float64, 0, 2*order)
	for i := 1; i <= order; i++ {
		x := 2 * math.Pi * float64(i) * days / period
		row = append(row, math.Sin(x), math.Cos(x))
	}
	return row
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

func checkNoRegressors(raw []json.RawMessage) error {
	if len(raw) == 0 {
		return nil
	}
	var names []string
	if err := json.Unmarshal(raw[0], &names); err != nil {
		return fmt.Errorf("decode extra_regressors: %w", err)
	}
	if len(names) > 0 {
		return fmt.Errorf("extra regressors are not supported: %v", names)
	}
	return nil
}

// vectorParam averages a sampled parameter across draws. MAP fits carry a
// single draw, so this is the identity for them.
func vectorParam(params map[string][][]float64, name string) ([]float64, error) {
	draws, ok := params[name]
	if !ok || len(draws) == 0 {
		return nil, fmt.Errorf("missing parameter %q", name)
	}
	mean := make([]float64, len(draws[0]))
	for i, draw := range draws {
		if len(draw) != len(mean) {
			return nil, fmt.Errorf("parameter %q: draw %d has %d entries, want %d", name, i, len(draw), len(mean))
		}
		floats.Add(mean, draw)
	}
	floats.Scale(1/float64(len(draws)), mean)
	return mean, nil
}

func scalarParam(params map[string][][]float64, name string) (float64, error) {
	v, err := vectorParam(params, name)
	if err != nil {
		return 0, err
	}
	if len(v) != 1 {
		return 0, fmt.Errorf("parameter %q: want a scalar, got %d entries", name, len(v))
	}
	return v[0], nil
}
