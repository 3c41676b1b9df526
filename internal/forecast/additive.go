package forecast

import (
	"errors"
	"fmt"
	"time"

	forecaster "github.com/aouyang1/go-forecaster"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// LibraryMinPoints is the shortest series handed to go-forecaster. Its outlier
// pass reads the ceil(0.9n)-th sorted residual, which does not exist below
// ten points; shorter series are fitted with a straight trend instead.
const LibraryMinPoints = 10

// defaultIntervalWidth sizes the trend fallback's band when no width is
// configured.
const defaultIntervalWidth = 0.8

// AdditiveOptions configures AdditiveModel.
type AdditiveOptions struct {
	// IntervalWidth is the probability mass of the uncertainty band, in
	// (0, 1). Zero keeps the band produced by go-forecaster.
	IntervalWidth float64
}

// AdditiveModel adapts go-forecaster's trend + seasonality model to Model.
type AdditiveModel struct {
	opt AdditiveOptions

	f *forecaster.Forecaster

	// set when the training series has zero variance
	constant *float64
	// set when the series is too short for go-forecaster
	trend *linearTrend
	// in-sample residual standard deviation, only used with IntervalWidth
	sigma float64
}

// NewAdditiveModel returns an unfitted model.
func NewAdditiveModel(opt AdditiveOptions) *AdditiveModel {
	return &AdditiveModel{opt: opt}
}

// AdditiveFactory returns a ModelFactory producing AdditiveModels.
func AdditiveFactory(opt AdditiveOptions) ModelFactory {
	return func() Model { return NewAdditiveModel(opt) }
}

var errNotFitted = errors.New("model is not fitted")

func (m *AdditiveModel) Fit(t []time.Time, y []float64) error {
	if len(t) != len(y) {
		return fmt.Errorf("got %d timestamps for %d values", len(t), len(y))
	}
	if len(y) < MinPoints {
		return ErrNoForecast
	}

	// A flat series has nothing to scale; go-forecaster would divide by a
	// zero spread.
	if floats.Max(y) == floats.Min(y) {
		c := y[0]
		m.constant = &c
		return nil
	}

	if len(y) < LibraryMinPoints {
		m.trend = fitLinearTrend(t, y)
		return nil
	}

	// go-forecaster marks outliers by overwriting its input with NaN.
	train := append([]float64(nil), y...)
	f, err := fitForecaster(t, train)
	if err != nil {
		return err
	}
	m.f = f

	if m.opt.IntervalWidth > 0 {
		res, err := predictForecaster(f, t)
		if err != nil {
			return fmt.Errorf("in-sample predict: %w", err)
		}
		residuals := make([]float64, len(y))
		floats.SubTo(residuals, y, res.Forecast)
		m.sigma = stat.StdDev(residuals, nil)
	}
	return nil
}

func (m *AdditiveModel) Predict(t []time.Time) (Prediction, error) {
	if m.constant != nil {
		out := make([]float64, len(t))
		for i := range out {
			out[i] = *m.constant
		}
		return Prediction{
			Predicted: out,
			Lower:     append([]float64(nil), out...),
			Upper:     append([]float64(nil), out...),
		}, nil
	}
	if m.trend != nil {
		width := m.opt.IntervalWidth
		if width <= 0 {
			width = defaultIntervalWidth
		}
		return m.trend.predict(t, width), nil
	}
	if m.f == nil {
		return Prediction{}, errNotFitted
	}

	res, err := predictForecaster(m.f, t)
	if err != nil {
		return Prediction{}, err
	}

	pred := Prediction{
		Predicted: res.Forecast,
		Lower:     res.Lower,
		Upper:     res.Upper,
	}
	if m.opt.IntervalWidth <= 0 {
		return pred, nil
	}

	half := bandHalfWidth(m.opt.IntervalWidth, m.sigma)
	pred.Lower = make([]float64, len(res.Forecast))
	pred.Upper = make([]float64, len(res.Forecast))
	for i, v := range res.Forecast {
		pred.Lower[i] = v - half
		pred.Upper[i] = v + half
	}
	return pred, nil
}

// fitForecaster turns a panic inside go-forecaster into an error.
func fitForecaster(t []time.Time, y []float64) (f *forecaster.Forecaster, err error) {
	defer func() {
		if r := recover(); r != nil {
			f, err = nil, fmt.Errorf("go-forecaster fit: %v", r)
		}
	}()

	f, err = forecaster.New(nil)
	if err != nil {
		return nil, fmt.Errorf("init forecaster: %w", err)
	}
	if err := f.Fit(t, y); err != nil {
		return nil, err
	}
	return f, nil
}

func predictForecaster(f *forecaster.Forecaster, t []time.Time) (res *forecaster.Results, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("go-forecaster predict: %v", r)
		}
	}()
	return f.Predict(t)
}

func bandHalfWidth(width, sigma float64) float64 {
	return distuv.UnitNormal.Quantile(0.5+width/2) * sigma
}

// linearTrend is a least-squares line over days since the first sample.
type linearTrend struct {
	t0           time.Time
	alpha, beta  float64
	residualStdv float64
}

func fitLinearTrend(t []time.Time, y []float64) *linearTrend {
	lt := &linearTrend{t0: t[0]}
	x := lt.days(t)
	lt.alpha, lt.beta = stat.LinearRegression(x, y, nil, false)

	residuals := make([]float64, len(y))
	for i := range y {
		residuals[i] = y[i] - (lt.alpha + lt.beta*x[i])
	}
	lt.residualStdv = stat.StdDev(residuals, nil)
	return lt
}

func (lt *linearTrend) days(t []time.Time) []float64 {
	x := make([]float64, len(t))
	for i, ts := range t {
		x[i] = ts.Sub(lt.t0).Hours() / 24
	}
	return x
}

func (lt *linearTrend) predict(t []time.Time, width float64) Prediction {
	half := bandHalfWidth(width, lt.residualStdv)
	p := Prediction{
		Predicted: make([]float64, len(t)),
		Lower:     make([]float64, len(t)),
		Upper:     make([]float64, len(t)),
	}
	for i, x := range lt.days(t) {
		v := lt.alpha + lt.beta*x
		p.Predicted[i] = v
		p.Lower[i] = v - half
		p.Upper[i] = v + half
	}
	return p
}
