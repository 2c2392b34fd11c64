// Package metrics provides Prometheus instrumentation for the forecast
// pipeline.
//
// Metrics exposed:
//   - bunplan_model_train_seconds: Histogram of model training duration
//   - bunplan_model_evaluate_seconds: Histogram of evaluation duration
//   - bunplan_weather_fetch_seconds: Histogram of outlook fetch duration
//   - bunplan_forecast_project_seconds: Histogram of plan projection duration
//   - bunplan_model_mae_buns: Gauge of the current model's MAE
//   - bunplan_model_mape_percent: Gauge of the current model's MAPE
//   - bunplan_predicted_units: Gauge of tomorrow's predicted units
//   - bunplan_model_cache_hits_total: Counter of trained-model cache hits
//   - bunplan_errors_total: Counter of errors by component and reason
//
// All metrics carry the location label.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the pipeline.
type Metrics struct {
	TrainSeconds    prometheus.Histogram
	EvaluateSeconds prometheus.Histogram
	WeatherSeconds  prometheus.Histogram
	ForecastSeconds prometheus.Histogram
	ModelMAE        prometheus.Gauge
	ModelMAPE       prometheus.Gauge
	PredictedUnits  prometheus.Gauge
	CacheHitsTotal  prometheus.Counter
	ErrorsTotal     *prometheus.CounterVec
}

// New creates and registers all pipeline metrics for a location.
func New(location string) *Metrics {
	labels := prometheus.Labels{"location": location}

	return &Metrics{
		TrainSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:        "bunplan_model_train_seconds",
			Help:        "Time spent training the demand model",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}),
		EvaluateSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:        "bunplan_model_evaluate_seconds",
			Help:        "Time spent evaluating the model on the test window",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}),
		WeatherSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:        "bunplan_weather_fetch_seconds",
			Help:        "Time spent fetching the weather outlook",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}),
		ForecastSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:        "bunplan_forecast_project_seconds",
			Help:        "Time spent projecting the 7-day order plan",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}),
		ModelMAE: promauto.NewGauge(prometheus.GaugeOpts{
			Name:        "bunplan_model_mae_buns",
			Help:        "Mean absolute error of the current model, in buns per day",
			ConstLabels: labels,
		}),
		ModelMAPE: promauto.NewGauge(prometheus.GaugeOpts{
			Name:        "bunplan_model_mape_percent",
			Help:        "Mean absolute percentage error of the current model",
			ConstLabels: labels,
		}),
		PredictedUnits: promauto.NewGauge(prometheus.GaugeOpts{
			Name:        "bunplan_predicted_units",
			Help:        "Predicted units for the first day of the current plan",
			ConstLabels: labels,
		}),
		CacheHitsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name:        "bunplan_model_cache_hits_total",
			Help:        "Ticks that reused a cached trained model",
			ConstLabels: labels,
		}),
		ErrorsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name:        "bunplan_errors_total",
			Help:        "Total number of errors by component and reason",
			ConstLabels: labels,
		}, []string{"component", "reason"}),
	}
}

// RecordTrain records training duration.
func (m *Metrics) RecordTrain(seconds float64) {
	m.TrainSeconds.Observe(seconds)
}

// RecordEvaluate records evaluation duration.
func (m *Metrics) RecordEvaluate(seconds float64) {
	m.EvaluateSeconds.Observe(seconds)
}

// RecordWeather records outlook fetch duration.
func (m *Metrics) RecordWeather(seconds float64) {
	m.WeatherSeconds.Observe(seconds)
}

// RecordForecast records plan projection duration.
func (m *Metrics) RecordForecast(seconds float64) {
	m.ForecastSeconds.Observe(seconds)
}

// SetAccuracy publishes the current model's test-window accuracy.
func (m *Metrics) SetAccuracy(mae, mape float64) {
	m.ModelMAE.Set(mae)
	m.ModelMAPE.Set(mape)
}

// SetPredictedUnits publishes the first plan day's point estimate.
func (m *Metrics) SetPredictedUnits(units float64) {
	m.PredictedUnits.Set(units)
}

// RecordCacheHit counts a tick that skipped training.
func (m *Metrics) RecordCacheHit() {
	m.CacheHitsTotal.Inc()
}

// RecordError counts an error by component and reason.
func (m *Metrics) RecordError(component, reason string) {
	m.ErrorsTotal.WithLabelValues(component, reason).Inc()
}
