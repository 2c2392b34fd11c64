// Package main implements the bunplan forecast pipeline orchestration.
//
// The Pipeline runs one complete forecast cycle per Tick:
//
//	load history → split → build features → train (or reuse cached model) →
//	evaluate → rank importances → fetch outlook → project plan → store snapshot
//
// Ticks run on the configured cron schedule plus once at startup. A failed
// tick is a local failure: it is logged and counted, and the previously
// stored snapshot keeps serving.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/zkovac/bunplan/cmd/bunplan/metrics"
	"github.com/zkovac/bunplan/pkg/demand"
	"github.com/zkovac/bunplan/pkg/forest"
	"github.com/zkovac/bunplan/pkg/storage"
)

// RecordSource supplies the historical daily aggregate feed, ordered by day.
type RecordSource interface {
	All() ([]demand.DailyRecord, error)
}

// OutlookSource supplies the 7-day future weather outlook.
type OutlookSource interface {
	Outlook(ctx context.Context) ([]demand.OutlookDay, error)
}

// Pipeline orchestrates the forecast cycle for one outlet.
type Pipeline struct {
	location  string
	records   RecordSource
	outlook   OutlookSource
	store     storage.Store
	cache     *storage.ModelCache
	forestCfg forest.Config
	bunCost   float64
	minRows   int
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// NewPipeline creates a Pipeline.
func NewPipeline(
	location string,
	records RecordSource,
	outlook OutlookSource,
	store storage.Store,
	cache *storage.ModelCache,
	forestCfg forest.Config,
	bunCost float64,
	minRows int,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		location:  location,
		records:   records,
		outlook:   outlook,
		store:     store,
		cache:     cache,
		forestCfg: forestCfg,
		bunCost:   bunCost,
		minRows:   minRows,
		logger:    logger,
		metrics:   m,
	}
}

// Tick performs one forecast cycle. Exported for testing.
func (p *Pipeline) Tick(ctx context.Context) error {
	start := time.Now()
	p.logger.Debug("starting forecast tick")

	records, err := p.records.All()
	if err != nil {
		p.recordError("history", "load_failed")
		return fmt.Errorf("load history: %w", err)
	}

	train, test, err := demand.SplitTrainTest(records, p.minRows)
	if err != nil {
		p.recordError("split", "invalid_batch")
		return fmt.Errorf("split: %w", err)
	}

	builder := demand.NewBuilder()
	trainX, err := builder.Fit(train)
	if err != nil {
		p.recordError("features", "fit_failed")
		return fmt.Errorf("build train features: %w", err)
	}
	// Held-out rows are imputed with the training batch's median, never
	// their own.
	testX, err := builder.Transform(test)
	if err != nil {
		p.recordError("features", "transform_failed")
		return fmt.Errorf("build test features: %w", err)
	}

	model, trainDuration, cached, err := p.trainOrReuse(train, trainX)
	if err != nil {
		p.recordError("model", "train_failed")
		return fmt.Errorf("train: %w", err)
	}

	evalStart := time.Now()
	result, err := demand.Evaluate(model, test, testX)
	if err != nil {
		p.recordError("model", "evaluate_failed")
		return fmt.Errorf("evaluate: %w", err)
	}
	evalDuration := time.Since(evalStart)
	if p.metrics != nil {
		p.metrics.RecordEvaluate(evalDuration.Seconds())
		p.metrics.SetAccuracy(result.MAE, result.MAPE)
	}

	importance, err := model.ImportanceMap(demand.FeatureNames)
	if err != nil {
		p.recordError("model", "importance_failed")
		return fmt.Errorf("feature importance: %w", err)
	}

	outlookStart := time.Now()
	outlook, err := p.outlook.Outlook(ctx)
	if err != nil {
		p.recordError("weather", "outlook_failed")
		return fmt.Errorf("fetch outlook: %w", err)
	}
	if p.metrics != nil {
		p.metrics.RecordWeather(time.Since(outlookStart).Seconds())
	}

	forecastStart := time.Now()
	plan, err := demand.Forecast(model, result.MAE, outlook, p.bunCost)
	if err != nil {
		p.recordError("forecast", "project_failed")
		return fmt.Errorf("project plan: %w", err)
	}
	forecastDuration := time.Since(forecastStart)
	if p.metrics != nil {
		p.metrics.RecordForecast(forecastDuration.Seconds())
		p.metrics.SetPredictedUnits(float64(plan[0].PredictedUnits))
	}

	snapshot := storage.Snapshot{
		Location:    p.location,
		GeneratedAt: time.Now(),
		MAE:         result.MAE,
		MAPE:        result.MAPE,
		Importance:  importance,
		Residuals:   result.Residuals,
		Anomalies:   result.Anomalies(),
		Plan:        plan,
	}
	if err := p.store.Put(ctx, snapshot); err != nil {
		p.recordError("store", "put_failed")
		return fmt.Errorf("store snapshot: %w", err)
	}

	p.logger.Info("forecast tick complete",
		"location", p.location,
		"rows", len(records),
		"train_rows", len(train),
		"test_rows", len(test),
		"mae", fmt.Sprintf("%.1f", result.MAE),
		"mape", fmt.Sprintf("%.1f", result.MAPE),
		"anomalies", len(snapshot.Anomalies),
		"model_cached", cached,
		"train_ms", trainDuration.Milliseconds(),
		"evaluate_ms", evalDuration.Milliseconds(),
		"total_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// trainOrReuse returns the forest for the current training batch, consulting
// the model cache first. A change in the data or hyperparameters produces a
// different key, so a stale model is never reused.
func (p *Pipeline) trainOrReuse(train []demand.DailyRecord, trainX [][]float64) (*forest.Forest, time.Duration, bool, error) {
	key := storage.Key(train, p.forestCfg)
	if model, ok := p.cache.Get(key); ok {
		if p.metrics != nil {
			p.metrics.RecordCacheHit()
		}
		p.logger.Debug("reusing cached model", "key", key[:12])
		return model, 0, true, nil
	}

	start := time.Now()
	model, err := forest.Train(trainX, demand.Targets(train), p.forestCfg)
	if err != nil {
		return nil, 0, false, err
	}
	duration := time.Since(start)
	if p.metrics != nil {
		p.metrics.RecordTrain(duration.Seconds())
	}

	// A miss means the data or hyperparameters changed, so every earlier
	// model is superseded. Drop them before caching the new one; otherwise
	// a daily retrain accumulates one stale forest per tick forever.
	p.cache.Invalidate()
	p.cache.Put(key, model)
	return model, duration, false, nil
}

func (p *Pipeline) recordError(component, reason string) {
	if p.metrics != nil {
		p.metrics.RecordError(component, reason)
	}
}
