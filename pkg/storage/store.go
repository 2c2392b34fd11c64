// Package storage provides order-plan snapshot storage and the trained-model
// cache.
//
// Every pipeline tick produces one Snapshot per location: the 7-day order
// plan plus the evaluation of the model that produced it. The reporting
// layer reads the latest snapshot over HTTP; if a tick fails, the previous
// snapshot keeps serving.
package storage

import (
	"context"
	"time"

	"github.com/zkovac/bunplan/pkg/demand"
)

// Snapshot is the full output of one forecast pipeline run.
type Snapshot struct {
	Location    string    `json:"location"`
	GeneratedAt time.Time `json:"generated_at"`

	// Accuracy of the model on the held-out test window.
	MAE  float64 `json:"mae"`
	MAPE float64 `json:"mape"`

	// Importance maps each feature name to its share of the model's
	// predictive contribution (sums to 1).
	Importance map[string]float64 `json:"importance"`

	// Residuals are the per-day test outcomes, chronological.
	Residuals []demand.Residual `json:"residuals"`

	// Anomalies are the test days missed by more than 2×MAE, flagged for
	// the reporting layer to surface.
	Anomalies []demand.Residual `json:"anomalies,omitempty"`

	// Plan is the 7-day order plan, chronological from tomorrow.
	Plan []demand.ForecastDay `json:"plan"`
}

// Store persists the latest snapshot per location.
type Store interface {
	Put(ctx context.Context, snapshot Snapshot) error
	GetLatest(ctx context.Context, location string) (Snapshot, bool, error)
}
