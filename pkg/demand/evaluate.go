package demand

import (
	"math"
	"time"
)

// Regressor is the trained model surface the core consumes. pkg/forest
// satisfies it; evaluation and forecasting never need anything beyond a
// read-only batch predict.
type Regressor interface {
	PredictBatch(X [][]float64) []float64
}

// Residual is one test day's outcome. Error is predicted minus actual:
// positive means over-ordered, negative means under.
type Residual struct {
	Date      time.Time `json:"date"`
	Actual    int       `json:"actual"`
	Predicted int       `json:"predicted"`
	Error     int       `json:"error"`
	ErrorPct  float64   `json:"error_pct"`
}

// EvaluationResult holds aggregate accuracy on the held-out window plus
// per-day residuals in the test batch's own (chronological) order.
type EvaluationResult struct {
	MAE       float64    `json:"mae"`
	MAPE      float64    `json:"mape"`
	Residuals []Residual `json:"residuals"`
}

// Evaluate scores a trained model against held-out days. features must be
// built with the training batch's Builder (train-median imputation), aligned
// row-for-row with test.
//
// Predictions are rounded to the nearest non-negative integer before error
// computation: the real-world quantity is discrete, so accuracy is measured
// on the quantity that would actually be ordered. MAPE divides by the actual
// value per day and is undefined when any actual is zero; that is surfaced
// as ZeroActualError, never averaged over.
func Evaluate(model Regressor, test []DailyRecord, features [][]float64) (*EvaluationResult, error) {
	if len(test) == 0 {
		return nil, &InputShapeError{Reason: "empty test batch"}
	}
	if len(features) != len(test) {
		return nil, &InputShapeError{Reason: "feature rows do not match test batch"}
	}
	for _, r := range test {
		if r.UnitsConsumed == 0 {
			return nil, &ZeroActualError{Date: r.Date}
		}
	}

	raw := model.PredictBatch(features)

	residuals := make([]Residual, len(test))
	var absSum, pctSum float64
	for i, r := range test {
		pred := roundUnits(raw[i])
		errUnits := pred - r.UnitsConsumed
		pct := float64(errUnits) / float64(r.UnitsConsumed) * 100

		residuals[i] = Residual{
			Date:      r.Date,
			Actual:    r.UnitsConsumed,
			Predicted: pred,
			Error:     errUnits,
			ErrorPct:  math.Round(pct*10) / 10,
		}
		absSum += math.Abs(float64(errUnits))
		pctSum += math.Abs(pct)
	}

	n := float64(len(test))
	return &EvaluationResult{
		MAE:       absSum / n,
		MAPE:      pctSum / n,
		Residuals: residuals,
	}, nil
}

// anomalyFactor is the suggested "investigate" threshold: days missed by
// more than this many multiples of the MAE.
const anomalyFactor = 2.0

// Anomalies returns the residuals whose absolute error exceeds 2×MAE, in
// their original order. A display hint for the reporting layer, not an
// enforced contract.
func (r *EvaluationResult) Anomalies() []Residual {
	limit := anomalyFactor * r.MAE
	var out []Residual
	for _, res := range r.Residuals {
		if math.Abs(float64(res.Error)) > limit {
			out = append(out, res)
		}
	}
	return out
}
