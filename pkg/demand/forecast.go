package demand

import (
	"fmt"
	"math"
	"time"
)

// ForecastHorizonDays is the fixed order-plan horizon: seven consecutive
// days starting tomorrow.
const ForecastHorizonDays = 7

// safetyZ is the one-sided 90th percentile of a standard normal. With MAE
// standing in for the residual scale, predicted + 1.28×MAE covers demand on
// roughly 9 days out of 10.
const safetyZ = 1.28

// ForecastDay is one day of the order plan handed to the reporting layer.
// PredictedUnits is the P50-equivalent point estimate; SafetyStockUnits is
// the P90-equivalent quantity to order on busy or uncertain days.
type ForecastDay struct {
	Date             time.Time `json:"date"`
	DayName          string    `json:"day_name"`
	PredictedUnits   int       `json:"predicted_units"`
	SafetyStockUnits int       `json:"safety_stock_units"`
	Temperature      float64   `json:"temperature"`
	Conditions       string    `json:"conditions"`
	EstimatedCost    float64   `json:"estimated_cost"`
}

// Forecast projects a trained model onto a 7-day weather outlook and returns
// the order plan in the outlook's own (chronological) order.
//
// The outlook must contain exactly ForecastHorizonDays days, each with
// temperature and precipitation present; anything short of that fails with
// ForecastInputError and no partial plan.
func Forecast(model Regressor, mae float64, outlook []OutlookDay, bunCost float64) ([]ForecastDay, error) {
	if len(outlook) != ForecastHorizonDays {
		return nil, &ForecastInputError{
			Reason: fmt.Sprintf("need %d days of weather, got %d", ForecastHorizonDays, len(outlook)),
		}
	}
	if mae < 0 {
		return nil, &ForecastInputError{Reason: "negative MAE"}
	}
	if bunCost < 0 {
		return nil, &ForecastInputError{Reason: "negative bun cost"}
	}

	features, err := OutlookFeatures(outlook)
	if err != nil {
		return nil, err
	}

	raw := model.PredictBatch(features)

	plan := make([]ForecastDay, len(outlook))
	for i, day := range outlook {
		predicted := roundUnits(raw[i])
		safety := int(math.Ceil(float64(predicted) + safetyZ*mae))

		plan[i] = ForecastDay{
			Date:             day.Date,
			DayName:          day.Date.Weekday().String(),
			PredictedUnits:   predicted,
			SafetyStockUnits: safety,
			Temperature:      *day.Temperature,
			Conditions:       day.Conditions,
			EstimatedCost:    math.Round(float64(predicted)*bunCost*100) / 100,
		}
	}
	return plan, nil
}
