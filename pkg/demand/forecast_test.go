package demand

import (
	"errors"
	"math"
	"testing"
	"time"
)

func sevenDayOutlook() []OutlookDay {
	days := make([]OutlookDay, 7)
	for i := range days {
		days[i] = OutlookDay{
			Date:          date(2024, time.September, 2+i), // starts on a Monday
			Temperature:   f64(18 + float64(i)),
			Precipitation: f64(0),
			Conditions:    "Clear",
		}
	}
	return days
}

func TestForecast_Plan(t *testing.T) {
	outlook := sevenDayOutlook()
	model := &fixedModel{preds: []float64{310.2, 305.8, 300, 295, 320, 410, 420}}

	plan, err := Forecast(model, 12.0, outlook, 0.35)
	if err != nil {
		t.Fatalf("Forecast() error = %v", err)
	}
	if len(plan) != 7 {
		t.Fatalf("got %d plan days, want 7", len(plan))
	}

	// Order matches the outlook, day names derive from the dates.
	if plan[0].DayName != "Monday" || plan[6].DayName != "Sunday" {
		t.Errorf("day names = %s … %s, want Monday … Sunday", plan[0].DayName, plan[6].DayName)
	}
	for i, day := range plan {
		if !day.Date.Equal(outlook[i].Date) {
			t.Errorf("day %d date = %s, want %s", i, day.Date, outlook[i].Date)
		}
		if day.Conditions != "Clear" {
			t.Errorf("day %d conditions = %q", i, day.Conditions)
		}
	}

	// 310.2 rounds to 310; safety = ceil(310 + 1.28×12) = ceil(325.36) = 326.
	if plan[0].PredictedUnits != 310 {
		t.Errorf("day 0 predicted = %d, want 310", plan[0].PredictedUnits)
	}
	if plan[0].SafetyStockUnits != 326 {
		t.Errorf("day 0 safety stock = %d, want 326", plan[0].SafetyStockUnits)
	}
}

func TestForecast_SafetyStockMonotonic(t *testing.T) {
	outlook := sevenDayOutlook()
	model := &fixedModel{preds: []float64{0, 1, 100, 250.5, 300, 450, 999}}

	for _, mae := range []float64{0, 0.5, 7.3, 40} {
		plan, err := Forecast(model, mae, outlook, 0.35)
		if err != nil {
			t.Fatalf("Forecast(mae=%v) error = %v", mae, err)
		}
		for i, day := range plan {
			if day.SafetyStockUnits < day.PredictedUnits {
				t.Errorf("mae=%v day %d: safety %d < predicted %d",
					mae, i, day.SafetyStockUnits, day.PredictedUnits)
			}
		}
	}
}

func TestForecast_CostLinearity(t *testing.T) {
	outlook := sevenDayOutlook()
	model := &fixedModel{preds: []float64{100, 200, 300, 151, 152, 153, 154}}

	const bunCost = 0.35
	plan, err := Forecast(model, 5, outlook, bunCost)
	if err != nil {
		t.Fatalf("Forecast() error = %v", err)
	}
	for i, day := range plan {
		want := math.Round(float64(day.PredictedUnits)*bunCost*100) / 100
		if day.EstimatedCost != want {
			t.Errorf("day %d cost = %v, want %v", i, day.EstimatedCost, want)
		}
	}
}

func TestForecast_ShortOutlook(t *testing.T) {
	outlook := sevenDayOutlook()[:5]
	model := &fixedModel{preds: []float64{100, 100, 100, 100, 100}}

	plan, err := Forecast(model, 5, outlook, 0.35)
	var forecastErr *ForecastInputError
	if !errors.As(err, &forecastErr) {
		t.Fatalf("Forecast() error = %v, want ForecastInputError", err)
	}
	if plan != nil {
		t.Error("Forecast() returned a partial plan alongside the error")
	}
}

func TestForecast_MissingWeather(t *testing.T) {
	outlook := sevenDayOutlook()
	outlook[3].Temperature = nil
	model := &fixedModel{preds: []float64{100, 100, 100, 100, 100, 100, 100}}

	_, err := Forecast(model, 5, outlook, 0.35)
	var forecastErr *ForecastInputError
	if !errors.As(err, &forecastErr) {
		t.Fatalf("Forecast() error = %v, want ForecastInputError", err)
	}
}

func TestForecast_InvalidInputs(t *testing.T) {
	outlook := sevenDayOutlook()
	model := &fixedModel{preds: []float64{100, 100, 100, 100, 100, 100, 100}}

	var forecastErr *ForecastInputError
	if _, err := Forecast(model, -1, outlook, 0.35); !errors.As(err, &forecastErr) {
		t.Errorf("negative mae: error = %v, want ForecastInputError", err)
	}
	if _, err := Forecast(model, 5, outlook, -0.10); !errors.As(err, &forecastErr) {
		t.Errorf("negative cost: error = %v, want ForecastInputError", err)
	}
}
