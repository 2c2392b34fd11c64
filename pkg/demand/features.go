package demand

import (
	"math"
	"sort"
	"time"
)

// FeatureNames is the fixed feature set, in column order. The model, the
// importance report, and every feature matrix in the system use this order.
var FeatureNames = []string{
	"day_of_week",   // 0 = Monday … 6 = Sunday
	"month",         // 1–12, captures seasonality
	"year",          // captures growth trend across years
	"is_weekend",    // 1 on Saturday and Sunday
	"temperature",   // daily average °C
	"precipitation", // daily total mm
	"is_rain",       // 1 when precipitation > 1mm
	"is_hot_sunny",  // 1 when temperature > 25°C (terrace effect)
}

// NumFeatures is the width of every feature vector.
const NumFeatures = 8

// Fixed thresholds for the binary weather flags. These are domain constants,
// never inferred from data.
const (
	RainThresholdMM    = 1.0
	HotSunnyThresholdC = 25.0
)

// Builder derives feature vectors from daily records. Fit captures the
// training batch's median temperature, which is the only batch-dependent
// step in feature construction; Transform reuses it so that held-out or
// future rows are never imputed from their own batch.
type Builder struct {
	tempMedian float64
	fitted     bool
}

// NewBuilder returns an unfitted Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Fit computes the batch's median temperature and returns one feature vector
// per record, in input order, with no dropped rows. Missing temperature is
// imputed with that median; missing precipitation with zero.
//
// Fails with InputShapeError when the batch is empty or carries no
// temperature observation at all (there is nothing to impute from).
func (b *Builder) Fit(records []DailyRecord) ([][]float64, error) {
	if len(records) == 0 {
		return nil, &InputShapeError{Reason: "empty batch"}
	}

	temps := make([]float64, 0, len(records))
	for _, r := range records {
		if r.Temperature != nil {
			temps = append(temps, *r.Temperature)
		}
	}
	if len(temps) == 0 {
		return nil, &InputShapeError{Reason: "no temperature observations to impute from"}
	}

	b.tempMedian = median(temps)
	b.fitted = true
	return b.Transform(records)
}

// Transform builds feature vectors using the median captured by Fit.
// It is pure and order-preserving: the i-th output row is derived from the
// i-th input record and from nothing else.
func (b *Builder) Transform(records []DailyRecord) ([][]float64, error) {
	if !b.fitted {
		return nil, &InputShapeError{Reason: "builder not fitted"}
	}

	out := make([][]float64, len(records))
	for i, r := range records {
		temp := b.tempMedian
		if r.Temperature != nil {
			temp = *r.Temperature
		}
		precip := 0.0
		if r.Precipitation != nil {
			precip = *r.Precipitation
		}
		out[i] = featureVector(r.Date, temp, precip)
	}
	return out, nil
}

// TempMedian returns the training batch median captured by Fit.
func (b *Builder) TempMedian() float64 {
	return b.tempMedian
}

// OutlookFeatures builds feature vectors for future outlook days. There is
// no batch to take a median from, so missing temperature or precipitation is
// a ForecastInputError rather than a silent impute.
func OutlookFeatures(days []OutlookDay) ([][]float64, error) {
	out := make([][]float64, len(days))
	for i, d := range days {
		if d.Temperature == nil {
			return nil, &ForecastInputError{Reason: "missing temperature on " + d.Date.Format("2006-01-02")}
		}
		if d.Precipitation == nil {
			return nil, &ForecastInputError{Reason: "missing precipitation on " + d.Date.Format("2006-01-02")}
		}
		out[i] = featureVector(d.Date, *d.Temperature, *d.Precipitation)
	}
	return out, nil
}

// featureVector derives the 8 features for one day. Deterministic in its
// arguments; the same function serves historical and future rows.
func featureVector(date time.Time, temp, precip float64) []float64 {
	dow := mondayIndexed(date.Weekday())

	v := make([]float64, NumFeatures)
	v[0] = float64(dow)
	v[1] = float64(date.Month())
	v[2] = float64(date.Year())
	if dow >= 5 {
		v[3] = 1
	}
	v[4] = temp
	v[5] = precip
	if precip > RainThresholdMM {
		v[6] = 1
	}
	if temp > HotSunnyThresholdC {
		v[7] = 1
	}
	return v
}

// mondayIndexed converts Go's Sunday-first weekday to 0=Monday … 6=Sunday.
func mondayIndexed(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

func median(values []float64) float64 {
	s := make([]float64, len(values))
	copy(s, values)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

// Targets extracts the prediction target (units consumed) from a batch,
// aligned with the feature rows Fit/Transform produce for it.
func Targets(records []DailyRecord) []float64 {
	y := make([]float64, len(records))
	for i, r := range records {
		y[i] = float64(r.UnitsConsumed)
	}
	return y
}

// roundUnits rounds a raw regression output to the nearest non-negative
// integer. Buns are discrete; every externally visible quantity is rounded.
func roundUnits(raw float64) int {
	if raw < 0 {
		return 0
	}
	return int(math.Round(raw))
}
