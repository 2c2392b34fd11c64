// Package demand contains the forecasting core for daily bun consumption:
// the data model for historical daily aggregates, feature construction,
// the temporal train/test split, model evaluation, and projection of a
// trained model onto a future weather outlook.
//
// Every operation in this package is a pure function over its explicit
// inputs. The only stateful artifact in the system is the trained forest,
// which is immutable after training (see pkg/forest).
package demand

import (
	"fmt"
	"sort"
	"time"
)

// DailyRecord is one day of historical point-of-sale aggregates joined with
// weather observations. It is assembled upstream (pkg/history) and treated
// as immutable by the core. Temperature and Precipitation are nil when the
// weather observation for that day is missing.
type DailyRecord struct {
	Date          time.Time `json:"date"`
	UnitsConsumed int       `json:"units_consumed"`
	Temperature   *float64  `json:"temperature,omitempty"`
	Precipitation *float64  `json:"precipitation,omitempty"`
}

// OutlookDay is one day of the future weather outlook handed to the core by
// the forecast-retrieval client (pkg/weather). Unlike historical records,
// missing weather here is a hard error: an order recommendation without
// weather input is unreliable.
type OutlookDay struct {
	Date          time.Time `json:"date"`
	Temperature   *float64  `json:"temperature,omitempty"`
	Precipitation *float64  `json:"precipitation,omitempty"`
	Conditions    string    `json:"conditions"`
}

// InputShapeError signals a historical batch that cannot be used: empty,
// below the caller's minimum viable row count, or missing required values.
type InputShapeError struct {
	Reason string
}

func (e *InputShapeError) Error() string {
	return fmt.Sprintf("invalid input batch: %s", e.Reason)
}

// TemporalOrderingError signals that the train/test split produced an empty
// train or test set, which would silently yield a model evaluated on nothing.
type TemporalOrderingError struct {
	Reason string
}

func (e *TemporalOrderingError) Error() string {
	return fmt.Sprintf("temporal split: %s", e.Reason)
}

// ForecastInputError signals a future weather outlook that is short of the
// required horizon or has missing fields. No partial plan is ever returned.
type ForecastInputError struct {
	Reason string
}

func (e *ForecastInputError) Error() string {
	return fmt.Sprintf("invalid forecast input: %s", e.Reason)
}

// ZeroActualError signals a test day with zero units consumed, which makes
// MAPE undefined. Surfaced explicitly rather than emitting Inf into averages.
type ZeroActualError struct {
	Date time.Time
}

func (e *ZeroActualError) Error() string {
	return fmt.Sprintf("cannot compute MAPE: zero units consumed on %s", e.Date.Format("2006-01-02"))
}

// testWindow is the span of the data's own date range held out for testing.
const testWindow = 12 // months

// SplitTrainTest splits historical records temporally: the last 12 months of
// the batch's own date range become the test set, everything before is the
// train set. Input order is preserved within each side.
//
// minRows is the caller's minimum viable batch size; batches smaller than it
// (and always empty batches) are rejected with InputShapeError. A split that
// leaves either side empty is rejected with TemporalOrderingError.
func SplitTrainTest(records []DailyRecord, minRows int) (train, test []DailyRecord, err error) {
	if len(records) == 0 {
		return nil, nil, &InputShapeError{Reason: "empty batch"}
	}
	if len(records) < minRows {
		return nil, nil, &InputShapeError{Reason: fmt.Sprintf("%d rows, need at least %d", len(records), minRows)}
	}

	latest := records[0].Date
	for _, r := range records[1:] {
		if r.Date.After(latest) {
			latest = r.Date
		}
	}
	cutoff := latest.AddDate(0, -testWindow, 0)

	for _, r := range records {
		if r.Date.After(cutoff) {
			test = append(test, r)
		} else {
			train = append(train, r)
		}
	}

	if len(train) == 0 {
		return nil, nil, &TemporalOrderingError{Reason: "no records before the test window"}
	}
	if len(test) == 0 {
		return nil, nil, &TemporalOrderingError{Reason: "no records inside the test window"}
	}
	return train, test, nil
}

// SortByDate returns a copy of records ordered chronologically. The core
// itself never reorders its inputs; this is for callers assembling batches
// from unordered sources.
func SortByDate(records []DailyRecord) []DailyRecord {
	out := make([]DailyRecord, len(records))
	copy(out, records)
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
