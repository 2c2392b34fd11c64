package demand

import (
	"errors"
	"testing"
	"time"
)

// consecutiveDays builds n records one day apart starting at start.
func consecutiveDays(start time.Time, n int) []DailyRecord {
	out := make([]DailyRecord, n)
	for i := 0; i < n; i++ {
		out[i] = DailyRecord{
			Date:          start.AddDate(0, 0, i),
			UnitsConsumed: 300 + i%50,
			Temperature:   f64(15),
			Precipitation: f64(0),
		}
	}
	return out
}

func TestSplitTrainTest_TemporalInvariant(t *testing.T) {
	records := consecutiveDays(date(2021, time.January, 1), 1460)

	train, test, err := SplitTrainTest(records, 1)
	if err != nil {
		t.Fatalf("SplitTrainTest() error = %v", err)
	}
	if len(train) == 0 || len(test) == 0 {
		t.Fatalf("split produced empty side: train=%d test=%d", len(train), len(test))
	}
	if len(train)+len(test) != len(records) {
		t.Errorf("split dropped rows: %d + %d != %d", len(train), len(test), len(records))
	}

	// Every test date strictly after every train date.
	var latestTrain time.Time
	for _, r := range train {
		if r.Date.After(latestTrain) {
			latestTrain = r.Date
		}
	}
	for _, r := range test {
		if !r.Date.After(latestTrain) {
			t.Fatalf("test date %s not after last train date %s", r.Date, latestTrain)
		}
	}

	// The held-out window is 12 months of the data's own range.
	cutoff := records[len(records)-1].Date.AddDate(0, -12, 0)
	for _, r := range test {
		if !r.Date.After(cutoff) {
			t.Errorf("test date %s on or before cutoff %s", r.Date, cutoff)
		}
	}
}

func TestSplitTrainTest_Errors(t *testing.T) {
	tests := []struct {
		name    string
		records []DailyRecord
		minRows int
		wantErr any
	}{
		{
			name:    "empty batch",
			records: nil,
			minRows: 1,
			wantErr: &InputShapeError{},
		},
		{
			name:    "below minimum rows",
			records: consecutiveDays(date(2024, time.January, 1), 10),
			minRows: 60,
			wantErr: &InputShapeError{},
		},
		{
			name: "all records inside the test window",
			// 30 consecutive days: everything falls within 12 months of
			// the latest date, leaving the train side empty.
			records: consecutiveDays(date(2024, time.June, 1), 30),
			minRows: 1,
			wantErr: &TemporalOrderingError{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := SplitTrainTest(tt.records, tt.minRows)
			if err == nil {
				t.Fatal("SplitTrainTest() error = nil, want error")
			}
			switch tt.wantErr.(type) {
			case *InputShapeError:
				var e *InputShapeError
				if !errors.As(err, &e) {
					t.Errorf("error = %v, want InputShapeError", err)
				}
			case *TemporalOrderingError:
				var e *TemporalOrderingError
				if !errors.As(err, &e) {
					t.Errorf("error = %v, want TemporalOrderingError", err)
				}
			}
		})
	}
}

func TestSortByDate(t *testing.T) {
	records := []DailyRecord{
		rec(2024, time.March, 3, 300, nil, nil),
		rec(2024, time.March, 1, 310, nil, nil),
		rec(2024, time.March, 2, 320, nil, nil),
	}

	sorted := SortByDate(records)
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Date.Before(sorted[i-1].Date) {
			t.Fatalf("not sorted at %d: %v", i, sorted)
		}
	}
	// Input untouched.
	if !records[0].Date.Equal(date(2024, time.March, 3)) {
		t.Error("SortByDate mutated its input")
	}
}
