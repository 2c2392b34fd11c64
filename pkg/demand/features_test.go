package demand

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func f64(v float64) *float64 { return &v }

func rec(y int, m time.Month, d int, units int, temp, precip *float64) DailyRecord {
	return DailyRecord{Date: date(y, m, d), UnitsConsumed: units, Temperature: temp, Precipitation: precip}
}

func TestBuilder_Fit_FeatureValues(t *testing.T) {
	// 2024-06-15 is a Saturday.
	records := []DailyRecord{
		rec(2024, time.June, 15, 400, f64(28.0), f64(0.0)),
	}

	b := NewBuilder()
	got, err := b.Fit(records)
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Fit() returned %d rows, want 1", len(got))
	}

	want := []float64{
		5,    // day_of_week: Saturday, Monday-indexed
		6,    // month
		2024, // year
		1,    // is_weekend
		28.0, // temperature
		0.0,  // precipitation
		0,    // is_rain
		1,    // is_hot_sunny (28 > 25)
	}
	if !reflect.DeepEqual(got[0], want) {
		t.Errorf("feature vector = %v, want %v", got[0], want)
	}
}

func TestBuilder_Thresholds(t *testing.T) {
	tests := []struct {
		name      string
		temp      float64
		precip    float64
		wantRain  float64
		wantSunny float64
	}{
		{"exactly at rain threshold", 20, 1.0, 0, 0},
		{"just above rain threshold", 20, 1.1, 1, 0},
		{"exactly at hot threshold", 25.0, 0, 0, 0},
		{"just above hot threshold", 25.1, 0, 0, 1},
		{"hot and raining", 30, 5, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder()
			got, err := b.Fit([]DailyRecord{rec(2024, time.July, 1, 300, f64(tt.temp), f64(tt.precip))})
			if err != nil {
				t.Fatalf("Fit() error = %v", err)
			}
			if got[0][6] != tt.wantRain {
				t.Errorf("is_rain = %v, want %v", got[0][6], tt.wantRain)
			}
			if got[0][7] != tt.wantSunny {
				t.Errorf("is_hot_sunny = %v, want %v", got[0][7], tt.wantSunny)
			}
		})
	}
}

func TestBuilder_MedianImpute(t *testing.T) {
	records := []DailyRecord{
		rec(2024, time.March, 1, 300, f64(10), f64(0)),
		rec(2024, time.March, 2, 310, nil, nil), // missing weather
		rec(2024, time.March, 3, 320, f64(20), f64(2)),
		rec(2024, time.March, 4, 330, f64(14), f64(0)),
	}

	b := NewBuilder()
	got, err := b.Fit(records)
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	if b.TempMedian() != 14 {
		t.Errorf("TempMedian() = %v, want 14", b.TempMedian())
	}
	if got[1][4] != 14 {
		t.Errorf("imputed temperature = %v, want batch median 14", got[1][4])
	}
	if got[1][5] != 0 {
		t.Errorf("imputed precipitation = %v, want 0", got[1][5])
	}
}

func TestBuilder_Transform_UsesTrainingMedian(t *testing.T) {
	train := []DailyRecord{
		rec(2024, time.January, 1, 300, f64(5), f64(0)),
		rec(2024, time.January, 2, 300, f64(7), f64(0)),
		rec(2024, time.January, 3, 300, f64(9), f64(0)),
	}
	b := NewBuilder()
	if _, err := b.Fit(train); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	// A scoring batch with very different temperatures and one missing
	// value: the impute must come from the training median (7), never
	// from the scoring batch itself.
	score := []DailyRecord{
		rec(2024, time.July, 1, 400, f64(30), f64(0)),
		rec(2024, time.July, 2, 400, nil, f64(0)),
	}
	got, err := b.Transform(score)
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}
	if got[1][4] != 7 {
		t.Errorf("scored missing temperature = %v, want training median 7", got[1][4])
	}
}

func TestBuilder_Purity_And_OrderEquivariance(t *testing.T) {
	records := []DailyRecord{
		rec(2024, time.May, 1, 300, f64(12), f64(0)),
		rec(2024, time.May, 2, 310, f64(18), f64(3)),
		rec(2024, time.May, 3, 290, f64(26), f64(0)),
	}

	b := NewBuilder()
	first, err := b.Fit(records)
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	second, err := b.Fit(records)
	if err != nil {
		t.Fatalf("second Fit() error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("two Fit() calls on the same batch differ")
	}

	reversed := []DailyRecord{records[2], records[1], records[0]}
	b2 := NewBuilder()
	rev, err := b2.Fit(reversed)
	if err != nil {
		t.Fatalf("Fit(reversed) error = %v", err)
	}
	for i := range records {
		if !reflect.DeepEqual(first[i], rev[len(rev)-1-i]) {
			t.Errorf("row %d not order-equivariant: %v vs %v", i, first[i], rev[len(rev)-1-i])
		}
	}
}

func TestBuilder_Fit_Errors(t *testing.T) {
	tests := []struct {
		name    string
		records []DailyRecord
	}{
		{"empty batch", nil},
		{"no temperature at all", []DailyRecord{
			rec(2024, time.May, 1, 300, nil, f64(0)),
			rec(2024, time.May, 2, 310, nil, nil),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder()
			_, err := b.Fit(tt.records)
			var shapeErr *InputShapeError
			if !errors.As(err, &shapeErr) {
				t.Errorf("Fit() error = %v, want InputShapeError", err)
			}
		})
	}
}

func TestBuilder_Transform_BeforeFit(t *testing.T) {
	b := NewBuilder()
	_, err := b.Transform([]DailyRecord{rec(2024, time.May, 1, 300, f64(10), f64(0))})
	var shapeErr *InputShapeError
	if !errors.As(err, &shapeErr) {
		t.Errorf("Transform() before Fit error = %v, want InputShapeError", err)
	}
}

func TestOutlookFeatures_HotSunnyDay(t *testing.T) {
	// 7-day outlook, all fields present, 28°C on day 3 only.
	days := make([]OutlookDay, 7)
	for i := range days {
		temp := 18.0
		if i == 2 {
			temp = 28.0
		}
		days[i] = OutlookDay{
			Date:          date(2024, time.August, 1+i),
			Temperature:   f64(temp),
			Precipitation: f64(0),
			Conditions:    "Clear",
		}
	}

	got, err := OutlookFeatures(days)
	if err != nil {
		t.Fatalf("OutlookFeatures() error = %v", err)
	}
	for i, row := range got {
		want := 0.0
		if i == 2 {
			want = 1.0
		}
		if row[7] != want {
			t.Errorf("day %d is_hot_sunny = %v, want %v", i, row[7], want)
		}
	}
}

func TestOutlookFeatures_MissingWeather(t *testing.T) {
	tests := []struct {
		name string
		day  OutlookDay
	}{
		{"missing temperature", OutlookDay{Date: date(2024, time.August, 1), Precipitation: f64(0)}},
		{"missing precipitation", OutlookDay{Date: date(2024, time.August, 1), Temperature: f64(20)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := OutlookFeatures([]OutlookDay{tt.day})
			var forecastErr *ForecastInputError
			if !errors.As(err, &forecastErr) {
				t.Errorf("OutlookFeatures() error = %v, want ForecastInputError", err)
			}
		})
	}
}

func TestMondayIndexed(t *testing.T) {
	// 2024-06-10 is a Monday.
	for i := 0; i < 7; i++ {
		d := date(2024, time.June, 10+i)
		if got := mondayIndexed(d.Weekday()); got != i {
			t.Errorf("mondayIndexed(%s) = %d, want %d", d.Weekday(), got, i)
		}
	}
}

func TestRoundUnits(t *testing.T) {
	tests := []struct {
		raw  float64
		want int
	}{
		{10.4, 10},
		{10.6, 11},
		{0.2, 0},
		{-3.7, 0},
		{0, 0},
	}
	for _, tt := range tests {
		if got := roundUnits(tt.raw); got != tt.want {
			t.Errorf("roundUnits(%v) = %d, want %d", tt.raw, got, tt.want)
		}
	}
}

func TestMedian(t *testing.T) {
	tests := []struct {
		values []float64
		want   float64
	}{
		{[]float64{3, 1, 2}, 2},
		{[]float64{4, 1, 3, 2}, 2.5},
		{[]float64{5}, 5},
	}
	for _, tt := range tests {
		if got := median(tt.values); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("median(%v) = %v, want %v", tt.values, got, tt.want)
		}
	}
}
