package history

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/zkovac/bunplan/pkg/demand"
)

// Synthetic demand parameters for the demo outlet: weekdays run 300–350
// buns, weekends 400–450, rain knocks off 20%, hot sunny days add 15%
// (the terrace fills up). Temperatures follow a continental seasonal cycle.
const (
	weekdayBase = 325.0
	weekendBase = 425.0
	rainEffect  = -0.20
	heatEffect  = 0.15
)

// Generate produces days of synthetic consecutive daily records starting at
// start, with a clear weekly/seasonal pattern plus weather correlation.
// Deterministic for a given seed; used by cmd/genhistory to seed demo
// databases and by tests that need a realistic batch.
func Generate(start time.Time, days int, seed uint64) []demand.DailyRecord {
	rng := rand.New(rand.NewPCG(seed, 0))

	out := make([]demand.DailyRecord, days)
	for i := 0; i < days; i++ {
		date := start.AddDate(0, 0, i)

		// Seasonal temperature: peak mid-July, trough mid-January.
		yearDay := float64(date.YearDay())
		temp := 11 + 11*math.Sin(2*math.Pi*(yearDay-105)/365)
		temp += rng.Float64()*6 - 3
		temp = math.Round(temp*10) / 10

		// Roughly one day in three sees measurable rain.
		precip := 0.0
		if rng.Float64() < 0.33 {
			precip = math.Round(rng.Float64()*12*10) / 10
		}

		base := weekdayBase
		wd := date.Weekday()
		if wd == time.Saturday || wd == time.Sunday {
			base = weekendBase
		}
		base += base * 0.04 * math.Sin(2*math.Pi*(yearDay-105)/365) // busier in summer

		units := base
		if precip > demand.RainThresholdMM {
			units += units * rainEffect
		}
		if temp > demand.HotSunnyThresholdC {
			units += units * heatEffect
		}
		units += rng.Float64()*30 - 15

		if units < 1 {
			units = 1
		}

		t, p := temp, precip
		out[i] = demand.DailyRecord{
			Date:          date,
			UnitsConsumed: int(math.Round(units)),
			Temperature:   &t,
			Precipitation: &p,
		}
	}
	return out
}
