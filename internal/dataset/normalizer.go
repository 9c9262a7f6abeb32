package dataset

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/maintsense/backend/internal/errs"
	"github.com/maintsense/backend/internal/features"
)

const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

var numericColumns = []string{"temperature", "vibration", "pressure", "runtime"}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"01/02/2006",
}

// Record is one canonical sensor reading. Every numeric field is present
// after normalization; unparseable dates stay nil instead of failing the
// batch.
type Record struct {
	AssetName            string
	Timestamp            *time.Time
	Temperature          float64
	Vibration            float64
	Pressure             float64
	Runtime              float64
	LastMaintenance      string
	TempAnomaly          float64
	VibrationSeverity    string
	DaysSinceMaintenance *int
}

// Batch holds the normalized records of one upload together with the
// batch-level statistics the feature builder folds into each vector.
type Batch struct {
	Records []Record

	present     map[string]bool
	tempStd     float64
	tempMax     float64
	vibMax      float64
	pressureStd float64
}

// Aggregates returns the batch statistics for feature building, with the
// fixed substitution values for columns absent from the upload.
func (b *Batch) Aggregates() features.Aggregates {
	a := features.DefaultAggregates()
	if b.present["temperature"] {
		a.TempStd = b.tempStd
		a.TempMax = b.tempMax
	}
	if b.present["vibration"] {
		a.VibMax = b.vibMax
	}
	if b.present["pressure"] {
		a.PressureStd = b.pressureStd
	}
	return a
}

func (b *Batch) HasColumn(name string) bool {
	return b.present[name]
}

// Normalize turns a parsed table into canonical records: imputes missing
// numeric values with the column median, coerces dates, and computes the
// derived signals. now anchors the maintenance-age calculation.
func Normalize(t *Table, now time.Time) (*Batch, error) {
	if t == nil || len(t.Rows) == 0 {
		return nil, fmt.Errorf("%w: empty table", errs.ErrMalformedInput)
	}

	n := len(t.Rows)
	values := make(map[string][]float64, len(numericColumns))
	present := make(map[string]bool, len(numericColumns))

	for _, col := range numericColumns {
		column := make([]float64, n)
		if !t.HasColumn(col) {
			// Entirely missing column: downstream treats it as all-zero.
			values[col] = column
			continue
		}
		present[col] = true
		for i, row := range t.Rows {
			v, err := strconv.ParseFloat(row[col], 64)
			if err != nil {
				column[i] = math.NaN()
				continue
			}
			column[i] = v
		}
		imputeMedian(column)
		values[col] = column
	}

	temps := values["temperature"]
	tempMean := mean(temps)
	tempStd := populationStd(temps, tempMean)

	batch := &Batch{
		Records:     make([]Record, 0, n),
		present:     present,
		tempStd:     tempStd,
		tempMax:     maxOf(temps),
		vibMax:      maxOf(values["vibration"]),
		pressureStd: populationStd(values["pressure"], mean(values["pressure"])),
	}

	for i, row := range t.Rows {
		rec := Record{
			AssetName:   row["asset_name"],
			Temperature: temps[i],
			Vibration:   values["vibration"][i],
			Pressure:    values["pressure"][i],
			Runtime:     values["runtime"][i],
		}
		if rec.AssetName == "" {
			rec.AssetName = "Asset-" + uuid.NewString()[:8]
		}

		rec.Timestamp = parseTimestamp(row["timestamp"])

		rec.LastMaintenance = row["last_maintenance"]
		if rec.LastMaintenance == "" {
			rec.LastMaintenance = now.Format("2006-01-02")
		}
		if maintDate := parseTimestamp(row["last_maintenance"]); maintDate != nil {
			days := int(now.Sub(*maintDate).Hours() / 24)
			rec.DaysSinceMaintenance = &days
		}

		// Anomaly is defined as 0 for a zero-spread batch.
		if present["temperature"] && tempStd > 0 {
			rec.TempAnomaly = math.Abs(rec.Temperature-tempMean) / tempStd
		}

		rec.VibrationSeverity = vibrationSeverity(rec.Vibration)

		batch.Records = append(batch.Records, rec)
	}

	return batch, nil
}

// vibrationSeverity buckets vibration at the fixed 1.0 and 2.0 breakpoints.
func vibrationSeverity(v float64) string {
	switch {
	case v < 1:
		return SeverityLow
	case v < 2:
		return SeverityMedium
	default:
		return SeverityHigh
	}
}

func parseTimestamp(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return &ts
		}
	}
	return nil
}

// imputeMedian replaces NaN entries in place with the median of the
// remaining values, or 0 when no value parsed at all.
func imputeMedian(column []float64) {
	parsed := make([]float64, 0, len(column))
	for _, v := range column {
		if !math.IsNaN(v) {
			parsed = append(parsed, v)
		}
	}

	median := 0.0
	if len(parsed) > 0 {
		sort.Float64s(parsed)
		mid := len(parsed) / 2
		if len(parsed)%2 == 0 {
			median = (parsed[mid-1] + parsed[mid]) / 2
		} else {
			median = parsed[mid]
		}
	}

	for i, v := range column {
		if math.IsNaN(v) {
			column[i] = median
		}
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func populationStd(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}

func maxOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	max := values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
	}
	return max
}
