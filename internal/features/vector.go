package features

import (
	"fmt"
	"math"

	"github.com/maintsense/backend/pkg/utils"
)

// Size is the width of every feature vector consumed by the classifier.
// The slot order and the constants below are a hard contract between the
// synthetic training-data generator and the live inference path: a trained
// model is only valid for the exact layout it was trained on.
const Size = 16

// Reference operating points used by the anomaly-proxy slots.
const (
	nominalTemperature = 75.0
	nominalVibration   = 1.0
	nominalPressure    = 95.0
	runtimeScale       = 6000.0
	highRuntimeCutoff  = 4000.0
)

// Reading is one asset's raw sensor state.
type Reading struct {
	Temperature float64
	Vibration   float64
	Pressure    float64
	Runtime     float64
}

// Aggregates are the batch-level statistics folded into each row's vector.
type Aggregates struct {
	TempStd     float64
	TempMax     float64
	VibMax      float64
	PressureStd float64
}

// DefaultAggregates returns the substitution values used when a source
// column is absent from the batch, or when there is no batch at all
// (single-reading prediction).
func DefaultAggregates() Aggregates {
	return Aggregates{
		TempStd:     10,
		TempMax:     85,
		VibMax:      2.5,
		PressureStd: 5,
	}
}

// Build maps one reading plus batch aggregates into the fixed 16-slot
// vector. Both training and inference go through here.
func Build(r Reading, a Aggregates) []float64 {
	highRuntime := 0.0
	if r.Runtime > highRuntimeCutoff {
		highRuntime = 1.0
	}

	return []float64{
		r.Temperature,
		r.Temperature * r.Temperature,
		a.TempStd,
		a.TempMax,
		r.Vibration,
		r.Vibration * r.Vibration,
		a.VibMax,
		r.Pressure,
		a.PressureStd,
		r.Runtime,
		math.Abs(r.Temperature-nominalTemperature) / 10,
		math.Abs(r.Vibration-nominalVibration) / 0.3,
		math.Abs(r.Pressure-nominalPressure) / 5,
		r.Temperature * r.Vibration,
		r.Runtime / runtimeScale,
		highRuntime,
	}
}

// layoutDescriptor enumerates the slot semantics and every constant that
// participates in the layout. Changing anything here changes Fingerprint,
// which invalidates previously saved artifacts on load.
var layoutDescriptor = fmt.Sprintf(
	"v1:temp,temp_sq,temp_std,temp_max,vib,vib_sq,vib_max,pressure,pressure_std,"+
		"runtime,temp_dev,vib_dev,pressure_dev,temp_x_vib,runtime_norm,high_runtime;"+
		"refs=%.1f,%.1f,%.1f,%.1f,%.1f;defaults=%.1f,%.1f,%.1f,%.1f",
	nominalTemperature, nominalVibration, nominalPressure, runtimeScale, highRuntimeCutoff,
	10.0, 85.0, 2.5, 5.0,
)

// Fingerprint identifies the compiled-in feature layout. It is stored inside
// every saved model artifact and verified on load.
func Fingerprint() string {
	return utils.HashString(layoutDescriptor)
}
