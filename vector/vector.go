// Package vector implements the T9/T9+ semantic vector model.
//
// A vector carries four bounded axes (action, subject, context, urgency)
// in [-1, 1] plus an optional confidence axis in [0, 1]. The package owns
// both quantization rules: 1-decimal text transmission and int16/uint8
// binary transmission. All operations are pure; clipping always succeeds.
package vector

import "math"

// Axis indices into the four bounded axes.
const (
	AxisAction = iota
	AxisSubject
	AxisContext
	AxisUrgency
	axisCount
)

// Quantization scale factors for the binary form.
const (
	AxisScale       = 32767 // int16 full scale for the four bounded axes
	ConfidenceScale = 255   // uint8 full scale for confidence
)

// Per-axis tolerances for round-trip comparison.
var axisTolerance = [axisCount]float64{0.15, 0.20, 0.10, 0.10}

// ConfidenceTolerance is the round-trip tolerance for the confidence axis.
const ConfidenceTolerance = 0.05

// Vector is a T9 (4-axis) or T9+ (4-axis + confidence) semantic vector.
// Confidence is nil for the 4-axis form.
type Vector struct {
	Action  float64
	Subject float64
	Context float64
	Urgency float64

	Confidence *float64
}

// New constructs a 4-axis vector.
func New(action, subject, context, urgency float64) Vector {
	return Vector{Action: action, Subject: subject, Context: context, Urgency: urgency}
}

// WithConfidence returns a copy of v carrying the given confidence axis.
func (v Vector) WithConfidence(c float64) Vector {
	v.Confidence = &c
	return v
}

// Axes returns the four bounded axes in declaration order.
func (v Vector) Axes() [4]float64 {
	return [4]float64{v.Action, v.Subject, v.Context, v.Urgency}
}

// Arity returns 4 or 5 depending on whether confidence is present.
func (v Vector) Arity() int {
	if v.Confidence != nil {
		return 5
	}
	return 4
}

// Clip forces every axis into its valid range: axes into [-1, 1],
// confidence into [0, 1]. Clip is total and idempotent.
func Clip(v Vector) Vector {
	v.Action = clamp(v.Action, -1, 1)
	v.Subject = clamp(v.Subject, -1, 1)
	v.Context = clamp(v.Context, -1, 1)
	v.Urgency = clamp(v.Urgency, -1, 1)
	if v.Confidence != nil {
		c := clamp(*v.Confidence, 0, 1)
		v.Confidence = &c
	}
	return v
}

// QuantizeText clips and rounds the vector to text transmission precision:
// 1 decimal digit on the four axes, 2 on confidence. Idempotent.
func QuantizeText(v Vector) Vector {
	v = Clip(v)
	v.Action = round1(v.Action)
	v.Subject = round1(v.Subject)
	v.Context = round1(v.Context)
	v.Urgency = round1(v.Urgency)
	if v.Confidence != nil {
		c := round2(*v.Confidence)
		v.Confidence = &c
	}
	return v
}

// QuantizeBinary maps the clipped vector onto the binary field widths:
// round(axis * 32767) per axis and round(confidence * 255).
// Confidence maps to zero when absent; the binary container decides
// whether a default applies before packing.
func QuantizeBinary(v Vector) (axes [4]int16, confidence uint8) {
	v = Clip(v)
	for i, a := range v.Axes() {
		axes[i] = int16(math.Round(a * AxisScale))
	}
	if v.Confidence != nil {
		confidence = uint8(math.Round(*v.Confidence * ConfidenceScale))
	}
	return axes, confidence
}

// FromBinary reverses QuantizeBinary: axis values divide back by 32767,
// confidence by 255, and the result is clipped.
func FromBinary(axes [4]int16, confidence uint8) Vector {
	v := Vector{
		Action:  float64(axes[0]) / AxisScale,
		Subject: float64(axes[1]) / AxisScale,
		Context: float64(axes[2]) / AxisScale,
		Urgency: float64(axes[3]) / AxisScale,
	}
	c := float64(confidence) / ConfidenceScale
	v.Confidence = &c
	return Clip(v)
}

// WithinTolerance compares two vectors component-wise against the fixed
// per-axis tolerances. Returns true only if every axis satisfies its
// tolerance. Vectors of different arity never match.
func WithinTolerance(a, b Vector) bool {
	if a.Arity() != b.Arity() {
		return false
	}
	aa, ba := a.Axes(), b.Axes()
	for i := range aa {
		if math.Abs(aa[i]-ba[i]) > axisTolerance[i]+epsilon {
			return false
		}
	}
	if a.Confidence != nil {
		if math.Abs(*a.Confidence-*b.Confidence) > ConfidenceTolerance+epsilon {
			return false
		}
	}
	return true
}

// Aggregate computes the component-wise mean of the given vectors, then
// clips. The result carries confidence only if every input does.
// Returns the zero 4-axis vector for an empty input.
func Aggregate(vs []Vector) Vector {
	if len(vs) == 0 {
		return Vector{}
	}
	var out Vector
	conf := 0.0
	allConf := true
	for _, v := range vs {
		out.Action += v.Action
		out.Subject += v.Subject
		out.Context += v.Context
		out.Urgency += v.Urgency
		if v.Confidence != nil {
			conf += *v.Confidence
		} else {
			allConf = false
		}
	}
	n := float64(len(vs))
	out.Action /= n
	out.Subject /= n
	out.Context /= n
	out.Urgency /= n
	if allConf {
		c := conf / n
		out.Confidence = &c
	}
	return Clip(out)
}

const epsilon = 1e-9

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func round1(x float64) float64 {
	x = math.Round(x*10) / 10
	if x == 0 {
		return 0 // normalize -0.0
	}
	return x
}

func round2(x float64) float64 {
	x = math.Round(x*100) / 100
	if x == 0 {
		return 0
	}
	return x
}
