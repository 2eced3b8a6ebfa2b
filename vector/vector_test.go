package vector

import (
	"math"
	"testing"
)

func TestClip_ForcesRanges(t *testing.T) {
	v := New(1.7, -2.0, 0.3, -0.9).WithConfidence(1.4)
	got := Clip(v)

	want := New(1.0, -1.0, 0.3, -0.9).WithConfidence(1.0)
	if !equal(got, want) {
		t.Errorf("Clip = %+v, want %+v", got, want)
	}
}

func TestClip_Idempotent(t *testing.T) {
	vs := []Vector{
		New(0.5, 0.6, 0.5, 0.9).WithConfidence(0.92),
		New(-3, 3, 0, 0),
		New(0.123, -0.456, 0.789, 1.0).WithConfidence(0.001),
	}
	for _, v := range vs {
		once := Clip(v)
		twice := Clip(once)
		if !equal(once, twice) {
			t.Errorf("Clip not idempotent: %+v vs %+v", once, twice)
		}
	}
}

func TestQuantizeText(t *testing.T) {
	v := New(0.54, 0.56, -0.04, 0.94).WithConfidence(0.923)
	got := QuantizeText(v)

	want := New(0.5, 0.6, 0, 0.9).WithConfidence(0.92)
	if !equal(got, want) {
		t.Errorf("QuantizeText = %+v, want %+v", got, want)
	}
}

func TestQuantizeText_HalfRoundsAwayFromZero(t *testing.T) {
	// 0.95*10 is exactly 9.5 in float64, which rounds up to 10.
	got := QuantizeText(New(0.95, -0.95, 0, 0))
	if got.Action != 1.0 || got.Subject != -1.0 {
		t.Errorf("QuantizeText = %+v, want action 1.0 subject -1.0", got)
	}
}

func TestQuantizeText_Idempotent(t *testing.T) {
	v := New(0.111, -0.999, 0.25, 0.449).WithConfidence(0.8512)
	once := QuantizeText(v)
	twice := QuantizeText(once)
	if !equal(once, twice) {
		t.Errorf("QuantizeText not idempotent: %+v vs %+v", once, twice)
	}
}

func TestQuantizeText_NoNegativeZero(t *testing.T) {
	got := QuantizeText(New(-0.04, 0, 0, 0))
	if math.Signbit(got.Action) {
		t.Errorf("axis quantized to -0.0, want 0.0")
	}
}

func TestBinaryRoundTrip_WithinOneStep(t *testing.T) {
	v := New(0.5, -0.6, 0.1, 0.9).WithConfidence(0.92)

	axes, conf := QuantizeBinary(v)
	back := FromBinary(axes, conf)

	for i, a := range v.Axes() {
		if math.Abs(back.Axes()[i]-a) > 1.0/AxisScale {
			t.Errorf("axis %d: got %v, want within one step of %v", i, back.Axes()[i], a)
		}
	}
	if math.Abs(*back.Confidence-*v.Confidence) > 1.0/ConfidenceScale {
		t.Errorf("confidence: got %v, want within one step of %v", *back.Confidence, *v.Confidence)
	}
}

func TestQuantizeBinary_Extremes(t *testing.T) {
	axes, conf := QuantizeBinary(New(1, -1, 0, 0).WithConfidence(1))
	if axes[0] != AxisScale || axes[1] != -AxisScale || axes[2] != 0 {
		t.Errorf("axes = %v", axes)
	}
	if conf != ConfidenceScale {
		t.Errorf("confidence = %d, want %d", conf, ConfidenceScale)
	}
}

func TestWithinTolerance(t *testing.T) {
	tests := []struct {
		name string
		a, b Vector
		want bool
	}{
		{
			name: "identical",
			a:    New(0.5, 0.6, 0.5, 0.9).WithConfidence(0.92),
			b:    New(0.5, 0.6, 0.5, 0.9).WithConfidence(0.92),
			want: true,
		},
		{
			name: "within per-axis tolerances",
			a:    New(0.5, 0.6, 0.5, 0.9).WithConfidence(0.92),
			b:    New(0.6, 0.8, 0.4, 0.8).WithConfidence(0.9),
			want: true,
		},
		{
			name: "action axis beyond 0.15",
			a:    New(0.5, 0.6, 0.5, 0.9),
			b:    New(0.7, 0.6, 0.5, 0.9),
			want: false,
		},
		{
			name: "urgency axis beyond 0.10",
			a:    New(0.5, 0.6, 0.5, 0.9),
			b:    New(0.5, 0.6, 0.5, 0.7),
			want: false,
		},
		{
			name: "confidence beyond 0.05",
			a:    New(0, 0, 0, 0).WithConfidence(0.9),
			b:    New(0, 0, 0, 0).WithConfidence(0.8),
			want: false,
		},
		{
			name: "arity mismatch",
			a:    New(0, 0, 0, 0).WithConfidence(0.9),
			b:    New(0, 0, 0, 0),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WithinTolerance(tt.a, tt.b); got != tt.want {
				t.Errorf("WithinTolerance = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAggregate(t *testing.T) {
	vs := []Vector{
		New(0.2, 0.4, 0.0, 1.0).WithConfidence(0.8),
		New(0.4, 0.8, 0.2, 1.0).WithConfidence(1.0),
	}
	got := Aggregate(vs)

	want := New(0.3, 0.6, 0.1, 1.0).WithConfidence(0.9)
	if !equal(got, want) {
		t.Errorf("Aggregate = %+v, want %+v", got, want)
	}
}

func TestAggregate_MixedArityDropsConfidence(t *testing.T) {
	vs := []Vector{
		New(0.5, 0.5, 0.5, 0.5).WithConfidence(1.0),
		New(0.5, 0.5, 0.5, 0.5),
	}
	got := Aggregate(vs)
	if got.Confidence != nil {
		t.Errorf("Aggregate kept confidence from partial inputs: %v", *got.Confidence)
	}
}

func TestAggregate_Empty(t *testing.T) {
	got := Aggregate(nil)
	if got != (Vector{}) {
		t.Errorf("Aggregate(nil) = %+v, want zero vector", got)
	}
}

// equal compares vectors with a small numeric slack.
func equal(a, b Vector) bool {
	aa, ba := a.Axes(), b.Axes()
	for i := range aa {
		if math.Abs(aa[i]-ba[i]) > 1e-9 {
			return false
		}
	}
	if (a.Confidence == nil) != (b.Confidence == nil) {
		return false
	}
	if a.Confidence != nil && math.Abs(*a.Confidence-*b.Confidence) > 1e-9 {
		return false
	}
	return true
}
