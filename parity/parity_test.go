package parity

import (
	"crypto/sha256"
	"errors"
	"testing"

	"github.com/skippytm/shimmer/vector"
)

func TestVector(t *testing.T) {
	tests := []struct {
		name string
		v    vector.Vector
		want int
	}{
		{
			// 5+6+5+9+92 = 117; 117 mod 4 = 1
			name: "five axis",
			v:    vector.New(0.5, 0.6, 0.5, 0.9).WithConfidence(0.92),
			want: 1,
		},
		{
			// 0+0+0-5 = -5; mod 4 = 3
			name: "negative sum",
			v:    vector.New(0, 0, 0, -0.5),
			want: 3,
		},
		{
			// 0+2+2+3 = 7; mod 4 = 3
			name: "four axis",
			v:    vector.New(0, 0.2, 0.2, 0.3),
			want: 3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Vector(tt.v); got != tt.want {
				t.Errorf("Vector = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestContainer(t *testing.T) {
	text := "ABPrn02τ1800d03"
	v := vector.New(0.5, 0.6, 0.5, 0.9).WithConfidence(0.92)

	h := sha256.Sum256([]byte(text))
	want := (int(h[0]) ^ (117 & 0xFF)) % 4

	if got := Container(text, v); got != want {
		t.Errorf("Container = %d, want %d", got, want)
	}
}

func TestVerify(t *testing.T) {
	line := "ABPrn02τ1800d03→[0.5,0.6,0.5,0.9,0.92]"

	ok, err := Verify(line, 1, ModeVector)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if !ok {
		t.Error("Verify = false for correct vector parity")
	}

	ok, err = Verify(line, 2, ModeVector)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if ok {
		t.Error("Verify = true for wrong claimed parity")
	}
}

func TestVerify_ContainerMode(t *testing.T) {
	line := "XYaf01→[0.0,0.0,0.0,-0.5,0.85]"
	v := vector.New(0, 0, 0, -0.5).WithConfidence(0.85)
	claimed := Container("XYaf01", v)

	ok, err := Verify(line, claimed, ModeContainer)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if !ok {
		t.Error("Verify = false for correct container parity")
	}
}

func TestVerify_NoSeparator(t *testing.T) {
	if _, err := Verify("ABP[0.5,0.6,0.5,0.9]", 0, ModeVector); !errors.Is(err, ErrNoSeparator) {
		t.Fatalf("err = %v, want ErrNoSeparator", err)
	}
}

func TestVerify_Deterministic(t *testing.T) {
	line := "ABPτ1800d03→[0.5,0.6,0.5,0.9,0.92]"
	first, err := Verify(line, 1, ModeVector)
	if err != nil {
		t.Fatal(err)
	}
	for range 10 {
		got, err := Verify(line, 1, ModeVector)
		if err != nil || got != first {
			t.Fatalf("Verify not deterministic: %v %v", got, err)
		}
	}
}
