package ir

import "testing"

func TestKindRoundTrip(t *testing.T) {
	for _, k := range Kinds() {
		got, ok := ParseKind(k.String())
		if !ok || got != k {
			t.Errorf("ParseKind(%q) = %v, %v; want %v", k.String(), got, ok, k)
		}
	}
	if len(Kinds()) != int(numKinds)-1 {
		t.Errorf("Kinds() returned %d kinds, want %d", len(Kinds()), numKinds-1)
	}
}

func TestParseKindRejects(t *testing.T) {
	for _, s := range []string{"", "INVALID", "MATH", "mathadd", "MATHCOSH2"} {
		if k, ok := ParseKind(s); ok {
			t.Errorf("ParseKind(%q) = %v, want failure", s, k)
		}
	}
	if KindInvalid.Valid() || Kind(250).Valid() {
		t.Error("invalid kinds reported as valid")
	}
	if got := Kind(250).String(); got != "Kind(250)" {
		t.Errorf("String() = %q", got)
	}
}

func TestValueViews(t *testing.T) {
	tests := []struct {
		name      string
		v         Value
		wantFloat float64
		wantVec   Vec3
	}{
		{"scalar", Scalar(2), 2, Vec3{2, 2, 2}},
		{"vector", Vector(1, 2, 6), 3, Vec3{1, 2, 6}},
		{"colour ignores alpha", Color(0.3, 0.6, 0.9, 0), 0.6, Vec3{0.3, 0.6, 0.9}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.Float(); got < tt.wantFloat-1e-12 || got > tt.wantFloat+1e-12 {
				t.Errorf("Float() = %v, want %v", got, tt.wantFloat)
			}
			if got := tt.v.Vec(); got != tt.wantVec {
				t.Errorf("Vec() = %v, want %v", got, tt.wantVec)
			}
		})
	}
}

func TestFromSlice(t *testing.T) {
	if _, ok := FromSlice(nil); ok {
		t.Error("FromSlice(nil) succeeded")
	}
	if v, _ := FromSlice([]float64{4}); v != Scalar(4) {
		t.Errorf("got %v, want scalar 4", v)
	}
	if v, _ := FromSlice([]float64{1, 2, 3}); v != Vector(1, 2, 3) {
		t.Errorf("got %v, want vector", v)
	}
	if v, _ := FromSlice([]float64{1, 2, 3, 4, 5}); v != Color(1, 2, 3, 4) {
		t.Errorf("got %v, want truncated colour", v)
	}
}

func TestVec3(t *testing.T) {
	x := Vec3{1, 0, 0}
	y := Vec3{0, 1, 0}
	if got := x.Cross(y); got != (Vec3{0, 0, 1}) {
		t.Errorf("x cross y = %v", got)
	}
	if got := (Vec3{3, 4, 0}).Length(); got != 5 {
		t.Errorf("length = %v, want 5", got)
	}
	if got := (Vec3{}).Normalize(); got != (Vec3{}) {
		t.Errorf("zero normalize = %v", got)
	}
	if got := (Vec3{0, 0, 2}).Normalize(); got != (Vec3{0, 0, 1}) {
		t.Errorf("normalize = %v", got)
	}
}
