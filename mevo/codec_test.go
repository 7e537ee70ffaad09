package mevo

import (
	"math"
	"testing"
)

func TestStuffUnstuffRoundTrip(t *testing.T) {
	cases := [][]byte{
		{},
		{0x01, 0x02, 0x03},
		{delimStart, delimEnd, reservedFA, escByte},
		{0xAA, delimStart, 0xBB, escByte, 0xCC},
	}
	for _, in := range cases {
		stuffed := stuff(in)
		out, err := unstuff(stuffed)
		if err != nil {
			t.Fatalf("unstuff(%X): %v", stuffed, err)
		}
		if !bytesEqual(out, in) {
			t.Errorf("round trip %X -> %X -> %X, want %X", in, stuffed, out, in)
		}
	}
}

func TestUnstuffMalformed(t *testing.T) {
	if _, err := unstuff([]byte{0x01, escByte}); err == nil {
		t.Fatal("trailing escape byte: want error")
	}
	if _, err := unstuff([]byte{escByte, 0xFF}); err == nil {
		t.Fatal("unknown escape code: want error")
	}
}

func TestSum16Wraps(t *testing.T) {
	b := make([]byte, 300)
	for i := range b {
		b[i] = 0xFF
	}
	got := sum16(b)
	want := uint16((300 * 255) % 65536)
	if got != want {
		t.Errorf("sum16 = %d, want %d", got, want)
	}
}

func TestI24beSignExtension(t *testing.T) {
	if got := i24be([]byte{0x80, 0x00, 0x00}); got != -8388608 {
		t.Errorf("i24be(0x800000) = %d, want -8388608", got)
	}
	if got := i24be([]byte{0x7F, 0xFF, 0xFF}); got != 8388607 {
		t.Errorf("i24be(0x7FFFFF) = %d, want 8388607", got)
	}
	if got := i24be([]byte{0xFF, 0xFF, 0xFF}); got != -1 {
		t.Errorf("i24be(0xFFFFFF) = %d, want -1", got)
	}
}

func TestFloat40TableValues(t *testing.T) {
	cases := []struct {
		v    float64
		want [5]byte
	}{
		{0.0, [5]byte{0, 0, 0, 0, 0}},
		{1.0, [5]byte{0x00, 0x01, 0x40, 0x00, 0x00}},
		{12.5, [5]byte{0x00, 0x04, 0x64, 0x00, 0x00}},
		{100.0, [5]byte{0x00, 0x07, 0x64, 0x00, 0x00}},
	}
	for _, c := range cases {
		got, err := float40Encode(c.v)
		if err != nil {
			t.Fatalf("float40Encode(%v): %v", c.v, err)
		}
		if got != c.want {
			t.Errorf("float40Encode(%v) = % X, want % X", c.v, got, c.want)
		}
	}
}

func TestFloat40RoundTripTolerance(t *testing.T) {
	values := []float64{0.0, 1.0, -1.0, 12.5, 100.0, -2.3, 0.0254, 3.14159, -999.5}
	for _, v := range values {
		enc, err := float40Encode(v)
		if err != nil {
			t.Fatalf("float40Encode(%v): %v", v, err)
		}
		dec := float40Decode(enc[:])
		if v == 0 {
			if dec != 0 {
				t.Errorf("float40 round trip of 0 gave %v", dec)
			}
			continue
		}
		relErr := math.Abs((dec - v) / v)
		if relErr > 1e-6 {
			t.Errorf("float40 round trip of %v gave %v (rel err %v)", v, dec, relErr)
		}
	}
}

func TestFloat40RejectsNonFinite(t *testing.T) {
	if _, err := float40Encode(math.NaN()); err == nil {
		t.Fatal("NaN: want error")
	}
	if _, err := float40Encode(math.Inf(1)); err == nil {
		t.Fatal("+Inf: want error")
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
