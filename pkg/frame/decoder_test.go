package frame

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/beeresearch/atomconnect-go/pkg/reading"
)

var testTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestDecode(t *testing.T) {
	t.Run("AllFields", func(t *testing.T) {
		payload := Encode(0x01, 0.125, 0.5, 42, 87, 23)

		var c Counter
		got, err := Decode(payload, &c, testTime)
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}

		want := reading.Sample{
			Timestamp:    testTime,
			TotalCounts:  42,
			CPS:          21,
			Dose:         0.125,
			DoseRate:     0.5,
			Battery:      87,
			TemperatureC: 23,
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Decode mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("RawBytes", func(t *testing.T) {
		// dose=1.0 (0x3f800000), rate=2.0 (0x40000000), counts=0x0102, battery=100, temp=0xF6 (-10)
		payload := []byte{
			0x00,
			0x00, 0x00, 0x80, 0x3f,
			0x00, 0x00, 0x00, 0x40,
			0x02, 0x01,
			100,
			0xF6,
		}

		var c Counter
		got, err := Decode(payload, &c, testTime)
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		if got.Dose != 1.0 {
			t.Errorf("Dose = %v, want 1.0", got.Dose)
		}
		if got.DoseRate != 2.0 {
			t.Errorf("DoseRate = %v, want 2.0", got.DoseRate)
		}
		if got.TotalCounts != 258 {
			t.Errorf("TotalCounts = %d, want 258", got.TotalCounts)
		}
		if got.CPS != 129 {
			t.Errorf("CPS = %v, want 129", got.CPS)
		}
		if got.Battery != 100 {
			t.Errorf("Battery = %d, want 100", got.Battery)
		}
		if got.TemperatureC != -10 {
			t.Errorf("TemperatureC = %d, want -10", got.TemperatureC)
		}
	})

	t.Run("StatusByteIgnored", func(t *testing.T) {
		var c1, c2 Counter
		a, _ := Decode(Encode(0x00, 1, 1, 4, 50, 20), &c1, testTime)
		b, _ := Decode(Encode(0xFF, 1, 1, 4, 50, 20), &c2, testTime)
		if diff := cmp.Diff(a, b); diff != "" {
			t.Errorf("status byte changed decoding (-a +b):\n%s", diff)
		}
	})
}

func TestDecodeTemperature(t *testing.T) {
	tests := []struct {
		raw  byte
		want int8
	}{
		{0, 0},
		{25, 25},
		{127, 127},
		{128, -128},
		{200, -56},
		{255, -1},
	}

	for _, tt := range tests {
		payload := Encode(0, 0, 0, 0, 0, 0)
		payload[offTemp] = tt.raw

		var c Counter
		got, err := Decode(payload, &c, testTime)
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		if got.TemperatureC != tt.want {
			t.Errorf("raw %d: TemperatureC = %d, want %d", tt.raw, got.TemperatureC, tt.want)
		}
	}
}

func TestDecodeInvalidLength(t *testing.T) {
	for _, n := range []int{0, 1, 12, 14, 20} {
		c := Counter{total: 99}
		_, err := Decode(make([]byte, n), &c, testTime)
		if !errors.Is(err, ErrInvalidLength) {
			t.Errorf("len %d: err = %v, want ErrInvalidLength", n, err)
		}
		if c.Total() != 99 {
			t.Errorf("len %d: counter changed to %d", n, c.Total())
		}
	}
}

func TestDecodeDeterministic(t *testing.T) {
	payload := Encode(3, 0.75, 0.33, 17, 64, -4)

	c1 := Counter{total: 1000}
	c2 := Counter{total: 1000}
	a, err1 := Decode(payload, &c1, testTime)
	b, err2 := Decode(payload, &c2, testTime)

	if err1 != nil || err2 != nil {
		t.Fatalf("Decode failed: %v, %v", err1, err2)
	}
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("same input produced different samples (-a +b):\n%s", diff)
	}
	if c1.Total() != c2.Total() {
		t.Errorf("counters diverged: %d vs %d", c1.Total(), c2.Total())
	}
}

func TestDecoderRunningTotal(t *testing.T) {
	d := NewDecoderWithClock(func() time.Time { return testTime })

	var totals []uint64
	for _, counts := range []uint16{10, 0, 5} {
		s, err := d.Decode(Encode(0, 0, 0, counts, 90, 20))
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		totals = append(totals, s.TotalCounts)
	}

	want := []uint64{10, 10, 15}
	if diff := cmp.Diff(want, totals); diff != "" {
		t.Errorf("totals mismatch (-want +got):\n%s", diff)
	}

	// A bad frame in between must not move the total.
	if _, err := d.Decode([]byte{1, 2, 3}); !errors.Is(err, ErrInvalidLength) {
		t.Fatalf("expected ErrInvalidLength, got %v", err)
	}
	if d.TotalCounts() != 15 {
		t.Errorf("TotalCounts = %d after bad frame, want 15", d.TotalCounts())
	}
}

func TestDecoderNonDecreasing(t *testing.T) {
	d := NewDecoder()

	var prev uint64
	for i := 0; i < 500; i++ {
		counts := uint16((i * 7919) % 65536)
		s, err := d.Decode(Encode(0, 0, 0, counts, 0, 0))
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		if s.TotalCounts < prev {
			t.Fatalf("frame %d: total decreased from %d to %d", i, prev, s.TotalCounts)
		}
		prev = s.TotalCounts
	}
}

func TestNewDecoderStartsAtZero(t *testing.T) {
	d := NewDecoder()
	if d.TotalCounts() != 0 {
		t.Errorf("TotalCounts = %d, want 0", d.TotalCounts())
	}

	var c Counter
	_, _ = Decode(Encode(0, 0, 0, 8, 0, 0), &c, testTime)
	c.Reset()
	if c.Total() != 0 {
		t.Errorf("Total after Reset = %d, want 0", c.Total())
	}
}

func TestDecodeNilCounter(t *testing.T) {
	got, err := Decode(Encode(0, 0.5, 0.12, 7, 90, 21), nil, testTime)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got.TotalCounts != 7 {
		t.Errorf("TotalCounts = %d, want 7", got.TotalCounts)
	}
}
