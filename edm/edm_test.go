package edm

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
)

func TestParse(t *testing.T) {
	tests := []struct {
		typ  string
		text string
		want any
	}{
		{StringType, "  keep spaces ", "  keep spaces "},
		{BooleanType, "true", true},
		{BooleanType, "0", false},
		{ByteType, "255", uint8(255)},
		{SByteType, "-128", int8(-128)},
		{Int16Type, "12", int16(12)},
		{Int32Type, " 42\n", int32(42)},
		{Int64Type, "-9000000000", int64(-9000000000)},
		{SingleType, "1.5", float32(1.5)},
		{DoubleType, "INF", math.Inf(1)},
		{DoubleType, "-2.5E3", -2500.0},
		{DecimalType, "001.2300", MustDecimal("1.23")},
		{GuidType, "6ba7b810-9dad-11d1-80b4-00c04fd430c8", uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")},
		{BinaryType, "aGVsbG8=", []byte("hello")},
		{DateType, "2024-02-29", Date{2024, time.February, 29}},
		{DateTimeOffsetType, "2024-01-02T03:04:05Z", time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
		{TimeOfDayType, "13:20:00.25", TimeOfDay{Hour: 13, Minute: 20, Nanosecond: 250000000}},
		{DurationType, "P1DT2H3M4.5S", 26*time.Hour + 3*time.Minute + 4500*time.Millisecond},
	}
	for _, tt := range tests {
		got, err := Parse(tt.typ, tt.text)
		if err != nil {
			t.Errorf("%s %q: %v", tt.typ, tt.text, err)
			continue
		}
		if diff := cmp.Diff(tt.want, got, cmp.AllowUnexported(Decimal{})); diff != "" {
			t.Errorf("%s %q (-want +got):\n%s", tt.typ, tt.text, diff)
		}
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		typ  string
		text string
	}{
		{BooleanType, "yes"},
		{ByteType, "256"},
		{Int32Type, "2147483648"},
		{Int32Type, "abc"},
		{DoubleType, "Infinity"},
		{DoubleType, "0x10"},
		{DecimalType, "1.2.3"},
		{GuidType, "{6ba7b810-9dad-11d1-80b4-00c04fd430c8}"},
		{DateType, "2023-02-29"},
		{TimeOfDayType, "25:00:00"},
		{DurationType, "P1Y"},
		{DurationType, "PT"},
		{DurationType, "1D"},
	}
	for _, tt := range tests {
		if _, err := Parse(tt.typ, tt.text); !errors.Is(err, ErrLiteral) {
			t.Errorf("%s %q: expected ErrLiteral, got %v", tt.typ, tt.text, err)
		}
	}
	if _, err := Parse("Edm.Geography", "x"); !errors.Is(err, ErrUnknownType) {
		t.Errorf("expected ErrUnknownType, got %v", err)
	}
}

func TestFormatRoundTrip(t *testing.T) {
	values := map[string]any{
		StringType:         "x<y",
		BooleanType:        false,
		ByteType:           uint8(7),
		Int32Type:          int32(-3),
		Int64Type:          int64(1) << 40,
		SingleType:         float32(0.1),
		DoubleType:         1e21,
		DecimalType:        MustDecimal("-12.5"),
		GuidType:           uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"),
		BinaryType:         []byte{0, 1, 2, 250},
		DateType:           Date{1999, time.December, 31},
		DateTimeOffsetType: time.Date(2024, 1, 2, 3, 4, 5, 600, time.FixedZone("", 3600)),
		TimeOfDayType:      TimeOfDay{Hour: 1, Minute: 2, Second: 3},
		DurationType:       -90 * time.Minute,
	}
	for typ, v := range values {
		s, err := Format(typ, v)
		if err != nil {
			t.Errorf("%s: %v", typ, err)
			continue
		}
		back, err := Parse(typ, s)
		if err != nil {
			t.Errorf("%s %q: %v", typ, s, err)
			continue
		}
		if diff := cmp.Diff(v, back, cmp.AllowUnexported(Decimal{})); diff != "" {
			t.Errorf("%s via %q (-want +got):\n%s", typ, s, diff)
		}
	}
}

func TestFormatMismatch(t *testing.T) {
	if _, err := Format(Int32Type, "1"); !errors.Is(err, ErrLiteral) {
		t.Errorf("expected ErrLiteral, got %v", err)
	}
	if _, err := Format(ByteType, 300); !errors.Is(err, ErrLiteral) {
		t.Errorf("expected ErrLiteral for out of range, got %v", err)
	}
	s, err := Format(Int64Type, 5)
	if err != nil || s != "5" {
		t.Errorf("got %q %v", s, err)
	}
}

func TestDecimalCanonical(t *testing.T) {
	tests := map[string]string{
		"0":       "0",
		"-0.000":  "0",
		".5":      "0.5",
		"1e2":     "100",
		"1.5e-3":  "0.0015",
		"+007.10": "7.1",
	}
	for in, want := range tests {
		d, err := ParseDecimal(in)
		if err != nil {
			t.Errorf("%q: %v", in, err)
			continue
		}
		if d.String() != want {
			t.Errorf("%q: got %q want %q", in, d, want)
		}
	}
	if (Decimal{}).String() != "0" {
		t.Error("zero Decimal")
	}
}

func TestFormatDuration(t *testing.T) {
	tests := map[time.Duration]string{
		0:                             "PT0S",
		24 * time.Hour:                "P1D",
		time.Hour + time.Millisecond:  "PT1H0.001S",
		-(25*time.Hour + time.Second): "-P1DT1H1S",
	}
	for d, want := range tests {
		if got := FormatDuration(d); got != want {
			t.Errorf("%v: got %q want %q", d, got, want)
		}
		back, err := ParseDuration(want)
		if err != nil || back != d {
			t.Errorf("%q: got %v %v", want, back, err)
		}
	}
}
