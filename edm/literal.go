package edm

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Decimal is an exact decimal literal in canonical form: no exponent, no
// leading zeros in the integer part, no trailing zeros in the fraction.
type Decimal struct {
	s string
}

func (d Decimal) String() string {
	if d.s == "" {
		return "0"
	}
	return d.s
}

// Equal reports whether d and o denote the same number.
func (d Decimal) Equal(o Decimal) bool {
	return d.String() == o.String()
}

func MustDecimal(s string) Decimal {
	d, err := ParseDecimal(s)
	if err != nil {
		panic(err)
	}
	return d
}

// ParseDecimal accepts an optional sign, digits, an optional fraction and
// an optional exponent, and returns the canonical form.
func ParseDecimal(s string) (Decimal, error) {
	neg := false
	switch {
	case strings.HasPrefix(s, "-"):
		neg = true
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}
	mant, exp := s, 0
	if i := strings.IndexAny(s, "eE"); i != -1 {
		e, err := strconv.Atoi(s[i+1:])
		if err != nil {
			return Decimal{}, err
		}
		if e > 1000 || e < -1000 {
			return Decimal{}, strconv.ErrRange
		}
		mant, exp = s[:i], e
	}
	intPart, frac, _ := strings.Cut(mant, ".")
	if intPart == "" && frac == "" {
		return Decimal{}, strconv.ErrSyntax
	}
	for _, p := range [2]string{intPart, frac} {
		for i := 0; i < len(p); i++ {
			if p[i] < '0' || p[i] > '9' {
				return Decimal{}, strconv.ErrSyntax
			}
		}
	}
	digits := intPart + frac
	point := len(intPart) + exp
	for point > len(digits) {
		digits += "0"
	}
	for point < 0 {
		digits = "0" + digits
		point++
	}
	ip := strings.TrimLeft(digits[:point], "0")
	fp := strings.TrimRight(digits[point:], "0")
	if ip == "" {
		ip = "0"
	}
	res := ip
	if fp != "" {
		res += "." + fp
	}
	if neg && res != "0" {
		res = "-" + res
	}
	return Decimal{s: res}, nil
}

// Date is a calendar date without time zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func (d Date) String() string {
	if d.Year < 0 {
		return fmt.Sprintf("-%04d-%02d-%02d", -d.Year, d.Month, d.Day)
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

func ParseDate(s string) (Date, error) {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return Date{}, err
	}
	d := Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
	if neg {
		d.Year = -d.Year
	}
	return d, nil
}

// TimeOfDay is a clock time with sub-second precision.
type TimeOfDay struct {
	Hour, Minute, Second int
	Nanosecond           int
}

func (t TimeOfDay) String() string {
	s := fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
	if t.Nanosecond != 0 {
		f := strings.TrimRight(fmt.Sprintf("%09d", t.Nanosecond), "0")
		s += "." + f
	}
	return s
}

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	layout := "15:04:05"
	if len(s) == 5 {
		layout = "15:04"
	} else if strings.Contains(s, ".") {
		layout = "15:04:05.999999999"
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return TimeOfDay{}, err
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second(), Nanosecond: t.Nanosecond()}, nil
}

// ParseDuration parses a day-time ISO 8601 duration such as P1DT2H3M4.5S.
// Year and month components are rejected as they have no fixed length.
func ParseDuration(s string) (time.Duration, error) {
	orig := s
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	if !strings.HasPrefix(s, "P") || len(s) == 1 {
		return 0, fmt.Errorf("duration %q must start with P", orig)
	}
	s = s[1:]
	var total time.Duration
	inTime := false
	seen := false
	for len(s) > 0 {
		if s[0] == 'T' {
			if inTime || len(s) == 1 {
				return 0, fmt.Errorf("misplaced T in duration %q", orig)
			}
			inTime = true
			s = s[1:]
			continue
		}
		i := strings.IndexFunc(s, func(r rune) bool { return (r < '0' || r > '9') && r != '.' })
		if i <= 0 {
			return 0, fmt.Errorf("bad duration %q", orig)
		}
		num, unit := s[:i], s[i]
		s = s[i+1:]
		var scale time.Duration
		switch {
		case unit == 'D' && !inTime:
			scale = 24 * time.Hour
		case unit == 'H' && inTime:
			scale = time.Hour
		case unit == 'M' && inTime:
			scale = time.Minute
		case unit == 'S' && inTime:
			scale = time.Second
		default:
			return 0, fmt.Errorf("unsupported duration component %q in %q", unit, orig)
		}
		if strings.Contains(num, ".") && unit != 'S' {
			return 0, fmt.Errorf("fraction only allowed on seconds in %q", orig)
		}
		whole, frac, _ := strings.Cut(num, ".")
		w, err := strconv.ParseInt(whole, 10, 64)
		if err != nil {
			return 0, err
		}
		total += time.Duration(w) * scale
		if frac != "" {
			if len(frac) > 9 {
				frac = frac[:9]
			}
			n, err := strconv.ParseInt(frac+strings.Repeat("0", 9-len(frac)), 10, 64)
			if err != nil {
				return 0, err
			}
			total += time.Duration(n)
		}
		seen = true
	}
	if !seen {
		return 0, fmt.Errorf("empty duration %q", orig)
	}
	if neg {
		total = -total
	}
	return total, nil
}

// FormatDuration renders d as a day-time ISO 8601 duration.
func FormatDuration(d time.Duration) string {
	var sb strings.Builder
	if d < 0 {
		sb.WriteByte('-')
		d = -d
	}
	sb.WriteByte('P')
	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	if days > 0 {
		fmt.Fprintf(&sb, "%dD", days)
	}
	if d == 0 && days > 0 {
		return sb.String()
	}
	sb.WriteByte('T')
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	if h > 0 {
		fmt.Fprintf(&sb, "%dH", h)
	}
	if m > 0 {
		fmt.Fprintf(&sb, "%dM", m)
	}
	if d > 0 || (h == 0 && m == 0) {
		sec := d / time.Second
		ns := d - sec*time.Second
		fmt.Fprintf(&sb, "%d", sec)
		if ns > 0 {
			sb.WriteString("." + strings.TrimRight(fmt.Sprintf("%09d", ns), "0"))
		}
		sb.WriteByte('S')
	}
	return sb.String()
}
