// Package edm converts between the literal text of Edm primitive values and
// their Go representation.
//
//	Edm.String          string
//	Edm.Boolean         bool
//	Edm.Byte            uint8
//	Edm.SByte           int8
//	Edm.Int16           int16
//	Edm.Int32           int32
//	Edm.Int64           int64
//	Edm.Single          float32
//	Edm.Double          float64
//	Edm.Decimal         Decimal
//	Edm.Guid            uuid.UUID
//	Edm.Binary          []byte
//	Edm.Date            Date
//	Edm.DateTimeOffset  time.Time
//	Edm.TimeOfDay       TimeOfDay
//	Edm.Duration        time.Duration
package edm

import (
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	StringType         = "Edm.String"
	BooleanType        = "Edm.Boolean"
	ByteType           = "Edm.Byte"
	SByteType          = "Edm.SByte"
	Int16Type          = "Edm.Int16"
	Int32Type          = "Edm.Int32"
	Int64Type          = "Edm.Int64"
	SingleType         = "Edm.Single"
	DoubleType         = "Edm.Double"
	DecimalType        = "Edm.Decimal"
	GuidType           = "Edm.Guid"
	BinaryType         = "Edm.Binary"
	DateType           = "Edm.Date"
	DateTimeOffsetType = "Edm.DateTimeOffset"
	TimeOfDayType      = "Edm.TimeOfDay"
	DurationType       = "Edm.Duration"
)

var (
	ErrLiteral     = errors.New("invalid literal")
	ErrUnknownType = errors.New("unknown primitive type")
)

var primitives = map[string]bool{
	StringType: true, BooleanType: true, ByteType: true, SByteType: true, Int16Type: true,
	Int32Type: true, Int64Type: true, SingleType: true, DoubleType: true, DecimalType: true,
	GuidType: true, BinaryType: true, DateType: true, DateTimeOffsetType: true,
	TimeOfDayType: true, DurationType: true,
}

// IsPrimitive reports whether name is a supported Edm primitive type.
func IsPrimitive(name string) bool {
	return primitives[name]
}

// Names returns the supported primitive type names.
func Names() []string {
	res := make([]string, 0, len(primitives))
	for n := range primitives {
		res = append(res, n)
	}
	return res
}

func literalErr(typeName, text string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %q is not a valid %s", ErrLiteral, text, typeName)
	}
	return fmt.Errorf("%w: %q is not a valid %s: %w", ErrLiteral, text, typeName, err)
}

// Parse converts literal text to the Go value of typeName.
func Parse(typeName, text string) (any, error) {
	switch typeName {
	case StringType:
		return text, nil
	}
	s := strings.TrimSpace(text)
	switch typeName {
	case BooleanType:
		switch s {
		case "true", "1":
			return true, nil
		case "false", "0":
			return false, nil
		}
		return nil, literalErr(typeName, text, nil)
	case ByteType:
		u, err := strconv.ParseUint(s, 10, 8)
		if err != nil {
			return nil, literalErr(typeName, text, err)
		}
		return uint8(u), nil
	case SByteType, Int16Type, Int32Type, Int64Type:
		bits := map[string]int{SByteType: 8, Int16Type: 16, Int32Type: 32, Int64Type: 64}[typeName]
		i, err := strconv.ParseInt(s, 10, bits)
		if err != nil {
			return nil, literalErr(typeName, text, err)
		}
		switch bits {
		case 8:
			return int8(i), nil
		case 16:
			return int16(i), nil
		case 32:
			return int32(i), nil
		}
		return i, nil
	case SingleType:
		f, err := parseFloat(s, 32)
		if err != nil {
			return nil, literalErr(typeName, text, err)
		}
		return float32(f), nil
	case DoubleType:
		f, err := parseFloat(s, 64)
		if err != nil {
			return nil, literalErr(typeName, text, err)
		}
		return f, nil
	case DecimalType:
		d, err := ParseDecimal(s)
		if err != nil {
			return nil, literalErr(typeName, text, err)
		}
		return d, nil
	case GuidType:
		u, err := uuid.Parse(s)
		if err != nil || len(s) != 36 {
			return nil, literalErr(typeName, text, err)
		}
		return u, nil
	case BinaryType:
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			b, err = base64.URLEncoding.DecodeString(s)
		}
		if err != nil {
			return nil, literalErr(typeName, text, err)
		}
		return b, nil
	case DateType:
		d, err := ParseDate(s)
		if err != nil {
			return nil, literalErr(typeName, text, err)
		}
		return d, nil
	case DateTimeOffsetType:
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return nil, literalErr(typeName, text, err)
		}
		return t, nil
	case TimeOfDayType:
		t, err := ParseTimeOfDay(s)
		if err != nil {
			return nil, literalErr(typeName, text, err)
		}
		return t, nil
	case DurationType:
		d, err := ParseDuration(s)
		if err != nil {
			return nil, literalErr(typeName, text, err)
		}
		return d, nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownType, typeName)
}

func parseFloat(s string, bits int) (float64, error) {
	switch s {
	case "INF":
		return math.Inf(1), nil
	case "-INF":
		return math.Inf(-1), nil
	case "NaN":
		return math.NaN(), nil
	}
	if strings.ContainsAny(s, "xXnNiI_") {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseFloat(s, bits)
}

func formatFloat(f float64, bits int) string {
	switch {
	case math.IsInf(f, 1):
		return "INF"
	case math.IsInf(f, -1):
		return "-INF"
	case math.IsNaN(f):
		return "NaN"
	}
	return strconv.FormatFloat(f, 'G', -1, bits)
}

// Format converts a Go value to the literal text of typeName. Integer and
// float values of a different width than typeName are accepted as long as
// they fit.
func Format(typeName string, v any) (string, error) {
	if !IsPrimitive(typeName) {
		return "", fmt.Errorf("%w %q", ErrUnknownType, typeName)
	}
	mismatch := func() (string, error) {
		return "", fmt.Errorf("%w: cannot write %T as %s", ErrLiteral, v, typeName)
	}
	switch typeName {
	case StringType:
		s, ok := v.(string)
		if !ok {
			return mismatch()
		}
		return s, nil
	case BooleanType:
		b, ok := v.(bool)
		if !ok {
			return mismatch()
		}
		return strconv.FormatBool(b), nil
	case ByteType, SByteType, Int16Type, Int32Type, Int64Type:
		i, ok := asInt64(v)
		if !ok {
			return mismatch()
		}
		if _, err := Parse(typeName, strconv.FormatInt(i, 10)); err != nil {
			return "", err
		}
		return strconv.FormatInt(i, 10), nil
	case SingleType, DoubleType:
		bits := 64
		if typeName == SingleType {
			bits = 32
		}
		switch x := v.(type) {
		case float32:
			return formatFloat(float64(x), bits), nil
		case float64:
			return formatFloat(x, bits), nil
		}
		if i, ok := asInt64(v); ok {
			return strconv.FormatInt(i, 10), nil
		}
		return mismatch()
	case DecimalType:
		switch x := v.(type) {
		case Decimal:
			return x.String(), nil
		case string:
			d, err := ParseDecimal(x)
			if err != nil {
				return "", literalErr(typeName, x, err)
			}
			return d.String(), nil
		}
		if i, ok := asInt64(v); ok {
			return strconv.FormatInt(i, 10), nil
		}
		return mismatch()
	case GuidType:
		u, ok := v.(uuid.UUID)
		if !ok {
			return mismatch()
		}
		return u.String(), nil
	case BinaryType:
		b, ok := v.([]byte)
		if !ok {
			return mismatch()
		}
		return base64.StdEncoding.EncodeToString(b), nil
	case DateType:
		d, ok := v.(Date)
		if !ok {
			return mismatch()
		}
		return d.String(), nil
	case DateTimeOffsetType:
		t, ok := v.(time.Time)
		if !ok {
			return mismatch()
		}
		return t.Format(time.RFC3339Nano), nil
	case TimeOfDayType:
		t, ok := v.(TimeOfDay)
		if !ok {
			return mismatch()
		}
		return t.String(), nil
	case DurationType:
		d, ok := v.(time.Duration)
		if !ok {
			return mismatch()
		}
		return FormatDuration(d), nil
	}
	return mismatch()
}

func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	}
	return 0, false
}
