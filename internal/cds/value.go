package cds

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
)

// Provenance records where a metric value came from.
type Provenance uint8

const (
	// Absent means the value was not found or was excluded.
	Absent Provenance = iota
	// Printed means the value was read verbatim from the document.
	Printed
	// Derived means the value was computed from other printed values.
	Derived
)

func (p Provenance) String() string {
	switch p {
	case Printed:
		return "printed"
	case Derived:
		return "derived"
	default:
		return "absent"
	}
}

// MarshalText lets provenance maps serialize with readable names.
func (p Provenance) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Provenance) UnmarshalText(b []byte) error {
	switch string(b) {
	case "printed":
		*p = Printed
	case "derived":
		*p = Derived
	case "absent":
		*p = Absent
	default:
		return fmt.Errorf("cds: unknown provenance %q", b)
	}
	return nil
}

// Int is a non-negative count or dollar amount tagged with its provenance.
// The zero value is Absent and is omitted from JSON via `omitzero`.
type Int struct {
	Value  int64
	Source Provenance
}

// PrintedInt returns a value read from the document.
func PrintedInt(v int64) Int { return Int{Value: v, Source: Printed} }

// DerivedInt returns a value computed from other fields.
func DerivedInt(v int64) Int { return Int{Value: v, Source: Derived} }

func (i Int) IsZero() bool  { return i.Source == Absent }
func (i Int) Present() bool { return i.Source != Absent }

func (i Int) MarshalJSON() ([]byte, error) {
	if i.Source == Absent {
		return []byte("null"), nil
	}
	return strconv.AppendInt(nil, i.Value, 10), nil
}

// UnmarshalJSON reads a persisted value back. Provenance is not persisted in
// dataset files, so any present value comes back as Printed.
func (i *Int) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*i = Int{}
		return nil
	}
	v, err := strconv.ParseInt(string(bytes.TrimSpace(b)), 10, 64)
	if err != nil {
		return fmt.Errorf("cds: int: %w", err)
	}
	*i = PrintedInt(v)
	return nil
}

// Float is a ratio in [0,1] tagged with its provenance.
type Float struct {
	Value  float64
	Source Provenance
}

// PrintedFloat returns a ratio read from the document.
func PrintedFloat(v float64) Float { return Float{Value: Round4(v), Source: Printed} }

// DerivedFloat returns a ratio computed from counts.
func DerivedFloat(v float64) Float { return Float{Value: Round4(v), Source: Derived} }

func (f Float) IsZero() bool  { return f.Source == Absent }
func (f Float) Present() bool { return f.Source != Absent }

func (f Float) MarshalJSON() ([]byte, error) {
	if f.Source == Absent {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, f.Value, 'f', -1, 64), nil
}

func (f *Float) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*f = Float{}
		return nil
	}
	v, err := strconv.ParseFloat(string(bytes.TrimSpace(b)), 64)
	if err != nil {
		return fmt.Errorf("cds: float: %w", err)
	}
	*f = Float{Value: v, Source: Printed}
	return nil
}

// Round4 rounds to four decimal places, the precision rates are stored at.
func Round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
