package battery

import "math"

// Scale helpers convert physical values to the scaled integers stored in a
// Pack and back. Conversions round half away from zero.

// ToDeci converts a value to tenths (0.1V, 0.1A, 0.1%, 0.1C).
func ToDeci(v float64) int { return scaleTo(v, 10) }

// FromDeci converts tenths back to the physical value.
func FromDeci(v int) float64 { return float64(v) / 10 }

// ToCenti converts a value to hundredths.
func ToCenti(v float64) int { return scaleTo(v, 100) }

// FromCenti converts hundredths back to the physical value.
func FromCenti(v int) float64 { return float64(v) / 100 }

// ToMilli converts a value to thousandths (1mV, 1mAh).
func ToMilli(v float64) int { return scaleTo(v, 1000) }

// FromMilli converts thousandths back to the physical value.
func FromMilli(v int) float64 { return float64(v) / 1000 }

func scaleTo(v float64, factor float64) int {
	return int(math.Round(v * factor))
}
