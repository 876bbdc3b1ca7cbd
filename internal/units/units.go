// Package units converts between the storage unit (integral milliliters)
// and the units a user may choose for display.
package units

import (
	"fmt"
	"math"
	"strings"
)

// Unit is a display unit for water amounts. Its ordinal is what gets
// persisted, so new values must only be appended.
type Unit int

const (
	ML Unit = iota
	Liters
	Cups
	Bottles
)

// Milliliter factors. A bottle is 500 ml.
const (
	mlPerML      = 1
	mlPerLiter   = 1000
	mlPerCup     = 250
	mlPerBottle  = 500
	unitsInTotal = 4
)

// DefaultUnit is used when no unit preference is stored.
const DefaultUnit = ML

var factors = [unitsInTotal]int{mlPerML, mlPerLiter, mlPerCup, mlPerBottle}

var labels = [unitsInTotal]string{"ml", "L", "copos", "garrafas"}

var names = [unitsInTotal]string{"ml", "liters", "cups", "bottles"}

// FromOrdinal returns the unit stored under n. Unknown ordinals fall back
// to ML so old or corrupted preference values still render.
func FromOrdinal(n int) Unit {
	if n < 0 || n >= unitsInTotal {
		return DefaultUnit
	}
	return Unit(n)
}

func (u Unit) valid() bool {
	return u >= 0 && int(u) < unitsInTotal
}

// Factor is the number of milliliters in one u.
func (u Unit) Factor() int {
	if !u.valid() {
		return mlPerML
	}
	return factors[u]
}

// Label is the short user-facing label used in messages.
func (u Unit) Label() string {
	if !u.valid() {
		return labels[ML]
	}
	return labels[u]
}

// String returns the canonical name accepted by ParseUnit.
func (u Unit) String() string {
	if !u.valid() {
		return fmt.Sprintf("Unit(%d)", int(u))
	}
	return names[u]
}

// ParseUnit accepts canonical names, labels and a few common aliases.
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ml", "milliliters", "mililitros":
		return ML, nil
	case "l", "liter", "liters", "litros":
		return Liters, nil
	case "cup", "cups", "copo", "copos":
		return Cups, nil
	case "bottle", "bottles", "garrafa", "garrafas":
		return Bottles, nil
	}
	return ML, fmt.Errorf("unknown unit %q", s)
}

// ToDisplayUnit converts a milliliter amount into unit.
func ToDisplayUnit(amountMl int, unit Unit) float64 {
	return float64(amountMl) / float64(unit.Factor())
}

// truncSlack absorbs binary representation error in amount*factor so a
// product that is exact in decimal (2.01 L) is not truncated one short.
const truncSlack = 1e-9

// ToMl converts a display amount back to milliliters, truncating toward
// zero.
func ToMl(amount float64, unit Unit) int {
	p := amount * float64(unit.Factor())
	slack := truncSlack * math.Max(1, math.Abs(p))
	return int(math.Trunc(p + math.Copysign(slack, p)))
}
