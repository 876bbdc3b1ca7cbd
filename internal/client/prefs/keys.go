package prefs

import (
	"strconv"

	"github.com/dmitrijs2005/hydrotrack/internal/timex"
	"github.com/dmitrijs2005/hydrotrack/internal/units"
)

// Documented defaults.
const (
	DefaultDailyGoalMl = 2000
	DefaultUserName    = "Usuário"
)

// Key is a typed preference key with its default and string codec.
type Key[T any] struct {
	name   string
	global bool
	def    T
	encode func(T) string
	decode func(string) (T, error)
}

// Name is the stored key name.
func (k Key[T]) Name() string { return k.name }

// Global reports whether the key always lives in the Global namespace.
func (k Key[T]) Global() bool { return k.global }

// Default is the value returned when nothing is stored.
func (k Key[T]) Default() T { return k.def }

// To binds v to the key for SetMany.
func (k Key[T]) To(v T) Assignment {
	return Assignment{key: k.name, global: k.global, value: k.encode(v)}
}

// Encode renders v in its stored form.
func (k Key[T]) Encode(v T) string { return k.encode(v) }

// Decode parses a stored value.
func (k Key[T]) Decode(raw string) (T, error) { return k.decode(raw) }

func (k Key[T]) parse(raw string, present bool) (T, error) {
	if !present {
		return k.def, nil
	}
	return k.decode(raw)
}

// Assignment is one key=value pair of a SetMany call.
type Assignment struct {
	key    string
	global bool
	value  string
}

// Key returns the stored key name.
func (a Assignment) Key() string { return a.key }

// Value returns the encoded value.
func (a Assignment) Value() string { return a.value }

func intKey(name string, def int) Key[int] {
	return Key[int]{name: name, def: def, encode: strconv.Itoa, decode: strconv.Atoi}
}

func stringKey(name string, global bool) Key[string] {
	id := func(s string) string { return s }
	return Key[string]{name: name, global: global, encode: id,
		decode: func(s string) (string, error) { return s, nil }}
}

var (
	KeyDailyGoalMl        = intKey("dailyGoalMl", DefaultDailyGoalMl)
	KeyDailyConsumptionMl = intKey("dailyConsumptionMl", 0)

	KeyWaterUnit = Key[units.Unit]{
		name: "waterUnit",
		def:  units.DefaultUnit,
		encode: func(u units.Unit) string {
			return strconv.Itoa(int(u))
		},
		decode: func(s string) (units.Unit, error) {
			n, err := strconv.Atoi(s)
			if err != nil {
				return units.DefaultUnit, err
			}
			return units.FromOrdinal(n), nil
		},
	}

	KeyLastConsumptionDate = Key[timex.Date]{
		name:   "lastConsumptionDate",
		encode: timex.Date.String,
		decode: timex.ParseDate,
	}

	KeyUserName  = stringKey("userName", false)
	KeyUserEmail = stringKey("userEmail", false)
	KeyUserPhone = stringKey("userPhone", false)

	KeyDarkMode = Key[bool]{
		name:   "isDarkMode",
		global: true,
		encode: strconv.FormatBool,
		decode: strconv.ParseBool,
	}
	KeyLastIdentity = stringKey("lastIdentity", true)
)
