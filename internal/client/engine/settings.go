package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/hydrotrack/internal/client/prefs"
	"github.com/dmitrijs2005/hydrotrack/internal/common"
	"github.com/dmitrijs2005/hydrotrack/internal/units"
)

// Profile is the user's contact data.
type Profile struct {
	Name  string
	Email string
	Phone string
}

// Settings is what a status screen shows.
type Settings struct {
	Profile
	DailyGoalMl int
	Unit        units.Unit
	DarkMode    bool
}

func (e *Engine) setAndPush(ctx context.Context, values ...prefs.Assignment) error {
	identity, err := e.current()
	if err != nil {
		return err
	}
	if err := e.prefs.SetMany(ctx, prefs.User(identity), values...); err != nil {
		return err
	}
	e.push(ctx, identity, values...)
	return nil
}

// SetDailyGoal stores a positive goal in milliliters.
func (e *Engine) SetDailyGoal(ctx context.Context, goalMl int) error {
	if goalMl <= 0 {
		return fmt.Errorf("%w: goal must be positive", common.ErrorInvalidInput)
	}
	return e.setAndPush(ctx, prefs.KeyDailyGoalMl.To(goalMl))
}

// SetWaterUnit stores the display unit. The unit is a device preference
// and is not synced.
func (e *Engine) SetWaterUnit(ctx context.Context, u units.Unit) error {
	return e.setAndPush(ctx, prefs.KeyWaterUnit.To(u))
}

// UpdateProfile writes name, email and phone together.
func (e *Engine) UpdateProfile(ctx context.Context, p Profile) error {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return fmt.Errorf("%w: name must not be empty", common.ErrorInvalidInput)
	}
	return e.setAndPush(ctx,
		prefs.KeyUserName.To(name),
		prefs.KeyUserEmail.To(strings.TrimSpace(p.Email)),
		prefs.KeyUserPhone.To(strings.TrimSpace(p.Phone)),
	)
}

// ToggleDarkMode flips the device-wide theme and returns the new value.
// It works without a session.
func (e *Engine) ToggleDarkMode(ctx context.Context) (bool, error) {
	return e.prefs.ToggleDarkMode(ctx)
}

// LastIdentity is the identity of the last session on this device, or "".
func (e *Engine) LastIdentity(ctx context.Context) (string, error) {
	return e.prefs.LastIdentity(ctx)
}

// Settings reads the active user's settings.
func (e *Engine) Settings(ctx context.Context) (Settings, error) {
	identity, err := e.current()
	if err != nil {
		return Settings{}, err
	}
	ns := prefs.User(identity)

	var out Settings
	if out.Name, err = prefs.Get(ctx, e.prefs, ns, prefs.KeyUserName); err != nil {
		return Settings{}, err
	}
	if out.Email, err = prefs.Get(ctx, e.prefs, ns, prefs.KeyUserEmail); err != nil {
		return Settings{}, err
	}
	if out.Phone, err = prefs.Get(ctx, e.prefs, ns, prefs.KeyUserPhone); err != nil {
		return Settings{}, err
	}
	if out.DailyGoalMl, err = prefs.Get(ctx, e.prefs, ns, prefs.KeyDailyGoalMl); err != nil {
		return Settings{}, err
	}
	if out.Unit, err = prefs.Get(ctx, e.prefs, ns, prefs.KeyWaterUnit); err != nil {
		return Settings{}, err
	}
	if out.DarkMode, err = prefs.Get(ctx, e.prefs, prefs.Global, prefs.KeyDarkMode); err != nil {
		return Settings{}, err
	}
	return out, nil
}
