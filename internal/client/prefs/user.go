package prefs

import (
	"context"
	"strings"
)

// DisplayName picks the initial user name: the provider's display name,
// then the local part of an email identity, then DefaultUserName.
func DisplayName(identity, displayName string) string {
	if name := strings.TrimSpace(displayName); name != "" {
		return name
	}
	if at := strings.IndexByte(identity, '@'); at > 0 {
		return identity[:at]
	}
	return DefaultUserName
}

// InitializeUser stores first-use defaults for identity. Keys that already
// have a value are left alone, so calling it on every login is safe. It
// reports whether anything was written.
func (s *Store) InitializeUser(ctx context.Context, identity, displayName string) (bool, error) {
	ns := User(identity)
	candidates := []Assignment{
		KeyUserName.To(DisplayName(identity, displayName)),
		KeyDailyGoalMl.To(DefaultDailyGoalMl),
		KeyWaterUnit.To(KeyWaterUnit.def),
	}
	if strings.Contains(identity, "@") {
		candidates = append(candidates, KeyUserEmail.To(identity))
	}

	slots := make([]slot, 0, len(candidates))
	for _, a := range candidates {
		slots = append(slots, slot{ns: ns.storageKey(), key: a.key})
	}
	unlock := s.lockAll(slots)
	defer unlock()

	existing, err := s.newRepo(s.db).List(ctx, ns.storageKey())
	if err != nil {
		return false, err
	}
	var missing []Assignment
	for _, a := range candidates {
		if _, ok := existing[a.key]; !ok {
			missing = append(missing, a)
		}
	}
	if len(missing) == 0 {
		return false, nil
	}
	return true, s.commit(ctx, ns, missing)
}

// ToggleDarkMode flips the device-wide theme flag and returns the new value.
func (s *Store) ToggleDarkMode(ctx context.Context) (bool, error) {
	return Modify(ctx, s, Global, KeyDarkMode, func(v bool) bool { return !v })
}

// LastIdentity is the identity of the most recent session on this device.
func (s *Store) LastIdentity(ctx context.Context) (string, error) {
	return Get(ctx, s, Global, KeyLastIdentity)
}

// RememberIdentity stores identity as the most recent session.
func (s *Store) RememberIdentity(ctx context.Context, identity string) error {
	return Set(ctx, s, Global, KeyLastIdentity, identity)
}
