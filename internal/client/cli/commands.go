package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/hydrotrack/internal/client/engine"
	"github.com/dmitrijs2005/hydrotrack/internal/common"
	"github.com/dmitrijs2005/hydrotrack/internal/units"
)

var errUsage = errors.New("usage")

func usage(text string) error {
	printlnFn("Usage:", text)
	return errUsage
}

// fail prints err in user terms and returns it.
func (a *App) fail(ctx context.Context, what string, err error) error {
	var delErr *engine.DeletionError
	switch {
	case errors.Is(err, common.ErrNoActiveSession):
		printlnFn("Please log in first")
	case errors.Is(err, common.ErrorInvalidInput):
		printlnFn("Invalid input:", err)
	case errors.Is(err, common.ErrorNotFound):
		printlnFn("Not found")
	case errors.As(err, &delErr):
		printlnFn(fmt.Sprintf("Account deletion stopped at the %s step: %v", delErr.Step, delErr.Err))
	default:
		printlnFn(fmt.Sprintf("Failed to %s: %v", what, err))
	}
	a.log.Warn(ctx, "command failed", "command", what, "error", err)
	return err
}

func (a *App) getStatus() string {
	s := ""
	if id, ok := a.tracker.Identity(); ok {
		s = id + " "
	}
	s += string(a.currentMode())
	return fmt.Sprintf("(%s)", s)
}

func formatAmount(ml int, u units.Unit) string {
	return fmt.Sprintf("%.1f %s", units.ToDisplayUnit(ml, u), u.Label())
}

func (a *App) Login(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usage("login <id> [display name]")
	}
	s := &engine.Session{Identity: args[0], DisplayName: strings.Join(args[1:], " ")}
	if err := a.tracker.SetIdentity(ctx, s); err != nil {
		return a.fail(ctx, "log in", err)
	}
	name := s.Identity
	if st, err := a.tracker.Settings(ctx); err == nil && st.Name != "" {
		name = st.Name
	}
	printlnFn(fmt.Sprintf("Logged in as %s", name))
	return nil
}

func (a *App) Logout(ctx context.Context, _ []string) error {
	if err := a.tracker.SetIdentity(ctx, nil); err != nil {
		return a.fail(ctx, "log out", err)
	}
	printlnFn("Logged out")
	return nil
}

// amountArg parses a positive amount typed in the active display unit.
func (a *App) amountArg(ctx context.Context, args []string, cmd string) (int, units.Unit, error) {
	if len(args) != 1 {
		return 0, 0, usage(cmd + " <amount>")
	}
	st, err := a.tracker.Settings(ctx)
	if err != nil {
		return 0, 0, a.fail(ctx, cmd, err)
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(args[0], ",", "."), 64)
	if err != nil || v <= 0 {
		printlnFn("Amount must be a positive number")
		return 0, 0, fmt.Errorf("%w: amount %q", common.ErrorInvalidInput, args[0])
	}
	ml := units.ToMl(v, st.Unit)
	if ml <= 0 {
		printlnFn("Amount is below one milliliter")
		return 0, 0, fmt.Errorf("%w: amount %q", common.ErrorInvalidInput, args[0])
	}
	return ml, st.Unit, nil
}

func (a *App) Add(ctx context.Context, args []string) error {
	return a.appendWater(ctx, args, "add", a.tracker.AddWater)
}

func (a *App) Remove(ctx context.Context, args []string) error {
	return a.appendWater(ctx, args, "remove", a.tracker.RemoveWater)
}

func (a *App) appendWater(ctx context.Context, args []string, cmd string, fn func(context.Context, int) (int64, error)) error {
	ml, u, err := a.amountArg(ctx, args, cmd)
	if err != nil {
		return err
	}
	id, err := fn(ctx, ml)
	if err != nil {
		return a.fail(ctx, cmd+" water", err)
	}
	total, err := a.tracker.TodayTotal(ctx)
	if err != nil {
		return a.fail(ctx, "read today's total", err)
	}
	printlnFn(fmt.Sprintf("Record #%d saved. Today: %s", id, formatAmount(max(total, 0), u)))
	return nil
}

func (a *App) History(ctx context.Context, _ []string) error {
	st, err := a.tracker.Settings(ctx)
	if err != nil {
		return a.fail(ctx, "list history", err)
	}
	records, err := a.tracker.History(ctx)
	if err != nil {
		return a.fail(ctx, "list history", err)
	}
	if len(records) == 0 {
		printlnFn("No records yet")
		return nil
	}
	for _, r := range records {
		printlnFn(fmt.Sprintf("#%-5d %s  %s", r.ID, r.Timestamp.Format("2006-01-02 15:04"), formatAmount(r.AmountMl, st.Unit)))
	}
	return nil
}

func (a *App) Delete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("delete <recordId>")
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(args[0], "#"), 10, 64)
	if err != nil {
		printlnFn("Record id must be a number")
		return fmt.Errorf("%w: record id %q", common.ErrorInvalidInput, args[0])
	}
	if err := a.tracker.DeleteRecord(ctx, id); err != nil {
		return a.fail(ctx, "delete record", err)
	}
	printlnFn(fmt.Sprintf("Record #%d deleted", id))
	return nil
}

func (a *App) Status(ctx context.Context, _ []string) error {
	st, err := a.tracker.Settings(ctx)
	if err != nil {
		return a.fail(ctx, "show status", err)
	}
	total, err := a.tracker.TodayTotal(ctx)
	if err != nil {
		return a.fail(ctx, "show status", err)
	}
	theme := "light"
	if st.DarkMode {
		theme = "dark"
	}
	printlnFn(fmt.Sprintf("Name:  %s", st.Name))
	printlnFn(fmt.Sprintf("Email: %s", st.Email))
	printlnFn(fmt.Sprintf("Phone: %s", st.Phone))
	printlnFn(fmt.Sprintf("Today: %s of %s", formatAmount(max(total, 0), st.Unit), formatAmount(st.DailyGoalMl, st.Unit)))
	printlnFn(fmt.Sprintf("Unit:  %s, theme: %s, mode: %s", st.Unit, theme, a.currentMode()))
	if a.tracker.SyncPending() {
		printlnFn("Sync:  waiting for the remote store, showing local values")
	}
	return nil
}

func (a *App) Goal(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("goal <ml>")
	}
	goal, err := strconv.Atoi(args[0])
	if err != nil {
		printlnFn("Goal must be a whole number of milliliters")
		return fmt.Errorf("%w: goal %q", common.ErrorInvalidInput, args[0])
	}
	if err := a.tracker.SetDailyGoal(ctx, goal); err != nil {
		return a.fail(ctx, "set goal", err)
	}
	printlnFn(fmt.Sprintf("Daily goal set to %d ml", goal))
	return nil
}

func (a *App) Unit(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("unit <ml|l|cups|bottles>")
	}
	u, err := units.ParseUnit(args[0])
	if err != nil {
		printlnFn(err)
		return fmt.Errorf("%w: %v", common.ErrorInvalidInput, err)
	}
	if err := a.tracker.SetWaterUnit(ctx, u); err != nil {
		return a.fail(ctx, "set unit", err)
	}
	printlnFn(fmt.Sprintf("Display unit set to %s", u.Label()))
	return nil
}

func (a *App) Profile(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return usage("profile <name> <email> <phone>")
	}
	p := engine.Profile{Name: args[0], Email: args[1], Phone: args[2]}
	if err := a.tracker.UpdateProfile(ctx, p); err != nil {
		return a.fail(ctx, "update profile", err)
	}
	printlnFn("Profile updated")
	return nil
}

func (a *App) Theme(ctx context.Context, _ []string) error {
	dark, err := a.tracker.ToggleDarkMode(ctx)
	if err != nil {
		return a.fail(ctx, "toggle theme", err)
	}
	if dark {
		printlnFn("Dark mode on")
	} else {
		printlnFn("Dark mode off")
	}
	return nil
}

func (a *App) Sync(ctx context.Context, _ []string) error {
	if err := a.tracker.RetryPending(ctx); err != nil {
		return a.fail(ctx, "sync", err)
	}
	printlnFn("Sync complete")
	return nil
}

func (a *App) Remind(ctx context.Context, _ []string) error {
	msg, ok, err := a.tracker.ReminderTick(ctx)
	if err != nil {
		return a.fail(ctx, "compute reminder", err)
	}
	if !ok {
		printlnFn("Nothing to remind right now")
		return nil
	}
	printlnFn(fmt.Sprintf("[%s] %s", msg.Title, msg.Body))
	return nil
}

func (a *App) pendingDeletionErr() *engine.DeletionError {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pendingDeletion
}

func (a *App) setPendingDeletion(d *engine.DeletionError) {
	a.mu.Lock()
	a.pendingDeletion = d
	a.mu.Unlock()
}

// rememberDeletion keeps err for a later resume when it is a
// *engine.DeletionError.
func (a *App) rememberDeletion(err error) {
	var delErr *engine.DeletionError
	if errors.As(err, &delErr) {
		a.setPendingDeletion(delErr)
	}
}

// resumeDeletion continues the pending account deletion from the step it
// stopped at.
func (a *App) resumeDeletion(ctx context.Context) error {
	d := a.pendingDeletionErr()
	if d == nil {
		return nil
	}
	if err := a.tracker.ResumeDeletion(ctx, d.Identity, d.Step); err != nil {
		a.rememberDeletion(err)
		return err
	}
	a.setPendingDeletion(nil)
	return nil
}

// DeleteAccount wants the active identity retyped, either as the argument
// or at a prompt when stdin is a terminal. "deleteaccount --resume"
// continues a deletion that stopped midway and works without a session.
func (a *App) DeleteAccount(ctx context.Context, args []string) error {
	if len(args) == 1 && args[0] == "--resume" {
		d := a.pendingDeletionErr()
		if d == nil {
			printlnFn("No account deletion to resume")
			return nil
		}
		if err := a.resumeDeletion(ctx); err != nil {
			return a.fail(ctx, "resume account deletion", err)
		}
		printlnFn(fmt.Sprintf("Account %s deleted", d.Identity))
		return nil
	}

	id, ok := a.tracker.Identity()
	if !ok {
		return a.fail(ctx, "delete account", common.ErrNoActiveSession)
	}
	var confirm string
	switch {
	case len(args) == 1:
		confirm = args[0]
	case len(args) == 0 && isTerminal(stdinFd()):
		var err error
		confirm, err = GetSimpleText(a.in, fmt.Sprintf("Type %q to delete this account and all its data", id), a.out)
		if err != nil {
			return a.fail(ctx, "read confirmation", err)
		}
	default:
		return usage("deleteaccount <id>")
	}
	if confirm != id {
		printlnFn("Account deletion cancelled")
		return nil
	}
	if err := a.tracker.DeleteAccount(ctx); err != nil {
		a.rememberDeletion(err)
		err = a.fail(ctx, "delete account", err)
		if a.pendingDeletionErr() != nil {
			printlnFn(`Run "deleteaccount --resume" to finish; it also resumes when the remote store is back`)
		}
		return err
	}
	a.setPendingDeletion(nil)
	printlnFn("Account deleted")
	return nil
}
