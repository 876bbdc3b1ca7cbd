package cli

import (
	"bufio"
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type fakeExec struct {
	loggedIn bool

	calls []string
	args  map[string][]string
}

func (f *fakeExec) record(name string, args []string) error {
	f.calls = append(f.calls, name)
	if f.args == nil {
		f.args = map[string][]string{}
	}
	f.args[name] = args
	return nil
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }
func (f *fakeExec) Login(ctx context.Context, args []string) error {
	f.loggedIn = true
	return f.record("login", args)
}
func (f *fakeExec) Logout(ctx context.Context, args []string) error {
	f.loggedIn = false
	return f.record("logout", args)
}
func (f *fakeExec) Add(ctx context.Context, args []string) error     { return f.record("add", args) }
func (f *fakeExec) Remove(ctx context.Context, args []string) error  { return f.record("remove", args) }
func (f *fakeExec) History(ctx context.Context, args []string) error { return f.record("history", args) }
func (f *fakeExec) Delete(ctx context.Context, args []string) error  { return f.record("delete", args) }
func (f *fakeExec) Status(ctx context.Context, args []string) error  { return f.record("status", args) }
func (f *fakeExec) Goal(ctx context.Context, args []string) error    { return f.record("goal", args) }
func (f *fakeExec) Unit(ctx context.Context, args []string) error    { return f.record("unit", args) }
func (f *fakeExec) Profile(ctx context.Context, args []string) error { return f.record("profile", args) }
func (f *fakeExec) Theme(ctx context.Context, args []string) error   { return f.record("theme", args) }
func (f *fakeExec) Sync(ctx context.Context, args []string) error    { return f.record("sync", args) }
func (f *fakeExec) Remind(ctx context.Context, args []string) error  { return f.record("remind", args) }
func (f *fakeExec) DeleteAccount(ctx context.Context, args []string) error {
	return f.record("deleteaccount", args)
}

func captureOutput(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	origPrint := printlnFn
	printlnFn = func(a ...any) (int, error) {
		parts := make([]string, len(a))
		for i, v := range a {
			parts[i] = strings.TrimSpace(strings.ReplaceAll(toString(v), "\n", " "))
		}
		lines = append(lines, strings.Join(parts, " "))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = origPrint })
	return &lines
}

func toString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case error:
		return x.Error()
	}
	return ""
}

func TestRunREPL_DispatchesCommandsWithArgs(t *testing.T) {
	captureOutput(t)

	input := strings.NewReader(strings.Join([]string{
		"help",
		"login alice@example.com Alice Doe",
		"add 250",
		"remove 0.5",
		"",
		"history",
		"delete 7",
		"status",
		"goal 2500",
		"unit cups",
		"profile Alice a@b.c 555",
		"theme",
		"sync",
		"remind",
		"deleteaccount",
		"logout",
		"exit",
		"add 1",
	}, "\n"))

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "status" }, bufio.NewScanner(input))

	want := []string{"login", "add", "remove", "history", "delete", "status", "goal", "unit",
		"profile", "theme", "sync", "remind", "deleteaccount", "logout"}
	if diff := cmp.Diff(want, exec.calls); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"alice@example.com", "Alice", "Doe"}, exec.args["login"]); diff != "" {
		t.Fatalf("login args mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Alice", "a@b.c", "555"}, exec.args["profile"]); diff != "" {
		t.Fatalf("profile args mismatch (-want +got):\n%s", diff)
	}
}

func TestRunREPL_UnknownCommandAndQuit(t *testing.T) {
	out := captureOutput(t)

	exec := &fakeExec{loggedIn: true}
	runREPL(context.Background(), exec, func() string { return "s" }, bufio.NewScanner(strings.NewReader("frobnicate\nquit\n")))

	if len(exec.calls) != 0 {
		t.Fatalf("unexpected calls: %v", exec.calls)
	}
	joined := strings.Join(*out, "\n")
	if !strings.Contains(joined, "Unknown command: frobnicate") || !strings.Contains(joined, "Bye!") {
		t.Fatalf("unexpected output: %q", joined)
	}
}

func TestRunREPL_HelpDependsOnLogin(t *testing.T) {
	out := captureOutput(t)

	runREPL(context.Background(), &fakeExec{}, func() string { return "" }, bufio.NewScanner(strings.NewReader("help\n")))
	if !strings.Contains(strings.Join(*out, "\n"), "login, theme, deleteaccount --resume, exit") {
		t.Fatalf("expected logged-out help, got %q", *out)
	}

	*out = nil
	runREPL(context.Background(), &fakeExec{loggedIn: true}, func() string { return "" }, bufio.NewScanner(strings.NewReader("help\n")))
	if !strings.Contains(strings.Join(*out, "\n"), "deleteaccount") {
		t.Fatalf("expected logged-in help, got %q", *out)
	}
}
