package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"testing"
)

type fakeExec struct {
	loggedIn bool

	calls []string
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }

func (f *fakeExec) Login(_ context.Context, args []string) error {
	f.calls = append(f.calls, "login "+strings.Join(args, " "))
	f.loggedIn = true
	return nil
}

func (f *fakeExec) Register(context.Context) error {
	f.calls = append(f.calls, "register")
	return nil
}

func (f *fakeExec) Logout(context.Context) error {
	f.calls = append(f.calls, "logout")
	f.loggedIn = false
	return nil
}

func (f *fakeExec) WhoAmI(context.Context) error {
	f.calls = append(f.calls, "whoami")
	return nil
}

func (f *fakeExec) Watch(_ context.Context, args []string) error {
	f.calls = append(f.calls, "watch "+strings.Join(args, " "))
	return nil
}

func (f *fakeExec) Sync(context.Context) error {
	f.calls = append(f.calls, "sync")
	return nil
}

func TestRunREPL_DispatchesCommands(t *testing.T) {
	var printed []string
	origPrint := printlnFn
	printlnFn = func(a ...any) (int, error) {
		printed = append(printed, fmt.Sprint(a...))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = origPrint })

	input := strings.NewReader(strings.Join([]string{
		"help",
		"login tok",
		"help",
		"",
		"whoami",
		"watch registrations",
		"w",
		"sync",
		"register",
		"foobar",
		"logout",
		"exit",
		"sync",
	}, "\n"))

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "status" }, bufio.NewScanner(input))

	want := []string{"login tok", "whoami", "watch registrations", "watch ", "sync", "register", "logout"}
	if strings.Join(exec.calls, "|") != strings.Join(want, "|") {
		t.Fatalf("calls = %v, want %v", exec.calls, want)
	}

	all := strings.Join(printed, "\n")
	for _, s := range []string{"login [token]", "whoami, watch", "Unknown command:foobar", "Bye!"} {
		if !strings.Contains(all, s) {
			t.Fatalf("output missing %q:\n%s", s, all)
		}
	}
}

func TestRunREPL_EOFEnds(t *testing.T) {
	silencePrintln(t)

	exec := &fakeExec{loggedIn: true}
	runREPL(context.Background(), exec, func() string { return "s" }, bufio.NewScanner(strings.NewReader("sync")))

	if len(exec.calls) != 1 || exec.calls[0] != "sync" {
		t.Fatalf("unexpected calls: %v", exec.calls)
	}
}
