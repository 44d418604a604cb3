package js

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

// newTestRuntime returns a runtime whose console output is discarded.
func newTestRuntime(t *testing.T) *Runtime {
	t.Helper()
	r := NewRuntime(nil, WithLogger(slog.New(slog.DiscardHandler)))
	t.Cleanup(r.Env().Close)
	return r
}

func mustExecute(t *testing.T, r *Runtime, code string) string {
	t.Helper()
	result, err := r.Execute(code)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	return result.String()
}

func runFor(t *testing.T, r *Runtime, d time.Duration) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return r.Run(ctx)
}

func TestRuntimeBasic(t *testing.T) {
	r := newTestRuntime(t)

	result, err := r.Execute("1 + 2")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.ToInteger() != 3 {
		t.Errorf("Expected 3, got %v", result.ToInteger())
	}
}

func TestRuntimeFunctions(t *testing.T) {
	r := newTestRuntime(t)

	mustExecute(t, r, `
		function add(a, b) {
			return a + b;
		}
	`)
	if got := mustExecute(t, r, "add(3, 4)"); got != "7" {
		t.Errorf("Expected 7, got %v", got)
	}
}

func TestRuntimeConsoleLogsThroughSlog(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	r := NewRuntime(nil, WithLogger(logger))

	mustExecute(t, r, `
		console.log("test", "message", 1);
		console.warn("careful");
		console.error("broken");
		console.debug("details");
		console.assert(false, "nope");
		console.count(); console.count();
	`)

	out := buf.String()
	for _, want := range []string{
		`level=INFO msg="test message 1"`,
		`level=WARN msg=careful`,
		`level=ERROR msg=broken`,
		`level=DEBUG msg=details`,
		`level=ERROR msg="Assertion failed: nope"`,
		`msg="default: 2"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("console output missing %q:\n%s", want, out)
		}
	}
}

func TestRuntimeSetTimeout(t *testing.T) {
	r := newTestRuntime(t)

	mustExecute(t, r, `
		var called = false;
		setTimeout(function() {
			called = true;
		}, 10);
	`)

	time.Sleep(20 * time.Millisecond)
	r.ProcessTimers()

	if got := mustExecute(t, r, "called"); got != "true" {
		t.Error("setTimeout callback was not called")
	}
}

func TestRuntimeClearTimeout(t *testing.T) {
	r := newTestRuntime(t)

	mustExecute(t, r, `
		var called = false;
		var id = setTimeout(function() {
			called = true;
		}, 10);
		clearTimeout(id);
	`)

	time.Sleep(20 * time.Millisecond)
	r.ProcessTimers()

	if got := mustExecute(t, r, "called"); got != "false" {
		t.Error("setTimeout callback was called after clearTimeout")
	}
	if r.HasPendingWork() {
		t.Error("Expected no pending work after clearTimeout")
	}
}

func TestRuntimeTimersRunInDueOrder(t *testing.T) {
	r := newTestRuntime(t)

	mustExecute(t, r, `
		var order = [];
		setTimeout(function() { order.push('c'); }, 30);
		setTimeout(function() { order.push('a'); }, 0);
		setTimeout(function() { order.push('b'); }, 0);
	`)

	if err := runFor(t, r, 2*time.Second); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got := mustExecute(t, r, "order.join('')"); got != "abc" {
		t.Errorf("Expected 'abc', got %q", got)
	}
}

func TestRuntimeRunStopsIntervalOnContext(t *testing.T) {
	r := newTestRuntime(t)

	mustExecute(t, r, `
		var count = 0;
		setInterval(function() { count++; }, 5);
	`)

	err := runFor(t, r, 60*time.Millisecond)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Expected deadline exceeded, got %v", err)
	}
	result, _ := r.Execute("count")
	if result.ToInteger() < 2 {
		t.Errorf("Expected the interval to fire repeatedly, got %v", result.ToInteger())
	}
}

func TestRuntimeRunClearedInterval(t *testing.T) {
	r := newTestRuntime(t)

	mustExecute(t, r, `
		var count = 0;
		var id = setInterval(function() {
			if (++count === 3) clearInterval(id);
		}, 4);
	`)

	if err := runFor(t, r, 2*time.Second); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got := mustExecute(t, r, "count"); got != "3" {
		t.Errorf("Expected 3, got %v", got)
	}
}

func TestRuntimeQueueMicrotask(t *testing.T) {
	r := newTestRuntime(t)

	mustExecute(t, r, `
		var order = [];
		setTimeout(function() { order.push(2); }, 0);
		queueMicrotask(function() {
			order.push(1);
		});
		order.push(0);
	`)

	if err := runFor(t, r, time.Second); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got := mustExecute(t, r, "order.join(',')"); got != "0,1,2" {
		t.Errorf("Expected '0,1,2', got %v", got)
	}
}

func TestRuntimeGlobalThis(t *testing.T) {
	r := newTestRuntime(t)

	if got := mustExecute(t, r, "globalThis === window && self === window"); got != "true" {
		t.Error("Expected globalThis, self and window to be the same object")
	}
	if got := mustExecute(t, r, "navigator.userAgent"); got != UserAgent {
		t.Errorf("Expected %q, got %q", UserAgent, got)
	}
}

func TestRuntimePerformance(t *testing.T) {
	r := newTestRuntime(t)

	result, _ := r.Execute("performance.now()")
	now := result.ToFloat()
	if now < 0 {
		t.Errorf("Expected performance.now() >= 0, got %v", now)
	}

	time.Sleep(10 * time.Millisecond)

	result, _ = r.Execute("performance.now()")
	if later := result.ToFloat(); later <= now {
		t.Errorf("Expected performance.now() to increase, got %v then %v", now, later)
	}
}

func TestRuntimeErrorHandling(t *testing.T) {
	r := newTestRuntime(t)

	var seen []error
	r.SetOnError(func(err error) { seen = append(seen, err) })

	if _, err := r.Execute("this is not valid javascript"); err == nil {
		t.Error("Expected error for invalid JavaScript")
	}
	if len(r.Errors()) != 1 || len(seen) != 1 {
		t.Errorf("Expected one recorded error, got %d (handler saw %d)", len(r.Errors()), len(seen))
	}

	r.ClearErrors()
	if n := len(r.Errors()); n != 0 {
		t.Errorf("Expected errors to be cleared, got %d", n)
	}
}

func TestRuntimeCallbackErrorsAreReported(t *testing.T) {
	r := newTestRuntime(t)

	mustExecute(t, r, `
		var after = false;
		setTimeout(function() { throw new Error("boom"); }, 0);
		setTimeout(function() { after = true; }, 0);
	`)
	if err := runFor(t, r, time.Second); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	errs := r.Errors()
	if len(errs) != 1 || !strings.Contains(errs[0].Error(), "boom") {
		t.Errorf("Expected the thrown error to be reported, got %v", errs)
	}
	if got := mustExecute(t, r, "after"); got != "true" {
		t.Error("A throwing callback stopped later timers")
	}
}

func TestRuntimeExecuteScript(t *testing.T) {
	r := newTestRuntime(t)

	err := r.ExecuteScript(`var x = 1; undefinedFunction();`, "broken.js")
	if err == nil || !strings.Contains(err.Error(), "broken.js") {
		t.Errorf("Expected an error naming broken.js, got %v", err)
	}

	if got := mustExecute(t, r, "x + 1"); got != "2" {
		t.Errorf("Runtime should still work after a failed script, got %v", got)
	}
}
