package compute

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/gogpu/compute/adapter"
	"github.com/gogpu/compute/backend/recording"
)

func TestNopHandler(t *testing.T) {
	h := nopHandler{}
	for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
		if h.Enabled(context.Background(), level) {
			t.Errorf("nopHandler.Enabled(%v) = true, want false", level)
		}
	}
	if err := h.Handle(context.Background(), slog.Record{}); err != nil {
		t.Errorf("nopHandler.Handle() = %v, want nil", err)
	}
	if _, ok := h.WithAttrs([]slog.Attr{slog.String("k", "v")}).(nopHandler); !ok {
		t.Error("WithAttrs did not return a nopHandler")
	}
	if _, ok := h.WithGroup("g").(nopHandler); !ok {
		t.Error("WithGroup did not return a nopHandler")
	}
}

func TestSetLogger(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	var buf bytes.Buffer
	custom := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	SetLogger(custom)
	if Logger() != custom {
		t.Fatal("Logger() did not return the logger set via SetLogger")
	}

	c, err := New(adapter.New(recording.New().Adapter(0)))
	if err != nil {
		t.Fatal(err)
	}
	c.Destroy()

	out := buf.String()
	for _, want := range []string{"context created", "context destroyed", "subsystem=resource", "subsystem=device"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}

	SetLogger(nil)
	if Logger().Enabled(context.Background(), slog.LevelError) {
		t.Error("SetLogger(nil) did not restore the silent logger")
	}
}

func TestWithLoggerOverridesDefault(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, nil))

	c, err := New(adapter.New(recording.New().Adapter(0)), WithLogger(l))
	if err != nil {
		t.Fatal(err)
	}
	c.Destroy()
	if !strings.Contains(buf.String(), "context created") {
		t.Errorf("WithLogger logger received no output:\n%s", buf.String())
	}
}
