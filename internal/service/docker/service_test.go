package docker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
)

type fakeRunner struct {
	calls   [][]string
	outputs map[string][]byte
	errs    map[string]error
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{outputs: map[string][]byte{}, errs: map[string]error{}}
}

func (f *fakeRunner) Run(_ context.Context, argv ...string) ([]byte, error) {
	f.calls = append(f.calls, argv)
	key := strings.Join(argv, " ")
	for pattern, err := range f.errs {
		if strings.Contains(key, pattern) {
			return nil, err
		}
	}
	for pattern, out := range f.outputs {
		if strings.Contains(key, pattern) {
			return out, nil
		}
	}
	return nil, nil
}

func newTestService(t *testing.T, runner *fakeRunner) Service {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
	svc, err := New(runner, "docker", "wander-", logger)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return svc
}

const psOutput = `{"Names":"wander-api","State":"running","Image":"wander/api:1.4","Ports":"0.0.0.0:8080->8080/tcp","CreatedAt":"2026-08-28 10:00:00 +0000 UTC","Status":"Up 2 hours"}
{"Names":"wander-db","State":"exited","Image":"postgres:16","Ports":"","CreatedAt":"2026-08-28 09:55:00 +0000 UTC","Status":"Exited (0) 1 hour ago"}`

const statsOutput = `{"Name":"wander-api","CPUPerc":"1.25%","MemUsage":"120MiB / 2GiB","MemPerc":"5.86%"}`

func TestStatusMergesStatsForRunningContainers(t *testing.T) {
	runner := newFakeRunner()
	runner.outputs["ps -a"] = []byte(psOutput)
	runner.outputs["stats wander-api"] = []byte(statsOutput)
	svc := newTestService(t, runner)

	containers, err := svc.Status(context.Background())
	if err != nil {
		t.Fatalf("Status returned error: %v", err)
	}
	if len(containers) != 2 {
		t.Fatalf("expected 2 containers, got %d", len(containers))
	}

	api := containers[0]
	if api.Name != "wander-api" || api.Status != "running" {
		t.Fatalf("unexpected first container: %+v", api)
	}
	if api.CPU != "1.25%" || api.Memory != "120MiB / 2GiB" || api.MemoryPercent != "5.86%" {
		t.Fatalf("stats not merged: %+v", api)
	}

	db := containers[1]
	if db.Status != "exited" {
		t.Fatalf("unexpected second container: %+v", db)
	}
	if db.CPU != "0%" || db.Memory != "0B / 0B" {
		t.Fatalf("stopped container must carry zero stats: %+v", db)
	}

	// Stats must only be collected for the running container.
	for _, call := range runner.calls {
		if len(call) > 1 && call[1] == "stats" && call[2] != "wander-api" {
			t.Fatalf("stats collected for stopped container: %v", call)
		}
	}
}

func TestStatusAppliesNameFilter(t *testing.T) {
	runner := newFakeRunner()
	runner.outputs["ps -a"] = []byte("")
	svc := newTestService(t, runner)

	if _, err := svc.Status(context.Background()); err != nil {
		t.Fatalf("Status returned error: %v", err)
	}
	ps := runner.calls[0]
	joined := strings.Join(ps, " ")
	if !strings.Contains(joined, "--filter name=wander-") {
		t.Fatalf("missing name filter in: %v", ps)
	}
	if !strings.Contains(joined, "--format {{json .}}") {
		t.Fatalf("missing json format in: %v", ps)
	}
}

func TestStatusDegradesWhenStatsFail(t *testing.T) {
	runner := newFakeRunner()
	runner.outputs["ps -a"] = []byte(psOutput)
	runner.errs["stats"] = errors.New("stats unavailable")
	svc := newTestService(t, runner)

	containers, err := svc.Status(context.Background())
	if err != nil {
		t.Fatalf("Status must not fail when stats fail: %v", err)
	}
	if containers[0].CPU != "0%" {
		t.Fatalf("expected zero CPU fallback, got %q", containers[0].CPU)
	}
}

func TestStatusPropagatesPSFailure(t *testing.T) {
	runner := newFakeRunner()
	runner.errs["ps"] = errors.New("docker daemon unreachable")
	svc := newTestService(t, runner)

	if _, err := svc.Status(context.Background()); err == nil {
		t.Fatal("expected error when ps fails")
	}
}

func TestLogsRejectsUnsafeNames(t *testing.T) {
	runner := newFakeRunner()
	svc := newTestService(t, runner)

	for _, name := range []string{"", "-f", "api; rm -rf /", "a b", "../etc"} {
		if _, err := svc.Logs(context.Background(), name, 10); !errors.Is(err, ErrInvalidName) {
			t.Fatalf("name %q: expected ErrInvalidName, got %v", name, err)
		}
	}
	if len(runner.calls) != 0 {
		t.Fatalf("rejected names must never reach the runtime: %v", runner.calls)
	}
}

func TestLogsClampsLineCount(t *testing.T) {
	runner := newFakeRunner()
	runner.outputs["logs"] = []byte("line one\nline two")
	svc := newTestService(t, runner)

	cases := []struct {
		in   int
		want string
	}{
		{0, "50"},
		{-1, "50"},
		{200, "200"},
		{5000, "1000"},
	}
	for _, tc := range cases {
		runner.calls = nil
		if _, err := svc.Logs(context.Background(), "wander-api", tc.in); err != nil {
			t.Fatalf("Logs returned error: %v", err)
		}
		call := strings.Join(runner.calls[0], " ")
		if !strings.Contains(call, "--tail "+tc.want) {
			t.Fatalf("lines=%d: expected --tail %s in %q", tc.in, tc.want, call)
		}
	}
}

func TestLogsSplitsOutputLines(t *testing.T) {
	runner := newFakeRunner()
	runner.outputs["logs"] = []byte("line one\nline two\nline three")
	svc := newTestService(t, runner)

	lines, err := svc.Logs(context.Background(), "wander-api", 10)
	if err != nil {
		t.Fatalf("Logs returned error: %v", err)
	}
	if len(lines) != 3 || lines[2] != "line three" {
		t.Fatalf("unexpected lines: %v", lines)
	}
}

func TestNewSupportsMultiWordCommands(t *testing.T) {
	runner := newFakeRunner()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := New(runner, `podman --remote`, "wander-", logger)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	runner.outputs["ps -a"] = []byte("")
	if _, err := svc.Status(context.Background()); err != nil {
		t.Fatalf("Status returned error: %v", err)
	}
	call := runner.calls[0]
	if call[0] != "podman" || call[1] != "--remote" || call[2] != "ps" {
		t.Fatalf("command prefix not preserved: %v", call)
	}
}

func TestNewRejectsEmptyCommand(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if _, err := New(newFakeRunner(), "   ", "wander-", logger); err == nil {
		t.Fatal("expected error for empty command")
	}
}
