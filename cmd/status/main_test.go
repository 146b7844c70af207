package main

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gitlab.com/tinyland/lab/pulse-status/schedule"
)

// isolate keeps run away from the user's configuration and environment.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	for _, k := range []string{"PULSE_STATUS_INTERVAL", "PULSE_STATUS_LOG_LEVEL", "PULSE_STATUS_LINE_WIDTH", "PULSE_STATUS_DATE_FORMAT"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestRunVersion(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run([]string{"--version"}, &stdout, &stderr); code != 0 {
		t.Fatalf("exit code = %d, stderr = %q", code, stderr.String())
	}
	if !strings.HasPrefix(stdout.String(), "status "+buildVersion) {
		t.Errorf("stdout = %q", stdout.String())
	}
}

func TestRunMan(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run([]string{"--man"}, &stdout, &stderr); code != 0 {
		t.Fatalf("exit code = %d, stderr = %q", code, stderr.String())
	}
	if !strings.HasPrefix(stdout.String(), ".TH STATUS 1") {
		t.Errorf("stdout does not start with a man page header: %.40q", stdout.String())
	}
}

func TestRunList(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run([]string{"--list"}, &stdout, &stderr); code != 0 {
		t.Fatalf("exit code = %d, stderr = %q", code, stderr.String())
	}
	out := stdout.String()
	for _, want := range []string{
		"datetime, time, dt, t",
		"load, l",
		"pressure, pres, psi, p",
		"cpu|c, memory|mem|m, io",
		"memory, mem, m",
		"available,free",
		"battery, bat, b",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("--list output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("--list to a non-terminal contains escape sequences:\n%q", out)
	}
}

func TestRunUsage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run([]string{"-h"}, &stdout, &stderr); code != 0 {
		t.Errorf("-h exit code = %d", code)
	}
	if !strings.Contains(stderr.String(), "Usage: status") {
		t.Errorf("usage not printed: %q", stderr.String())
	}

	stderr.Reset()
	if code := run([]string{"--bogus"}, &stdout, &stderr); code != 2 {
		t.Errorf("unknown flag exit code = %d, want 2", code)
	}
}

func TestRunFatalSetup(t *testing.T) {
	dir := isolate(t)
	badConfig := filepath.Join(dir, "bad.yaml")
	writeFile(t, badConfig, "smoothing:\n  alpha: 2\n")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "unknown main", args: []string{"bogus"}, want: `unknown main specifier: "bogus"`},
		{name: "unknown sub", args: []string{"pressure:gpu"}, want: "unknown sub specifier"},
		{name: "unexpected sub", args: []string{"load:x"}, want: "takes no sub specifiers"},
		{name: "invalid config", args: []string{"-c", badConfig}, want: "smoothing.alpha"},
		{name: "invalid interval", args: []string{"-i", "0s"}, want: "interval must be positive"},
		{name: "missing env file", args: []string{"--env-file", filepath.Join(dir, "nope.env")}, want: "env file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if code := run(tt.args, &stdout, &stderr); code != 1 {
				t.Errorf("exit code = %d, want 1", code)
			}
			if !strings.HasPrefix(stderr.String(), "status: ") || !strings.Contains(stderr.String(), tt.want) {
				t.Errorf("stderr = %q, want diagnostic containing %q", stderr.String(), tt.want)
			}
			if stdout.Len() != 0 {
				t.Errorf("stdout = %q, want nothing", stdout.String())
			}
		})
	}
}

func TestRunUntilOutputCloses(t *testing.T) {
	if timer, err := schedule.NewFDTimer(); err != nil {
		t.Skipf("timerfd unavailable: %v", err)
	} else {
		timer.Close()
	}

	dir := isolate(t)
	proc := filepath.Join(dir, "proc")
	writeFile(t, filepath.Join(proc, "loadavg"), "0.12 0.08 0.05 1/234 5678\n")
	writeFile(t, filepath.Join(proc, "pressure", "cpu"),
		"some avg10=1.23 avg60=0.50 avg300=0.10 total=999\nfull avg10=0.00 avg60=0.00 avg300=0.00 total=0\n")
	cfgPath := filepath.Join(dir, "config.toml")
	writeFile(t, cfgPath, "[paths]\nproc = \""+proc+"\"\n")

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	var stderr bytes.Buffer
	done := make(chan int, 1)
	go func() {
		done <- run([]string{"-c", cfgPath, "-i", "10ms", "load", "pressure:cpu"}, w, &stderr)
		w.Close()
	}()

	br := bufio.NewReader(r)
	for i := range 2 {
		line, err := br.ReadString('\n')
		if err != nil {
			t.Fatalf("line %d: %v", i, err)
		}
		if want := "load: 0.12 cpu: 1.23\n"; line != want {
			t.Errorf("line %d = %q, want %q", i, line, want)
		}
	}
	r.Close()

	select {
	case code := <-done:
		if code != 0 {
			t.Errorf("exit code = %d, want 0; stderr = %q", code, stderr.String())
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run did not exit after stdout closed")
	}
}

func TestLineWidth(t *testing.T) {
	if got := lineWidth(42, &bytes.Buffer{}); got != 42 {
		t.Errorf("lineWidth(42) = %d", got)
	}
	if got := lineWidth(0, &bytes.Buffer{}); got != 120 {
		t.Errorf("lineWidth(0) for a non-terminal = %d, want 120", got)
	}
}
