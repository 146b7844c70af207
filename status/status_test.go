package status

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"gitlab.com/tinyland/lab/pulse-status/entry"
	"gitlab.com/tinyland/lab/pulse-status/ring"
)

var fixedNow = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func psi(avg10 string) string {
	return "some avg10=" + avg10 + " avg60=0.50 avg300=0.10 total=999\n" +
		"full avg10=0.00 avg60=0.00 avg300=0.00 total=0\n"
}

// fixture writes a fake /proc tree and returns entry options rooted there.
func fixture(t *testing.T) entry.Options {
	t.Helper()
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"proc/loadavg":         "0.12 0.08 0.05 1/234 5678\n",
		"proc/pressure/cpu":    psi("1.23"),
		"proc/pressure/memory": psi("4.56"),
		"proc/pressure/io":     psi("7.89"),
	})
	opts := entry.DefaultOptions()
	opts.ProcRoot = filepath.Join(root, "proc")
	opts.SysRoot = filepath.Join(root, "sys")
	return opts
}

func build(t *testing.T, opts entry.Options, specs ...string) *entry.Registry {
	t.Helper()
	reg, err := entry.Build(specs, opts)
	if err != nil {
		t.Fatalf("entry.Build(): %v", err)
	}
	t.Cleanup(func() { reg.Close() })
	return reg
}

// reverseQueue completes reads synchronously at submission and returns them
// in reverse order. It accepts at most depth reads in flight.
type reverseQueue struct {
	depth   int
	done    []ring.Completion
	waitErr error
}

func (q *reverseQueue) Submit(reqs []ring.Request) (int, error) {
	n := min(len(reqs), q.depth-len(q.done))
	for _, req := range reqs[:n] {
		read, err := unix.Pread(req.Fd, req.Buf, req.Offset)
		if err != nil {
			read = 0
		}
		q.done = append(q.done, ring.Completion{Tag: req.Tag, N: read, Err: err})
	}
	if n < len(reqs) {
		return n, ring.ErrQueueFull
	}
	return n, nil
}

func (q *reverseQueue) Wait(context.Context) (ring.Completion, error) {
	if q.waitErr != nil {
		return ring.Completion{}, q.waitErr
	}
	if len(q.done) == 0 {
		return ring.Completion{}, ring.ErrIdle
	}
	c := q.done[len(q.done)-1]
	q.done = q.done[:len(q.done)-1]
	return c, nil
}

func (q *reverseQueue) Close() error { return nil }

func fragments(reg *entry.Registry) []string {
	var out []string
	for _, e := range reg.Entries {
		out = append(out, e.Fragment(fixedNow))
	}
	return out
}
