package schedule

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// FDTimer is a Timer backed by a CLOCK_REALTIME timerfd. Expirations are
// absolute and the timer is cancelled when the clock is set.
type FDTimer struct {
	fd   int
	file *os.File
	buf  [8]byte
}

// NewFDTimer creates an unarmed timerfd.
func NewFDTimer() (*FDTimer, error) {
	fd, err := unix.TimerfdCreate(unix.CLOCK_REALTIME, unix.TFD_NONBLOCK|unix.TFD_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("schedule: timerfd_create: %w", err)
	}
	// A non-blocking descriptor is registered with the runtime poller, which
	// makes read deadlines work.
	return &FDTimer{fd: fd, file: os.NewFile(uintptr(fd), "timerfd")}, nil
}

// Arm implements Timer.
func (t *FDTimer) Arm(first time.Time, interval time.Duration) error {
	spec := unix.ItimerSpec{
		Interval: unix.NsecToTimespec(interval.Nanoseconds()),
		Value:    unix.NsecToTimespec(first.UnixNano()),
	}
	flags := unix.TFD_TIMER_ABSTIME | unix.TFD_TIMER_CANCEL_ON_SET
	if err := unix.TimerfdSettime(t.fd, flags, &spec, nil); err != nil {
		return fmt.Errorf("timerfd_settime: %w", err)
	}
	return nil
}

// Wait implements Timer.
func (t *FDTimer) Wait(ctx context.Context) (uint64, error) {
	if err := t.file.SetReadDeadline(time.Time{}); err != nil {
		return 0, err
	}
	stop := context.AfterFunc(ctx, func() {
		t.file.SetReadDeadline(time.Now())
	})
	defer stop()

	n, err := t.file.Read(t.buf[:])
	switch {
	case errors.Is(err, unix.ECANCELED):
		return 0, ErrClockChanged
	case err != nil:
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return 0, err
	case n != len(t.buf):
		return 0, fmt.Errorf("short timerfd read of %d bytes", n)
	}
	return binary.NativeEndian.Uint64(t.buf[:]), nil
}

// Close implements Timer.
func (t *FDTimer) Close() error {
	return t.file.Close()
}
