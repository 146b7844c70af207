//go:build !linux

package schedule

import (
	"context"
	"errors"
	"time"
)

var errNoTimerfd = errors.New("schedule: timerfd requires linux")

// FDTimer is unavailable outside Linux.
type FDTimer struct{}

// NewFDTimer always fails outside Linux.
func NewFDTimer() (*FDTimer, error) { return nil, errNoTimerfd }

func (*FDTimer) Arm(time.Time, time.Duration) error { return errNoTimerfd }
func (*FDTimer) Wait(context.Context) (uint64, error) { return 0, errNoTimerfd }
func (*FDTimer) Close() error { return nil }
