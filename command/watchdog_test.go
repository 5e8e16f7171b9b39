package command

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// countingLogger records warn/error invocations for assertions.
type countingLogger struct {
	mu       sync.Mutex
	warns    int
	errors   int
	lastMsg  string
	lastKeys map[string]interface{}
}

func (l *countingLogger) record(msg string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lastMsg = msg
	l.lastKeys = fields
}

func (l *countingLogger) Info(msg string, fields map[string]interface{})  { l.record(msg, fields) }
func (l *countingLogger) Debug(msg string, fields map[string]interface{}) { l.record(msg, fields) }
func (l *countingLogger) Warn(msg string, fields map[string]interface{}) {
	l.record(msg, fields)
	l.mu.Lock()
	l.warns++
	l.mu.Unlock()
}
func (l *countingLogger) Error(msg string, fields map[string]interface{}) {
	l.record(msg, fields)
	l.mu.Lock()
	l.errors++
	l.mu.Unlock()
}

func (l *countingLogger) InfoWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
	l.Info(msg, fields)
}
func (l *countingLogger) ErrorWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
	l.Error(msg, fields)
}
func (l *countingLogger) WarnWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
	l.Warn(msg, fields)
}
func (l *countingLogger) DebugWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
	l.Debug(msg, fields)
}

func TestWatchdogWithinBudgetStaysQuiet(t *testing.T) {
	logger := &countingLogger{}
	w := NewWatchdog(20*time.Millisecond, logger)
	now := time.Unix(0, 0)
	w.now = func() time.Time { return now }

	w.Reset()
	now = now.Add(5 * time.Millisecond)
	w.AddEpoch("step")
	w.Finish()

	assert.Equal(t, 0, logger.warns)
	assert.False(t, w.IsExpired())
}

func TestWatchdogOverrunEmitsEpochTable(t *testing.T) {
	logger := &countingLogger{}
	w := NewWatchdog(20*time.Millisecond, logger)
	now := time.Unix(0, 0)
	w.now = func() time.Time { return now }

	w.Reset()
	now = now.Add(15 * time.Millisecond)
	w.AddEpoch("subsystem.Periodic()")
	now = now.Add(10 * time.Millisecond)
	w.AddEpoch("slow.Execute()")
	w.Finish()

	assert.Equal(t, 1, logger.warns)
	assert.Equal(t, "Scheduler loop time overrun", logger.lastMsg)
	assert.Contains(t, logger.lastKeys, "subsystem.Periodic()")
	assert.Contains(t, logger.lastKeys, "slow.Execute()")
	assert.True(t, w.IsExpired())
}

func TestWatchdogSetTimeout(t *testing.T) {
	w := NewWatchdog(20*time.Millisecond, nil)
	w.SetTimeout(40 * time.Millisecond)
	assert.Equal(t, 40*time.Millisecond, w.Timeout())
}

func TestWatchdogDisabledRecordsNothing(t *testing.T) {
	logger := &countingLogger{}
	w := NewWatchdog(time.Millisecond, logger)
	w.SetEnabled(false)
	now := time.Unix(0, 0)
	w.now = func() time.Time { return now }

	w.Reset()
	now = now.Add(time.Hour)
	w.AddEpoch("slow")
	w.Finish()

	assert.Equal(t, 0, logger.warns)
	assert.False(t, w.IsExpired())
}

func TestSchedulerSetPeriodAdjustsWatchdog(t *testing.T) {
	s := newTestScheduler()
	s.SetPeriod(5 * time.Millisecond)
	assert.Equal(t, 5*time.Millisecond, s.watchdog.Timeout())
}
