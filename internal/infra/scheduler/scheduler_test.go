package scheduler

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"bill_reminder_service/internal/app"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReminderService struct {
	mu          sync.Mutex
	passes      int
	maintenance int
	passErr     error
}

func (f *fakeReminderService) ProcessDueReminders(ctx context.Context) (app.PassStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.passes++
	return app.PassStats{Processed: 1}, f.passErr
}

func (f *fakeReminderService) RunMaintenance(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.maintenance++
	return nil
}

func (f *fakeReminderService) passCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.passes
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestScheduler(svc app.ReminderService, clock clockwork.Clock) *ReminderScheduler {
	return NewReminderScheduler(svc, clock, quietLogger(), "0 * * * *", "30 4 * * *", time.Second)
}

func TestScheduler_StartTwiceIsAnError(t *testing.T) {
	s := newTestScheduler(&fakeReminderService{}, clockwork.NewFakeClock())

	require.NoError(t, s.Start())
	defer s.Stop()

	assert.ErrorIs(t, s.Start(), ErrAlreadyRunning)
}

func TestScheduler_StopWithoutStartIsNoop(t *testing.T) {
	s := newTestScheduler(&fakeReminderService{}, clockwork.NewFakeClock())
	s.Stop() // must not panic or block
}

func TestScheduler_RestartAfterStop(t *testing.T) {
	s := newTestScheduler(&fakeReminderService{}, clockwork.NewFakeClock())

	require.NoError(t, s.Start())
	s.Stop()
	require.NoError(t, s.Start())
	s.Stop()
}

func TestScheduler_StartupCatchupPass(t *testing.T) {
	svc := &fakeReminderService{}
	clock := clockwork.NewFakeClock()
	s := newTestScheduler(svc, clock)

	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Equal(t, 0, svc.passCount())

	clock.Advance(2 * time.Second)
	assert.Eventually(t, func() bool {
		return svc.passCount() == 1
	}, time.Second, 10*time.Millisecond, "catch-up pass should fire after the startup delay")
}

func TestScheduler_StopCancelsPendingCatchup(t *testing.T) {
	svc := &fakeReminderService{}
	clock := clockwork.NewFakeClock()
	s := newTestScheduler(svc, clock)

	require.NoError(t, s.Start())
	s.Stop()

	clock.Advance(5 * time.Second)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, svc.passCount())
}

func TestScheduler_RunOnce(t *testing.T) {
	svc := &fakeReminderService{}
	s := newTestScheduler(svc, clockwork.NewFakeClock())

	stats, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, app.PassStats{Processed: 1}, stats)
	assert.Equal(t, 1, svc.passCount())
}

func TestScheduler_RunOncePropagatesPassFault(t *testing.T) {
	svc := &fakeReminderService{passErr: fmt.Errorf("store unreachable")}
	s := newTestScheduler(svc, clockwork.NewFakeClock())

	_, err := s.RunOnce(context.Background())
	require.Error(t, err)
}
