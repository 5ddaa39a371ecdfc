package monitoring

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isdelr/grandline-guide/internal/models"
	"github.com/isdelr/grandline-guide/internal/services"
)

type stubPinger struct{ err error }

func (p stubPinger) PingContext(context.Context) error { return p.err }

type stubDirectory struct {
	mu  sync.Mutex
	err error
}

func (d *stubDirectory) setErr(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.err = err
}

func (d *stubDirectory) FindByCode(context.Context, string) (models.Country, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return models.Country{}, d.err
	}
	return models.Country{Name: "Germany"}, nil
}

type recordedEvent struct {
	Type  string
	Level string
}

type stubEvents struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (e *stubEvents) CreateEvent(_ context.Context, eventType, level, _ string, _ *string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, recordedEvent{Type: eventType, Level: level})
	return nil
}

func (e *stubEvents) GetRecentEvents(context.Context, string, int) ([]models.Event, error) {
	return nil, nil
}

func (e *stubEvents) types() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []string
	for _, ev := range e.events {
		out = append(out, ev.Type)
	}
	return out
}

func newTestMonitor(db Pinger, dir DirectoryProber, events *stubEvents, memPercent float64) *Monitor {
	m := NewMonitor(db, dir, events, "@every 5m")
	m.hostStats = func(context.Context) (HostStats, error) {
		return HostStats{MemoryUsedPercent: memPercent, UptimeSeconds: 42}, nil
	}
	return m
}

func TestMonitor_ReportBeforeFirstCheck(t *testing.T) {
	m := newTestMonitor(stubPinger{}, &stubDirectory{}, &stubEvents{}, 10)

	report := m.Report()
	assert.False(t, report.Healthy())
	assert.Equal(t, checkResultUnchecked, report.Database.Status)
	assert.True(t, report.CheckedAt.IsZero())
}

func TestMonitor_Check(t *testing.T) {
	tests := []struct {
		name       string
		dbErr      error
		dirErr     error
		wantStatus string
		wantHealth bool
	}{
		{name: "all up", wantStatus: statusOK, wantHealth: true},
		{name: "directory down", dirErr: errors.New("timeout"), wantStatus: statusDegraded, wantHealth: true},
		{name: "database down", dbErr: errors.New("disk I/O error"), wantStatus: statusDown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMonitor(stubPinger{err: tt.dbErr}, &stubDirectory{err: tt.dirErr}, &stubEvents{}, 10)

			report := m.Check(context.Background())

			assert.Equal(t, tt.wantStatus, report.Status)
			assert.Equal(t, tt.wantHealth, report.Healthy())
			assert.Equal(t, report, m.Report())
			require.NotNil(t, report.Host)
			assert.EqualValues(t, 42, report.Host.UptimeSeconds)
		})
	}
}

func TestMonitor_DirectoryAlertsOnTransitionsOnly(t *testing.T) {
	dir := &stubDirectory{}
	events := &stubEvents{}
	m := newTestMonitor(stubPinger{}, dir, events, 10)
	ctx := context.Background()

	m.Check(ctx)
	assert.Empty(t, events.types())

	dir.setErr(errors.New("connection refused"))
	m.Check(ctx)
	m.Check(ctx)
	assert.Equal(t, []string{services.EventUpstreamAlert}, events.types())

	dir.setErr(nil)
	m.Check(ctx)
	assert.Equal(t, []string{services.EventUpstreamAlert, services.EventUpstreamRecovered}, events.types())
}

func TestMonitor_MemoryAlertCooldown(t *testing.T) {
	events := &stubEvents{}
	m := newTestMonitor(stubPinger{}, &stubDirectory{}, events, 97.5)
	ctx := context.Background()

	m.Check(ctx)
	m.Check(ctx)

	assert.Equal(t, []string{services.EventResourceAlert}, events.types())
}

func TestMonitor_HostStatsFailureIsTolerated(t *testing.T) {
	m := newTestMonitor(stubPinger{}, &stubDirectory{}, &stubEvents{}, 0)
	m.hostStats = func(context.Context) (HostStats, error) {
		return HostStats{}, errors.New("unsupported platform")
	}

	report := m.Check(context.Background())
	assert.Equal(t, statusOK, report.Status)
	assert.Nil(t, report.Host)
}

func TestMonitor_StartRejectsBadSchedule(t *testing.T) {
	m := NewMonitor(stubPinger{}, &stubDirectory{}, &stubEvents{}, "every now and then")
	assert.Error(t, m.Start())
}
