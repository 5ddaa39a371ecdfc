package monitoring

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/isdelr/grandline-guide/internal/models"
	"github.com/isdelr/grandline-guide/internal/services"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

const (
	checkTimeout         = 10 * time.Second
	highMemoryThreshold  = 90.0
	memoryAlertCooldown  = 15 * time.Minute
	directoryProbeCode   = "de"
	statusOK             = "ok"
	statusDegraded       = "degraded"
	statusDown           = "down"
	checkResultOK        = "ok"
	checkResultFailed    = "failed"
	checkResultUnchecked = "unchecked"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// DirectoryProber is satisfied by the country directory client.
type DirectoryProber interface {
	FindByCode(ctx context.Context, code string) (models.Country, error)
}

// CheckResult is the outcome of one dependency check.
type CheckResult struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	LatencyMS int64  `json:"latencyMs"`
}

// HostStats summarises the machine the server runs on.
type HostStats struct {
	MemoryUsedPercent float64 `json:"memoryUsedPercent"`
	UptimeSeconds     uint64  `json:"uptimeSeconds"`
}

// HealthReport is the latest health snapshot.
type HealthReport struct {
	Status    string      `json:"status"`
	CheckedAt time.Time   `json:"checkedAt"`
	Database  CheckResult `json:"database"`
	Directory CheckResult `json:"directory"`
	Host      *HostStats  `json:"host,omitempty"`
}

// Healthy reports whether the server can serve auth requests.
func (r HealthReport) Healthy() bool {
	return r.Database.Status == checkResultOK
}

// Monitor periodically checks the database, the country directory and the
// host, and records alerts as events.
type Monitor struct {
	db        Pinger
	directory DirectoryProber
	eventSvc  services.EventServiceProvider
	schedule  string
	cron      *cron.Cron
	hostStats func(ctx context.Context) (HostStats, error)

	mu             sync.RWMutex
	report         HealthReport
	directoryDown  bool
	lastMemoryWarn time.Time
}

// NewMonitor creates a new Monitor. schedule is a cron spec such as
// "@every 5m".
func NewMonitor(db Pinger, directory DirectoryProber, eventSvc services.EventServiceProvider, schedule string) *Monitor {
	return &Monitor{
		db:        db,
		directory: directory,
		eventSvc:  eventSvc,
		schedule:  schedule,
		cron:      cron.New(),
		hostStats: readHostStats,
		report: HealthReport{
			Status:    statusDegraded,
			Database:  CheckResult{Status: checkResultUnchecked},
			Directory: CheckResult{Status: checkResultUnchecked},
		},
	}
}

// Start schedules the checks and runs the first one immediately.
func (m *Monitor) Start() error {
	log.Info().Str("schedule", m.schedule).Msg("Starting background health monitor...")
	if _, err := m.cron.AddFunc(m.schedule, m.runScheduled); err != nil {
		return fmt.Errorf("invalid health schedule %q: %w", m.schedule, err)
	}
	m.cron.Start()

	// Run once immediately on start
	go m.runScheduled()
	return nil
}

// Stop halts the schedule and waits for a running check to finish.
func (m *Monitor) Stop() {
	<-m.cron.Stop().Done()
	log.Info().Msg("Stopped background health monitor.")
}

// Report returns the latest snapshot.
func (m *Monitor) Report() HealthReport {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.report
}

func (m *Monitor) runScheduled() {
	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()
	m.Check(ctx)
}

// Check runs all checks now and stores the result.
func (m *Monitor) Check(ctx context.Context) HealthReport {
	report := HealthReport{CheckedAt: time.Now().UTC()}

	report.Database = timed(func() error { return m.db.PingContext(ctx) })
	report.Directory = timed(func() error {
		_, err := m.directory.FindByCode(ctx, directoryProbeCode)
		return err
	})

	if stats, err := m.hostStats(ctx); err != nil {
		log.Warn().Err(err).Msg("HealthMonitor: Could not read host stats")
	} else {
		report.Host = &stats
	}

	switch {
	case report.Database.Status != checkResultOK:
		report.Status = statusDown
	case report.Directory.Status != checkResultOK:
		report.Status = statusDegraded
	default:
		report.Status = statusOK
	}

	m.mu.Lock()
	m.report = report
	m.mu.Unlock()

	m.alertOnDirectory(ctx, report.Directory)
	if report.Host != nil {
		m.alertOnMemory(ctx, report.Host.MemoryUsedPercent)
	}
	if report.Database.Status != checkResultOK {
		log.Error().Str("error", report.Database.Error).Msg("HealthMonitor: Database check failed")
	}
	return report
}

// alertOnDirectory records an event when the directory goes down or comes
// back, not on every failed check.
func (m *Monitor) alertOnDirectory(ctx context.Context, result CheckResult) {
	down := result.Status != checkResultOK

	m.mu.Lock()
	changed := down != m.directoryDown
	m.directoryDown = down
	m.mu.Unlock()

	if !changed {
		return
	}
	if down {
		log.Warn().Str("error", result.Error).Msg("HealthMonitor: Country directory unreachable")
		m.createEvent(ctx, services.EventUpstreamAlert, "warn", "Country directory unreachable: "+result.Error)
		return
	}
	log.Info().Msg("HealthMonitor: Country directory reachable again")
	m.createEvent(ctx, services.EventUpstreamRecovered, "info", "Country directory reachable again")
}

func (m *Monitor) alertOnMemory(ctx context.Context, usedPercent float64) {
	if usedPercent <= highMemoryThreshold {
		return
	}

	m.mu.Lock()
	if time.Since(m.lastMemoryWarn) < memoryAlertCooldown {
		m.mu.Unlock()
		return
	}
	m.lastMemoryWarn = time.Now()
	m.mu.Unlock()

	msg := fmt.Sprintf("High memory usage (%.1f%%) detected on host.", usedPercent)
	log.Warn().Float64("memory_used_percent", usedPercent).Msg("HealthMonitor: High memory usage")
	m.createEvent(ctx, services.EventResourceAlert, "warn", msg)
}

func (m *Monitor) createEvent(ctx context.Context, eventType, level, message string) {
	if err := m.eventSvc.CreateEvent(ctx, eventType, level, message, nil); err != nil {
		log.Error().Err(err).Str("type", eventType).Msg("HealthMonitor: Failed to record event")
	}
}

func timed(check func() error) CheckResult {
	start := time.Now()
	err := check()
	result := CheckResult{Status: checkResultOK, LatencyMS: time.Since(start).Milliseconds()}
	if err != nil {
		result.Status = checkResultFailed
		result.Error = err.Error()
	}
	return result
}

func readHostStats(ctx context.Context) (HostStats, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return HostStats{}, fmt.Errorf("failed to read memory stats: %w", err)
	}
	uptime, err := host.UptimeWithContext(ctx)
	if err != nil {
		return HostStats{}, fmt.Errorf("failed to read uptime: %w", err)
	}
	return HostStats{MemoryUsedPercent: vm.UsedPercent, UptimeSeconds: uptime}, nil
}
