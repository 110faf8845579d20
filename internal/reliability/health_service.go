package reliability

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/intraday-trader/internal/database"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// HealthService checks process and database health for the status API
type HealthService struct {
	dbs       []*database.DB
	startTime time.Time
	log       zerolog.Logger
}

// HealthReport is the aggregate health snapshot
type HealthReport struct {
	Status        string            `json:"status"`
	UptimeSeconds float64           `json:"uptime_seconds"`
	CPUPercent    float64           `json:"cpu_percent"`
	MemoryPercent float64           `json:"memory_percent"`
	Databases     map[string]string `json:"databases"`
	Timestamp     time.Time         `json:"timestamp"`
}

// NewHealthService creates a new health service
func NewHealthService(log zerolog.Logger, dbs ...*database.DB) *HealthService {
	return &HealthService{
		dbs:       dbs,
		startTime: time.Now(),
		log:       log.With().Str("service", "health").Logger(),
	}
}

// Check runs all health probes and aggregates the result.
// Probe failures degrade the report, never error out of it.
func (s *HealthService) Check(ctx context.Context) HealthReport {
	report := HealthReport{
		Status:        "ok",
		UptimeSeconds: time.Since(s.startTime).Seconds(),
		Databases:     make(map[string]string),
		Timestamp:     time.Now(),
	}

	for _, db := range s.dbs {
		if err := s.checkIntegrity(ctx, db); err != nil {
			s.log.Error().Err(err).Str("database", db.Name()).Msg("Database integrity check failed")
			report.Databases[db.Name()] = err.Error()
			report.Status = "degraded"
		} else {
			report.Databases[db.Name()] = "ok"
		}
	}

	report.CPUPercent, report.MemoryPercent = s.systemStats()

	return report
}

// checkIntegrity runs PRAGMA quick_check (cheaper than a full
// integrity_check; good enough for a liveness probe)
func (s *HealthService) checkIntegrity(ctx context.Context, db *database.DB) error {
	var result string
	if err := db.Conn().QueryRowContext(ctx, "PRAGMA quick_check").Scan(&result); err != nil {
		return fmt.Errorf("quick_check query failed: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("quick_check failed: %s", result)
	}
	return nil
}

func (s *HealthService) systemStats() (float64, float64) {
	var cpuUsage, memUsage float64

	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		s.log.Debug().Err(err).Msg("Failed to read CPU usage")
	} else if len(cpuPercent) > 0 {
		cpuUsage = cpuPercent[0]
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		s.log.Debug().Err(err).Msg("Failed to read memory usage")
	} else {
		memUsage = memStat.UsedPercent
	}

	return cpuUsage, memUsage
}
