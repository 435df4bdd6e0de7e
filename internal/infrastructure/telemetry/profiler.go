package telemetry

import (
	"errors"
	"fmt"
	"os"

	"github.com/grafana/pyroscope-go"
	"go.uber.org/zap"
)

var errNoProfilerServer = errors.New("pyroscope server url is required when profiling is enabled")

// ledgerProfiles are the profile types pushed to pyroscope. Allocation
// profiles matter for the statement exports, goroutines for the jobs.
var ledgerProfiles = []pyroscope.ProfileType{
	pyroscope.ProfileCPU,
	pyroscope.ProfileAllocObjects,
	pyroscope.ProfileAllocSpace,
	pyroscope.ProfileInuseSpace,
	pyroscope.ProfileGoroutines,
}

// Profiler is a running pyroscope session; the zero value is stopped
type Profiler struct {
	profiler *pyroscope.Profiler
	logger   *zap.Logger
}

func NewProfiler(cfg Config, logger *zap.Logger) (*Profiler, error) {
	p := &Profiler{logger: logger}
	if !cfg.ProfilingEnabled {
		return p, nil
	}
	if cfg.PyroscopeServerURL == "" {
		return nil, errNoProfilerServer
	}

	session, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: cfg.ServiceName,
		ServerAddress:   cfg.PyroscopeServerURL,
		Logger:          pyroscopeLogger{logger.Named("pyroscope").Sugar()},
		Tags:            profileTags(cfg),
		ProfileTypes:    ledgerProfiles,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start pyroscope: %w", err)
	}
	p.profiler = session
	logger.Info("Profiling enabled", zap.String("server_address", cfg.PyroscopeServerURL))
	return p, nil
}

func profileTags(cfg Config) map[string]string {
	tags := map[string]string{}
	if cfg.ServiceVersion != "" {
		tags["version"] = cfg.ServiceVersion
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		tags["hostname"] = host
	}
	return tags
}

func (p *Profiler) IsEnabled() bool { return p != nil && p.profiler != nil }

func (p *Profiler) Stop() error {
	if !p.IsEnabled() {
		return nil
	}
	err := p.profiler.Stop()
	p.profiler = nil
	if err != nil {
		return fmt.Errorf("failed to stop profiler: %w", err)
	}
	return nil
}

// pyroscopeLogger demotes the agent's chatty info output to debug
type pyroscopeLogger struct{ s *zap.SugaredLogger }

func (l pyroscopeLogger) Infof(format string, args ...any)  { l.s.Debugf(format, args...) }
func (l pyroscopeLogger) Debugf(format string, args ...any) { l.s.Debugf(format, args...) }
func (l pyroscopeLogger) Errorf(format string, args ...any) { l.s.Errorf(format, args...) }
