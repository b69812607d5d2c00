package sim

import (
	"context"
	"log/slog"
)

// Monitor announces the production incident exactly once. It is a
// deterministic system herald: it reports symptoms from the scenario but
// never the root cause.
type Monitor struct {
	logger *slog.Logger
}

// NewMonitor creates the monitor node.
func NewMonitor(logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{logger: logger}
}

// Run produces the monitor's partial update. Once the crash latch is set
// the node is a strict no-op, so graph re-entry never duplicates alerts.
func (m *Monitor) Run(_ context.Context, s *SessionState) Update {
	if s.CrashShown {
		return Update{}
	}

	alert := "PRODUCTION ALERT\n\n" + s.Scenario.Incident + "\n\nDeveloper, fix this immediately."
	m.logger.Debug("Incident announced", "scenario", s.Scenario.ID)

	return Update{
		Messages:   []Event{NewSystemEvent(alert)},
		CrashShown: true,
		Phase:      PhaseDebugging,
		Actor:      "monitor",
	}
}
