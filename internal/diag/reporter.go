package diag

import (
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/sqlrelay/pushdown/internal/plan"
	"github.com/sqlrelay/pushdown/internal/translate"
)

// LogReporter writes failed-build reports to a structured logger. Each
// report carries a fresh report ID so operators can correlate log lines
// with follow-up. LogReporter implements translate.Reporter.
type LogReporter struct {
	log *slog.Logger
}

// NewLogReporter creates a reporter over log. A nil log uses slog.Default.
func NewLogReporter(log *slog.Logger) *LogReporter {
	if log == nil {
		log = slog.Default()
	}
	return &LogReporter{log: log}
}

// Report logs one diagnostic for a plan that could not be pushed down.
func (r *LogReporter) Report(node plan.Node, cause error) {
	attrs := []any{
		slog.String("report_id", uuid.Must(uuid.NewV7()).String()),
		slog.String("root", node.Name()),
	}
	attrs = append(attrs, causeAttrs(cause)...)
	r.log.Warn("plan not pushed down", attrs...)
}

// causeAttrs extracts structured fields from the failure detail.
func causeAttrs(cause error) []any {
	if cause == nil {
		return []any{slog.String("cause", "unknown")}
	}
	attrs := []any{slog.String("cause", cause.Error())}

	var unsupported *translate.UnsupportedNodeError
	if errors.As(cause, &unsupported) {
		attrs = append(attrs,
			slog.String("node", unsupported.Label),
			slog.String("kind", unsupported.Kind),
		)
	}
	var defect *translate.InternalDefectError
	if errors.As(cause, &defect) {
		// Defects are bug signals; include the capture site.
		attrs = append(attrs,
			slog.Bool("defect", true),
			slog.String("trace", defect.Trace),
		)
	}
	return attrs
}
