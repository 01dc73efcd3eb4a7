package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/keyseq/pkg/domain"
)

// LoggingHooks logs every listener event. Matches are logged at info level,
// everything else at debug.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.HooksFunc(func(ctx context.Context, e *domain.Event) {
		level := slog.LevelDebug
		if e.Type == domain.EventMatch {
			level = slog.LevelInfo
		}
		attrs := []slog.Attr{
			slog.String("type", string(e.Type)),
			slog.Int("position", e.Position),
			slog.Int("total", e.Total),
		}
		if e.Sequence != "" {
			attrs = append(attrs, slog.String("sequence", e.Sequence))
		}
		if e.Symbol != "" {
			attrs = append(attrs, slog.String("symbol", e.Symbol), slog.String("source", string(e.Source)))
		}
		logger.LogAttrs(ctx, level, "Listener event", attrs...)
	})
}
