package observability

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// FlushTelemetry flushes telemetry before process exit. When textfile is set the
// metrics registry is written there for the node exporter textfile collector.
func FlushTelemetry(ctx context.Context, logger *zap.Logger, textfile string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if textfile != "" {
		if err := WriteTextfile(textfile); err != nil {
			return err
		}
	}
	if logger != nil {
		if err := logger.Sync(); err != nil {
			return fmt.Errorf("flush logs: %w", err)
		}
	}
	return nil
}
