// Package logging provides structured logging with OpenTelemetry integration.
//
// The Logger wraps Zap with:
//   - Custom Trace level (-2, below Debug)
//   - Dual output (stdout + OpenTelemetry)
//   - Automatic context field injection (trace_id, user, capture session, request)
//   - Secret redaction at the encoder
//   - Level-aware sampling (errors never sampled)
//
// Log with context:
//
//	ctx = logging.WithUserID(ctx, "alice")
//	ctx = logging.WithSessionID(ctx, sessionID)
//	logger.Info(ctx, "input processed", zap.String("priority", "High"))
//
// Raw task text may contain personal data; log it at debug level only.
//
// Use TestLogger for test assertions:
//
//	tl := logging.NewTestLogger()
//	tl.AssertLogged(t, zapcore.InfoLevel, "input processed")
package logging
