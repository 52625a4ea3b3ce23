// Package telemetry provides OpenTelemetry tracing and metrics for voicetask.
//
// Telemetry is disabled by default. When enabled, spans and metrics are
// exported over OTLP (gRPC or HTTP/protobuf) and the global providers are
// replaced so that otel.Tracer / otel.Meter calls throughout the code pick
// them up.
//
//	tel, err := telemetry.New(ctx, telemetry.FromSettings(cfg.Telemetry))
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(ctx)
//
// Tests use NewTestTelemetry for in-memory span and metric capture.
package telemetry
