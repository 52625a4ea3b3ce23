// Package capture implements the listening lifecycle of a speech capture
// session.
//
// A Session moves between Idle and Listening. Start claims the Device's
// exclusive recognizer, recognizer events feed the transcript, and any
// terminal transition (Stop, an engine error, an engine-initiated end, the
// wall-clock cap or Close) releases the device exactly once.
//
// Only finalized segments form the transcript; interim text is visible
// through Display until the engine finalizes or drops it.
package capture
