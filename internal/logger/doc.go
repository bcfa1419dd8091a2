// Package logger wraps zap with the conventions used by every reminder binary:
//   - a global sugared logger with a console encoder,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level parsing and runtime level changes,
//   - leveled helpers (Infof, WarnKV, ErrorKV, ...).
//
// Services receive a context and log through it, so a component name set once
// with WithName follows every message emitted on its behalf.
package logger
