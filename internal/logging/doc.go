// Package logging builds the zap logger used across wpm.
//
// Settings come from the environment:
//
//	WPM_LOG_LEVEL   debug | info | warn | error (default info)
//	WPM_LOG_FORMAT  console | json (default console)
//	WPM_LOG_OUTPUT  comma-separated zap sinks (default stderr)
//
// The --debug flag overrides the level. Loggers are passed explicitly to the
// packages that need them; there is no global logger.
package logging
