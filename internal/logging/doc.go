// Package logging provides a simple leveled logging interface for the
// gallery server and its tools.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information
//   - INFO: General operational messages
//   - WARN: Warning conditions
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the application
//
// The initial level comes from the DEBUG or LOG_LEVEL environment variables.
// The log.level configuration key overrides it through SetLevel.
package logging
