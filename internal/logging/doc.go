// Package logging configures log/slog for microgen.
//
// By default logs go to stderr as text at the configured level (warn unless
// overridden), so they never mix with the command's own output on stdout.
// With --debug, JSON logs at debug level are also written to
// ~/.microgen/logs/microgen.log through a size-rotating writer.
package logging
