// Package shared holds code used by several packages that belongs to none of
// them.
//
// testutil builds synthetic instrument logs (LogBuilder, StandardLog) and
// captures slog output for assertions (NewTestLogger).
package shared
