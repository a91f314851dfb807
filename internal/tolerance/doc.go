// Package tolerance decides whether validation residuals pass.
//
// Limits are read from piecewise-linear breakpoint tables. Each table is keyed by
// a revision, a calculation type (temperature-corrected or uncorrected) and a
// statistic (mean, stdev, max or combined). Callers always name the revision, so
// two report variants never silently share a default.
//
// # Decision modes
//
//   - Combined: |mean| + n·stdev must not exceed the combined limit.
//   - Separate: |mean| and |stdev| are each tested against their own table.
//   - Grouped: mean, stdev and max of a reference-gas range are tested at the
//     range midpoint. Only revisions that carry max tables support this mode.
//
// # Limits
//
// A concentration outside the table's first and last breakpoints is an
// out-of-range error. Limits are never extrapolated or clamped.
package tolerance
