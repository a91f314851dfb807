// Package dataprocessing turns ASVCO2 log text into typed records and rolls
// corrected results into residual summaries.
//
// # Architecture
//
// The package is organized into three components:
//
// 1. Record parsers: COEFF, FLAGS, DATA, STATS and DRY blocks of one log
// 2. Session parser: a line classifier for validation command transcripts
// 3. Aggregator: reference gas matching, residuals and grouped summaries
//
// # Usage
//
// Parsing a log:
//
//	l, err := dataprocessing.OpenLog("20210825_120000.txt")
//	if err != nil {
//	    return err
//	}
//	parsed, err := dataprocessing.NewParser(logger).Parse(ctx, l)
//
// Summarizing samples:
//
//	agg := dataprocessing.NewAggregator(logger)
//	groups := agg.SummarizeGroups(ctx, samples, []domain.Mode{domain.ModeAPOFF, domain.ModeEPOFF})
//
// # Line Formats
//
// Tagged lines may appear anywhere in the file and are matched by substring:
//
//	COEFF:<label>:<value>
//	FLAGS: 0000 0000 0000 0000 0000 0000 0000 0000
//	DATA:<mode>,<ISO time>,<SN>,<CO2>,<Temp>,<Pres>,<Li_Raw>,<Li_ref>,<RHperc>,<RH_T>,<O2perc>
//	STATS:<header or values>
//	DRY:TS, SW_xCO2(dry), Atm_xCO2(dry)
//
// # Error Handling
//
// Structural failures return *errors.AppError values naming the file and the
// 1-based line:
//
//	- MALFORMED_LOG for wrong field counts, unparseable numbers and incomplete blocks
//	- UNEXPECTED_LOG_FORMAT for STATS or session data lines seen before a header
//
// Two absences are not errors. A log without a usable FLAGS line reports every
// flag as 0x10000, and a log without DRY lines reports NaN dry values at the
// zero time.
//
// # Statistics
//
// Group summaries use the population standard deviation and the maximum
// absolute residual. Confidence half-widths use the Student-t quantile at n-1
// degrees of freedom and the sample standard deviation. Residuals are sorted
// before reduction so results do not depend on input order.
package dataprocessing
