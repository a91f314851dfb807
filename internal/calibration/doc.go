// Package calibration reconstructs temperature- and pressure-compensated CO2
// mole fractions from raw LI-COR optical counts.
//
// A validation file is corrected in two passes. SpanCorrection averages the
// SPOFF window and moves the lab high-span coefficient to the span cell
// temperature using the oven-test slope. Correct then averages the target
// window (APOFF or EPOFF), applies the span polynomial, the empirical pressure
// correction and the closed-form calibration polynomial, and finally removes
// the water vapour dilution with DryCorrection.
//
// The equation constants come from the LI-830/850 manual, appendix A, and are
// kept as literals.
//
// The package also holds the date-keyed reference gas lists and the lab
// calibration reference table that supplies per-analyzer constants.
package calibration
