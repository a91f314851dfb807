package calibration

import "math"

// SaturationVaporPressure returns the saturation vapour pressure over water in
// kPa at temperature t (°C), Buck form.
func SaturationVaporPressure(t float64) float64 {
	return 0.61365 * math.Exp((17.502*t)/(240.97+t))
}

// DryCorrection removes the water vapour dilution from a wet mole fraction.
// rhSample and rhSpan are relative humidities in percent, measured at rhTemp.
// The span window humidity is the baseline the analyzer was spanned at.
func DryCorrection(xco2, rhTemp, pressure, rhSample, rhSpan float64) float64 {
	es := SaturationVaporPressure(rhTemp)
	vpSample := rhSample * es / 100
	vpSpan := rhSpan * es / 100
	return xco2 * pressure / (pressure - (vpSample - vpSpan))
}
