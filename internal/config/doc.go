// Package config provides configuration loading for asvco2-validate.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. A YAML file named on the command line
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern ASVCO2_<SECTION>_<FIELD>:
//
//	ASVCO2_LOGGING_LEVEL=debug
//	ASVCO2_CALIBRATION_REFERENCE_TABLE=/data/licor_reference.csv
//	ASVCO2_CALIBRATION_INSTRUMENT_SERIALS=1005:cga-5030,1006:cga-5270
//	ASVCO2_TOLERANCE_REVISION=v2
//	ASVCO2_PIPELINE_WORKERS=8
//	ASVCO2_PIPELINE_MODES=APOFF,EPOFF
//	ASVCO2_TELEMETRY_TRACING=stdout
//	ASVCO2_OUTPUT_DIR=./out
//
// # YAML
//
//	calibration:
//	  reference_table: licor_reference.csv
//	tolerance:
//	  revision: v2
//	pipeline:
//	  workers: 4
//	  modes: [APOFF, EPOFF]
//
// # Validation
//
// The merged configuration is validated with go-playground/validator struct
// tags. Either a calibration reference table or fixed lab constants must be
// configured. Failures are returned as CONFIG application errors.
package config
