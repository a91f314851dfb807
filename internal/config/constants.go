package config

// Application constants
const (
	AppName = "asvco2-validate"

	DefaultLogLevel  = "info"
	DefaultLogFile   = "logs/asvco2-validate.log"
	DefaultOutputDir = "output"
	DefaultRevision  = "v2"
	DefaultWorkers   = 4
)

// Output file names written into Output.Dir.
const (
	SamplesFileName      = "samples.csv"
	GroupsFileName       = "groups.csv"
	GasStandardsFileName = "gas_standards.csv"
	FailuresFileName     = "failures.csv"
	FaultsFileName       = "faults.csv"
	WorkbookFileName     = "validation.xlsx"
	MetricsFileName      = "metrics.prom"
	SummaryFileName      = "summary.txt"
)
