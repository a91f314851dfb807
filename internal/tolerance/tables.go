package tolerance

import "asvco2cli/pkg/contracts/domain"

// Revision names one dated set of tolerance tables.
type Revision string

const (
	// RevisionSOP2021 is the MApCO2 SOP table in force at the start of 2021.
	RevisionSOP2021 Revision = "sop-2021"
	// Revision20210611 raised the corrected 400-800 ppm limits to 3 ppm and
	// introduced the hybrid uncorrected table.
	Revision20210611 Revision = "2021-06-11"
	// Revision20210628 added the first separate mean and stdev tables.
	Revision20210628 Revision = "2021-06-28"
	// RevisionV1 is the amended single-concentration revision: combined tables
	// from 2021-06-11 with the amended range-aligned mean and stdev tables.
	RevisionV1 Revision = "v1"
	// RevisionV2 is the grouped revision with mean, stdev and max tables
	// aligned to the reference gas ranges.
	RevisionV2 Revision = "v2"
)

// RevisionInfo describes a registered revision.
type RevisionInfo struct {
	Name        Revision
	Effective   string
	Description string
	Grouped     bool
}

var (
	sopCombined = []Breakpoint{
		bp(0, 2), bp(200, 4), bp(300, 3), bp(400, 3), bp(500, 3), bp(800, 3), bp(2500, 40),
	}
	correctedCombined = []Breakpoint{
		bp(0, 2), bp(50, 3), bp(300, 3), bp(400, 3), bp(500, 3), bp(800, 3),
		bp(1000, 6), bp(1500, 8), bp(2000, 12), bp(2500, 20),
	}
	uncorrectedCombined = []Breakpoint{
		bp(0, 2), bp(200, 4), bp(300, 3), bp(400, 3), bp(500, 3), bp(800, 3),
		bp(1000, 10), bp(1500, 25), bp(2000, 35), bp(2500, 40),
	}
	correctedStdevJune = []Breakpoint{
		bp(0, 1), bp(50, 1), bp(300, 1), bp(400, 1), bp(500, 1), bp(800, 1),
		bp(1000, 1), bp(1500, 1), bp(2000, 1), bp(2500, 1),
	}
	uncorrectedStdevJune = []Breakpoint{
		bp(0, 1), bp(200, 1), bp(300, 1), bp(400, 1), bp(500, 1), bp(800, 1),
		bp(1000, 2), bp(1500, 2), bp(2000, 2), bp(2500, 2),
	}
	amendedMeanV1 = []Breakpoint{
		bp(0, 1), bp(2, 1), bp(2.001, 4), bp(300, 4), bp(300.001, 2), bp(775, 2),
		bp(775.001, 7), bp(1075, 8), bp(1075.001, 14), bp(2575, 14),
	}
	amendedMeanV2 = []Breakpoint{
		bp(0, 1), bp(2, 1), bp(2.001, 4), bp(300, 4), bp(300.001, 2), bp(775, 2),
		bp(775.001, 7), bp(1075, 7), bp(1075.001, 14), bp(2575, 14),
	}
	amendedStdev = []Breakpoint{
		bp(0, 0.5), bp(2, 0.5), bp(2.001, 0.5), bp(300, 0.5), bp(300.001, 1), bp(775, 1),
		bp(775.001, 2), bp(1075, 2), bp(1075.001, 2), bp(2575, 2),
	}
	amendedMax = []Breakpoint{
		bp(0, 2), bp(2, 2), bp(2.001, 4), bp(300, 4), bp(300.001, 4), bp(775, 4),
		bp(775.001, 7), bp(1075, 7), bp(1075.001, 15), bp(2575, 15),
	}
)

func registerBuiltins(r *Registry) {
	both := func(rev Revision, stat domain.Statistic, corrected, uncorrected []Breakpoint) {
		r.set(rev, domain.CalcTempCorrected, stat, mustTable(corrected...))
		r.set(rev, domain.CalcUncorrected, stat, mustTable(uncorrected...))
	}

	r.describe(RevisionInfo{Name: RevisionSOP2021, Effective: "2021-01-01",
		Description: "MApCO2 SOP combined limits"})
	both(RevisionSOP2021, domain.StatCombined, sopCombined, sopCombined)

	r.describe(RevisionInfo{Name: Revision20210611, Effective: "2021-06-11",
		Description: "combined limits, hybrid uncorrected table"})
	both(Revision20210611, domain.StatCombined, correctedCombined, uncorrectedCombined)

	r.describe(RevisionInfo{Name: Revision20210628, Effective: "2021-06-28",
		Description: "combined limits with initial separate mean and stdev tables"})
	both(Revision20210628, domain.StatCombined, correctedCombined, uncorrectedCombined)
	both(Revision20210628, domain.StatMean, correctedCombined, uncorrectedCombined)
	both(Revision20210628, domain.StatStdev, correctedStdevJune, uncorrectedStdevJune)

	r.describe(RevisionInfo{Name: RevisionV1, Effective: "2022-02-07",
		Description: "amended range-aligned mean and stdev tables, single-concentration evaluation"})
	both(RevisionV1, domain.StatCombined, correctedCombined, uncorrectedCombined)
	both(RevisionV1, domain.StatMean, amendedMeanV1, amendedMeanV1)
	both(RevisionV1, domain.StatStdev, amendedStdev, amendedStdev)

	r.describe(RevisionInfo{Name: RevisionV2, Effective: "2022-02-07",
		Description: "range-aligned mean, stdev and max tables evaluated at range midpoints", Grouped: true})
	both(RevisionV2, domain.StatMean, amendedMeanV2, amendedMeanV2)
	both(RevisionV2, domain.StatStdev, amendedStdev, amendedStdev)
	both(RevisionV2, domain.StatMax, amendedMax, amendedMax)
}
