// Package files provides file system operations for validation runs.
//
// Discovery lists the instrument logs of a directory. Logs are named
// YYYYMMDD_HHMMSS.txt and are returned in the order of that embedded
// timestamp, which can also be used to filter a date range.
//
// Manager writes run outputs under the configured output directory. Relative
// paths resolve against that directory.
//
// Example usage:
//
//	logs, err := files.NewDiscovery("").FindLogs("/data/asvco2/1005")
//	logs = files.FilterLogsByDateRange(logs, from, to)
//
//	manager := files.NewManager(paths, logger)
//	err = manager.WriteFile("faults.txt", report)
package files
