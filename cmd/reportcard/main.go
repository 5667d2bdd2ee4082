// Command reportcard submits report cards or free-text notes to the analysis
// service and prints the feedback, or hosts the shared analysis view over HTTP.
package main

import (
	"os"

	"reportcard-analyzer/internal/shared/telemetry"
)

func main() {
	err := newRootCmd().Execute()
	telemetry.Sync()
	if err != nil {
		os.Exit(1)
	}
}
