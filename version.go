package main

import (
	"fmt"
	"io"
	"runtime"
)

// Build-time variables injected via linker flags (ldflags):
//
//	go build -ldflags "-X main.Version=$(git describe --tags) -X main.Commit=... -X main.BuildDate=..." -o calculon
var (
	Version   = "dev"     // git tag (e.g., "v0.2.0")
	Commit    = "unknown" // git commit hash
	BuildDate = "unknown" // build timestamp
)

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "calculon %s (%s/%s)\n", Version, runtime.GOOS, runtime.GOARCH)
	if Commit != "unknown" {
		fmt.Fprintf(w, "  commit: %s\n", Commit)
	}
	if BuildDate != "unknown" {
		fmt.Fprintf(w, "  built:  %s\n", BuildDate)
	}
}
