package main

import "fmt"

// buildVersion and commit are set at build time via:
//   go build -ldflags "-X main.buildVersion=... -X main.commit=..."
var (
	buildVersion = "dev"
	commit       = "unknown"
)

func version() {
	fmt.Printf("kplexd %s (%s)\n", buildVersion, commit)
}
