package main

// Build-time variables, set via ldflags:
//
//	go build -ldflags "-X main.buildVersion=0.3.0 -X main.commit=$(git rev-parse --short HEAD) -X main.date=$(date -u +%Y-%m-%dT%H:%M:%SZ)" ./cmd/status
var (
	buildVersion = "0.3.0"
	commit       = "dev"
	date         = "unknown"
)
