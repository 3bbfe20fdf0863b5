// Package version carries build metadata printed by `ledwall version`.
package version

// Set at build time:
//
//	go build -ldflags "-X github.com/chronologos/ledwall/internal/version.VERSION=0.1.0 \
//	  -X github.com/chronologos/ledwall/internal/version.Commit=$(git rev-parse --short HEAD)" ./cmd/ledwall
var (
	VERSION = "dev"
	Commit  = "dev"
)
