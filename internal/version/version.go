// Package version holds build version information.
package version

// Version is the gateway release version, overridable at build time:
//
//	go build -ldflags "-X hubgate/internal/version.Version=1.2.3"
var Version = "1.0.0"
