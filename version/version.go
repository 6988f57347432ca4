// Package version exposes build version information for the SDK.
//
// Version is set at build time via -ldflags:
//
//	go build -ldflags "-X github.com/kbukum/routerkit/version.Version=1.2.0"
package version

import (
	"fmt"
	"runtime/debug"
)

// Version is the SDK version, set at build time. Defaults to the module
// version recorded in build info, or "dev" when built from source.
var Version = ""

// String returns the effective SDK version.
func String() string {
	if Version != "" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, dep := range info.Deps {
			if dep.Path == "github.com/kbukum/routerkit" {
				return dep.Version
			}
		}
	}
	return "dev"
}

// UserAgent returns the default User-Agent value for outgoing requests.
func UserAgent() string {
	return fmt.Sprintf("routerkit/%s", String())
}
