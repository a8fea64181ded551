// Package version reports the build version.
package version

import "runtime/debug"

// Version is set at build time with -ldflags "-X github.com/neox5/doglessdata/internal/version.Version=v1.2.3".
var Version = "dev"

// String returns the build version, falling back to the module version
// recorded by the Go toolchain.
func String() string {
	if Version != "dev" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return Version
}
