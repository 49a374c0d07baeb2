// Package version provides the build version of the tools
package version

import (
	"fmt"
	"runtime"
)

// set by the linker: -ldflags "-X .../internal/version.commit=..."
var (
	major  = "0"
	minor  = "1"
	commit = "dev"
)

// Info describes the build version
type Info struct {
	Major   string
	Minor   string
	Commit  string
	Runtime string
}

// Current returns the version of the build
func Current() Info {
	return Info{
		Major:   major,
		Minor:   minor,
		Commit:  commit,
		Runtime: runtime.Version(),
	}
}

func (v Info) String() string {
	return fmt.Sprintf("%s.%s.%s (%s)", v.Major, v.Minor, v.Commit, v.Runtime)
}
