package cmdutil

import (
	"fmt"

	"github.com/pkg/profile"
)

// StartProfile enables runtime profiling for the named mode and returns
// the function that stops it. An empty mode is a no-op.
func StartProfile(mode, dir string) (stop func(), err error) {
	var m func(*profile.Profile)
	switch mode {
	case "":
		return func() {}, nil
	case "cpu":
		m = profile.CPUProfile
	case "mem":
		m = profile.MemProfile
	case "block":
		m = profile.BlockProfile
	default:
		return nil, fmt.Errorf("--profile must be cpu, mem or block, got %q", mode)
	}
	if dir == "" {
		dir = "."
	}
	p := profile.Start(m, profile.ProfilePath(dir), profile.Quiet, profile.NoShutdownHook)
	return p.Stop, nil
}
