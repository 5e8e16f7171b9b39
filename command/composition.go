package command

import (
	"fmt"
	"runtime"

	"github.com/itsneelabh/rovermind/core"
)

// compositionSiteCaller captures the source location of the composition
// constructor's caller, recorded on each child so later misuse can name the
// site of first composition.
func compositionSiteCaller() string {
	// Caller(0) is this function, 1 the composition helper, 2 its caller.
	_, file, line, ok := runtime.Caller(2)
	if !ok {
		return "unknown"
	}
	return fmt.Sprintf("%s:%d", file, line)
}

// requireUngrouped returns an illegal-use error if any command has already
// been incorporated into a composition. The error names the site where the
// command was first composed.
func requireUngrouped(op string, commands ...Command) error {
	for _, c := range commands {
		if c == nil {
			continue
		}
		if c.IsComposed() {
			return &core.FrameworkError{
				Op:   op,
				Kind: "command",
				ID:   c.Name(),
				Err: fmt.Errorf("%w (first composed at %s)",
					core.ErrCommandComposed, c.compositionSite()),
			}
		}
	}
	return nil
}

// requireUngroupedAndUnscheduled additionally rejects commands that are
// currently scheduled on the singleton scheduler: a running command may not
// be captured by a composition.
func requireUngroupedAndUnscheduled(op string, commands ...Command) error {
	if err := requireUngrouped(op, commands...); err != nil {
		return err
	}
	if s := instanceIfExists(); s != nil {
		for _, c := range commands {
			if c == nil {
				continue
			}
			if s.IsScheduled(c) {
				return &core.FrameworkError{
					Op:   op,
					Kind: "command",
					ID:   c.Name(),
					Err:  core.ErrCommandScheduled,
				}
			}
		}
	}
	return nil
}

// markComposed flags every command as belonging to a composition created at
// the given site.
func markComposed(site string, commands ...Command) {
	for _, c := range commands {
		if c == nil {
			continue
		}
		c.markComposed(site)
	}
}
