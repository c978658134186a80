package hooks

import (
	"fmt"

	"github.com/hydromet/meteosat/pkg/errors"
)

// Common hooks errors.
var (
	// ErrHookTypeEmpty is returned when a hooks type is empty.
	ErrHookTypeEmpty = fmt.Errorf("hooks type cannot be empty")

	// ErrHookExecution is returned when there's an error executing a hooks.
	ErrHookExecution = errors.ErrHookExecution

	// ErrHookScript is returned when the script sets its err variable.
	ErrHookScript = errors.ErrHookScript

	// ErrHookLoad is returned when there's an error loading a hooks.
	ErrHookLoad = errors.ErrHookLoad
)

// ErrUnsupportedHookType is returned for a hook type other than Types.
func ErrUnsupportedHookType(hookType HookType) error {
	return errors.Wrapf(ErrHookLoad, "unsupported hooks type: %s", hookType)
}
