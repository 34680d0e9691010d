// Package elevation checks that the process may service an offline image.
package elevation

import "github.com/joshuapare/driverkit/pkg/types"

// Require returns an ErrKindInvalid error when the process is not elevated.
func Require() error {
	if !Elevated() {
		return types.Errorf(types.ErrKindInvalid, "servicing an image requires an elevated process")
	}
	return nil
}
