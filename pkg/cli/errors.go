package cli

import (
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sproutsage/pkg/model"
)

var classified = []error{
	model.ErrGateway,
	model.ErrPermissionDenied,
	model.ErrDeviceNotFound,
	model.ErrInsecureContext,
	model.ErrValidation,
	model.ErrNotFound,
	model.ErrBusy,
}

// errorMessage returns the short text for classified errors and the full
// error text for configuration and other failures
func errorMessage(err error) string {
	for _, target := range classified {
		if errors.Is(err, target) {
			return model.UserMessage(err)
		}
	}
	return err.Error()
}

func missingArg(name string) error {
	return goerr.Wrap(model.ErrValidation, "missing argument", goerr.V("name", name))
}
