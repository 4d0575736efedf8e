package gql

import (
	"errors"

	"github.com/hashicorp/go-multierror"
)

// AggregateErrors folds every error message from a GraphQL response into one
// error, preserving each message. When the response carried no errors at all,
// fallback is used so the caller still gets a meaningful failure.
func AggregateErrors(errs []Error, fallback string) error {
	if len(errs) == 0 {
		return errors.New(fallback)
	}
	var agg *multierror.Error
	for _, e := range errs {
		agg = multierror.Append(agg, errors.New(e.Message))
	}
	return agg.ErrorOrNil()
}
