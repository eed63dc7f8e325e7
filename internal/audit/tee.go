package audit

import (
	"context"
	"errors"
)

type tee []Appender

// Tee fans one append out to several backends, typically the queryable
// store plus the Kafka publisher. Every backend sees the event even when an
// earlier one fails; the errors come back joined.
func Tee(appenders ...Appender) Appender {
	return tee(appenders)
}

func (t tee) Append(ctx context.Context, event Event) error {
	var errs []error
	for _, a := range t {
		if err := a.Append(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
