// Package metaerr attaches structured key/value metadata to errors so that
// callers can log the context of a failure without parsing error strings.
package metaerr

import "errors"

type metaError struct {
	err  error
	meta []any
}

func (e *metaError) Error() string {
	return e.err.Error()
}

func (e *metaError) Unwrap() error {
	return e.err
}

// WithMetadata wraps err with the given key/value pairs.
// A nil err is returned as-is.
func WithMetadata(err error, keyvals ...any) error {
	if err == nil {
		return nil
	}
	if len(keyvals)%2 != 0 {
		keyvals = append(keyvals, "!MISSING")
	}
	return &metaError{err: err, meta: keyvals}
}

// GetMetadata collects the metadata of every wrapped layer of err, outermost
// first. The result can be passed to slog.With directly.
func GetMetadata(err error) []any {
	var meta []any
	for err != nil {
		if me, ok := err.(*metaError); ok {
			meta = append(meta, me.meta...)
		}
		err = unwrapOne(err)
	}
	return meta
}

func unwrapOne(err error) error {
	if u := errors.Unwrap(err); u != nil {
		return u
	}
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range j.Unwrap() {
			if e != nil {
				return e
			}
		}
	}
	return nil
}
