// Copyright © 2018 Barthelemy Vessemont
// GNU General Public License version 3

package provisioner

import (
	"github.com/pkg/errors"
)

// ConnectionError reports an unreachable, unexpected or unhealthy cluster.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string { return e.Err.Error() }
func (e *ConnectionError) Unwrap() error { return e.Err }

// PipelineError reports a failed ingest pipeline lookup or creation.
type PipelineError struct {
	Err error
}

func (e *PipelineError) Error() string { return e.Err.Error() }
func (e *PipelineError) Unwrap() error { return e.Err }

// IndexError reports a failed index lookup, stats read or creation.
type IndexError struct {
	Err error
}

func (e *IndexError) Error() string { return e.Err.Error() }
func (e *IndexError) Unwrap() error { return e.Err }

func connectionErrorf(err error, format string, args ...interface{}) error {
	return &ConnectionError{Err: wrapOrNew(err, format, args...)}
}

func pipelineErrorf(err error, format string, args ...interface{}) error {
	return &PipelineError{Err: wrapOrNew(err, format, args...)}
}

func indexErrorf(err error, format string, args ...interface{}) error {
	return &IndexError{Err: wrapOrNew(err, format, args...)}
}

func wrapOrNew(err error, format string, args ...interface{}) error {
	if err == nil {
		return errors.Errorf(format, args...)
	}
	return errors.Wrapf(err, format, args...)
}

// Kind names the error kind for logs and metrics labels.
func Kind(err error) string {
	var connErr *ConnectionError
	var pipelineErr *PipelineError
	var indexErr *IndexError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &connErr):
		return "connection"
	case errors.As(err, &pipelineErr):
		return "pipeline"
	case errors.As(err, &indexErr):
		return "index"
	default:
		return "unhandled"
	}
}
