package kplex

import "github.com/pkg/errors"

// Sentinel errors returned by the core package. Adapters and config
// parsing define their own, more specific errors and wrap these where
// the caller benefits from testing identity with errors.Is.
var (
	// ErrUnknownEndpointType is wrapped into the error returned by
	// openDescriptor when a config section names an adapter type with
	// no registered OpenFunc.
	ErrUnknownEndpointType = errors.New("kplex: unknown endpoint type")

	// ErrBadDirection is returned when a config section requests a
	// direction its adapter type does not support (e.g. direction=both
	// on a tcp endpoint).
	ErrBadDirection = errors.New("kplex: unsupported direction for endpoint type")

	// ErrNoName is returned when a descriptor has no usable name and
	// none could be synthesized.
	ErrNoName = errors.New("kplex: endpoint has no name")

	// ErrDuplicateName is returned when two descriptors resolve to the
	// same endpoint name.
	ErrDuplicateName = errors.New("kplex: duplicate endpoint name")

	// ErrNoEndpoints is reported by Supervisor.Run when the
	// configuration opens no endpoints at all.
	ErrNoEndpoints = errors.New("kplex: no endpoints configured")
)
