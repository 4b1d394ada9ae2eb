// Package logging provides a small tag-scoped leveled logger. Each tag
// ("kplex" for the daemon and its core, "adapter" for the endpoint
// adapters) can have its own verbosity, set via the KPLEX_LOGLEVEL environment variable
// (comma-separated "tag=level" directives, or a bare level to change
// the default).
package logging
