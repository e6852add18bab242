// SPDX-License-Identifier: MIT

package expr

import "log/slog"

// DefaultGraphName labels metrics and logs of graphs built without WithName.
const DefaultGraphName = "expr"

// Option configures a Graph.
type Option func(*options)

type options struct {
	name   string
	logger *slog.Logger
}

func defaultOptions() options {
	return options{name: DefaultGraphName, logger: slog.Default()}
}

// WithName labels the graph in logs. Empty names are ignored.
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithLogger sets the structured logger. A nil logger is ignored.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
