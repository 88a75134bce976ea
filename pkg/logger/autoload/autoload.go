// Package autoload initializes the global logger from LOG_* environment
// variables as a side effect of being imported.
package autoload

import (
	configx "github.com/ymerta/agentic-assistant-local/pkg/config"
	logx "github.com/ymerta/agentic-assistant-local/pkg/logger"
)

func init() {
	logx.Init(*configx.MustNew[logx.Config]("LOG"))
}
