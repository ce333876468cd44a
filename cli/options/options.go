/*
Package options contains a set of common CLI options and helper functions to use them.
*/
package options

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/nspcc-dev/mpt/pkg/config"
	"github.com/urfave/cli"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ConfigFile is a flag for commands that use tool configuration.
var ConfigFile = cli.StringFlag{
	Name:  "config-file, c",
	Usage: "path to the configuration file (in-memory DB with default settings is used if not specified)",
}

// Debug is a flag for commands that allow debug logging.
var Debug = cli.BoolFlag{
	Name:  "debug, d",
	Usage: "enable debug logging (overrides configuration)",
}

// GetConfigFromContext loads the config file specified in the context or
// returns the default configuration if there is none.
func GetConfigFromContext(ctx *cli.Context) (config.Config, error) {
	if configFile := ctx.String("config-file"); len(configFile) != 0 {
		return config.Load(configFile)
	}
	return config.Default(), nil
}

// HandleLoggingParams reads logging parameters.
// If a user selected debug level -- function enables it.
// If logPath is configured -- function creates a dir and a file for logging.
func HandleLoggingParams(debug bool, cfg config.ApplicationConfiguration) (*zap.Logger, error) {
	var (
		level = zapcore.InfoLevel
		err   error
	)
	if len(cfg.LogLevel) > 0 {
		level, err = zapcore.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("log setting: %w", err)
		}
	}
	if debug {
		level = zapcore.DebugLevel
	}

	cc := zap.NewProductionConfig()
	cc.DisableCaller = true
	cc.DisableStacktrace = true
	cc.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	cc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cc.Encoding = "console"
	cc.Level = zap.NewAtomicLevelAt(level)
	cc.Sampling = nil

	if logPath := cfg.LogPath; logPath != "" {
		if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
			return nil, fmt.Errorf("could not create dir for logger: %w", err)
		}
		cc.OutputPaths = []string{logPath}
	}

	return cc.Build()
}
