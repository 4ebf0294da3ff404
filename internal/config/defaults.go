package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

const (
	appName                 = "shelve"
	defaultSettleDelayMS    = 1000
	defaultSettleMaxRounds  = 3
	defaultQueueSize        = 256
	defaultMaxAttempts      = 100
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultLogFile          = "shelve.log"
	defaultHistoryRetention = 90
)

func defaultLogDir() string {
	return filepath.Join(xdg.StateHome, appName)
}

func defaultDataDir() string {
	return filepath.Join(xdg.DataHome, appName)
}

// Default returns a Config populated with repository defaults. SourceFolder
// and Destinations have no defaults and must come from the document.
func Default() Config {
	return Config{
		Watch: Watch{
			SettleDelayMS:   defaultSettleDelayMS,
			SettleMaxRounds: defaultSettleMaxRounds,
			QueueSize:       defaultQueueSize,
		},
		Collisions: Collisions{
			MaxAttempts: defaultMaxAttempts,
		},
		Paths: Paths{
			LogDir:  defaultLogDir(),
			DataDir: defaultDataDir(),
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
			File:   defaultLogFile,
		},
		History: History{
			Enabled:       true,
			RetentionDays: defaultHistoryRetention,
		},
	}
}
