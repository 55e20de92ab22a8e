package config

import (
	"errors"
	"io/fs"

	"github.com/spf13/viper"
)

// viper keys.
const (
	keyMinSegment      = "tracking.min_segment"
	keyFinishTolerance = "tracking.finish_tolerance"
	keySeekThreshold   = "tracking.seek_threshold"
	keyTimeScale       = "tracking.time_scale"
	keyFlushTimeout    = "tracking.flush_timeout"
	keyDailyGoal       = "goals.daily"
	keyStorageDriver   = "storage.driver"
	keyStoragePath     = "storage.path"
	keyLogLevel        = "log.level"
	keyLogMaxSize      = "log.max_size_mb"
	keyLogMaxBackups   = "log.max_backups"
	keyDarkTheme       = "display.dark_theme"
	keyTimezone        = "display.timezone"
)

// WithViperConfig returns an Option that loads configuration from the YAML
// file at configPath. The file is created with default values if it does not
// exist.
func WithViperConfig(configPath string) Option {
	return func(c *Config) error {
		v := viper.New()

		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")

		setDefaults(v)

		err := v.ReadInConfig()
		if err == nil {
			return v.Unmarshal(c)
		}

		if !errors.Is(err, fs.ErrNotExist) {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return errReadConfig.Wrap(err)
			}
		}

		if err := v.WriteConfigAs(configPath); err != nil {
			return errWriteConfig.Wrap(err)
		}

		return v.Unmarshal(c)
	}
}

// WithDefaults returns an Option that applies the default values without
// touching the filesystem.
func WithDefaults() Option {
	return func(c *Config) error {
		v := viper.New()

		setDefaults(v)

		return v.Unmarshal(c)
	}
}

// setDefaults configures viper with default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault(keyMinSegment, "10s")
	v.SetDefault(keyFinishTolerance, "5s")
	v.SetDefault(keySeekThreshold, 9)
	v.SetDefault(keyTimeScale, 1)
	v.SetDefault(keyFlushTimeout, "3s")
	v.SetDefault(keyDailyGoal, "30m")
	v.SetDefault(keyStorageDriver, DriverBolt)
	v.SetDefault(keyStoragePath, "")
	v.SetDefault(keyLogLevel, "info")
	v.SetDefault(keyLogMaxSize, 10)
	v.SetDefault(keyLogMaxBackups, 3)
	v.SetDefault(keyDarkTheme, true)
	v.SetDefault(keyTimezone, "")
}

// Save writes c to the YAML file at configPath.
func Save(configPath string, c *Config) error {
	v := viper.New()

	v.SetConfigType("yaml")

	v.Set(keyMinSegment, c.Tracking.MinSegment.String())
	v.Set(keyFinishTolerance, c.Tracking.FinishTolerance.String())
	v.Set(keySeekThreshold, c.Tracking.SeekThreshold)
	v.Set(keyTimeScale, c.Tracking.TimeScale)
	v.Set(keyFlushTimeout, c.Tracking.FlushTimeout.String())
	v.Set(keyDailyGoal, c.Goals.Daily.String())
	v.Set(keyStorageDriver, c.Storage.Driver)
	v.Set(keyStoragePath, c.Storage.Path)
	v.Set(keyLogLevel, c.Log.Level)
	v.Set(keyLogMaxSize, c.Log.MaxSizeMB)
	v.Set(keyLogMaxBackups, c.Log.MaxBackups)
	v.Set(keyDarkTheme, c.Display.DarkTheme)
	v.Set(keyTimezone, c.Display.Timezone)

	if err := v.WriteConfigAs(configPath); err != nil {
		return errWriteConfig.Wrap(err)
	}

	return nil
}
