package providers

import (
	"fmt"
	"github.com/spf13/viper"
	"path/filepath"
	"strings"
	"time"
	"wayfarer/internal/structures"
)

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	filename := filepath.Base(flags.ConfigPath)
	viper.AddConfigPath(filepath.Dir(flags.ConfigPath))
	viper.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	viper.SetConfigType("yaml")

	viper.BindEnv("logger.level", "WAYFARER_LOG_LEVEL")
	viper.BindEnv("storage.driver", "WAYFARER_STORAGE_DRIVER")
	viper.BindEnv("storage.dir", "WAYFARER_STORAGE_DIR")
	viper.BindEnv("storage.sqlitePath", "WAYFARER_SQLITE_PATH")
	viper.BindEnv("storage.saveInterval", "WAYFARER_SAVE_INTERVAL")
	viper.BindEnv("sessions.idleTTL", "WAYFARER_SESSION_IDLE_TTL")
	viper.BindEnv("generator.enabled", "WAYFARER_GENERATOR_ENABLED")
	viper.BindEnv("generator.model", "WAYFARER_GENERATOR_MODEL")
	viper.BindEnv("generator.apiKey", "OPENAI_API_KEY")
	viper.BindEnv("tasks.workers", "WAYFARER_TASK_WORKERS")
	viper.BindEnv("tasks.queueSize", "WAYFARER_QUEUE_SIZE")
	viper.BindEnv("cache.enabled", "WAYFARER_CACHE_ENABLED")
	viper.BindEnv("cache.size", "WAYFARER_CACHE_SIZE")

	err := viper.ReadInConfig()
	if err != nil {
		return nil, err
	}

	err = viper.Unmarshal(&conf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	cnfValidator := NewCnfValidator(&conf)
	err = cnfValidator.Validate()
	if err != nil {
		return nil, err
	}

	if conf.Sessions.DigestCap <= 0 {
		conf.Sessions.DigestCap = 1000
	}
	if conf.Generator.Timeout <= 0 {
		conf.Generator.Timeout = 45 * time.Second
	}
	if conf.Generator.Model == "" {
		conf.Generator.Model = "gpt-4o-mini"
	}

	conf.AppName = "WayfarerCompanion"
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}
