package structures

import "time"

type Server struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"required|uint|min:1"`
}

type StorageConfig struct {
	Driver       string        `yaml:"driver" validate:"required|in:memory,file,sqlite"`
	Dir          string        `yaml:"dir"`
	SqlitePath   string        `yaml:"sqlitePath"`
	SaveInterval time.Duration `yaml:"saveInterval" validate:"required|min:1"`
}

type SessionsConfig struct {
	IdleTTL       time.Duration `yaml:"idleTTL" validate:"required|min:1"`
	PruneInterval time.Duration `yaml:"pruneInterval" validate:"required|min:1"`
	DigestCap     int           `yaml:"digestCap"`
}

type GeneratorConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Model           string        `yaml:"model"`
	ApiKey          string        `yaml:"apiKey"`
	Timeout         time.Duration `yaml:"timeout"`
	MaxOutputTokens int           `yaml:"maxOutputTokens"`
}

type TasksConfig struct {
	Workers   int `yaml:"workers" validate:"required|uint|min:1"`
	QueueSize int `yaml:"queueSize" validate:"required|uint|min:1"`
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `yaml:"mode" validate:"required|uint"`
	Dir   string `yaml:"dir" validate:"required|unixPath"`
}

type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Size    int           `yaml:"size"`
	TTL     time.Duration `yaml:"ttl"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type Config struct {
	AppName   string
	Debug     bool
	Path      string
	WebServer Server          `yaml:"webServer"`
	Storage   StorageConfig   `yaml:"storage"`
	Sessions  SessionsConfig  `yaml:"sessions"`
	Generator GeneratorConfig `yaml:"generator"`
	Tasks     TasksConfig     `yaml:"tasks"`
	Logger    LoggerConfig    `yaml:"logger"`
	Cache     CacheConfig     `yaml:"cache"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}
