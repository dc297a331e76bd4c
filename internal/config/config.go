package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`

	RedisAddr string `mapstructure:"redis_addr" yaml:"redis_addr"`
	UploadDir string `mapstructure:"upload_dir" yaml:"upload_dir"`

	// RoomLifetime is how long a room stays alive after creation.
	RoomLifetime time.Duration `mapstructure:"room_lifetime" yaml:"room_lifetime"`
	// SweepInterval is how often the expiry sweeper scans all rooms.
	SweepInterval time.Duration `mapstructure:"sweep_interval" yaml:"sweep_interval"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		RedisAddr:         "localhost:6379",
		UploadDir:         "uploads",
		RoomLifetime:      24 * time.Hour,
		SweepInterval:     15 * time.Second,
	}
}
