package config

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:                   "127.0.0.1",
			Port:                   8050,
			ShutdownTimeoutSeconds: 5,
			MaxRequestSize:         1 << 20,
		},
		Storage: StorageConfig{
			SQLiteFile: "testDB.db",
		},
		Logging: LoggingConfig{
			Level:   "info",
			NoColor: false,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Addr:    "",
		},
	}
}
