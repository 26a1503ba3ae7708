package config

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Driver:            "sqlite",
			Path:              "~/.config/nooze",
			SQLiteFile:        "nooze.db",
			SQLiteJournalMode: "wal",
		},
		Logging: LoggingConfig{
			Env:   "production",
			Level: "info",
			File:  "",
		},
		Server: ServerConfig{
			Host:           "127.0.0.1",
			Port:           5000,
			Name:           "Nooze Server 0.3.0",
			MaxRequestSize: 1 << 20,
		},
		Query: QueryConfig{
			DefaultWindowHours: 24,
			RecentHours:        3,
			Limit:              0,
		},
		Feeds: FeedsConfig{
			Sources:        DefaultFeedSources(),
			SleepSeconds:   900,
			RatePerMinute:  30,
			TimeoutSeconds: 30,
		},
		Topics: TopicsConfig{
			File: "~/.config/nooze/topics.txt",
		},
		Authors: AuthorsConfig{
			File: "~/.config/nooze/authors.txt",
		},
		Retention: RetentionConfig{
			Days: 0,
		},
	}
}
