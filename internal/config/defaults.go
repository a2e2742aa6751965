package config

func Default() *Config {
	return &Config{
		Adaptation: AdaptationConfig{
			WindowSize:     10,
			Samples:        50,
			InitialDelayMS: 1000,
			PeriodMS:       1000,
			Workers:        1,
			FinishedRatio:  0.8,
			MajorDimension: "time",
			MinorDimension: "allocation",
			MinImprovement: 1.2,
			MaxPenalty:     0.7,
			DecisionLog:    "",
			ModelsFile:     "",
		},
		Workload: WorkloadConfig{
			Instances:       40,
			Elements:        200,
			RatePerSec:      500,
			Burst:           50,
			SettleTimeoutMS: 5000,
		},
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8080,
			PIDFile: "",
			RateLimit: RateLimitConfig{
				Enabled:           false,
				RequestsPerSecond: 100,
				Burst:             200,
			},
		},
		Persistence: PersistenceConfig{
			DataDir:         "",
			FlushIntervalMS: 1000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
