package config

// Default configuration values.
const (
	DefaultStartupTimeoutMs  = 10000
	DefaultRetries           = 100
	DefaultTimeoutMs         = 30
	DefaultComplexRetries    = 10000
	DefaultComplexTimeoutMs  = 30
	DefaultWidthTolerance    = 0.05
	DefaultPositionTolerance = 1.0
	DefaultCycle             = 720.0
	DefaultPeriod            = 360.0
	DefaultLogLevel          = "info"
	DefaultHistoryBackend    = "memory"
	DefaultHistoryPath       = "wavecheck-history.db"
)

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults fills in default values for unset configuration fields.
func applyDefaults(cfg *Config) {
	applySimulatorDefaults(cfg)
	applyCommandsDefaults(cfg)
	applyComparisonDefaults(cfg)
	applyChartDefaults(cfg)
	applyLogDefaults(cfg)
	applyHistoryDefaults(cfg)
	if cfg.Scenarios == nil {
		cfg.Scenarios = &ScenariosConfig{}
	}
}

func applySimulatorDefaults(cfg *Config) {
	if cfg.Simulator.StartupTimeoutMs == 0 {
		cfg.Simulator.StartupTimeoutMs = DefaultStartupTimeoutMs
	}
}

func applyCommandsDefaults(cfg *Config) {
	if cfg.Commands == nil {
		cfg.Commands = &CommandsConfig{}
	}
	c := cfg.Commands
	if c.Retries == 0 {
		c.Retries = DefaultRetries
	}
	if c.TimeoutMs == 0 {
		c.TimeoutMs = DefaultTimeoutMs
	}
	if c.ComplexRetries == 0 {
		c.ComplexRetries = DefaultComplexRetries
	}
	if c.ComplexTimeoutMs == 0 {
		c.ComplexTimeoutMs = DefaultComplexTimeoutMs
	}
}

func applyComparisonDefaults(cfg *Config) {
	if cfg.Comparison == nil {
		cfg.Comparison = &ComparisonConfig{}
	}
	if cfg.Comparison.WidthTolerance == 0 {
		cfg.Comparison.WidthTolerance = DefaultWidthTolerance
	}
	if cfg.Comparison.PositionTolerance == 0 {
		cfg.Comparison.PositionTolerance = DefaultPositionTolerance
	}
}

func applyChartDefaults(cfg *Config) {
	if cfg.Chart == nil {
		cfg.Chart = &ChartConfig{}
	}
	if cfg.Chart.Cycle == 0 {
		cfg.Chart.Cycle = DefaultCycle
	}
	if cfg.Chart.Period == 0 {
		cfg.Chart.Period = DefaultPeriod
	}
}

func applyLogDefaults(cfg *Config) {
	if cfg.Log == nil {
		cfg.Log = &LogConfig{}
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
}

func applyHistoryDefaults(cfg *Config) {
	if cfg.History == nil {
		cfg.History = &HistoryConfig{}
	}
	if cfg.History.Backend == "" {
		cfg.History.Backend = DefaultHistoryBackend
	}
	if cfg.History.Backend == "sqlite" && cfg.History.Path == "" {
		cfg.History.Path = DefaultHistoryPath
	}
}
