package config

const (
	defaultDataDir        = "~/.local/share/shelf"
	defaultLogDir         = "~/.local/share/shelf/logs"
	defaultRulesFile      = "~/.config/shelf/rules.json"
	defaultAPIBind        = "127.0.0.1:7519"
	defaultOllamaBaseURL  = "http://127.0.0.1:11434"
	defaultOllamaTimeout  = 60
	defaultPollIntervalMS = 750
	defaultQuietPeriodMS  = 1500
	defaultWorkers        = 4
	defaultNtfyTimeout    = 10
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:   defaultDataDir,
			LogDir:    defaultLogDir,
			RulesFile: defaultRulesFile,
			APIBind:   defaultAPIBind,
		},
		Ollama: Ollama{
			BaseURL:        defaultOllamaBaseURL,
			TimeoutSeconds: defaultOllamaTimeout,
		},
		Watcher: Watcher{
			PollIntervalMS: defaultPollIntervalMS,
			QuietPeriodMS:  defaultQuietPeriodMS,
		},
		Organizer: Organizer{
			Workers: defaultWorkers,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyTimeout,
			Moves:          true,
			Renames:        true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
