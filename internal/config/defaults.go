package config

const (
	defaultDataDir            = "~/.local/share/scribe"
	defaultLogDir             = "~/.local/share/scribe/logs"
	defaultProjectID          = "default"
	defaultProjectCredits     = 100
	defaultTone               = "informative"
	defaultTargetWords        = 1500
	defaultLanguage           = "en"
	defaultLLMBaseURL         = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel           = "google/gemini-3-flash-preview"
	defaultLLMReferer         = "https://github.com/scribe-cms/scribe"
	defaultLLMTitle           = "Scribe Content Pipeline"
	defaultLLMTimeoutSeconds  = 120
	defaultAuditTimeout       = 60
	defaultAuditMinScore      = 75
	defaultSnapshotTimeout    = 45
	defaultRemediationPasses  = 2
	defaultPublishMinWords    = 600
	defaultQueuePollInterval  = 5
	defaultErrorRetryInterval = 10
	defaultWorkers            = 2
	defaultPhaseTimeout       = 120
	defaultDraftTimeout       = 300
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Project: Project{
			ID:      defaultProjectID,
			Credits: defaultProjectCredits,
		},
		Article: Article{
			Tone:        defaultTone,
			TargetWords: defaultTargetWords,
			Language:    defaultLanguage,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Audit: Audit{
			TimeoutSeconds:    defaultAuditTimeout,
			MinScore:          defaultAuditMinScore,
			MaxCriticalIssues: 0,
		},
		Snapshot: Snapshot{
			TimeoutSeconds: defaultSnapshotTimeout,
		},
		Remediation: Remediation{
			MaxPasses: defaultRemediationPasses,
		},
		Publish: Publish{
			MinWords: defaultPublishMinWords,
		},
		Workflow: Workflow{
			QueuePollInterval:   defaultQueuePollInterval,
			ErrorRetryInterval:  defaultErrorRetryInterval,
			Workers:             defaultWorkers,
			PhaseTimeoutSeconds: defaultPhaseTimeout,
			DraftTimeoutSeconds: defaultDraftTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
