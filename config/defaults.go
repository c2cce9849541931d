package config

// Default directories, endpoints and limits for flowbridge.
const (
	// DefaultConfigDir is the base directory for storing flowbridge artifacts.
	DefaultConfigDir = ".flowbridge"
	// DefaultConfigPath is the default path of the runtime config file.
	DefaultConfigPath = "flowbridge.config.json"
	// DefaultWorkflowsDir holds one JSON file per locally stored workflow.
	DefaultWorkflowsDir = DefaultConfigDir + "/workflows"
	// DefaultNodesDir holds node definitions, one sub-directory per n8n version.
	DefaultNodesDir = DefaultConfigDir + "/nodes"
	// DefaultSQLiteDSN is the default data source name for the SQLite session store.
	DefaultSQLiteDSN = DefaultConfigDir + "/sessions.db"

	DefaultN8NBaseURL          = "http://localhost:5678"
	DefaultHTTPTimeoutSeconds  = 30
	DefaultMaxHistory          = 20
	DefaultNodeCacheTTLSeconds = 300
	DefaultNodeCacheSizeBytes  = 16 * 1024 * 1024
	DefaultTelegramBaseURL     = "https://api.telegram.org"
	DefaultTelegramPollTimeout = 30
	DefaultOpenAIBaseURL       = "https://api.openai.com/v1"
	DefaultOpenAIModel         = "gpt-4o-mini"
	DefaultGeocodingURL        = "https://geocoding-api.open-meteo.com/v1/search"
	DefaultForecastURL         = "https://api.open-meteo.com/v1/forecast"
	DefaultHTTPPort            = 8080
	DefaultServiceName         = "flowbridge"
	DefaultNATSClusterID       = "flowbridge"
	DefaultNATSClientID        = "flowbridge-client"
)
