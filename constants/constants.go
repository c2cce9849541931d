package constants

// ============================================================================
// CONFIGURATION
// ============================================================================

// Configuration Files
const (
	ConfigFileName = "flowbridge.config.json"
)

// Environment Variables
const (
	EnvDebug            = "FLOWBRIDGE_DEBUG"
	EnvN8NBaseURL       = "N8N_BASE_URL"
	EnvN8NAPIKey        = "N8N_API_KEY"
	EnvWorkflowsDir     = "FLOWBRIDGE_WORKFLOWS_DIR"
	EnvNodesDir         = "FLOWBRIDGE_NODES_DIR"
	EnvTelegramToken    = "TELEGRAM_BOT_TOKEN"
	EnvTelegramSecret   = "TELEGRAM_WEBHOOK_SECRET"
	EnvOpenAIAPIKey     = "OPENAI_API_KEY"
	EnvOpenAIBaseURL    = "OPENAI_BASE_URL"
	EnvOpenAIModel      = "OPENAI_MODEL"
	EnvSessionDriver    = "FLOWBRIDGE_SESSION_DRIVER"
	EnvSessionDSN       = "FLOWBRIDGE_SESSION_DSN"
	EnvHTTPPort         = "FLOWBRIDGE_HTTP_PORT"
	EnvTracingExporter  = "FLOWBRIDGE_TRACING_EXPORTER"
	EnvTracingEndpoint  = "OTEL_EXPORTER_OTLP_ENDPOINT"
	EnvWorkflowS3Bucket = "FLOWBRIDGE_S3_BUCKET"
	EnvWorkflowS3Region = "FLOWBRIDGE_S3_REGION"
)

// Storage Drivers
const (
	StorageDriverFilesystem = "filesystem"
	StorageDriverS3         = "s3"
	StorageDriverMemory     = "memory"
	StorageDriverSQLite     = "sqlite"
	StorageDriverPostgres   = "postgres"
)

// Event Drivers
const (
	EventDriverMemory = "memory"
	EventDriverNATS   = "nats"
)

// ============================================================================
// N8N API
// ============================================================================

const (
	N8NAPIPrefix    = "/api/v1"
	N8NAPIKeyHeader = "X-N8N-API-KEY"
)

// Well-known n8n node types
const (
	NodeTypeWebhook         = "n8n-nodes-base.webhook"
	NodeTypeHTTPRequest     = "n8n-nodes-base.httpRequest"
	NodeTypeScheduleTrigger = "n8n-nodes-base.scheduleTrigger"
	NodeTypeCron            = "n8n-nodes-base.cron"
	NodeTypeManualTrigger   = "n8n-nodes-base.manualTrigger"
	NodeTypeCode            = "n8n-nodes-base.code"
	NodeTypeFunction        = "n8n-nodes-base.function"
	NodeTypeFunctionItem    = "n8n-nodes-base.functionItem"
	NodeTypeIf              = "n8n-nodes-base.if"
	NodeTypeSwitch          = "n8n-nodes-base.switch"
	NodeTypeSet             = "n8n-nodes-base.set"
	NodeTypeExecuteWorkflow = "n8n-nodes-base.executeWorkflowTrigger"
	NodeTypeErrorTrigger    = "n8n-nodes-base.errorTrigger"
)

// Connection types
const (
	ConnectionTypeMain = "main"
)

// ============================================================================
// HTTP
// ============================================================================

// HTTP Headers
const (
	HeaderContentType    = "Content-Type"
	HeaderAccept         = "Accept"
	HeaderAuthorization  = "Authorization"
	HeaderTelegramSecret = "X-Telegram-Bot-Api-Secret-Token"
)

// Content Types
const (
	ContentTypeJSON    = "application/json"
	ContentTypeProblem = "application/problem+json"
)

// HTTP Paths
const (
	HTTPPathAPIPrefix       = "/api"
	HTTPPathHealth          = "/healthz"
	HTTPPathMetrics         = "/metrics"
	HTTPPathTelegramWebhook = "/telegram/webhook"
	HTTPPathMCP             = "/mcp"
)

const HealthCheckResponse = `{"status":"healthy"}`

// ============================================================================
// EVENTS
// ============================================================================

const (
	TopicTelegramUpdate = "telegram.update"
)

// ============================================================================
// OUTPUT
// ============================================================================

const JSONIndent = "  "
