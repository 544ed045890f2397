// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App       AppConfig               `mapstructure:"app"`
	Camunda   CamundaConfig           `mapstructure:"camunda"`
	Database  DatabaseConfig          `mapstructure:"database"`
	Sheets    SheetsConfig            `mapstructure:"sheets"`
	Registry  RegistryConfig          `mapstructure:"registry"`
	AWS       AWSConfig               `mapstructure:"aws"`
	Scheduler SchedulerConfig         `mapstructure:"scheduler"`
	Workers   map[string]WorkerConfig `mapstructure:"workers"`
	Logging   LoggingConfig           `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	HTTPPort    int    `mapstructure:"http_port"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Enabled         bool     `mapstructure:"enabled"`
	Addresses       []string `mapstructure:"addresses"`
	Username        string   `mapstructure:"username"`
	Password        string   `mapstructure:"password"`
	URL             string   `mapstructure:"url"`
	AllocationIndex string   `mapstructure:"allocation_index"`
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SheetsConfig addresses the spreadsheets used as system of record.
type SheetsConfig struct {
	SpreadsheetID        string `mapstructure:"spreadsheet_id"`
	PendingSpreadsheetID string `mapstructure:"pending_spreadsheet_id"`
	CredentialsJSON      string `mapstructure:"credentials_json"`
	CredentialsFile      string `mapstructure:"credentials_file"`
	Tabs                 Tabs   `mapstructure:"tabs"`
}

// Tabs holds the zero-based tab index of every table the pipeline touches.
type Tabs struct {
	Main             int `mapstructure:"main"`
	SchoolDirectory  int `mapstructure:"school_directory"`
	Preview          int `mapstructure:"preview"`
	Vacancies        int `mapstructure:"vacancies"`
	Classification   int `mapstructure:"classification"`
	Mapping          int `mapstructure:"mapping"`
	PendingSecondary int `mapstructure:"pending_secondary"`
}

// RegistryConfig configures the SED student-registry client.
type RegistryConfig struct {
	BaseURL      string `mapstructure:"base_url"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	SchoolYear   string `mapstructure:"school_year"`
	Municipality string `mapstructure:"municipality"`
	Board        string `mapstructure:"board"`
	Network      string `mapstructure:"network"`
	TokenTTL     int    `mapstructure:"token_ttl"` // milliseconds
	Timeout      int    `mapstructure:"timeout"`   // milliseconds
	BatchSize    int    `mapstructure:"batch_size"`
}

type AWSConfig struct {
	Region string `mapstructure:"region"`
	SES    struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
	} `mapstructure:"ses"`
	SNS struct {
		Enabled  bool   `mapstructure:"enabled"`
		TopicARN string `mapstructure:"topic_arn"`
	} `mapstructure:"sns"`
}

// SchedulerConfig drives periodic jobs run inside the worker process.
type SchedulerConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	PendingDigestSpec string `mapstructure:"pending_digest_spec"`
	Timezone          string `mapstructure:"timezone"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
