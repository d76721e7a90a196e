package models

// Config represents the service configuration
type Config struct {
	// Server config
	Port int    `yaml:"port"`
	Host string `yaml:"host"`

	// Text extraction config
	Extraction ExtractionConfig `yaml:"extraction"`

	// Object storage for uploaded PDFs
	Storage StorageConfig `yaml:"storage"`

	// Persistence
	Database DatabaseConfig `yaml:"database"`

	// Logging
	Log LogConfig `yaml:"log"`
}

// ExtractionConfig represents PDF text extraction configuration
type ExtractionConfig struct {
	TextEngine  string `yaml:"text_engine"`   // "native", "mupdf" or "auto"
	MaxUploadMB int64  `yaml:"max_upload_mb"` // Default: 10
}

// StorageConfig for MinIO
type StorageConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// DatabaseConfig selects Postgres, or the embedded bbolt file when no URL
// is configured.
type DatabaseConfig struct {
	URL      string `yaml:"url"`
	BoltPath string `yaml:"bolt_path"` // Default: "data/extractions.db"
}

// LogConfig for zerolog
type LogConfig struct {
	Level  string `yaml:"level"`  // trace, debug, info, warn, error
	Format string `yaml:"format"` // "console" or "json"
}

// MaxUploadBytes returns the upload limit in bytes
func (c *Config) MaxUploadBytes() int64 {
	mb := c.Extraction.MaxUploadMB
	if mb <= 0 {
		mb = 10
	}
	return mb << 20
}

// Defaults fills unset fields
func (c *Config) Defaults() {
	if c.Port == 0 {
		c.Port = 8081
	}
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Extraction.TextEngine == "" {
		c.Extraction.TextEngine = "auto"
	}
	if c.Extraction.MaxUploadMB <= 0 {
		c.Extraction.MaxUploadMB = 10
	}
	if c.Database.BoltPath == "" {
		c.Database.BoltPath = "data/extractions.db"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
}
