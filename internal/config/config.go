package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Log formats
	FormatJSON    = "json"
	FormatConsole = "console"

	// Default values
	DefaultPort        = 8080
	DefaultHost        = "127.0.0.1"
	DefaultLogLevel    = "info"
	DefaultLogFormat   = FormatConsole
	DefaultMaxFileSize = 20 * 1024 * 1024 // 20MB
	DefaultZoom        = 3.0
	DefaultWorkers     = 4

	// EnvPrefix is prepended to every environment variable
	EnvPrefix = "FORMS"

	// Directory permissions
	DefaultDirPerm = 0o750
)

// Flag and viper keys
const (
	KeyMode          = "mode"
	KeyHost          = "host"
	KeyPort          = "port"
	KeyFormsDir      = "forms-dir"
	KeyWorkDir       = "work-dir"
	KeyOutputDir     = "output-dir"
	KeyLogLevel      = "log-level"
	KeyLogFormat     = "log-format"
	KeyMaxFileSize   = "max-file-size"
	KeyZoom          = "zoom"
	KeyFlatten       = "flatten"
	KeyWorkers       = "workers"
	KeyPartialBatch  = "partial-batch"
	KeyPassword      = "password"
	keyVersionOutput = "version"
)

// Config holds all configuration for the form filler
type Config struct {
	// Server configuration
	Mode string // "server" or "stdio"
	Host string
	Port int

	// FormsDirectory holds the blank form templates and text resources
	FormsDirectory string
	// WorkDirectory is where workbooks named by MCP clients are read from
	WorkDirectory string
	// OutputDirectory receives filled documents written by MCP tools
	OutputDirectory string

	// Processing
	Zoom         float64
	Flatten      bool
	Workers      int
	PartialBatch bool

	// Password guards the HTTP upload surface; empty disables the check
	Password string

	// Application configuration
	Version     string
	ServerName  string
	LogLevel    string
	LogFormat   string
	MaxFileSize int64 // Maximum workbook size in bytes
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	return &Config{
		Mode:            ModeStdio,
		Host:            DefaultHost,
		Port:            DefaultPort,
		FormsDirectory:  filepath.Join(currentDir, "forms"),
		WorkDirectory:   currentDir,
		OutputDirectory: filepath.Join(currentDir, "output"),
		Zoom:            DefaultZoom,
		Flatten:         true,
		Workers:         DefaultWorkers,
		Version:         "1.0.0",
		ServerName:      "assessment-forms",
		LogLevel:        DefaultLogLevel,
		LogFormat:       DefaultLogFormat,
		MaxFileSize:     DefaultMaxFileSize,
	}
}

// LoadFromFlags parses the process command line and environment
func LoadFromFlags() (*Config, error) {
	RegisterFlags(pflag.CommandLine, DefaultConfig())
	setupUsageMessage()

	// Check for version flag before parsing
	if err := checkVersionFlag(os.Args[1:]); err != nil {
		return nil, err
	}

	pflag.Parse()
	return Load(pflag.CommandLine, viper.GetViper())
}

// RegisterFlags defines every configuration flag on fs
func RegisterFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.String(KeyMode, cfg.Mode, "Server mode: 'stdio' for MCP standard I/O, 'server' for HTTP")
	fs.String(KeyHost, cfg.Host, "Server host address (server mode only)")
	fs.Int(KeyPort, cfg.Port, "Server port (server mode only)")
	fs.String(KeyFormsDir, cfg.FormsDirectory, "Directory containing blank form templates")
	fs.String(KeyWorkDir, cfg.WorkDirectory, "Directory workbooks are read from")
	fs.String(KeyOutputDir, cfg.OutputDirectory, "Directory filled documents are written to")
	fs.String(KeyLogLevel, cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.String(KeyLogFormat, cfg.LogFormat, "Log format (console, json)")
	fs.Int64(KeyMaxFileSize, cfg.MaxFileSize, "Maximum workbook size in bytes")
	fs.Float64(KeyZoom, cfg.Zoom, "Rasterization magnification used when flattening")
	fs.Bool(KeyFlatten, cfg.Flatten, "Flatten filled forms into image pages")
	fs.Int(KeyWorkers, cfg.Workers, "Instruments rendered concurrently per workbook")
	fs.Bool(KeyPartialBatch, cfg.PartialBatch, "Release successful documents when other workbooks fail")
	fs.String(KeyPassword, cfg.Password, "Shared password for the HTTP interface")
}

// Load resolves configuration from flags, environment and defaults on v,
// then validates it. Flags win over environment variables.
func Load(fs *pflag.FlagSet, v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}

	cfg := DefaultConfig()
	populateConfigFromViper(cfg, v)

	for _, dir := range []*string{&cfg.FormsDirectory, &cfg.WorkDirectory, &cfg.OutputDirectory} {
		if *dir == "" {
			continue
		}
		if expanded, err := filepath.Abs(*dir); err == nil {
			*dir = expanded
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nAssessment Forms - scores clinical assessment workbooks into filled PDF forms\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s --forms-dir=./forms                       # MCP over stdio (default)\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=server --forms-dir=./forms         # HTTP upload server\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=server --password=secret --port=9090\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  FORMS_MODE, FORMS_HOST, FORMS_PORT, FORMS_FORMS_DIR, FORMS_WORK_DIR,\n")
		fmt.Fprintf(os.Stderr, "  FORMS_OUTPUT_DIR, FORMS_LOG_LEVEL, FORMS_LOG_FORMAT, FORMS_MAX_FILE_SIZE,\n")
		fmt.Fprintf(os.Stderr, "  FORMS_ZOOM, FORMS_FLATTEN, FORMS_WORKERS, FORMS_PARTIAL_BATCH, FORMS_PASSWORD\n")
	}
}

// ErrVersionRequested is returned when the command line asks for the version
var ErrVersionRequested = errors.New("version requested")

// checkVersionFlag checks if version flag was requested
func checkVersionFlag(args []string) error {
	for _, arg := range args {
		if arg == "-"+keyVersionOutput || arg == "--"+keyVersionOutput || arg == "-v" {
			return ErrVersionRequested
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config, v *viper.Viper) {
	cfg.Mode = v.GetString(KeyMode)
	cfg.Host = v.GetString(KeyHost)
	cfg.Port = v.GetInt(KeyPort)
	cfg.FormsDirectory = v.GetString(KeyFormsDir)
	cfg.WorkDirectory = v.GetString(KeyWorkDir)
	cfg.OutputDirectory = v.GetString(KeyOutputDir)
	cfg.LogLevel = v.GetString(KeyLogLevel)
	cfg.LogFormat = v.GetString(KeyLogFormat)
	cfg.MaxFileSize = v.GetInt64(KeyMaxFileSize)
	cfg.Zoom = v.GetFloat64(KeyZoom)
	cfg.Flatten = v.GetBool(KeyFlatten)
	cfg.Workers = v.GetInt(KeyWorkers)
	cfg.PartialBatch = v.GetBool(KeyPartialBatch)
	cfg.Password = v.GetString(KeyPassword)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be either 'stdio' or 'server'")
	}

	// Port only matters when serving HTTP
	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	if c.FormsDirectory == "" {
		return errors.New("forms directory cannot be empty")
	}
	if info, err := os.Stat(c.FormsDirectory); err != nil {
		return fmt.Errorf("cannot access forms directory %s: %w", c.FormsDirectory, err)
	} else if !info.IsDir() {
		return fmt.Errorf("forms directory %s is not a directory", c.FormsDirectory)
	}

	for name, dir := range map[string]string{"work": c.WorkDirectory, "output": c.OutputDirectory} {
		if dir == "" {
			return fmt.Errorf("%s directory cannot be empty", name)
		}
		// Create the directory if it doesn't exist
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, DefaultDirPerm); err != nil {
				return fmt.Errorf("cannot create %s directory %s: %w", name, dir, err)
			}
		} else if err != nil {
			return fmt.Errorf("cannot access %s directory %s: %w", name, dir, err)
		}
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}
	if c.Zoom <= 0 {
		return errors.New("zoom must be positive")
	}
	if c.Workers < 1 {
		return errors.New("workers must be at least 1")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}
	if c.LogFormat != FormatJSON && c.LogFormat != FormatConsole {
		return fmt.Errorf("invalid log format: %s (must be one of: console, json)", c.LogFormat)
	}

	return nil
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration. The
// password is never printed.
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, FormsDirectory: %s, LogLevel: %s, Zoom: %g, Flatten: %t, Workers: %d, PartialBatch: %t, PasswordSet: %t}",
		c.Mode, c.Host, c.Port, c.FormsDirectory, c.LogLevel, c.Zoom, c.Flatten, c.Workers, c.PartialBatch, c.Password != "")
}

// IsServerMode returns true if the server is running in HTTP server mode
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the server is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
