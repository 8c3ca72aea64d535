// Package zepmcp exposes the Zep memory MCP server as an embeddable
// library. Most deployments run the cmd/zep-mcp-server binary, but the
// server can also be constructed and started from a host program.
package zepmcp

import (
	"errors"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/wastrilith2k/zep-mcp-server/internal/config"
	"github.com/wastrilith2k/zep-mcp-server/internal/errortypes"
	"github.com/wastrilith2k/zep-mcp-server/internal/server"
	"github.com/wastrilith2k/zep-mcp-server/internal/zep"
)

// Config represents the configuration for the Zep MCP server.
type Config = config.Config

// Server wires the Zep API client to the MCP tool dispatch layer.
type Server struct {
	config     *config.Config
	client     *zep.Client
	toolServer *server.MemoryToolServer
	logger     *slog.Logger
}

// ServerOptions defines the options for creating a new Server.
type ServerOptions struct {
	Config     *Config      // Pre-filled config. If nil, ConfigPath is used.
	ConfigPath string       // Path to config file. Used if Config is nil. If both are empty, defaults plus environment apply.
	Logger     *slog.Logger // External logger. If nil, slog.Default() is used.
}

// NewServer creates a new Zep MCP Server with the given options.
// If opts.Config is provided, it is used directly. Otherwise the
// configuration is loaded from opts.ConfigPath (or the default path
// when that is empty too). The Zep API key must be set either way.
func NewServer(opts ServerOptions) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var cfg *Config
	var err error

	if opts.Config != nil {
		cfg = opts.Config
		logger.Info("Using provided Config object for server initialization")
	} else {
		path := opts.ConfigPath
		if path == "" {
			path = config.DefaultConfigFilename
		}
		logger.Info("Loading configuration for server initialization", "path", path)
		cfg, err = config.LoadConfigWithPath(path)
		if err != nil {
			logger.Error("Failed to load configuration", "path", path, "error", err)
			return nil, errortypes.ConfigError(err, "Failed to load configuration from path: "+path)
		}
	}

	if cfg.Zep.APIKey == "" {
		return nil, errortypes.ConfigError(errors.New("ZEP_API_KEY is not set"), "Zep API key is required")
	}

	client := zep.NewClient(cfg.Zep.BaseURL, cfg.Zep.APIKey, nil)

	logger.Info("Initializing memory tool server component")
	toolServer := server.NewMemoryToolServer(client, cfg)
	if err := toolServer.Initialize(); err != nil {
		logger.Error("Failed to initialize memory tool server component", "error", err)
		return nil, errortypes.ConfigError(err, "Failed to initialize memory tool server component")
	}

	logger.Info("Zep MCP server successfully initialized")
	return &Server{
		config:     cfg,
		client:     client,
		toolServer: toolServer,
		logger:     logger,
	}, nil
}

// Start serves the MCP protocol over stdio. It blocks until stdin
// closes or the transport fails.
func (s *Server) Start() error {
	s.logger.Info("Starting Zep MCP server")
	return s.toolServer.Start()
}

// Tools returns the server's tool catalog.
func (s *Server) Tools() []mcp.Tool {
	return s.toolServer.Tools()
}

// DefaultConfig returns the default configuration for the Zep MCP
// server. The API key is left empty and must be supplied by the caller.
func DefaultConfig() *Config {
	return config.NewConfig()
}
