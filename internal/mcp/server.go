package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/fyrsmithlabs/voicetask/internal/logging"
	"github.com/fyrsmithlabs/voicetask/internal/service"
)

// DefaultUserID owns drafts created through process_input.
const DefaultUserID = "mcp"

// Server serves the extraction tools over MCP.
type Server struct {
	mcp       *mcp.Server
	processor *service.Processor
	metrics   *Metrics
	logger    *logging.Logger
	userID    string
}

// Config configures the MCP server.
type Config struct {
	// Name is the server implementation name (default: "voicetask")
	Name string

	// Version is the server version (default: "dev")
	Version string

	// UserID owns drafts handed to the sink (default: "mcp")
	UserID string

	Logger  *logging.Logger
	Metrics *Metrics
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Name:    "voicetask",
		Version: "dev",
		UserID:  DefaultUserID,
	}
}

// NewServer creates an MCP server around processor.
func NewServer(cfg *Config, processor *service.Processor) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if processor == nil {
		return nil, fmt.Errorf("processor is required")
	}
	if cfg.Name == "" {
		cfg.Name = "voicetask"
	}
	if cfg.UserID == "" {
		cfg.UserID = DefaultUserID
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NewMetrics(nil, logger)
	}

	s := &Server{
		mcp: mcp.NewServer(&mcp.Implementation{
			Name:    cfg.Name,
			Version: cfg.Version,
		}, nil),
		processor: processor,
		metrics:   metrics,
		logger:    logger.Named("mcp"),
		userID:    cfg.UserID,
	}
	s.registerTools()
	return s, nil
}

// MCPServer returns the underlying SDK server, for custom transports.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Run serves on stdio until ctx is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info(ctx, "starting MCP server on stdio transport")
	if err := s.mcp.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("server run failed: %w", err)
	}
	return nil
}
