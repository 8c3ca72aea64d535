package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	zepmcp "github.com/wastrilith2k/zep-mcp-server"
	"github.com/wastrilith2k/zep-mcp-server/internal/config"
	"github.com/wastrilith2k/zep-mcp-server/internal/logger"
	"github.com/wastrilith2k/zep-mcp-server/internal/server"
)

var cfgFile string

func main() {
	root := &cobra.Command{
		Use:     "zep-mcp-server",
		Short:   "MCP server exposing the Zep memory service as callable tools",
		Long:    "zep-mcp-server speaks the Model Context Protocol over stdio and translates tool calls into Zep cloud API requests: storing memories, searching them, and exploring the derived knowledge graph.",
		Version: server.Version,
		// Diagnostics go to stderr ourselves; stdout belongs to the
		// stdio transport.
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultConfigFilename, "config file path")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.InitGlobal(cfgFile)
	if err != nil {
		return err
	}

	log := logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	if cfg.Zep.APIKey == "" {
		return fmt.Errorf("ZEP_API_KEY is not set: provide it via the environment or the %s config file", config.DefaultConfigFilename)
	}

	srv, err := zepmcp.NewServer(zepmcp.ServerOptions{
		Config: cfg,
		Logger: log,
	})
	if err != nil {
		return err
	}

	return srv.Start()
}
