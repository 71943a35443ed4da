// Command partyroom runs the party room coordinator.
//
// It supports three commands:
//  1. "serve" (default) – runs the HTTP server exposing room WebSockets, the REST API and an /mcp endpoint
//  2. "mcp" – runs an MCP stdio server against a running coordinator, or an internal one if none answers
//  3. "validate-config" – loads and validates the configuration, then exits
//
// Every flag can also be set from the environment, and a .env file in the
// working directory is loaded first.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/partyroom/game/config"
	"github.com/wricardo/partyroom/transport/mcp"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Party Room Coordinator"
)

func main() {
	if err := godotenv.Load(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logrus.WithError(err).Warn("Error loading .env file")
		}
	} else {
		logrus.Info("Loaded environment variables from .env file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCommand().Run(ctx, os.Args); err != nil {
		logrus.WithError(err).Fatal("Exiting")
	}
}

// newCommand builds the command tree. Flags are inherited by subcommands.
func newCommand() *cli.Command {
	return &cli.Command{
		Name:    "partyroom",
		Usage:   AppName,
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a YAML configuration file",
				Sources: cli.EnvVars("PARTYROOM_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "host",
				Usage:   "HTTP server host",
				Sources: cli.EnvVars("PARTYROOM_HOST", "HOST"),
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "HTTP server port",
				Sources: cli.EnvVars("PARTYROOM_PORT", "PORT"),
			},
			&cli.StringFlag{
				Name:    "public-url",
				Usage:   "base URL encoded in room QR codes",
				Sources: cli.EnvVars("PARTYROOM_PUBLIC_URL"),
			},
			&cli.StringFlag{
				Name:    "storage",
				Usage:   "room storage backend (file or memory)",
				Sources: cli.EnvVars("PARTYROOM_STORAGE"),
			},
			&cli.StringFlag{
				Name:    "data-dir",
				Usage:   "directory for file storage",
				Sources: cli.EnvVars("PARTYROOM_DATA_DIR"),
			},
			&cli.StringFlag{
				Name:    "idle-timeout",
				Usage:   "how long an empty room stays in memory",
				Sources: cli.EnvVars("PARTYROOM_IDLE_TIMEOUT"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "log level (trace, debug, info, warn, error)",
				Sources: cli.EnvVars("PARTYROOM_LOG_LEVEL", "LOG_LEVEL"),
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "shorthand for --log-level debug",
			},
			&cli.BoolFlag{
				Name:    "nats",
				Usage:   "publish room events on an embedded NATS server",
				Sources: cli.EnvVars("PARTYROOM_NATS_ENABLED"),
			},
			&cli.IntFlag{
				Name:    "nats-port",
				Usage:   "embedded NATS server port",
				Sources: cli.EnvVars("PARTYROOM_NATS_PORT"),
			},
			&cli.BoolFlag{
				Name:    "ngrok",
				Usage:   "enable ngrok tunnel",
				Sources: cli.EnvVars("NGROK_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "ngrok-auth",
				Usage:   "ngrok auth token",
				Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"),
			},
			&cli.StringFlag{
				Name:    "ngrok-domain",
				Usage:   "custom ngrok domain",
				Sources: cli.EnvVars("NGROK_DOMAIN"),
			},
		},
		Action: runServe,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP server (default)",
				Action: runServe,
			},
			{
				Name:  "mcp",
				Usage: "run an MCP stdio server",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "api-url",
						Usage:   "coordinator to proxy to (default: the configured local address)",
						Sources: cli.EnvVars("PARTYROOM_API_URL"),
					},
				},
				Action: runStdioMCP,
			},
			{
				Name:   "validate-config",
				Usage:  "validate the configuration and exit",
				Action: runValidateConfig,
			},
		},
	}
}

// loadConfig reads the config file and applies flag and environment overrides
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, err
	}

	if cmd.IsSet("host") {
		cfg.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.Port = cmd.Int("port")
	}
	if cmd.IsSet("public-url") {
		cfg.PublicURL = cmd.String("public-url")
	}
	if cmd.IsSet("storage") {
		cfg.Storage = cmd.String("storage")
	}
	if cmd.IsSet("data-dir") {
		cfg.DataDir = cmd.String("data-dir")
	}
	if cmd.IsSet("idle-timeout") {
		cfg.IdleTimeout = cmd.String("idle-timeout")
	}
	if cmd.IsSet("log-level") {
		cfg.LogLevel = cmd.String("log-level")
	}
	if cmd.Bool("debug") {
		cfg.LogLevel = logrus.DebugLevel.String()
	}
	if cmd.IsSet("nats") {
		cfg.Nats.Enabled = cmd.Bool("nats")
	}
	if cmd.IsSet("nats-port") {
		cfg.Nats.Port = cmd.Int("nats-port")
	}
	if cmd.IsSet("ngrok") {
		cfg.Ngrok.Enabled = cmd.Bool("ngrok")
	}
	if cmd.IsSet("ngrok-auth") {
		cfg.Ngrok.Authtoken = cmd.String("ngrok-auth")
	}
	if cmd.IsSet("ngrok-domain") {
		cfg.Ngrok.Domain = cmd.String("ngrok-domain")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *logrus.Logger {
	log := logrus.New()
	log.SetLevel(cfg.Level())
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return log
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log := newLogger(cfg)
	log.WithField("version", Version).Infof("Starting %s", AppName)

	a, err := newApp(cfg, log)
	if err != nil {
		return err
	}
	return a.run(ctx)
}

func runValidateConfig(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.Root().Writer, "Configuration is valid (listening on %s, %s storage)\n", cfg.Addr(), cfg.Storage)
	return nil
}

// runStdioMCP serves MCP over stdio. It proxies to a running coordinator when
// one answers on the API URL, and otherwise starts an internal one on a random
// loopback port.
func runStdioMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	baseURL := cmd.String("api-url")
	if baseURL == "" {
		baseURL = cfg.LocalURL()
	}

	if !healthy(ctx, baseURL) {
		log.WithField("url", baseURL).Info("No coordinator found, starting internal HTTP server")

		internal := *cfg
		internal.Host = "127.0.0.1"
		internal.Ngrok.Enabled = false
		internal.Nats.Enabled = false

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}
		internal.Port = listener.Addr().(*net.TCPAddr).Port

		a, err := newApp(&internal, log)
		if err != nil {
			listener.Close()
			return err
		}

		// Served like the serve command so idle rooms are still retired
		serveCtx, cancel := context.WithCancel(ctx)
		served := make(chan error, 1)
		go func() { served <- a.serve(serveCtx, listener) }()
		defer func() {
			cancel()
			if err := <-served; err != nil {
				log.WithError(err).Warn("Internal HTTP server stopped with error")
			}
		}()

		baseURL = internal.LocalURL()
	}

	log.WithField("url", baseURL).Info("MCP stdio server ready")
	return server.ServeStdio(mcp.NewClient(baseURL).GetMCPServer())
}

// healthy reports whether a coordinator answers its health check at baseURL
func healthy(ctx context.Context, baseURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
