package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
	"golang.org/x/sync/errgroup"

	"github.com/wricardo/partyroom/api"
	"github.com/wricardo/partyroom/game/config"
	"github.com/wricardo/partyroom/game/coordinator"
	"github.com/wricardo/partyroom/game/service"
	"github.com/wricardo/partyroom/transport/mcp"
	"github.com/wricardo/partyroom/transport/messaging"
	"github.com/wricardo/partyroom/transport/websocket"
)

const shutdownTimeout = 10 * time.Second

// app holds the wired services of one coordinator process
type app struct {
	cfg       *config.Config
	log       logrus.FieldLogger
	manager   *coordinator.Manager
	nats      *messaging.NatsServer
	publisher *messaging.RoomPublisher
	handler   http.Handler
}

// newApp builds the store, event bus, room manager and HTTP surface from cfg
func newApp(cfg *config.Config, log logrus.FieldLogger) (*app, error) {
	store, err := cfg.BuildStore()
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: log}

	opts := []coordinator.ManagerOption{
		coordinator.WithStore(store),
		coordinator.WithLogger(log),
		coordinator.WithDefaultGameType(cfg.DefaultGameType),
	}

	if cfg.Nats.Enabled {
		ns, err := buildNatsServer(cfg.Nats, log)
		if err != nil {
			return nil, err
		}
		a.nats = ns
		a.publisher = messaging.NewRoomPublisher(ns, cfg.Nats.SubjectPrefix)
		opts = append(opts, coordinator.WithPublisher(a.publisher))
	}

	a.manager = coordinator.NewManager(opts...)

	roomService := service.NewRoomService(a.manager, publicURL(cfg))
	sockets := websocket.NewHandler(a.manager, log)
	apiServer := api.NewServer(roomService, sockets, log)

	mcpClient := mcp.NewClient(cfg.LocalURL())
	apiServer.Router().HandleFunc("/mcp", mcpHandler(mcpClient.GetMCPServer())).Methods("POST")

	a.handler = apiServer
	return a, nil
}

func buildNatsServer(cfg config.NatsConfig, log logrus.FieldLogger) (*messaging.NatsServer, error) {
	opts := []messaging.NatsServerOpt{
		messaging.WithStartTimeout(cfg.StartTimeoutDuration()),
		messaging.WithPort(cfg.Port),
	}
	if cfg.Host != "" {
		opts = append(opts, messaging.WithHost(cfg.Host))
	}

	ns, err := messaging.NewNatsServer(log.WithField("component", "nats"), opts...)
	if err != nil {
		return nil, fmt.Errorf("building nats server: %w", err)
	}
	return ns, nil
}

// publicURL is the base of the join links handed out in QR codes
func publicURL(cfg *config.Config) string {
	if cfg.PublicURL != "" {
		return cfg.PublicURL
	}
	if cfg.Ngrok.Enabled && cfg.Ngrok.Domain != "" {
		return "https://" + cfg.Ngrok.Domain
	}
	return cfg.LocalURL()
}

// mcpHandler serves single JSON-RPC MCP messages over HTTP POST
func mcpHandler(mcpServer *server.MCPServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpServer.HandleMessage(r.Context(), body)

		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(responseData)
	}
}

// run listens on the configured address and serves until ctx is canceled
func (a *app) run(ctx context.Context) error {
	listener, err := net.Listen("tcp", a.cfg.Addr())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", a.cfg.Addr(), err)
	}
	return a.serve(ctx, listener)
}

// serve runs every component on listener until ctx is canceled, then shuts
// them all down
func (a *app) serve(ctx context.Context, listener net.Listener) error {
	httpServer := &http.Server{
		Handler:     a.handler,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.log.WithFields(logrus.Fields{
			"addr":      listener.Addr().String(),
			"websocket": "/api/room/{roomId}",
			"storage":   a.cfg.Storage,
		}).Info("HTTP server listening")

		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		a.log.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		err := httpServer.Shutdown(shutdownCtx)
		a.manager.Shutdown()
		a.flushEvents()
		if err != nil {
			return fmt.Errorf("http server shutdown: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		a.cleanupLoop(ctx)
		return nil
	})

	if a.nats != nil {
		g.Go(func() error {
			return a.nats.Start(ctx)
		})
		g.Go(func() error {
			return a.watchEvents(ctx)
		})
	}

	if a.cfg.Ngrok.Enabled {
		g.Go(func() error {
			return a.serveNgrok(ctx)
		})
	}

	err := g.Wait()
	a.log.Info("Server stopped")
	return err
}

// flushEvents pushes out events published by rooms that just closed
func (a *app) flushEvents() {
	if a.nats == nil {
		return
	}
	if err := a.nats.Flush(); err != nil && !errors.Is(err, messaging.ErrNotStarted) {
		a.log.WithError(err).Warn("Failed to flush room events")
	}
}

// cleanupLoop retires rooms that have had no sessions for the idle timeout
func (a *app) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(a.cfg.CleanupIntervalDuration())
	defer ticker.Stop()

	maxIdle := a.cfg.IdleTimeoutDuration()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := a.manager.CleanupIdle(maxIdle); removed > 0 {
				a.log.WithFields(logrus.Fields{
					"removed":   removed,
					"remaining": a.manager.Count(),
				}).Info("Cleaned up idle rooms")
			}
		}
	}
}

// watchEvents traces every published room event at debug level
func (a *app) watchEvents(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return nil
	case <-a.nats.Ready():
	}

	a.log.WithFields(logrus.Fields{
		"url":     a.nats.ClientURL(),
		"subject": a.publisher.Subject("*"),
	}).Info("Publishing room events")

	if a.cfg.Level() < logrus.DebugLevel {
		return nil
	}

	unsubscribe, err := a.publisher.Watch(func(subject string, frame []byte) {
		a.log.WithFields(logrus.Fields{
			"subject": subject,
			"bytes":   len(frame),
		}).Debug("Room event")
	})
	if err != nil {
		return fmt.Errorf("watching room events: %w", err)
	}
	<-ctx.Done()
	unsubscribe()
	return nil
}

// serveNgrok exposes the handler through an ngrok tunnel. Tunnel failures are
// logged and do not stop the local server.
func (a *app) serveNgrok(ctx context.Context) error {
	var tunnel ngrokConfig.Tunnel
	if a.cfg.Ngrok.Domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(a.cfg.Ngrok.Domain))
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	a.log.Info("Starting ngrok tunnel")
	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(a.cfg.Ngrok.Authtoken))
	if err != nil {
		a.log.WithError(err).Error("Failed to start ngrok tunnel")
		return nil
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			a.log.WithError(err).Warn("Failed to close ngrok tunnel")
		}
	}()

	a.log.WithField("url", tun.URL()).Info("Ngrok tunnel established")

	if err := http.Serve(tun, a.handler); err != nil && ctx.Err() == nil {
		a.log.WithError(err).Error("Ngrok server error")
	}
	a.log.Info("Ngrok tunnel closed")
	return nil
}
