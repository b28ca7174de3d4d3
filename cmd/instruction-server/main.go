package main

import (
	"context"
	"net/http"
	"os"
	"sync"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/instruction-server/pkg/app"
	"github.com/code-payments/instruction-server/pkg/ledgerapi"
	"github.com/code-payments/instruction-server/pkg/solana"
)

type instructionServer struct {
	log *logrus.Entry

	server *ledgerapi.Server

	shutdownOnce sync.Once
	shutdownCh   chan struct{}
}

func (s *instructionServer) Init(config app.Config, metricsProvider *newrelic.Application) error {
	endpoint := ledgerapi.NewRPCEndpointConfig().Get(context.Background())
	if override, ok := config["rpc_endpoint"].(string); ok && len(override) > 0 {
		endpoint = override
	}

	timeout := ledgerapi.NewRPCTimeoutConfig().Get(context.Background())

	s.log.WithFields(logrus.Fields{
		"rpc_endpoint": endpoint,
		"rpc_timeout":  timeout,
	}).Info("initializing ledger api")

	client := solana.NewWithTimeout(endpoint, timeout)
	s.server = ledgerapi.NewServer(client, metricsProvider, ledgerapi.WithEnvConfigs())
	return nil
}

func (s *instructionServer) RegisterWithHTTP(mux *http.ServeMux) {
	s.server.RegisterWithHTTP(mux)
}

func (s *instructionServer) ShutdownChan() <-chan struct{} {
	return s.shutdownCh
}

func (s *instructionServer) Stop() {
	s.shutdownOnce.Do(func() {
		close(s.shutdownCh)
	})
}

func main() {
	server := &instructionServer{
		log:        logrus.StandardLogger().WithField("type", "instruction-server"),
		shutdownCh: make(chan struct{}),
	}

	if err := app.Run(server); err != nil {
		logrus.WithError(err).Error("error running service")
		os.Exit(1)
	}
}
