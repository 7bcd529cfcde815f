// fxtnode is the Foxtail runtime control engine's process entry point: it
// loads a device/runtime settings file and a node descriptor JSON file,
// builds and starts a Node, serves its read-only status and metrics HTTP
// surfaces, and stops cleanly on SIGINT/SIGTERM.
//
// Usage:
//
//	fxtnode -node=/etc/fxtnode/node.json
//	fxtnode -node=/etc/fxtnode/node.json -settings-dir=/etc/fxtnode
package main

import (
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/foxtail-io/fxtnode/card/mock"
	"github.com/foxtail-io/fxtnode/card/modbus"
	"github.com/foxtail-io/fxtnode/component/analog"
	"github.com/foxtail-io/fxtnode/component/controller"
	"github.com/foxtail-io/fxtnode/component/digital"
	"github.com/foxtail-io/fxtnode/component/math"
	"github.com/foxtail-io/fxtnode/config"
	"github.com/foxtail-io/fxtnode/fxtlog"
	"github.com/foxtail-io/fxtnode/metrics"
	"github.com/foxtail-io/fxtnode/node"
	"github.com/foxtail-io/fxtnode/statusapi"
)

// metricsServer serves /metrics for the Prometheus default registry.
type metricsServer struct {
	http *http.Server
}

func newMetricsServer(addr string) *metricsServer {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &metricsServer{http: &http.Server{Addr: addr, Handler: mux}}
}

func (m *metricsServer) Start() error {
	ln, err := net.Listen("tcp", m.http.Addr)
	if err != nil {
		return err
	}
	go m.http.Serve(ln)
	return nil
}

func (m *metricsServer) Stop() error {
	return m.http.Close()
}

func main() {
	nodePath := flag.String("node", "", "path to the node descriptor JSON file (required)")
	settingsDir := flag.String("settings-dir", "", "override directory for the device/runtime settings file (sets FXTNODE_CONFIG_DIR)")
	flag.Parse()

	if *nodePath == "" {
		os.Stderr.WriteString("fxtnode: -node is required\n")
		os.Exit(2)
	}
	if *settingsDir != "" {
		os.Setenv("FXTNODE_CONFIG_DIR", *settingsDir)
	}

	settings, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("fxtnode: settings: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := fxtlog.New("fxtnode", settings.LogLevel, settings.LogFormat)
	log.With().WithField("device_id", settings.DeviceID).Info("starting")

	raw, err := os.ReadFile(*nodePath)
	if err != nil {
		log.With().WithField("path", *nodePath).WithError(err).Fatal("read node descriptor")
	}

	regs := node.NewRegistries()
	mock.Register(regs.Cards)
	modbus.Register(regs.Cards)
	digital.Register(regs.Components)
	math.Register(regs.Components)
	analog.Register(regs.Components)
	controller.Register(regs.Components)

	n, ferr := node.CreateFromJSON(raw, regs, node.DefaultConfig())
	if ferr != nil {
		log.With().WithError(ferr).Fatal("create node")
	}

	m := metrics.New()
	for _, c := range n.Chassis() {
		c.SetMetrics(m)
	}

	t0 := time.Now().UnixMicro()
	if !n.Start(t0) {
		log.With().WithError(n.ErrorCode()).Fatal("start node")
	}
	log.With().Info("node started")

	status := statusapi.New(settings.StatusAddr, n)
	if err := status.Start(); err != nil {
		log.With().WithField("addr", settings.StatusAddr).WithError(err).Error("status server failed to bind")
	} else {
		log.With().WithField("addr", settings.StatusAddr).Info("status server listening")
	}

	metricsSrv := newMetricsServer(settings.MetricsAddr)
	if err := metricsSrv.Start(); err != nil {
		log.With().WithField("addr", settings.MetricsAddr).WithError(err).Error("metrics server failed to bind")
	} else {
		log.With().WithField("addr", settings.MetricsAddr).Info("metrics server listening")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.With().Info("shutting down")
	n.Stop()
	status.Stop()
	metricsSrv.Stop()
}
