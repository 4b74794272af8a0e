/*
Copyright © 2025 EthosView contributors.

Released under MIT license.
*/

// Command ethosview-snapshot warms the dashboard home page resources through the gateway
// and prints how each of them was resolved.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"gopkg.in/yaml.v3"

	"github.com/ethosview/dashgate/config"
	"github.com/ethosview/dashgate/esgapi"
	"github.com/ethosview/dashgate/gateway"
	"github.com/ethosview/dashgate/httpclient"
	"github.com/ethosview/dashgate/log"
)

const metricsNamespace = "ethosview"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// AppConfig is the configuration of the command.
type AppConfig struct {
	Log        *log.Config        `yaml:"log"`
	Gateway    *gateway.Config    `yaml:"gateway"`
	HTTPClient *httpclient.Config `yaml:"httpclient"`
	ESGAPI     *esgapi.Config     `yaml:"esgapi"`
}

// NewAppConfig creates a new instance of the AppConfig.
func NewAppConfig() *AppConfig {
	return &AppConfig{
		Log:        log.NewConfig(),
		Gateway:    gateway.NewConfig(),
		HTTPClient: httpclient.NewConfig(),
		ESGAPI:     esgapi.NewConfig(),
	}
}

func (c *AppConfig) SetProviderDefaults(dp config.DataProvider) {
	config.CallSetProviderDefaultsForFields(c, dp)
}

func (c *AppConfig) Set(dp config.DataProvider) error {
	return config.CallSetForFields(c, dp)
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("ethosview-snapshot", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfgPath := fs.String("config", "", "path to the YAML configuration file")
	dumpConfig := fs.Bool("dump-config", false, "print the effective configuration and exit")
	printMetrics := fs.Bool("metrics", false, "print collected metrics after warm-up")
	timeout := fs.Duration("timeout", 30*time.Second, "warm-up timeout")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	cfg, err := loadAppConfig(*cfgPath)
	if err != nil {
		fmt.Fprintf(stderr, "load config: %v\n", err)
		return 1
	}
	if *dumpConfig {
		enc := yaml.NewEncoder(stdout)
		enc.SetIndent(2)
		if err = enc.Encode(cfg); err != nil {
			fmt.Fprintf(stderr, "dump config: %v\n", err)
			return 1
		}
		return 0
	}

	logger, closeLogger := log.NewLogger(cfg.Log)
	defer closeLogger()

	reg := prometheus.NewRegistry()
	client, err := makeESGAPIClient(cfg, logger, reg)
	if err != nil {
		logger.Error("failed to create ESG API client", log.Error(err))
		fmt.Fprintln(stderr, err)
		return 1
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, *timeout)
	defer cancelTimeout()

	calls := client.HomePage()
	logger.Info("warming up home page resources", log.Int("resources", len(calls)))
	results := client.Warmup(ctx, calls)
	printReport(stdout, results, client.BackoffRemaining())

	if *printMetrics {
		if err = writeMetrics(stdout, reg); err != nil {
			fmt.Fprintf(stderr, "write metrics: %v\n", err)
		}
	}
	return 0
}

func loadAppConfig(path string) (*AppConfig, error) {
	cfgLoader := config.NewDefaultLoader(config.DefaultEnvVarsPrefix)
	cfg := NewAppConfig()
	if path == "" {
		return cfg, cfgLoader.Load(cfg)
	}
	return cfg, cfgLoader.LoadFromFile(path, config.DataTypeYAML, cfg)
}

func makeESGAPIClient(cfg *AppConfig, logger log.FieldLogger, reg prometheus.Registerer) (*esgapi.Client, error) {
	clientMetrics := httpclient.NewPrometheusMetricsCollector(metricsNamespace)
	clientMetrics.MustRegisterIn(reg)
	gatewayMetrics := gateway.NewPrometheusMetricsWithOpts(gateway.PrometheusMetricsOpts{Namespace: metricsNamespace})
	gatewayMetrics.MustRegisterIn(reg)

	httpClient, err := httpclient.NewWithOpts(cfg.HTTPClient, httpclient.Opts{
		LoggerProvider: func(context.Context) log.FieldLogger { return logger },
		Collector:      clientMetrics,
	})
	if err != nil {
		return nil, fmt.Errorf("create http client: %w", err)
	}

	gw, err := gateway.New(cfg.Gateway, gateway.Opts{
		HTTPClient:       httpClient,
		Logger:           logger,
		MetricsCollector: gatewayMetrics,
	})
	if err != nil {
		return nil, fmt.Errorf("create gateway: %w", err)
	}

	return esgapi.NewClient(gw, cfg.ESGAPI, esgapi.ClientOpts{Logger: logger}), nil
}

func printReport(w io.Writer, results []esgapi.WarmupResult, backoffRemaining time.Duration) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "RESOURCE\tSTATUS\tDURATION")
	for _, res := range results {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", res.Name, resultStatus(res.Err), res.Duration.Round(time.Millisecond))
	}
	_ = tw.Flush()
	_, _ = fmt.Fprintf(w, "backoff remaining: %s\n", backoffRemaining.Round(time.Millisecond))
}

func resultStatus(err error) string {
	switch {
	case err == nil:
		return "ok"
	case gateway.IsRateLimited(err):
		return "rate limited"
	default:
		return "error: " + err.Error()
	}
}

func writeMetrics(w io.Writer, g prometheus.Gatherer) error {
	mfs, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range mfs {
		if _, err = expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
