package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kentavv/ms670x/internal/config"
	"github.com/kentavv/ms670x/internal/metrics"
	"github.com/kentavv/ms670x/internal/serialport"
	"github.com/kentavv/ms670x/internal/stream"
	"github.com/kentavv/ms670x/pkg/ms670x"
)

var (
	rootCmd = &cobra.Command{
		Use:           "ms670x",
		Short:         "Decode Mastech MS670x sound level meter data",
		Long:          "ms670x decodes live and pre-recorded readings sent by MS670x sound level meters over RS232.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	readCmd = &cobra.Command{
		Use:   "read",
		Short: "Read and decode readings from a serial port or capture file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runRead(cmd.Context(), cmd.OutOrStdout(), cfg)
		},
	}

	decodeCmd = &cobra.Command{
		Use:   "decode [hex]",
		Short: "Decode a hex dump of a raw meter stream",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				return runInteractive(ctx, cmd.InOrStdin(), out)
			}
			return runDecode(ctx, out, args[0])
		},
	}

	configPath string
	inputPath  string
	device     string
	baudRate   int
	timeout    time.Duration
	format     string
	advisory   bool
	metricsAt  string
	logLevel   string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&format, "format", ms670x.FormatJSON, "output format: json or text")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level")

	readCmd.Flags().StringVar(&configPath, "config", "", "YAML config file")
	readCmd.Flags().StringVar(&inputPath, "input", "", "read a raw capture file instead of the serial port (- for stdin)")
	readCmd.Flags().StringVar(&device, "device", "", "serial device (default /dev/ttyUSB0)")
	readCmd.Flags().IntVar(&baudRate, "baud", serialport.DefaultBaudRate, "serial baud rate")
	readCmd.Flags().DurationVar(&timeout, "timeout", serialport.DefaultTimeout, "serial read timeout")
	readCmd.Flags().BoolVar(&advisory, "advisory", false, "also print timeouts, short reads and unknown markers")
	readCmd.Flags().StringVar(&metricsAt, "metrics-addr", "", "serve Prometheus metrics on this address")

	rootCmd.PersistentPreRunE = func(*cobra.Command, []string) error {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		logrus.SetLevel(level)
		return nil
	}
	rootCmd.AddCommand(readCmd, decodeCmd)
}

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logrus.Fatal(err)
	}
}

// loadConfig reads the config file, if any, and applies explicit flags on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	flags := cmd.Flags()
	if flags.Changed("device") {
		cfg.Serial.Device = device
	}
	if flags.Changed("baud") {
		cfg.Serial.BaudRate = baudRate
	}
	if flags.Changed("timeout") {
		cfg.Serial.TimeoutMs = int(timeout / time.Millisecond)
	}
	if flags.Changed("format") {
		cfg.Output.Format = format
	}
	if flags.Changed("advisory") {
		cfg.Output.Advisory = advisory
	}
	if flags.Changed("metrics-addr") {
		cfg.Metrics.Address = metricsAt
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if level, err := logrus.ParseLevel(cfg.Logging.Level); err == nil {
		logrus.SetLevel(level)
	}
	return cfg, nil
}

func openInput(cfg *config.Config) (io.ReadCloser, error) {
	switch inputPath {
	case "":
		return serialport.Open(serialport.Config{
			Device:   cfg.Serial.Device,
			BaudRate: cfg.Serial.BaudRate,
			Timeout:  cfg.Serial.Timeout(),
		})
	case "-":
		return io.NopCloser(os.Stdin), nil
	default:
		return os.Open(inputPath)
	}
}

func runRead(ctx context.Context, out io.Writer, cfg *config.Config) error {
	log := logrus.WithField("session", uuid.NewString())

	in, err := openInput(cfg)
	if err != nil {
		return err
	}
	defer in.Close()

	opts := ms670x.Options{Logger: log}
	if cfg.Metrics.Address != "" {
		reg := metrics.NewRegistry()
		opts.Observers = append(opts.Observers, metrics.NewMeter(reg))
		srv := serveMetrics(log, cfg.Metrics, reg)
		defer srv.Close()
	}

	source := cfg.Serial.Device
	if inputPath != "" {
		source = inputPath
	}
	log.WithField("source", source).Info("reading meter stream")

	r := ms670x.NewReader(in, opts)
	for {
		res, err := r.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if res.Advisory() && !wantAdvisory(cfg, res) {
			continue
		}
		if err := printResult(out, res, cfg.Output.Format); err != nil {
			return err
		}
	}
}

// wantAdvisory reports whether an advisory event should be printed. End of
// dump markers are always printed.
func wantAdvisory(cfg *config.Config, res ms670x.Result) bool {
	switch res.Kind {
	case stream.EventEndOfDump, stream.EventEndOfDumpUnconfirmed:
		return true
	case stream.EventUnknownMarker:
		return cfg.Output.Advisory && !res.BeforeSync
	default:
		return cfg.Output.Advisory
	}
}

func serveMetrics(log logrus.FieldLogger, cfg config.MetricsConfig, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, metrics.Handler(reg))
	srv := &http.Server{Addr: cfg.Address, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("metrics server stopped")
		}
	}()
	log.WithField("addr", cfg.Address).Info("serving metrics")
	return srv
}

func runInteractive(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	logrus.Info("ms670x decode mode. Paste a hex capture and press Enter (Ctrl+D to exit).")
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := runDecode(ctx, out, line); err != nil {
			logrus.WithError(err).Error("failed to decode capture")
		}
	}
	return scanner.Err()
}

func runDecode(ctx context.Context, out io.Writer, hex string) error {
	results, err := ms670x.DecodeHex(ctx, hex)
	if err != nil {
		return err
	}
	for _, res := range results {
		if err := printResult(out, res, format); err != nil {
			return err
		}
	}
	return nil
}

func printResult(out io.Writer, res ms670x.Result, format string) error {
	line, err := ms670x.Format(res, format)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, line)
	return err
}
