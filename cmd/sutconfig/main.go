package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/sut-config/internal/application"
	"github.com/eugenenazirov/sut-config/internal/config"
	"github.com/eugenenazirov/sut-config/internal/configstore"
	"github.com/eugenenazirov/sut-config/internal/logging"
)

const (
	exitOK           = 0
	exitUsage        = 1
	exitInvalidInput = 2
	exitEnvFail      = 3
)

var signalNotify = signal.Notify

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	kingpinApp := kingpin.New("sutconfig", "SUT configuration store - reads and updates options in SUT_config.cfg")
	kingpinApp.UsageWriter(stderr)
	kingpinApp.ErrorWriter(stderr)
	kingpinApp.Terminate(nil)

	configFile := kingpinApp.Flag("config", "Path to YAML configuration file").String()
	overridePath := kingpinApp.Flag("override-path", "Client override configuration file, used when present").String()
	defaultPath := kingpinApp.Flag("default-path", "Default configuration file").String()
	platformEnv := kingpinApp.Flag("platform-env", "Environment variable that overrides the stored platform").String()
	cacheTTL := kingpinApp.Flag("cache-ttl", "Reuse parsed files for this long (0 re-reads on every call)").Default("-1ns").Duration()
	logLevel := kingpinApp.Flag("log-level", "Log level (debug, info, warn, error)").String()

	getCmd := kingpinApp.Command("get", "Print the value of an option")
	getSection := getCmd.Arg("section", "Section name").Required().String()
	getOption := getCmd.Arg("option", "Option name").Required().String()

	setCmd := kingpinApp.Command("set", "Update an option in an existing section")
	setSection := setCmd.Arg("section", "Section name").Required().String()
	setOption := setCmd.Arg("option", "Option name").Required().String()
	setValue := setCmd.Arg("value", "New value").Required().String()

	itemCmd := kingpinApp.Command("platform-item", "Print an item for the active platform, falling back to Platform.Default")
	itemName := itemCmd.Arg("item", "Item name").Required().String()

	platformCmd := kingpinApp.Command("platform", "Print the active platform")
	resolveCmd := kingpinApp.Command("resolve", "Print the configuration file in use")

	serveCmd := kingpinApp.Command("serve", "Expose the configuration store over HTTP")
	port := serveCmd.Flag("port", "HTTP port exposed by the service").String()
	rateLimitRPSFlag := serveCmd.Flag("rate-limit-rps", "Requests per second allowed (set 0 to disable)").Default("-1").Float64()
	rateLimitBurstFlag := serveCmd.Flag("rate-limit-burst", "Burst capacity for rate limiter (set 0 to disable)").Default("-1").Int()

	command, err := kingpinApp.Parse(args)
	if err != nil {
		fmt.Fprintf(stderr, "sutconfig: %v\n", err)
		return exitUsage
	}

	overrides := &config.CLIOverrides{
		ConfigFile:   *configFile,
		OverridePath: overridePath,
		DefaultPath:  defaultPath,
		PlatformEnv:  platformEnv,
		LogLevel:     logLevel,
		Port:         port,
	}

	if *cacheTTL >= 0 {
		overrides.CacheTTL = cacheTTL
	}

	if *rateLimitRPSFlag >= 0 {
		overrides.RateLimitRPS = rateLimitRPSFlag
	}

	if *rateLimitBurstFlag >= 0 {
		overrides.RateLimitBurst = rateLimitBurstFlag
	}

	cfg, err := config.Load(overrides)
	if err != nil {
		fmt.Fprintf(stderr, "sutconfig: failed to load configuration: %v\n", err)
		return exitUsage
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(stderr, "sutconfig: failed to initialize logger: %v\n", err)
		return exitUsage
	}
	defer func() {
		_ = logger.Sync()
	}()

	store := application.NewStore(cfg, logger)

	switch command {
	case getCmd.FullCommand():
		value, err := store.GetValue(*getSection, *getOption)
		return report(stdout, stderr, value, err)
	case setCmd.FullCommand():
		if err := store.SetValue(*setSection, *setOption, *setValue); err != nil {
			return fail(stderr, err)
		}
		return exitOK
	case itemCmd.FullCommand():
		value, err := store.GetPlatformItem(*itemName)
		return report(stdout, stderr, value, err)
	case platformCmd.FullCommand():
		return report(stdout, stderr, store.Platform(), nil)
	case resolveCmd.FullCommand():
		return report(stdout, stderr, store.ResolvePath(), nil)
	case serveCmd.FullCommand():
		return serve(cfg, logger)
	}

	return exitUsage
}

// report prints value on success, otherwise the error.
func report(stdout, stderr io.Writer, value string, err error) int {
	if err != nil {
		return fail(stderr, err)
	}
	fmt.Fprintln(stdout, value)
	return exitOK
}

func fail(stderr io.Writer, err error) int {
	fmt.Fprintf(stderr, "sutconfig: %v\n", err)
	return exitCode(err)
}

func exitCode(err error) int {
	switch configstore.CodeOf(err) {
	case configstore.Success:
		return exitOK
	case configstore.InvalidInput:
		return exitInvalidInput
	default:
		return exitEnvFail
	}
}

func serve(cfg config.Config, logger *zap.Logger) int {
	app, err := application.New(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize application", zap.Error(err))
		return exitUsage
	}

	if err := app.Start(); err != nil {
		logger.Error("failed to start server", zap.Error(err))
		return exitEnvFail
	}

	shutdown(app.Server(), cfg.ShutdownGracePeriod, logger)
	return exitOK
}

func shutdown(server *http.Server, timeout time.Duration, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
}
