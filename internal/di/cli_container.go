package di

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/email-vetter/internal/adapters/frontend"
	"github.com/mikey/email-vetter/internal/config"
	"github.com/mikey/email-vetter/internal/core"
	"github.com/mikey/email-vetter/internal/logging"
	"github.com/mikey/email-vetter/internal/ports"
	"github.com/mikey/email-vetter/internal/utils"
)

// CLIFlags contains all command line flags for the CLI application
type CLIFlags struct {
	// Classification flags
	Mode        string
	Limit       int
	Concurrency int

	// Reputation flags
	Allowlist      []string
	DisposableFile string

	// Network flags
	Resolver     string
	Nameservers  []string
	DNSTimeout   time.Duration
	ProbePort    int
	ProbeTimeout time.Duration

	// Input and output flags
	Emails     []string
	InputFile  string
	Output     io.Writer
	Pretty     bool
	Verbose    bool
	JSONLog    bool
	ConfigFile string
}

// BuildCLIContainer creates and configures a dependency injection container for the CLI application
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		if flags.ConfigFile != "" {
			cfg, err := config.NewFromFile(flags.ConfigFile)
			if err != nil {
				return nil, err
			}
			logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
			return cfg, nil
		}

		// Create config from command line flags
		return createConfigFromFlags(flags), nil
	}); err != nil {
		return nil, err
	}

	// No cache for one-shot CLI runs
	if err := container.Provide(func() core.CacheRepository {
		return nil
	}); err != nil {
		return nil, err
	}

	if err := provideClassification(container); err != nil {
		return nil, err
	}

	// Register CLI frontend
	if err := container.Provide(func(
		flags *CLIFlags,
		runner ports.BatchClassifier,
		logger *zap.Logger,
		text *utils.TextProcessor,
	) (*frontend.CLIFrontend, error) {
		in, err := openInput(flags)
		if err != nil {
			return nil, err
		}
		out := flags.Output
		if out == nil {
			out = os.Stdout
		}
		return frontend.NewCLIFrontend(runner, logger, text, in, out, flags.Pretty), nil
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// openInput selects addresses given as arguments, then the input file, then
// stdin. The CLI frontend closes the returned reader once it has been read.
func openInput(flags *CLIFlags) (io.ReadCloser, error) {
	if len(flags.Emails) > 0 {
		return io.NopCloser(strings.NewReader(strings.Join(flags.Emails, "\n"))), nil
	}
	if flags.InputFile != "" && flags.InputFile != "-" {
		f, err := os.Open(flags.InputFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open input file: %w", err)
		}
		return f, nil
	}
	return io.NopCloser(os.Stdin), nil
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags(flags *CLIFlags) *config.Config {
	v := config.NewEmptyViper()

	// Set some cli specific settings
	v.Set("server.frontend_type", "cli")
	v.Set("cli.pretty", flags.Pretty)
	v.Set("cache.enabled", false)

	if flags.Mode != "" {
		v.Set("vetting.mode", flags.Mode)
	}
	v.Set("vetting.limit", flags.Limit)
	if flags.Concurrency > 0 {
		v.Set("vetting.concurrency", flags.Concurrency)
	}

	if len(flags.Allowlist) > 0 {
		v.Set("reputation.allowlist", flags.Allowlist)
	}
	if flags.DisposableFile != "" {
		v.Set("reputation.disposable_file", flags.DisposableFile)
	}

	if flags.Resolver != "" {
		v.Set("dns.resolver", flags.Resolver)
	}
	if len(flags.Nameservers) > 0 {
		v.Set("dns.nameservers", flags.Nameservers)
	}
	if flags.DNSTimeout > 0 {
		v.Set("dns.timeout", flags.DNSTimeout.String())
	}
	if flags.ProbePort > 0 {
		v.Set("probe.port", flags.ProbePort)
	}
	if flags.ProbeTimeout > 0 {
		v.Set("probe.timeout", flags.ProbeTimeout.String())
	}

	return config.NewFromViper(v)
}
