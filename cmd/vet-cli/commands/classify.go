package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/mikey/email-vetter/internal/adapters/frontend"
	"github.com/mikey/email-vetter/internal/di"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var classifyFlags = &di.CLIFlags{}

var classifyCmd = &cobra.Command{
	Use:   "classify [email...]",
	Short: "Classify addresses and print verdicts as JSON",
	Long: `Classify the addresses given as arguments. Without arguments the
addresses are read one per line from --file or from stdin.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := *classifyFlags
		flags.Emails = args
		flags.ConfigFile = configPath
		flags.Verbose = verbose
		flags.JSONLog = jsonLog
		flags.Output = cmd.OutOrStdout()
		return runClassify(cmd.Context(), &flags)
	},
}

func init() {
	rootCmd.AddCommand(classifyCmd)

	f := classifyCmd.Flags()
	f.StringVarP(&classifyFlags.Mode, "mode", "m", "fast", "Classification mode (fast, deep)")
	f.IntVarP(&classifyFlags.Limit, "limit", "l", 0, "Addresses per batch (0 uses the mode default)")
	f.IntVar(&classifyFlags.Concurrency, "concurrency", 10, "Maximum concurrent classifications")
	f.StringSliceVar(&classifyFlags.Allowlist, "allow", nil, "Additional trusted domains")
	f.StringVar(&classifyFlags.DisposableFile, "disposable-file", "", "File with extra disposable domains, one per line")
	f.StringVar(&classifyFlags.Resolver, "resolver", "direct", "MX resolver (direct, system)")
	f.StringSliceVar(&classifyFlags.Nameservers, "nameserver", nil, "Nameservers for the direct resolver")
	f.DurationVar(&classifyFlags.DNSTimeout, "dns-timeout", 0, "MX lookup timeout")
	f.IntVar(&classifyFlags.ProbePort, "probe-port", 0, "SMTP port to probe")
	f.DurationVar(&classifyFlags.ProbeTimeout, "probe-timeout", 0, "SMTP probe timeout")
	f.StringVarP(&classifyFlags.InputFile, "file", "f", "", "Input file with one address per line (stdin if not specified)")
	f.BoolVar(&classifyFlags.Pretty, "pretty", false, "Indent the JSON output")
}

func runClassify(ctx context.Context, flags *di.CLIFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		return err
	}

	return container.Invoke(func(logger *zap.Logger, cli *frontend.CLIFrontend) error {
		defer logger.Sync()
		return cli.Run(ctx)
	})
}
