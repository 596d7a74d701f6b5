package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/acfs-dev/hostprep/internal/config"
	"github.com/acfs-dev/hostprep/internal/hostfs"
	"github.com/acfs-dev/hostprep/internal/logger"
	"github.com/acfs-dev/hostprep/internal/normalize"
	"github.com/acfs-dev/hostprep/internal/runner"
	"github.com/acfs-dev/hostprep/internal/sysuser"
	"github.com/acfs-dev/hostprep/internal/verify"
)

var (
	// Global flags; they override ACFS_* environment and the config file.
	flagUser     string
	flagElevate  string
	flagMode     string
	flagHostRoot string
	flagConfig   string
	flagLogDir   string

	flagLive bool
)

var rootCmd = &cobra.Command{
	Use:   "hostprep",
	Short: "Normalize a Linux host's operator account",
	Long: `hostprep brings a freshly provisioned Linux host's primary operator
account into a known-good state: account existence, administrative group
membership, passwordless sudo policy, SSH key migration, and login shell.

Every step is idempotent and safe to re-run; "hostprep normalize" runs the
whole sequence, the other subcommands run steps individually.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var normalizeCmd = &cobra.Command{
	Use:   "normalize",
	Short: "Run the full normalization sequence",
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := buildNormalizer(cmd)
		if err != nil {
			return err
		}
		return n.Normalize(cmd.Context())
	},
}

var ensureUserCmd = &cobra.Command{
	Use:   "ensure-user",
	Short: "Create the operator account and reconcile group membership",
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := buildNormalizer(cmd)
		if err != nil {
			return err
		}
		return n.EnsureUser(cmd.Context())
	},
}

var sudoPolicyCmd = &cobra.Command{
	Use:   "sudo-policy",
	Short: "Install the passwordless sudo drop-in (frictionless mode only)",
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := buildNormalizer(cmd)
		if err != nil {
			return err
		}
		return n.WriteSudoPolicy(cmd.Context())
	},
}

var sshKeysCmd = &cobra.Command{
	Use:   "ssh-keys",
	Short: "Migrate the invoking account's authorized_keys to the operator",
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := buildNormalizer(cmd)
		if err != nil {
			return err
		}
		return n.MigrateSSHKeys(cmd.Context())
	},
}

var shellCmd = &cobra.Command{
	Use:   "shell [path]",
	Short: "Set the operator's login shell (defaults to zsh from PATH)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := buildNormalizer(cmd)
		if err != nil {
			return err
		}
		shell := ""
		if len(args) == 1 {
			shell = args[0]
		}
		return n.SetLoginShell(cmd.Context(), shell)
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check that the normalized account works",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		fs := hostfs.New(cfg.HostRoot)
		db, err := sysuser.NewDB(fs)
		if err != nil {
			return err
		}
		checks := verify.Static(cfg, db, runner.New(cfg.Elevate, fs))
		for _, c := range checks {
			if c.OK {
				logger.Success("%s: %s", c.Name, c.Detail)
			} else {
				logger.Error("%s: %s", c.Name, c.Detail)
			}
		}
		if flagLive {
			if err := verify.ProbeSudo(cmd.Context(), cfg.TargetUser); err != nil {
				logger.Error("live sudo probe: %v", err)
				return err
			}
			logger.Success("live sudo probe: %s runs sudo without a password", cfg.TargetUser)
		}
		if verify.Failed(checks) {
			return errors.New("verification failed")
		}
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flagUser, "user", "u", "", "target operator account (default \"ubuntu\")")
	pf.StringVar(&flagElevate, "elevate", "", "elevation command prefix; empty string runs unelevated (default \"sudo\")")
	pf.StringVar(&flagMode, "mode", "", "\"vibe\" installs passwordless sudo, anything else skips it")
	pf.StringVar(&flagHostRoot, "host-root", "", "host filesystem root (default \"/\")")
	pf.StringVarP(&flagConfig, "config", "c", "", "YAML config file")
	pf.StringVar(&flagLogDir, "log-dir", "", "mirror log output into daily files under this directory")

	verifyCmd.Flags().BoolVar(&flagLive, "live", false, "also probe sudo by switching into the account")

	rootCmd.AddCommand(normalizeCmd, ensureUserCmd, sudoPolicyCmd, sshKeysCmd, shellCmd, verifyCmd)
}

// loadConfig resolves the effective configuration: defaults, config file,
// ACFS_* environment, then explicit flags on top.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path := flagConfig
	explicit := path != ""
	if !explicit {
		if v := os.Getenv("ACFS_CONFIG"); v != "" {
			path, explicit = v, true
		}
	}
	cfg, err := config.Load(path, explicit)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("user") {
		cfg.TargetUser = flagUser
	}
	if flags.Changed("elevate") {
		cfg.Elevate = flagElevate
	}
	if flags.Changed("mode") {
		cfg.Mode = flagMode
	}
	if flags.Changed("host-root") {
		cfg.HostRoot = flagHostRoot
	}
	if flags.Changed("log-dir") {
		cfg.LogDir = flagLogDir
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}

	if err := logger.Init(cfg.LogDir); err != nil {
		return config.Config{}, fmt.Errorf("init log dir: %w", err)
	}
	return cfg, nil
}

func buildNormalizer(cmd *cobra.Command) (*normalize.Normalizer, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return normalize.New(cfg)
}

func main() {
	defer logger.Close()
	if err := rootCmd.Execute(); err != nil {
		logger.Fatal("%v", err)
	}
}
