package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jbweber/ironvirt/internal/config"
	"github.com/jbweber/ironvirt/internal/libvirt"
	"github.com/jbweber/ironvirt/internal/logger"
	"github.com/jbweber/ironvirt/internal/output"
	"github.com/jbweber/ironvirt/internal/vm"
)

var (
	version = "dev"
	commit  = "unknown"
)

// Global flags
var (
	configPath   string
	logLevel     string
	logFormat    string
	outputFormat string
	noHeaders    bool

	hostCfg *config.HostConfig
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ironvirt",
	Short: "ironvirt - declarative libvirt machine provisioning",
	Long: `ironvirt provisions virtual machines on the local libvirt host from
declarative Machine documents.

It imports content-addressed base images, layers a copy-on-write boot disk
on them, builds a cloud-init configuration drive, and starts a transient
libvirt domain.`,
	Version:           fmt.Sprintf("%s (commit: %s)", version, commit),
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "host configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (default from config)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text or json (default from config)")

	for _, c := range []*cobra.Command{listCmd, imageListCmd} {
		c.Flags().StringVarP(&outputFormat, "output", "o", "table", "output format: table, yaml, json")
		c.Flags().BoolVar(&noHeaders, "no-headers", false, "omit table headers")
	}

	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(destroyCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(testConnCmd)
	rootCmd.AddCommand(imageCmd)
}

// setup loads the host configuration and installs the logger in the
// command context.
func setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if cmd.Flags().Changed("log-format") {
		cfg.LogFormat = logFormat
	}

	log, err := logger.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	slog.SetDefault(log)

	hostCfg = cfg
	cmd.SetContext(logger.AddToContext(cmd.Context(), log))
	return nil
}

// openManager opens a vm.Manager for the loaded host configuration.
func openManager() (*vm.Manager, func(), error) {
	mgr, err := vm.Open(hostCfg)
	if err != nil {
		return nil, nil, err
	}
	return mgr, func() {
		if err := mgr.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close libvirt connection: %v\n", err)
		}
	}, nil
}

func newFormatter() (output.Formatter, error) {
	if err := output.ValidateFormat(outputFormat); err != nil {
		return nil, err
	}
	return output.NewFormatter(output.Options{
		Format:    output.Format(outputFormat),
		NoHeaders: noHeaders,
	})
}

var createCmd = &cobra.Command{
	Use:   "create <machines.yaml>",
	Short: "Create machines from a resource document",
	Long: `Create every Machine declared in a YAML resource document.

Machines are created in document order. Creation stops at the first
failure; machines created before it are left running.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, done, err := openManager()
		if err != nil {
			return err
		}
		defer done()

		created, err := mgr.ApplyFile(cmd.Context(), args[0])
		for _, name := range created {
			fmt.Printf("✓ Machine %s created\n", name)
		}
		if err != nil {
			return fmt.Errorf("failed to create machines: %w", err)
		}
		return nil
	},
}

var destroyCmd = &cobra.Command{
	Use:   "destroy <id>",
	Short: "Destroy a machine",
	Long: `Destroy a machine by name.

This will:
- Stop the libvirt domain if it is running
- Remove the instance directory with its disk and configuration drive

Destroying a machine that does not exist succeeds.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, done, err := openManager()
		if err != nil {
			return err
		}
		defer done()

		if err := mgr.Destroy(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("failed to destroy machine: %w", err)
		}

		fmt.Printf("✓ Machine %s destroyed\n", args[0])
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List machines",
	Long: `List instance directories on this host.

Status is held by libvirt only and is reported as unknown.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		formatter, err := newFormatter()
		if err != nil {
			return err
		}

		mgr, done, err := openManager()
		if err != nil {
			return err
		}
		defer done()

		instances, err := mgr.List(cmd.Context())
		if err != nil {
			return err
		}

		result, err := formatter.FormatInstances(instances)
		if err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}
		fmt.Print(result)
		return nil
	},
}

var testConnCmd = &cobra.Command{
	Use:   "test-conn",
	Short: "Test libvirt connection",
	Long:  `Test connectivity to the libvirt daemon and display version information.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("Testing libvirt connection...")

		client, err := libvirt.ConnectWithContext(cmd.Context(), hostCfg.LibvirtSocket, hostCfg.ConnectTimeout)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := client.Close(); closeErr != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close libvirt connection: %v\n", closeErr)
			}
		}()

		fmt.Println("✓ Connected to libvirt daemon")

		libVersion, err := client.Version()
		if err != nil {
			return fmt.Errorf("connection test failed: %w", err)
		}
		fmt.Printf("✓ Libvirt version: %s\n", libVersion)

		hostname, err := client.Libvirt().ConnectGetHostname()
		if err != nil {
			return fmt.Errorf("failed to get hostname: %w", err)
		}
		fmt.Printf("✓ Hypervisor hostname: %s\n", hostname)

		fmt.Println("\nConnection test successful!")
		return nil
	},
}
