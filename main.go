package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"sharespider/internal/config"
	"sharespider/internal/logger"
	"sharespider/internal/report"
	"sharespider/internal/smb"
	"sharespider/internal/spider"
	"sharespider/internal/sweep"
)

func main() {
	var (
		hostsFile     string
		usersFile     string
		passwordsFile string
		configFile    string
		logLevel      string
		outputFile    string
		format        string
		allowEmpty    bool
		maxDepth      int
	)
	cfg := config.Default()

	rootCmd := &cobra.Command{
		Use:   "sharespider",
		Short: "SMB credential sweep and share mirroring",
		Long: `sharespider tries every (host, username, password) combination from three
wordlists and, for each successful login, recursively mirrors every readable
share to local storage. Built for authorized security assessments.`,
		Example: `  # Sequential sweep, mirror into ./output
  sharespider -H hosts.txt -U users.txt -P passwords.txt

  # Try anonymous-style empty passwords too, 8 hosts in parallel
  sharespider -H hosts.txt -U users.txt -P passwords.txt --allow-empty-password --host-workers 8`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if configFile != "" {
				loaded, err := config.Load(configFile)
				if err != nil {
					return fmt.Errorf("config: %w", err)
				}
				// Flags set on the command line win over file values.
				merged := loaded
				if cmd.Flags().Changed("output-root") {
					merged.OutputRoot = cfg.OutputRoot
				}
				if cmd.Flags().Changed("port") {
					merged.Port = cfg.Port
				}
				if cmd.Flags().Changed("domain") {
					merged.Domain = cfg.Domain
				}
				if cmd.Flags().Changed("timeout") {
					merged.Timeout = cfg.Timeout
				}
				if cmd.Flags().Changed("host-workers") {
					merged.HostWorkers = cfg.HostWorkers
				}
				if cmd.Flags().Changed("skip-admin") {
					merged.SkipAdmin = cfg.SkipAdmin
				}
				cfg = merged
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger.Setup(logLevel)

			hosts, err := sweep.LoadLines(hostsFile)
			if err != nil {
				return fmt.Errorf("hosts file: %w", err)
			}
			users, err := sweep.LoadLines(usersFile)
			if err != nil {
				return fmt.Errorf("usernames file: %w", err)
			}
			passwords, err := sweep.LoadLines(passwordsFile)
			if err != nil {
				return fmt.Errorf("passwords file: %w", err)
			}
			if allowEmpty {
				passwords = append(passwords, "")
			}
			if len(hosts) == 0 || len(users) == 0 || len(passwords) == 0 {
				return fmt.Errorf("hosts, usernames and passwords must all be non-empty")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			banner := color.New(color.FgCyan, color.Bold)
			banner.Println("sharespider")
			fmt.Printf("[*] Hosts:        %d\n", len(hosts))
			fmt.Printf("[*] Usernames:    %d\n", len(users))
			fmt.Printf("[*] Passwords:    %d\n", len(passwords))
			fmt.Printf("[*] Triples:      %d\n", len(hosts)*len(users)*len(passwords))
			fmt.Printf("[*] Output root:  %s\n", cfg.OutputRoot)
			fmt.Printf("[*] Host workers: %d\n", cfg.HostWorkers)
			fmt.Printf("[*] Timeout:      %s\n", cfg.Timeout)
			fmt.Println()

			driver := &sweep.Driver{
				Dialer: &smb.NetDialer{
					Port:    cfg.Port,
					Domain:  cfg.Domain,
					Timeout: cfg.Timeout,
				},
				Spider: &spider.Spider{
					Mapper:    spider.Mapper{Root: cfg.OutputRoot},
					Walker:    spider.Walker{MaxDepth: maxDepth},
					SkipAdmin: cfg.SkipAdmin,
				},
				HostWorkers: cfg.HostWorkers,
			}

			start := time.Now()
			rep := driver.Run(ctx, hosts, users, passwords)
			elapsed := time.Since(start)

			report.PrintSummary(rep)
			fmt.Printf("[*] Sweep completed in %s\n", elapsed.Round(time.Millisecond))

			if outputFile != "" {
				var err error
				if format == "csv" {
					err = report.ExportCSV(rep, outputFile)
				} else {
					err = report.ExportJSON(rep, outputFile)
				}
				if err != nil {
					logger.Get().Errorf("export: %v", err)
				} else {
					fmt.Printf("[*] Results exported to: %s\n", outputFile)
				}
			}
			return nil
		},
	}

	rootCmd.Flags().StringVarP(&hostsFile, "hosts", "H", "", "File containing target hosts, one per line (required)")
	rootCmd.Flags().StringVarP(&usersFile, "usernames", "U", "", "File containing usernames, one per line (required)")
	rootCmd.Flags().StringVarP(&passwordsFile, "passwords", "P", "", "File containing passwords, one per line (required)")
	rootCmd.Flags().StringVarP(&configFile, "config", "c", "", "Optional YAML config file")
	rootCmd.Flags().StringVar(&cfg.OutputRoot, "output-root", cfg.OutputRoot, "Root directory for mirrored files")
	rootCmd.Flags().IntVar(&cfg.Port, "port", cfg.Port, "SMB port")
	rootCmd.Flags().StringVarP(&cfg.Domain, "domain", "d", cfg.Domain, "Domain for NTLM authentication")
	rootCmd.Flags().DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Connection and negotiation timeout")
	rootCmd.Flags().IntVar(&cfg.HostWorkers, "host-workers", cfg.HostWorkers, "Hosts swept in parallel (1 = strictly sequential)")
	rootCmd.Flags().BoolVar(&cfg.SkipAdmin, "skip-admin", cfg.SkipAdmin, "Skip administrative shares (ADMIN$, C$, ...)")
	rootCmd.Flags().IntVar(&maxDepth, "max-depth", spider.DefaultMaxDepth, "Maximum directory depth per share")
	rootCmd.Flags().BoolVar(&allowEmpty, "allow-empty-password", false, "Also try the empty password for every (host, user) pair")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug/info/warn/error)")
	rootCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Export results to this file")
	rootCmd.Flags().StringVar(&format, "format", "json", "Export format (json/csv)")

	rootCmd.MarkFlagRequired("hosts")
	rootCmd.MarkFlagRequired("usernames")
	rootCmd.MarkFlagRequired("passwords")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
