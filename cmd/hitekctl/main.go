package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	apiFlag    string
	callerFlag string
	tokenFlag  string
	rootCmd    = &cobra.Command{
		Use:   "hitekctl",
		Short: "CLI client for the HiTek lookup service",
	}
)

func main() {
	rootCmd.PersistentFlags().StringVarP(&apiFlag, "api", "a", "http://localhost:8000", "Lookup service base URL")
	rootCmd.PersistentFlags().StringVarP(&callerFlag, "caller", "c", "", "Caller id to act as (requires --token)")
	rootCmd.PersistentFlags().StringVar(&tokenFlag, "token", os.Getenv("HITEK_RELAY_TOKEN"), "Relay token")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "lookup <number>",
		Short: "Look up a mobile number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return newClient(apiFlag, callerFlag, tokenFlag).lookup(args[0], cmd.OutOrStdout())
		},
	})

	searchCmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search by name, email, address or father name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, _ := cmd.Flags().GetString("kind")
			return newClient(apiFlag, callerFlag, tokenFlag).search(strings.Join(args, " "), kind, cmd.OutOrStdout())
		},
	}
	searchCmd.Flags().StringP("kind", "k", "auto", "auto|identifier|name|email|address|father_name")
	rootCmd.AddCommand(searchCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show service statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return newClient(apiFlag, callerFlag, tokenFlag).stats(cmd.OutOrStdout())
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "command <text>",
		Short: "Send a chat command as --caller through the relay endpoint",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if callerFlag == "" || tokenFlag == "" {
				return fmt.Errorf("--caller and --token required")
			}
			return newClient(apiFlag, "", tokenFlag).command(callerFlag, strings.Join(args, " "), cmd.OutOrStdout())
		},
	})

	auditCmd := &cobra.Command{Use: "audit", Short: "Manage the search audit log (admin)"}
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Download the audit log as JSON lines",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, _ := cmd.Flags().GetString("out")
			w := cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer func() { _ = f.Close() }()
				w = f
			}
			return newClient(apiFlag, callerFlag, tokenFlag).exportAudit(w)
		},
	}
	exportCmd.Flags().StringP("out", "o", "", "Write to file instead of stdout")
	auditCmd.AddCommand(exportCmd)
	auditCmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Truncate the audit log",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return newClient(apiFlag, callerFlag, tokenFlag).clearAudit()
		},
	})
	rootCmd.AddCommand(auditCmd)

	devdbCmd := &cobra.Command{
		Use:   "devdb",
		Short: "Create a local SQLite dataset for development",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("path")
			from, _ := cmd.Flags().GetString("from")
			n, _ := cmd.Flags().GetInt("records")
			seed, _ := cmd.Flags().GetUint64("seed")
			return seedDataset(context.Background(), path, from, n, seed, cmd.OutOrStdout())
		},
	}
	devdbCmd.Flags().String("path", "data/users.db", "Dataset file to create or extend")
	devdbCmd.Flags().String("from", "", "JSON-lines file of records to load")
	devdbCmd.Flags().Int("records", 1000, "Synthetic records to generate when --from is empty")
	devdbCmd.Flags().Uint64("seed", 1, "Seed for synthetic records")
	rootCmd.AddCommand(devdbCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
