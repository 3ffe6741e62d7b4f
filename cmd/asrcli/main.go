package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	asr "github.com/DeNoronha/ctn-asr-demo-sub015"
	"github.com/DeNoronha/ctn-asr-demo-sub015/cmd/asr/config"
	"github.com/DeNoronha/ctn-asr-demo-sub015/storage/model"
)

var rootCmd = &cobra.Command{
	Use:   "asrcli",
	Short: "asrcli can help you manage your authentication service registry",
	Long:  "asrcli can help you manage your authentication service registry",
}

var configFile string
var backends model.Backends

func loadConfig() error {
	config.Load(configFile)
	log.Println("Loaded Config")
	c := config.Get()

	var err error
	backends, err = config.LoadStorageBackends(c.Storage, c.API.Admin.Argon2idParams)
	if err != nil {
		log.Fatal(err)
	}
	return nil
}

var systemsCmd = &cobra.Command{
	Use:   "systems",
	Short: "Manage registered external systems",
}

var systemsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all registered external systems",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return err
		}
		systems, err := backends.Systems.List()
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(systems, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

var systemsApproveCmd = &cobra.Command{
	Use:   "approve <domain>",
	Short: "Approve a registered external system",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return err
		}
		if err := backends.Systems.SetApproval(args[0], true); err != nil {
			return err
		}
		fmt.Printf("approved system %s\n", args[0])
		return nil
	},
}

var revokeReason string

var tokensCmd = &cobra.Command{
	Use:   "tokens",
	Short: "Manage issued tokens",
}

var tokensRevokeCmd = &cobra.Command{
	Use:   "revoke <token-id>",
	Short: "Revoke an issued token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return err
		}
		if err := backends.Tokens.Revoke(args[0], revokeReason, time.Now().Unix()); err != nil {
			return err
		}
		fmt.Printf("revoked token %s\n", args[0])
		return nil
	},
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one pass of the reverification downgrade sweep",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return err
		}
		report := asr.NewDowngradeSweep(backends.Entities, nil).Run()
		fmt.Printf(
			"checked %d entities, downgraded %d, %d failed\n",
			report.Checked, report.Downgraded, report.Failed,
		)
		return nil
	},
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "config.yaml", "the config file to use")
	tokensRevokeCmd.Flags().StringVarP(&revokeReason, "reason", "r", "", "the revocation reason")
	systemsCmd.AddCommand(systemsListCmd, systemsApproveCmd)
	tokensCmd.AddCommand(tokensRevokeCmd)
	rootCmd.AddCommand(systemsCmd, tokensCmd, sweepCmd)
	if err := rootCmd.Execute(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}
