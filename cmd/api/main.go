// Package main is the entry point of the document vault server and its
// maintenance commands.
package main

import (
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "docvault",
	Short:         "Document storage with versioning, sharing and an audit trail",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newMigrateCommand())
	rootCmd.AddCommand(newAuditCommand())
	rootCmd.AddCommand(newTypesCommand())
}

//	@title						Document Vault API
//	@version					1.0
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
