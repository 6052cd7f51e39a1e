package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/itiky/collaborate-mirror/storage"
)

const (
	FlagFilePath    = "file-path"
	FlagListKey     = "list-key"
	FlagStorageSize = "storage-size"
)

// GetGenerateCmd returns generate seed data command.
func GetGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a seed file with a prioritized list of random items",
		Run: func(cmd *cobra.Command, args []string) {
			// Parse inputs
			filePath := mustGetString(cmd, FlagFilePath)
			listKey := mustGetString(cmd, FlagListKey)
			storageSize := mustGetInt(cmd, FlagStorageSize)

			// Work
			if err := storage.GenAndSaveInitialStorage(filePath, listKey, storageSize); err != nil {
				logrus.Fatalf("gen failed: %v", err)
			}
		},
	}
	cmd.Flags().String(FlagFilePath, "./seed.dat", "(optional) output file path")
	cmd.Flags().String(FlagListKey, "items", "(optional) list location key")
	cmd.Flags().Int(FlagStorageSize, 1000, "(optional) number of list items")

	return cmd
}

func init() {
	rootCmd.AddCommand(GetGenerateCmd())
}
