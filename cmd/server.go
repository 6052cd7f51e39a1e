package main

import (
	"net"
	"net/rpc"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/itiky/collaborate-mirror/service/server"
)

const (
	FlagPort        = "port"
	FlagBatchChSize = "batch-ch-size"
	FlagBatchPeriod = "batch-period"
	FlagSeedFile    = "seed-file"
	FlagStoreName   = "store-name"
)

// GetServerCmd returns RPC-server start command.
func GetServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the store RPC server",
		Run: func(cmd *cobra.Command, args []string) {
			// Parse inputs
			serverCfg := cfg.Server
			if cmd.Flags().Changed(FlagPort) {
				serverCfg.Port = mustGetInt(cmd, FlagPort)
			}
			if cmd.Flags().Changed(FlagBatchChSize) {
				serverCfg.BatchChSize = mustGetInt(cmd, FlagBatchChSize)
			}
			if cmd.Flags().Changed(FlagBatchPeriod) {
				serverCfg.BatchPeriod = mustGetDuration(cmd, FlagBatchPeriod)
			}
			if cmd.Flags().Changed(FlagSeedFile) {
				serverCfg.SeedFile = mustGetString(cmd, FlagSeedFile)
			}
			if cmd.Flags().Changed(FlagStoreName) {
				serverCfg.StoreName = mustGetString(cmd, FlagStoreName)
			}

			// Init service
			svc, err := server.NewStoreService(serverCfg.BatchChSize, serverCfg.BatchPeriod, serverCfg.StoreName, serverCfg.SeedFile)
			if err != nil {
				logrus.Fatalf("service init: %v", err)
			}

			// Start server
			if err := rpc.Register(svc); err != nil {
				logrus.Fatalf("RPC server: register: %v", err)
			}
			svc.Start()

			listener, err := net.Listen("tcp", ":"+strconv.Itoa(serverCfg.Port))
			if err != nil {
				logrus.Fatalf("RPC server: listen: %v", err)
			}
			defer listener.Close()

			go rpc.Accept(listener)

			logrus.Infof("RPC server started: :%d", serverCfg.Port)

			// Wait for signal
			signalCh := make(chan os.Signal, 1)
			signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)
			<-signalCh

			svc.Stop()
		},
	}
	cmd.Flags().Int(FlagPort, cfg.Server.Port, "(optional) server port")
	cmd.Flags().Int(FlagBatchChSize, cfg.Server.BatchChSize, "(optional) input operation channel limit")
	cmd.Flags().Duration(FlagBatchPeriod, cfg.Server.BatchPeriod, "(optional) input operations handling period")
	cmd.Flags().String(FlagSeedFile, "", "(optional) path to a generated seed file")
	cmd.Flags().String(FlagStoreName, cfg.Server.StoreName, "(optional) store name")

	return cmd
}

func init() {
	rootCmd.AddCommand(GetServerCmd())
}
