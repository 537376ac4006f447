// Command fasttransport-server starts a FastTransport echo server
// listening on a UDP socket.
package main

import (
	"fmt"
	"os"

	"github.com/bnclabs/fasttransport"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "fasttransport-server",
	Short: "Run a FastTransport echo server",
	RunE:  run,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("listen", ":9998", "address to listen on")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (ignore, fatal, error, warn, info, verbose, debug, trace)")
	rootCmd.PersistentFlags().Uint64("packet-loss", 0, "percent of outbound packets to mark pleaseDrop, for testing")
	_ = viper.BindPFlags(rootCmd.PersistentFlags())
}

func initConfig() {
	viper.SetEnvPrefix("fasttransport")
	viper.AutomaticEnv()
}

func run(cmd *cobra.Command, args []string) error {
	driver, err := fasttransport.NewUDPDriver(viper.GetString("listen"))
	if err != nil {
		return err
	}
	defer driver.Close()

	settings := fasttransport.DefaultSettings().
		With("log.level", viper.GetString("log-level")).
		With("test.packetloss", viper.GetUint64("packet-loss"))

	transport := fasttransport.NewTransport(driver, settings, nil)
	defer transport.Close()

	fmt.Printf("fasttransport-server listening on %s\n", driver.LocalAddr())
	for {
		rpc, err := transport.ServerRecv()
		if err != nil {
			return err
		}
		rpc.ReplyPayload().Append(rpc.RequestPayload().Bytes(), nil)
		rpc.SendReply()
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
