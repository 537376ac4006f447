// Command fasttransport-client issues a batch of ping-pong RPCs
// against a fasttransport-server and reports latency.
package main

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/bnclabs/fasttransport"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "fasttransport-client",
	Short: "Drive ping-pong RPCs against a fasttransport-server",
	RunE:  run,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("addr", "127.0.0.1:9998", "server address")
	rootCmd.PersistentFlags().Int("count", 1000, "number of requests to send")
	rootCmd.PersistentFlags().Int("payload", 10, "request/response payload size in bytes")
	rootCmd.PersistentFlags().String("log-level", "info", "log level")
	_ = viper.BindPFlags(rootCmd.PersistentFlags())
}

func initConfig() {
	viper.SetEnvPrefix("fasttransport")
	viper.AutomaticEnv()
}

func run(cmd *cobra.Command, args []string) error {
	serverAddr, err := net.ResolveUDPAddr("udp", viper.GetString("addr"))
	if err != nil {
		return fasttransport.ErrBadAddress
	}

	driver, err := fasttransport.NewUDPDriver(":0")
	if err != nil {
		return err
	}
	defer driver.Close()

	settings := fasttransport.DefaultSettings().With("log.level", viper.GetString("log-level"))
	transport := fasttransport.NewTransport(driver, settings, nil)
	defer transport.Close()

	count := viper.GetInt("count")
	payloadSize := viper.GetInt("payload")
	body := make([]byte, payloadSize)

	var total time.Duration
	var failed int
	for i := 0; i < count; i++ {
		request := fasttransport.NewBuffer()
		request.Append(body, nil)
		response := fasttransport.NewBuffer()

		start := time.Now()
		rpc, err := transport.ClientSend(serverAddr, request, response)
		if err != nil {
			return err
		}
		if err := rpc.GetReply(); err != nil {
			failed++
			continue
		}
		total += time.Since(start)
	}

	completed := count - failed
	fmt.Printf("sent %d requests, %d completed, %d aborted\n", count, completed, failed)
	if completed > 0 {
		fmt.Printf("average latency: %s\n", total/time.Duration(completed))
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
