package cmd

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/sajjad-MoBe/TupleSpace/node/src/internal/client"

	"github.com/spf13/cobra"
)

var clientCmd = &cobra.Command{
	Use:   "client <host> <port> <request_file>",
	Short: "Send every request in a file to a tuple space server",
	Args:  cobra.ExactArgs(3),
	RunE:  runClient,
}

func runClient(cmd *cobra.Command, args []string) error {
	_, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	host, file := args[0], args[2]
	port, err := strconv.Atoi(args[1])
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid port %q", args[1])
	}

	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("open request file: %w", err)
	}
	defer f.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	c, err := client.Dial(ctx, net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return err
	}
	defer c.Close()
	c.SetLogger(logger)

	return c.RunBatch(ctx, f, cmd.OutOrStdout())
}
