package cmd

import (
	"bytes"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ripple-mq/echor/pkg/transport/tcp"
	"github.com/ripple-mq/echor/pkg/utils/pen"
)

func newProbeCmd() *cobra.Command {
	var timeout time.Duration

	probeCmd := &cobra.Command{
		Use:   "probe <host:port> <message>",
		Short: "Send a message to an echo server and verify the reply",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := tcp.Dial(args[0], timeout)
			if err != nil {
				return err
			}
			defer c.Close()

			sent := []byte(args[1])
			start := time.Now()
			got, err := c.Echo(sent)
			if err != nil {
				return err
			}
			if !bytes.Equal(sent, got) {
				return fmt.Errorf("echo mismatch: sent %s, got %s", pen.Payload(sent, 64), pen.Payload(got, 64))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%d bytes in %s)\n", got, len(got), time.Since(start).Round(time.Microsecond))
			return nil
		},
	}
	probeCmd.Flags().DurationVarP(&timeout, "timeout", "t", 5*time.Second, "dial and round-trip timeout")
	return probeCmd
}
