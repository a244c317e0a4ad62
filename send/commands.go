package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"serialgreet/message"
	"serialgreet/serialcomm"
)

func newPortsCmd(stdout io.Writer, d deps) *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List the serial ports visible to this machine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list := d.listPorts
			if list == nil {
				list = serialcomm.Ports
			}
			ports, err := list()
			if err != nil {
				return err
			}
			if len(ports) == 0 {
				fmt.Fprintln(stdout, "no serial ports found")
				return nil
			}
			for _, p := range ports {
				fmt.Fprintln(stdout, p)
			}
			return nil
		},
	}
}

func newFrameCmd(stdout io.Writer, f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "frame",
		Short: "Print the frame send would write, without opening a port",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolve(cmd, *f, nil)
			if err != nil {
				return err
			}
			pattern, err := message.New(cfg.Pattern, nil)
			if err != nil {
				return &configError{err}
			}
			frame := pattern.Frame()
			fmt.Fprintf(stdout, "pattern: %s\n", pattern.Name())
			fmt.Fprintf(stdout, "length:  %d\n", len(frame))
			fmt.Fprintf(stdout, "hex:     % x\n", frame)
			fmt.Fprintf(stdout, "text:    %s\n", serialcomm.Escape(frame))
			fmt.Fprintf(stdout, "crc16:   %04x\n", serialcomm.Checksum(frame))
			return nil
		},
	}
}
