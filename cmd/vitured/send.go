package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"vitured/pkg/orientation"
	"vitured/pkg/transport"
)

type sendOptions struct {
	addr        string
	center      bool
	scaleRoll   float32
	scalePitch  float32
	scaleYaw    float32
	invertRoll  bool
	invertPitch bool
	invertYaw   bool
}

func (a *app) sendCmd() *cobra.Command {
	opts := &sendOptions{}
	cmd := &cobra.Command{
		Use:   "send",
		Short: "send orientation commands to a running serve",
		Example: `  vitured send --center
  vitured send --sy 1.5 --iy=true`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runSend(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.addr, "addr", "", "control socket address (default from config)")
	f.BoolVar(&opts.center, "center", false, "recenter to the current position")
	f.Float32Var(&opts.scaleRoll, "sr", 1, "scale roll output")
	f.Float32Var(&opts.scalePitch, "sp", 1, "scale pitch output")
	f.Float32Var(&opts.scaleYaw, "sy", 1, "scale yaw output")
	f.BoolVar(&opts.invertRoll, "ir", false, "invert roll output")
	f.BoolVar(&opts.invertPitch, "ip", false, "invert pitch output")
	f.BoolVar(&opts.invertYaw, "iy", false, "invert yaw output")
	return cmd
}

// commands lists the explicitly set flags as control commands.
func (o *sendOptions) commands(cmd *cobra.Command) []orientation.Command {
	changed := cmd.Flags().Changed
	var cmds []orientation.Command
	if o.center {
		cmds = append(cmds, orientation.Recenter())
	}
	if changed("sp") {
		cmds = append(cmds, orientation.Scale(orientation.OpScalePitch, o.scalePitch))
	}
	if changed("sr") {
		cmds = append(cmds, orientation.Scale(orientation.OpScaleRoll, o.scaleRoll))
	}
	if changed("sy") {
		cmds = append(cmds, orientation.Scale(orientation.OpScaleYaw, o.scaleYaw))
	}
	if changed("ip") {
		cmds = append(cmds, orientation.Invert(orientation.OpInvertPitch, o.invertPitch))
	}
	if changed("ir") {
		cmds = append(cmds, orientation.Invert(orientation.OpInvertRoll, o.invertRoll))
	}
	if changed("iy") {
		cmds = append(cmds, orientation.Invert(orientation.OpInvertYaw, o.invertYaw))
	}
	return cmds
}

func (a *app) runSend(cmd *cobra.Command, opts *sendOptions) error {
	cmds := opts.commands(cmd)
	if len(cmds) == 0 {
		return errors.New("nothing to send")
	}

	frames := make([][]byte, 0, len(cmds))
	for _, c := range cmds {
		frame, err := json.Marshal(c)
		if err != nil {
			return err
		}
		frames = append(frames, frame)
	}

	addr := opts.addr
	if addr == "" {
		addr = a.cfg.Control.Addr
	}
	if err := transport.SendFrames(cmd.Context(), addr, frames, transport.WithDialTimeout(2*time.Second)); err != nil {
		return err
	}
	for _, c := range cmds {
		fmt.Fprintf(cmd.OutOrStdout(), "sent %s\n", c)
	}
	return nil
}
