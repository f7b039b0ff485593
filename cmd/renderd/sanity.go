package main

import (
	"encoding/json"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"renderd/internal/manager"
)

var errEngineMissing = errors.New("engine executable not found")

func newSanityCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sanity",
		Short: "Print the resolved launch strategy and executable check as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := opts.logger
			mgr := manager.NewWithConfig(managerConfig(opts.cfg, environment(opts.cfg, os.Getenv), &log))
			defer mgr.Close()
			rep := mgr.SanityCheck()
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(rep); err != nil {
				return err
			}
			if !rep.Found {
				return errEngineMissing
			}
			return nil
		},
	}
	addEngineFlags(cmd)
	return cmd
}
