package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"renderd/internal/manager"
	"renderd/pkg/types"
)

func newRenderCmd(opts *options) *cobra.Command {
	var (
		out    string
		page   types.PageOptions
		margin string
		trace  bool
	)
	cmd := &cobra.Command{
		Use:     "render <input.html>",
		Short:   "Render one HTML file to PDF and exit",
		Example: "  renderd render invoice.html -o invoice.pdf --format Letter --margin 1cm",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			html, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if margin != "" {
				page.Margins = types.Margins{Top: margin, Right: margin, Bottom: margin, Left: margin}
			}
			if out == "" {
				out = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + ".pdf"
			}

			log := opts.logger
			mcfg := managerConfig(opts.cfg, environment(opts.cfg, os.Getenv), &log)
			events := manager.NewBoundedMemoryPublisher(64)
			mcfg.Publisher = events
			mgr := manager.NewWithConfig(mcfg)
			defer mgr.Close()

			res, err := mgr.Render(cmd.Context(), types.RenderRequest{HTML: string(html), Page: page})
			if trace {
				printEvents(cmd.ErrOrStderr(), events.Events())
			}
			if err != nil {
				return fmt.Errorf("render %s (%s): %w", args[0], manager.ClassOf(err), err)
			}
			if err := os.WriteFile(out, res.Bytes, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d bytes, %d pages, %s\n", out, res.SizeBytes, res.PageCount, res.Duration.Round(time.Millisecond))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&out, "output", "o", "", "Output PDF path (defaults to the input name with .pdf)")
	f.StringVar(&page.Format, "format", "", "Paper format: A4|Letter")
	f.StringVar(&page.Orientation, "orientation", "", "Orientation: portrait|landscape")
	f.StringVar(&margin, "margin", "", "CSS length applied to every margin, e.g. 10mm")
	f.BoolVar(&trace, "trace", false, "Print engine lifecycle events to stderr")
	addEngineFlags(cmd)
	return cmd
}

// printEvents writes one line per event: time offset, name, pid and fields.
func printEvents(w io.Writer, events []manager.Event) {
	if len(events) == 0 {
		return
	}
	t0 := events[0].At
	for _, e := range events {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var b strings.Builder
		fmt.Fprintf(&b, "+%-8s %-20s", e.At.Sub(t0).Round(time.Millisecond), e.Name)
		if e.PID > 0 {
			fmt.Fprintf(&b, " pid=%d", e.PID)
		}
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, e.Fields[k])
		}
		fmt.Fprintln(w, b.String())
	}
}
