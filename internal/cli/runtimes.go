package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ferrymanlabs/ferryman/internal/config"
	"github.com/ferrymanlabs/ferryman/internal/logger"
)

func newRuntimesCmd() *cobra.Command {
	var probe bool

	cmd := &cobra.Command{
		Use:   "runtimes",
		Short: "List configured runtimes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configDir)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			if !probe {
				fmt.Fprintln(w, "ID\tNAME\tTYPE")
				for _, rc := range cfg.Runtimes {
					name := rc.Name
					if name == "" {
						name = rc.ID
					}
					fmt.Fprintf(w, "%s\t%s\t%s\n", rc.ID, name, rc.Type)
				}
				return nil
			}

			if err := logger.Init(cfg.Paths.LogDir, cfg.Server.JSONLogs); err != nil {
				return err
			}
			defer func() { _ = logger.Close() }()

			registry, err := buildRegistry(cfg)
			if err != nil {
				return err
			}
			defer registry.StopAll()

			fmt.Fprintln(w, "ID\tNAME\tSTATUS\tPROVIDERS\tTOOLS")
			for _, a := range registry.List() {
				if err := a.Start(cmd.Context()); err != nil {
					fmt.Fprintf(w, "%s\t%s\tdown: %v\t\t\n", a.ID(), a.Name(), err)
					continue
				}
				var providers, tools []string
				for _, p := range a.Providers() {
					providers = append(providers, p.ID)
				}
				for _, t := range a.Tools() {
					tools = append(tools, t.ID)
				}
				fmt.Fprintf(w, "%s\t%s\tup\t%s\t%s\n",
					a.ID(), a.Name(), strings.Join(providers, ","), strings.Join(tools, ","))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&probe, "probe", false, "Start each runtime and list its providers and tools")
	return cmd
}
