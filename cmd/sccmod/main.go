// Command sccmod is the CLI entry point for the module build orchestrator.
// Argument parsing and dispatch live here, strictly outside the core
// packages (spec.md §1).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/xerrors"

	"sccmod/internal/config"
	"sccmod/internal/module"
	"sccmod/internal/pipeline"
	"sccmod/internal/resolver"
	"sccmod/internal/script"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "sccmod",
		Short:         "HPC module build orchestrator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newInfoCmd(),
		newListCmd(),
		newOpCmd("download", pipeline.OpDownload),
		newOpCmd("build", pipeline.OpBuild),
		newOpCmd("install", pipeline.OpInstall),
		newOpCmd("modulefile", pipeline.OpModulefile),
	)

	return root
}

// loadCatalogue reads the configuration and the full module catalogue, the
// two things every subcommand needs (spec.md §4.5).
func loadCatalogue() (*config.Config, []*module.Record, error) {
	cfg, err := config.Read()
	if err != nil {
		return nil, nil, err
	}
	catalogue, err := script.Load(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, catalogue, nil
}

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Print configuration and catalogue summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, catalogue, err := loadCatalogue()
			if err != nil {
				return err
			}
			fmt.Printf("Module search paths: %v\n", cfg.ModulePaths)
			fmt.Printf("Build root:          %s\n", cfg.BuildRoot)
			fmt.Printf("Install root:        %s\n", cfg.InstallRoot)
			fmt.Printf("Modulefile root:     %s\n", cfg.ModulefileRoot)
			fmt.Printf("Shell:               %s\n", cfg.Shell)
			fmt.Printf("Modules in catalogue: %d\n", len(catalogue))
			return nil
		},
	}
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every module identifier in the catalogue",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, catalogue, err := loadCatalogue()
			if err != nil {
				return err
			}
			for _, m := range catalogue {
				fmt.Println(m.Identifier())
			}
			return nil
		},
	}
}

// newOpCmd builds one of the download/build/install/modulefile subcommands,
// which all share the same `<partials…> | all` argument shape (spec.md
// §6's CLI surface).
func newOpCmd(name string, op pipeline.Op) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <partials…>|all",
		Short: name + " one or more resolved modules",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, catalogue, err := loadCatalogue()
			if err != nil {
				return err
			}
			pl := pipeline.New(cfg, catalogue)

			if len(args) == 1 && args[0] == "all" {
				return pl.RunBatch(op, catalogue)
			}

			modules, err := resolveOrPrompt(catalogue, args)
			if err != nil {
				return err
			}
			return pl.RunBatch(op, modules)
		},
	}
}

// resolveOrPrompt applies the module resolver (spec.md §4.7) to partials,
// prompting on stdin to disambiguate a Partial match.
func resolveOrPrompt(catalogue []*module.Record, partials []string) ([]*module.Record, error) {
	match := resolver.Resolve(catalogue, partials)
	switch match.Kind {
	case resolver.None:
		return nil, xerrors.Errorf("no module matched the given partials")
	case resolver.Full, resolver.All:
		return match.Modules, nil
	default: // resolver.Partial
		selected := resolver.Disambiguate(match.Modules, os.Stdin, os.Stdout)
		if selected == nil {
			return nil, xerrors.Errorf("no module selected")
		}
		return selected, nil
	}
}
