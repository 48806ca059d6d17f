package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/confident-ai/deepeval-go/internal/config"
	"github.com/confident-ai/deepeval-go/internal/report"
	"github.com/confident-ai/deepeval-go/internal/server"
	"github.com/confident-ai/deepeval-go/internal/storage"
	"github.com/confident-ai/deepeval-go/pkg/schema"
	"github.com/confident-ai/deepeval-go/pkg/types"
)

type cliError struct {
	code int
	err  error
}

func (e cliError) Error() string { return e.err.Error() }

func main() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		var ce cliError
		if errors.As(err, &ce) {
			fmt.Fprintln(os.Stderr, ce.err)
			os.Exit(ce.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// backendFlags are the storage settings every command shares; empty
// values fall back to the config file and environment.
type backendFlags struct {
	configPath string
	mode       string
	dir        string
	apiKey     string
	apiURL     string
}

func (f *backendFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.configPath, "config", "", "path to deepeval.yaml")
	cmd.Flags().StringVar(&f.mode, "mode", "", "save mode: local or cloud")
	cmd.Flags().StringVar(&f.dir, "dir", "", "local results directory")
	cmd.Flags().StringVar(&f.apiKey, "api-key", "", "API key for cloud mode")
	cmd.Flags().StringVar(&f.apiURL, "api-url", "", "results service base URL")
}

func (f *backendFlags) resolve() (config.Config, error) {
	cfg, err := config.Resolve(f.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if f.mode != "" {
		cfg.SaveMode = f.mode
	}
	if f.dir != "" {
		cfg.ResultsDir = f.dir
	}
	if f.apiKey != "" {
		cfg.APIKey = f.apiKey
	}
	if f.apiURL != "" {
		cfg.APIURL = f.apiURL
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func (f *backendFlags) backend() (storage.Backend, error) {
	cfg, err := f.resolve()
	if err != nil {
		return nil, err
	}
	return storage.New(cfg.Storage())
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "deepeval",
		Short:         "Persist, retrieve, and report on evaluation results",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newSaveCommand())
	root.AddCommand(newLoadCommand())
	root.AddCommand(newExportCommand())
	root.AddCommand(newReportCommand())
	root.AddCommand(newServeCommand())
	return root
}

func newSaveCommand() *cobra.Command {
	var flags backendFlags
	var inPath string
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Persist a prepared evaluation record document",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if inPath == "" {
				return fmt.Errorf("--in is required")
			}
			raw, err := os.ReadFile(inPath)
			if err != nil {
				return err
			}
			violations, err := schema.ValidateRecord(raw)
			if err != nil {
				return err
			}
			if len(violations) > 0 {
				return cliError{code: 2, err: fmt.Errorf("record does not conform to schema:\n  %s", strings.Join(violations, "\n  "))}
			}
			var rec types.EvaluationRecord
			if err := json.Unmarshal(raw, &rec); err != nil {
				return err
			}

			backend, err := flags.backend()
			if err != nil {
				return err
			}
			imp, ok := backend.(storage.Importer)
			if !ok {
				return fmt.Errorf("backend does not support document import")
			}
			id, err := imp.Import(&rec)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&inPath, "in", "", "record document to persist")
	return cmd
}

func newLoadCommand() *cobra.Command {
	var flags backendFlags
	cmd := &cobra.Command{
		Use:   "load <result-id>",
		Short: "Print a stored evaluation record as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := flags.backend()
			if err != nil {
				return err
			}
			rec, err := backend.Load(args[0])
			if err != nil {
				var nf *storage.NotFoundError
				if errors.As(err, &nf) {
					return cliError{code: 3, err: err}
				}
				return err
			}
			raw, err := json.MarshalIndent(rec, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(raw))
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newExportCommand() *cobra.Command {
	var flags backendFlags
	var outDir string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Flatten a storage root into a dashboard CSV",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.resolve()
			if err != nil {
				return err
			}
			rows, err := report.Scan(cfg.ResultsDir)
			if err != nil {
				return err
			}
			if outDir == "" {
				outDir = cfg.ResultsDir
			}
			path, err := report.WriteCSV(rows, outDir)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&outDir, "out", "", "directory for the CSV (defaults to the results dir)")
	return cmd
}

func newReportCommand() *cobra.Command {
	var flags backendFlags
	var format, outPath string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize a storage root per metric",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.resolve()
			if err != nil {
				return err
			}
			rows, err := report.Scan(cfg.ResultsDir)
			if err != nil {
				return err
			}
			summary := report.Summarize(rows)

			switch format {
			case "md":
				if outPath != "" {
					return report.WriteMarkdown(outPath, summary)
				}
				fmt.Fprint(cmd.OutOrStdout(), report.BuildMarkdown(summary))
			case "json":
				if outPath != "" {
					return report.WriteJSON(outPath, summary)
				}
				raw, err := json.MarshalIndent(summary, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(raw))
			default:
				return fmt.Errorf("unknown format %q (want md or json)", format)
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&format, "format", "md", "output format: md or json")
	cmd.Flags().StringVar(&outPath, "out", "", "write the summary to a file instead of stdout")
	return cmd
}

func newServeCommand() *cobra.Command {
	var configPath, dir, apiKey, addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the results service over a local storage root",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.Resolve(configPath)
			if err != nil {
				return err
			}
			if dir != "" {
				cfg.ResultsDir = dir
			}
			if apiKey != "" {
				cfg.APIKey = apiKey
			}

			store, err := storage.NewLocal(cfg.ResultsDir)
			if err != nil {
				return err
			}
			srv, err := server.New(store, cfg.APIKey)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "serving results from %s on %s\n", cfg.ResultsDir, addr)
			return srv.Run(addr)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to deepeval.yaml")
	cmd.Flags().StringVar(&dir, "dir", "", "local results directory to serve")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "bearer credential clients must present")
	cmd.Flags().StringVar(&addr, "addr", ":8790", "listen address")
	return cmd
}
