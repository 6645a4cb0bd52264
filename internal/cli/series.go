package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sandrolain/goexpr/pkg/timeseries"
	"github.com/sandrolain/goexpr/pkg/timeseries/sqlstore"
)

// SampleFile is the YAML layout accepted by series import:
//
//	series:
//	  temperature:
//	    - {time: 2024-05-01T12:00:00Z, value: 20.5}
type SampleFile struct {
	Series map[string][]SampleEntry `yaml:"series"`
}

// SampleEntry is one sample of a SampleFile.
type SampleEntry struct {
	Time  time.Time `yaml:"time"`
	Value float64   `yaml:"value"`
}

// NewSeriesCommand creates the series command group.
func NewSeriesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "series",
		Short: "Manage the SQLite series database",
	}
	cmd.AddCommand(newSeriesImportCommand(rootOpts))
	cmd.AddCommand(newSeriesListCommand(rootOpts))
	cmd.AddCommand(newSeriesRunsCommand(rootOpts))
	return cmd
}

func withStore(cmd *cobra.Command, rootOpts *RootOptions, path string, fn func(context.Context, *sqlstore.Store) error) error {
	if err := rootOpts.setup(cmd.ErrOrStderr()); err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := sqlstore.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "open series database", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			rootOpts.Logger.Error("close series database", "error", err)
		}
	}()
	return fn(ctx, st)
}

// ImportOutput summarizes an import.
type ImportOutput struct {
	Series  int `json:"series"`
	Samples int `json:"samples"`
}

func newSeriesImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <database> <samples.yaml>",
		Short: "Import samples from a YAML file",
		Long: `Import samples into the series database. A sample at an existing
timestamp replaces the stored value.

Example:
  goexpr series import samples.db readings.yaml`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := readSampleFile(args[1])
			if err != nil {
				return err
			}
			return withStore(cmd, rootOpts, args[0], func(ctx context.Context, st *sqlstore.Store) error {
				var out ImportOutput
				for name, entries := range file.Series {
					samples := make([]timeseries.Sample, len(entries))
					for i, e := range entries {
						samples[i] = timeseries.Sample{Time: e.Time, Value: e.Value}
					}
					if err := st.Append(ctx, name, samples...); err != nil {
						return WrapExitError(ExitCommandError, "import "+name, err)
					}
					rootOpts.Logger.Debug("imported series", "series", name, "samples", len(samples))
					out.Series++
					out.Samples += len(samples)
				}
				text := fmt.Sprintf("imported %s into %d series", describeCount(out.Samples, "sample"), out.Series)
				return rootOpts.formatter(cmd).Success(out, text)
			})
		},
	}
}

func readSampleFile(path string) (*SampleFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "read samples", err)
	}
	var file SampleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, WrapExitError(ExitCommandError, "parse samples "+path, err)
	}
	for name, entries := range file.Series {
		for i, e := range entries {
			if e.Time.IsZero() {
				return nil, NewExitError(ExitCommandError,
					fmt.Sprintf("parse samples %s: series %q sample %d has no time", path, name, i))
			}
		}
	}
	return &file, nil
}

// SeriesInfo describes one stored series.
type SeriesInfo struct {
	Name    string    `json:"name"`
	Samples int       `json:"samples"`
	First   time.Time `json:"first"`
	Last    time.Time `json:"last"`
}

func newSeriesListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list <database>",
		Short:         "List the stored series",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, rootOpts, args[0], func(ctx context.Context, st *sqlstore.Store) error {
				set, err := st.LoadAll(ctx)
				if err != nil {
					return WrapExitError(ExitCommandError, "load series", err)
				}
				infos := []SeriesInfo{}
				var b strings.Builder
				for _, name := range set.Names() {
					ser, _ := set.Get(name)
					samples := ser.Samples()
					info := SeriesInfo{
						Name:    name,
						Samples: len(samples),
						First:   samples[0].Time,
						Last:    samples[len(samples)-1].Time,
					}
					infos = append(infos, info)
					fmt.Fprintf(&b, "%s\t%d\t%s\t%s\n", info.Name, info.Samples,
						info.First.Format(time.RFC3339), info.Last.Format(time.RFC3339))
				}
				if len(infos) == 0 {
					b.WriteString("no series stored")
				}
				return rootOpts.formatter(cmd).Success(infos, strings.TrimSuffix(b.String(), "\n"))
			})
		},
	}
}

func newSeriesRunsCommand(rootOpts *RootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs <database>",
		Short: "List recorded evaluations, newest first",
		Long: `List the evaluations stored with goexpr eval --record.

Example:
  goexpr series runs samples.db --limit 5`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, rootOpts, args[0], func(ctx context.Context, st *sqlstore.Store) error {
				runs, err := st.Runs(ctx, limit)
				if err != nil {
					return WrapExitError(ExitCommandError, "list runs", err)
				}
				lines := make([]string, 0, len(runs))
				for _, r := range runs {
					status := "ok"
					if !r.Success {
						status = r.Error
					}
					lines = append(lines, fmt.Sprintf("%s  %s  %s = %s  %s",
						r.At.Format(time.RFC3339), r.ID, r.Expression, r.Value, status))
				}
				if len(lines) == 0 {
					lines = append(lines, "no runs recorded")
				}
				return rootOpts.formatter(cmd).Success(runs, strings.Join(lines, "\n"))
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs (0 for all)")
	return cmd
}
