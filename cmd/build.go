package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/order-reports/internal/config"
	"github.com/ginjaninja78/order-reports/internal/orders"
	"github.com/ginjaninja78/order-reports/internal/pipeline"
	"github.com/ginjaninja78/order-reports/internal/render"
	"github.com/ginjaninja78/order-reports/internal/reports"
	"github.com/ginjaninja78/order-reports/internal/source"
	"github.com/ginjaninja78/order-reports/internal/store"
	"github.com/ginjaninja78/order-reports/pkg/utils"
)

var buildOpts struct {
	input        string
	profile      string
	useDB        bool
	output       string
	format       string
	distributors []string
	suppliers    []string
	states       []string
	from         string
	to           string
}

var buildCmd = &cobra.Command{
	Use:   "build <report>",
	Short: "Build one report from an export or the order store",
	Long: `Build one report and write it to stdout or --output.

Entries come from --input (a CSV or XLSX export) or, with --db, from the
order store. Filter flags narrow the entries before grouping.

Examples:
  reports build supplier_totals --input week12.csv
  reports build customer_totals --db --distributor "Hub North" --from 2024-03-01
  reports build payment_totals --db --format xlsx --output payments.xlsx`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBuild(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)

	f := buildCmd.Flags()
	f.StringVar(&buildOpts.input, "input", "", "CSV or XLSX export to read")
	f.StringVar(&buildOpts.profile, "profile", "", "Source profile code for --input (default: match by file name)")
	f.BoolVar(&buildOpts.useDB, "db", false, "Read entries from the order store")
	f.StringVarP(&buildOpts.output, "output", "o", "", "Output file (default: stdout)")
	f.StringVarP(&buildOpts.format, "format", "f", "text", "Output format: csv, html, xlsx, xml, text")
	f.StringSliceVar(&buildOpts.distributors, "distributor", nil, "Only these hubs")
	f.StringSliceVar(&buildOpts.suppliers, "supplier", nil, "Only these producers")
	f.StringSliceVar(&buildOpts.states, "state", nil, "Only orders in these states")
	f.StringVar(&buildOpts.from, "from", "", "Completed on or after (YYYY-MM-DD)")
	f.StringVar(&buildOpts.to, "to", "", "Completed on or before (YYYY-MM-DD)")
	buildCmd.MarkFlagsMutuallyExclusive("input", "db")
	buildCmd.MarkFlagsOneRequired("input", "db")
}

func runBuild(cmd *cobra.Command, name string) error {
	registry := reports.Default()
	if _, err := registry.Lookup(name); err != nil {
		return fmt.Errorf("%w (available: %v)", err, registry.Names())
	}

	format, err := render.ParseFormat(buildOpts.format)
	if err != nil {
		return err
	}

	filter, err := buildFilter()
	if err != nil {
		return err
	}

	var entries []orders.Entry
	if buildOpts.useDB {
		st, err := store.New(mainConfig.DatabasePath)
		if err != nil {
			return err
		}
		defer st.Close()
		if entries, err = st.QueryEntries(cmd.Context(), filter); err != nil {
			return err
		}
	} else {
		profile, err := profileForFile(buildOpts.input, buildOpts.profile)
		if err != nil {
			return err
		}
		if entries, err = source.Load(buildOpts.input, profile, filter); err != nil {
			return err
		}
	}
	logger.Debug("Loaded entries", "count", len(entries))

	settings := mainConfig.ReportSettings()
	settings.RawAmounts = render.MachineReadable(format)

	report, err := pipeline.Build(registry, name, settings, entries)
	if err != nil {
		return err
	}

	if buildOpts.output == "" {
		err = render.Render(cmd.OutOrStdout(), format, report)
	} else {
		err = utils.WriteAtomic(buildOpts.output, func(w io.Writer) error {
			return render.Render(w, format, report)
		})
	}
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	logger.Info("Built report", "report", name, "rows", report.Table.Len(), "format", format)
	return nil
}

func buildFilter() (orders.Filter, error) {
	f := orders.Filter{
		Distributors: buildOpts.distributors,
		Suppliers:    buildOpts.suppliers,
		States:       buildOpts.states,
	}
	var err error
	if buildOpts.from != "" {
		if f.From, err = time.Parse("2006-01-02", buildOpts.from); err != nil {
			return f, fmt.Errorf("invalid --from: %w", err)
		}
	}
	if buildOpts.to != "" {
		if f.To, err = time.Parse("2006-01-02", buildOpts.to); err != nil {
			return f, fmt.Errorf("invalid --to: %w", err)
		}
		f.To = f.To.Add(24*time.Hour - time.Nanosecond)
	}
	return f, f.Validate()
}

// profileForFile resolves a profile by code, else by file name, else the
// default canonical-header profile.
func profileForFile(path, code string) (*config.SourceProfile, error) {
	profiles, err := config.LoadProfiles(mainConfig.ProfilesDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load source profiles: %w", err)
	}
	if code != "" {
		profile, ok := profiles[code]
		if !ok {
			return nil, fmt.Errorf("unknown profile %q", code)
		}
		return profile, nil
	}
	if profile := config.MatchProfile(path, profiles); profile != nil {
		return profile, nil
	}
	return config.DefaultProfile(), nil
}
