package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"cloudcost/core/currency"
	"cloudcost/core/mapping"
	"cloudcost/core/normalize"
	"cloudcost/core/types"
	"cloudcost/internal/errors"
)

var (
	normalizeProvider string
	normalizeFile     string
	normalizeStart    string
	normalizeEnd      string
	normalizeGroupBy  []string
	normalizeLenient  bool
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize",
	Short: "Normalize raw billing records and optionally aggregate them",
	Long: `normalize converts provider-native cost records into the canonical
model. With --group-by the canonical entries are also aggregated along
the given dotted paths (provider, resource.type, allocation.team, ...).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := buildEngines(cmd.Context())
		if err != nil {
			return err
		}

		var records []normalize.RawRecord
		if err := readJSONFile(normalizeFile, &records); err != nil {
			return err
		}
		window, err := parseWindow(normalizeStart, normalizeEnd)
		if err != nil {
			return err
		}

		engine := eng.normalize
		if normalizeLenient {
			engine = lenientEngine(eng)
		}
		result, err := engine.Normalize(types.Provider(normalizeProvider), window, records)
		if err != nil {
			return err
		}

		if len(normalizeGroupBy) == 0 {
			return printJSON(result)
		}
		aggregation, err := eng.aggregate.Aggregate(result.Entries, normalizeGroupBy)
		if err != nil {
			return err
		}
		return printJSON(map[string]interface{}{
			"normalized":  result,
			"aggregation": aggregation,
		})
	},
}

func lenientEngine(eng *engines) *normalize.Engine {
	return normalize.NewEngine(mapping.MustDefaultRegistry(), currency.DefaultRates(), normalize.Options{
		TargetCurrency:  eng.cfg.DefaultCurrency,
		ContinueOnError: true,
	})
}

func parseWindow(start, end string) (normalize.Window, error) {
	s, err := time.Parse(time.RFC3339, start)
	if err != nil {
		return normalize.Window{}, errors.Validation("start", start, "must be RFC3339")
	}
	e, err := time.Parse(time.RFC3339, end)
	if err != nil {
		return normalize.Window{}, errors.Validation("end", end, "must be RFC3339")
	}
	return normalize.Window{Start: s, End: e}, nil
}

func init() {
	normalizeCmd.Flags().StringVar(&normalizeProvider, "provider", "aws", "source provider (aws, azure, gcp)")
	normalizeCmd.Flags().StringVarP(&normalizeFile, "file", "f", "records.json", "raw records file")
	normalizeCmd.Flags().StringVar(&normalizeStart, "start", time.Now().UTC().AddDate(0, -1, 0).Format(time.RFC3339), "billing window start")
	normalizeCmd.Flags().StringVar(&normalizeEnd, "end", time.Now().UTC().Format(time.RFC3339), "billing window end")
	normalizeCmd.Flags().StringSliceVar(&normalizeGroupBy, "group-by", nil, "aggregate along these dotted paths")
	normalizeCmd.Flags().BoolVar(&normalizeLenient, "continue-on-error", false, "collect bad records as soft errors instead of failing the batch")
}
