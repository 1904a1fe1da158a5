package cmd

import (
	"github.com/spf13/cobra"

	"cloudcost/core/aggregate"
	"cloudcost/core/types"
)

var (
	aggregateFile    string
	aggregateGroupBy []string
)

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Aggregate normalized cost entries along dotted paths",
	Long: `aggregate groups canonical cost entries, as produced by normalize,
along the given dotted paths (provider, resource.type, allocation.team,
resource.specifications.instance_type, ...) and sums each group's cost
breakdown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var entries []types.NormalizedCostEntry
		if err := readJSONFile(aggregateFile, &entries); err != nil {
			return err
		}
		result, err := aggregate.NewEngine().Aggregate(entries, aggregateGroupBy)
		if err != nil {
			return err
		}
		return printJSON(result)
	},
}

func init() {
	aggregateCmd.Flags().StringVarP(&aggregateFile, "file", "f", "entries.json", "normalized entries file")
	aggregateCmd.Flags().StringSliceVar(&aggregateGroupBy, "group-by", []string{"provider"}, "group along these dotted paths")
}
