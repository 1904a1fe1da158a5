package cmd

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"cloudcost/core/types"
	"cloudcost/internal/errors"
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare an option class across providers",
}

var (
	compareRegion    string
	compareProviders []string
	compareMaxCost   float64

	vmVCPUs    int
	vmMemory   string
	vmOS       string
	vmPurchase string
	vmGPUs     int

	storageType     string
	storageCapacity int
	storageIOPS     int

	networkService  string
	networkLBType   string
	networkTransfer string
	networkRPS      int
)

var compareVmCmd = &cobra.Command{
	Use:   "vm",
	Short: "Compare compute instances",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := buildEngines(cmd.Context())
		if err != nil {
			return err
		}
		memory, err := decimal.NewFromString(vmMemory)
		if err != nil {
			return errors.Validation("memory", vmMemory, "must be a decimal number of GB")
		}
		req := types.VmRequirements{
			Region:         types.Region(compareRegion),
			MinVCPUs:       vmVCPUs,
			MinMemoryGB:    memory,
			OS:             types.OperatingSystem(vmOS),
			PurchaseOption: types.PurchaseOption(vmPurchase),
		}
		if vmGPUs > 0 {
			req.MinGPUs = &vmGPUs
		}
		result, err := eng.compare.CompareVm(cmd.Context(), req, compareFilters())
		if err != nil {
			return err
		}
		return printJSON(result)
	},
}

var compareStorageCmd = &cobra.Command{
	Use:   "storage",
	Short: "Compare storage options",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := buildEngines(cmd.Context())
		if err != nil {
			return err
		}
		req := types.StorageRequirements{
			Region:      types.Region(compareRegion),
			StorageType: types.StorageType(storageType),
			CapacityGB:  storageCapacity,
		}
		if storageIOPS > 0 {
			req.MinIOPS = &storageIOPS
		}
		result, err := eng.compare.CompareStorage(cmd.Context(), req, compareFilters())
		if err != nil {
			return err
		}
		return printJSON(result)
	},
}

var compareNetworkCmd = &cobra.Command{
	Use:   "network",
	Short: "Compare network services",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := buildEngines(cmd.Context())
		if err != nil {
			return err
		}
		req := types.NetworkRequirements{
			Region:           types.Region(compareRegion),
			ServiceType:      types.NetworkServiceType(networkService),
			LoadBalancerType: networkLBType,
		}
		if networkTransfer != "" {
			transfer, err := decimal.NewFromString(networkTransfer)
			if err != nil {
				return errors.Validation("transfer", networkTransfer, "must be a decimal number of GB")
			}
			req.MonthlyDataTransferGB = &transfer
		}
		if networkRPS > 0 {
			req.ExpectedRPS = &networkRPS
		}
		result, err := eng.compare.CompareNetwork(cmd.Context(), req, compareFilters())
		if err != nil {
			return err
		}
		return printJSON(result)
	},
}

func compareFilters() types.ComparisonFilters {
	filters := types.ComparisonFilters{}
	for _, p := range compareProviders {
		filters.Providers = append(filters.Providers, types.Provider(strings.ToLower(p)))
	}
	if compareMaxCost > 0 {
		max := decimal.NewFromFloat(compareMaxCost)
		filters.MaxMonthlyCost = &max
	}
	return filters
}

func init() {
	for _, c := range []*cobra.Command{compareVmCmd, compareStorageCmd, compareNetworkCmd} {
		c.Flags().StringVar(&compareRegion, "region", "us-east-1", "target region (provider-local name)")
		c.Flags().StringSliceVar(&compareProviders, "providers", nil, "providers to include (default all registered)")
		c.Flags().Float64Var(&compareMaxCost, "max-monthly-cost", 0, "drop options above this monthly cost")
	}

	compareVmCmd.Flags().IntVar(&vmVCPUs, "vcpus", 2, "minimum vCPUs")
	compareVmCmd.Flags().StringVar(&vmMemory, "memory", "4", "minimum memory in GB")
	compareVmCmd.Flags().StringVar(&vmOS, "os", "linux", "operating system (linux, windows)")
	compareVmCmd.Flags().StringVar(&vmPurchase, "purchase", "on_demand", "purchase option (on_demand, reserved, spot)")
	compareVmCmd.Flags().IntVar(&vmGPUs, "gpus", 0, "minimum GPUs")

	compareStorageCmd.Flags().StringVar(&storageType, "type", "block", "storage type (block, object, file)")
	compareStorageCmd.Flags().IntVar(&storageCapacity, "capacity", 100, "capacity in GB")
	compareStorageCmd.Flags().IntVar(&storageIOPS, "iops", 0, "minimum IOPS")

	compareNetworkCmd.Flags().StringVar(&networkService, "service", "load_balancer", "network service type")
	compareNetworkCmd.Flags().StringVar(&networkLBType, "lb-type", "", "load balancer flavor (application, network)")
	compareNetworkCmd.Flags().StringVar(&networkTransfer, "transfer", "", "monthly data transfer in GB")
	compareNetworkCmd.Flags().IntVar(&networkRPS, "rps", 0, "expected requests per second")

	compareCmd.AddCommand(compareVmCmd)
	compareCmd.AddCommand(compareStorageCmd)
	compareCmd.AddCommand(compareNetworkCmd)
}
