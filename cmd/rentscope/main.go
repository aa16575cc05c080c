package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	var opts globalOptions

	rootCmd := &cobra.Command{
		Use:          "rentscope",
		Short:        "Rent statistics and mortgage affordability from rental listings",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", defaultConfigPath(), "config file (YAML)")
	rootCmd.PersistentFlags().StringVarP(&opts.source, "source", "s", "", "local .xlsx/.csv file, overrides the configured source")

	rootCmd.AddCommand(serveCmd(&opts))
	rootCmd.AddCommand(areasCmd(&opts))
	rootCmd.AddCommand(statsCmd(&opts))
	rootCmd.AddCommand(analyzeCmd(&opts))
	rootCmd.AddCommand(affordCmd(&opts))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func defaultConfigPath() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return "configs/config.yaml"
}

func serveCmd(opts *globalOptions) *cobra.Command {
	var runOnStart bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API with scheduled dataset refreshes",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runServe(opts, runOnStart)
		},
	}

	cmd.Flags().BoolVar(&runOnStart, "load-on-start", true, "load the dataset before serving")
	return cmd
}

func areasCmd(opts *globalOptions) *cobra.Command {
	var field string

	cmd := &cobra.Command{
		Use:   "areas",
		Short: "List the distinct general areas or neighbourhoods",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAreas(cmd.Context(), opts, field)
		},
	}

	cmd.Flags().StringVarP(&field, "field", "f", "General Area", `geography column: "General Area" or "Neighbourhood"`)
	return cmd
}

func statsCmd(opts *globalOptions) *cobra.Command {
	var (
		field       string
		area        string
		byBathrooms bool
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show rent statistics grouped by bedrooms for one area",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStats(cmd.Context(), opts, field, area, byBathrooms)
		},
	}

	cmd.Flags().StringVarP(&field, "field", "f", "General Area", "geography column")
	cmd.Flags().StringVarP(&area, "area", "a", "", "area or neighbourhood name")
	cmd.Flags().BoolVar(&byBathrooms, "by-bathrooms", false, "group by bedrooms and bathrooms")
	_ = cmd.MarkFlagRequired("area")
	return cmd
}

func analyzeCmd(opts *globalOptions) *cobra.Command {
	var a analyzeOptions

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Estimate the purchase a set of rental units can carry",
		Long: "Summarizes rents for each unit in the chosen area, nets out expenses, and\n" +
			"prints the affordable purchase for every term and down payment.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.rateSet = cmd.Flags().Changed("rate")
			return runAnalyze(cmd.Context(), opts, a)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&a.field, "field", "f", "General Area", "geography column")
	f.StringVarP(&a.area, "area", "a", "", "area or neighbourhood name")
	f.StringArrayVarP(&a.units, "unit", "u", nil, "unit as BEDROOMS or BEDROOMS:BATHROOMS, repeatable")
	f.Float64VarP(&a.rate, "rate", "r", 0, "annual interest rate percent (default from config)")
	f.Float64Var(&a.expenses.Maintenance, "maintenance", 0, "annual maintenance")
	f.Float64Var(&a.expenses.Insurance, "insurance", 0, "annual insurance")
	f.Float64Var(&a.expenses.Taxes, "taxes", 0, "annual property taxes")
	f.Float64Var(&a.expenses.HOAFees, "hoa", 0, "annual HOA fees")
	f.Float64Var(&a.expenses.OtherExpenses, "other", 0, "other annual expenses")
	f.BoolVar(&a.asJSON, "json", false, "print the report as JSON")
	_ = cmd.MarkFlagRequired("area")
	_ = cmd.MarkFlagRequired("unit")
	return cmd
}

func affordCmd(opts *globalOptions) *cobra.Command {
	var (
		income float64
		rate   float64
		term   int
		down   float64
	)

	cmd := &cobra.Command{
		Use:   "afford",
		Short: "Compute the affordable purchase for a net monthly income",
		Long:  "Without --term the full grid of terms and down payments is printed.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAfford(opts, income, rate, cmd.Flags().Changed("rate"), term, down, cmd.Flags().Changed("down"))
		},
	}

	cmd.Flags().Float64VarP(&income, "income", "i", 0, "net monthly income")
	cmd.Flags().Float64VarP(&rate, "rate", "r", 0, "annual interest rate percent (default from config)")
	cmd.Flags().IntVarP(&term, "term", "t", 0, "term in years")
	cmd.Flags().Float64VarP(&down, "down", "d", 20, "down payment percent")
	_ = cmd.MarkFlagRequired("income")
	return cmd
}
