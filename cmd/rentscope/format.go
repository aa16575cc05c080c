package main

import (
	"fmt"
	"os"
	"strings"

	json "github.com/goccy/go-json"

	"RentScope/internal/model"
	"RentScope/internal/notifier"
)

var tagStripper = strings.NewReplacer("<b>", "", "</b>", "")

// plain removes the chat markup from formatter output.
func plain(s string) string {
	return tagStripper.Replace(s)
}

func printHTML(s string) {
	fmt.Println(strings.TrimRight(plain(s), "\n"))
}

func printValues(values []string) {
	if len(values) == 0 {
		fmt.Println("(none)")
		return
	}
	for _, v := range values {
		fmt.Println(v)
	}
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	_, err = fmt.Fprintln(os.Stdout, string(out))
	return err
}

func printAffordability(s model.ScenarioResult, income float64) {
	fmt.Printf("%d-year mortgage at %.2f%%\n", s.Scenario.TermYears, s.Scenario.InterestRatePct)
	fmt.Print(notifier.FormatScenario(s, income))
	if s.Result.Status == model.StatusOK {
		fmt.Printf("  Max mortgage: %s\n", notifier.FormatCurrency(s.Result.MaxMortgage))
	}
}

func printGrid(grid []model.ScenarioResult, income float64) {
	fmt.Printf("Net monthly income: %s\n", notifier.FormatCurrency(income))
	term := 0
	for _, s := range grid {
		if s.Scenario.TermYears != term {
			term = s.Scenario.TermYears
			fmt.Printf("\n%d-year mortgage at %.2f%%\n", term, s.Scenario.InterestRatePct)
		}
		fmt.Print(notifier.FormatScenario(s, income))
	}
}
