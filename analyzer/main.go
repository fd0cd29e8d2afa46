package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"

	cfo "github.com/ajena12/carbon-footprint-optimizer"
)

// analyzer scans a directory of optimizer runs and prints one KPI row per
// run summary. Each run's flow table is re-aggregated and compared against
// the summary totals; a mismatch lands in the Comment column.
func main() {
	flag.Parse()
	if flag.NArg() < 1 {
		log.Printf("No results directory passed!")
		return
	}
	dirName := flag.Arg(0)
	entries, err := os.ReadDir(dirName)
	if err != nil {
		log.Printf("Couldn't open directory %s: %s\n", dirName, err.Error())
		return
	}
	fmt.Printf("RunID,Optimal,Infeasible,Time,TotalEmissionsKg,TotalCost,TotalDemandTons,Routes,Comment\n")
	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), "_summary.json") {
			continue
		}
		summaryFile := filepath.Join(dirName, e.Name())
		data, err := os.ReadFile(summaryFile)
		if err != nil {
			log.Printf("Couldn't read %s: %s\n", e.Name(), err.Error())
			return
		}
		var summary cfo.RunSummary
		if err := json.Unmarshal(data, &summary); err != nil {
			log.Printf("Couldn't parse %s: %s\n", e.Name(), err.Error())
			return
		}

		resultsFile := strings.TrimSuffix(summaryFile, "_summary.json") + ".csv"
		routes := 0
		comment := summary.Comment
		if !summary.Infeasible {
			flows, err := cfo.LoadFlowResults(resultsFile)
			if err != nil {
				comment += fmt.Sprintf("ANALYZER: Error = %s", err.Error())
			} else {
				routes = len(flows)
				if err := checkTotals(flows, summary); err != nil {
					comment += fmt.Sprintf("ANALYZER: Error = %s", err.Error())
				}
			}
		}
		fmt.Printf("%s,%t,%t,%s,%.2f,%.2f,%.2f,%d,%s\n",
			summary.RunID, summary.Optimal, summary.Infeasible, summary.Time,
			summary.TotalEmissionsKg, summary.TotalCost, summary.TotalDemandTons, routes, comment)
	}
}

func checkTotals(flows []cfo.FlowRow, summary cfo.RunSummary) error {
	emissions := 0.0
	cost := 0.0
	delivered := 0.0
	for _, f := range flows {
		if f.FlowTons < 0 {
			return fmt.Errorf("route %s has negative flow %.6f", f.RouteID, f.FlowTons)
		}
		emissions += f.EmissionsKg
		cost += f.Cost
		if f.Stage == cfo.StageDelivery {
			delivered += f.FlowTons
		}
	}
	if math.Abs(emissions-summary.TotalEmissionsKg) > 1e-3 {
		return fmt.Errorf("flow emissions %.3f disagree with summary %.3f", emissions, summary.TotalEmissionsKg)
	}
	if math.Abs(cost-summary.TotalCost) > 1e-3 {
		return fmt.Errorf("flow cost %.3f disagrees with summary %.3f", cost, summary.TotalCost)
	}
	if delivered < summary.TotalDemandTons-1e-3 {
		return fmt.Errorf("delivered %.3f t below total demand %.3f t", delivered, summary.TotalDemandTons)
	}
	return nil
}
