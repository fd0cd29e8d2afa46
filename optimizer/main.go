package main

import (
	"flag"
	"fmt"
	"strings"
	"time"

	cfo "github.com/ajena12/carbon-footprint-optimizer"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var multipliers cfo.ArrayFloatFlags

func main() {
	flag.Var(&multipliers, "cost_budget_multiplier",
		"Cap total cost at the greedy baseline cost times this value (0 disables); repeat for one run per value")
	dataDir := flag.String("data_dir", "data", "Directory holding the dataset CSV files")
	resultsPath := flag.String("results_path", "outputs/optimization_results.csv", "Where the flow table is written")
	solverLog := flag.String("solver_log", "flow-lp.log", "Gurobi log file")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ds, err := cfo.LoadDataset(*dataDir)
	if err != nil {
		logger.Fatal("loading dataset", zap.String("data_dir", *dataDir), zap.Error(err))
	}

	if len(multipliers) == 0 {
		multipliers = append(multipliers, 0)
	}
	backend := &cfo.GurobiBackend{LogPath: *solverLog}
	sysInfo := cfo.CollectSysInfo()

	for _, mult := range multipliers {
		path := *resultsPath
		if len(multipliers) > 1 {
			path = suffixPath(path, fmt.Sprintf("_m%.2f", mult))
		}

		start := time.Now()
		res, err := cfo.Optimize(ds, cfo.FlowOptions{CostBudgetMultiplier: mult}, backend)
		if err != nil {
			logger.Fatal("optimizing", zap.Float64("cost_budget_multiplier", mult), zap.Error(err))
		}
		elapsed := time.Since(start)

		summary := cfo.RunSummary{
			RunID:                uuid.NewString(),
			DataDir:              *dataDir,
			Infeasible:           res.Infeasible,
			Optimal:              res.Optimal,
			TotalEmissionsKg:     res.TotalEmissionsKg,
			TotalCost:            res.TotalCost,
			TotalDemandTons:      ds.TotalDemandTons(),
			TotalSupplyTons:      ds.TotalSupplyTons(),
			CostBudgetMultiplier: mult,
			Time:                 elapsed.String(),
			System:               sysInfo,
		}

		if res.Infeasible {
			logger.Warn("problem is infeasible",
				zap.String("run_id", summary.RunID),
				zap.Float64("total_demand_tons", summary.TotalDemandTons),
				zap.Float64("total_supply_tons", summary.TotalSupplyTons))
			summary.Comment = "no feasible flow assignment for the given capacities and demand"
		} else {
			if err := cfo.ValidateFlows(ds, res); err != nil {
				logger.Fatal("solution violates network constraints", zap.Error(err))
			}
			logger.Info("optimization done",
				zap.String("run_id", summary.RunID),
				zap.Bool("optimal", res.Optimal),
				zap.Float64("total_emissions_kg", res.TotalEmissionsKg),
				zap.Float64("total_cost", res.TotalCost),
				zap.Duration("time", elapsed))
		}

		if err := cfo.WriteFlowResults(path, res.Flows); err != nil {
			logger.Fatal("writing results", zap.String("path", path), zap.Error(err))
		}
		if err := cfo.WriteJSONFile(summaryPath(path), summary); err != nil {
			logger.Fatal("writing run summary", zap.Error(err))
		}
		logger.Info("results saved", zap.String("results_path", path), zap.String("summary_path", summaryPath(path)))
	}
}

func suffixPath(path, suffix string) string {
	if i := strings.LastIndex(path, "."); i > strings.LastIndex(path, "/") {
		return path[:i] + suffix + path[i:]
	}
	return path + suffix
}

func summaryPath(resultsPath string) string {
	return strings.TrimSuffix(resultsPath, ".csv") + "_summary.json"
}
