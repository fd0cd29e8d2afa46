package cfo

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInfeasible marks a network whose demand cannot be satisfied. It is a
// result state of the optimizer, not a crash.
var ErrInfeasible = errors.New("no feasible flow assignment")

// Constraint senses, backend-neutral.
const (
	LessEqual    int8 = '<'
	Equal        int8 = '='
	GreaterEqual int8 = '>'
)

// Flow stages as reported in the results table.
const (
	StageSupply   = "supplier_to_factory"
	StageDelivery = "factory_to_region"
)

// FlowConstraint is one linear row given as index/value pairs over the
// variable vector.
type FlowConstraint struct {
	Name  string
	Ind   []int32
	Val   []float64
	Sense int8
	RHS   float64
}

// FlowLP is the min-emission transportation LP over a dataset. Variables
// are laid out as x[supply route i] at startX+i and y[delivery route j] at
// startY+j, all continuous and >= 0.
type FlowLP struct {
	ds *Dataset

	VarCount    int
	StartX      int
	StartY      int
	VarNames    []string
	Objective   []float64 // minimized: kg CO2 per ton of flow
	CostPerTon  []float64 // USD per ton of flow, parallel to the variables
	Constraints []FlowConstraint

	// VarUpperBound caps every flow variable. Total demand is a valid
	// bound: no single edge ever needs to carry more.
	VarUpperBound float64
}

// FlowOptions tweak the formulation.
type FlowOptions struct {
	// CostBudgetMultiplier > 0 adds a cost ceiling of the greedy baseline
	// cost times the multiplier.
	CostBudgetMultiplier float64
}

// FlowBackend solves a formulated LP. Implementations own nothing beyond
// the solve and the raw variable values they map back into a FlowResult.
type FlowBackend interface {
	Solve(lp *FlowLP) (*FlowResult, error)
}

// CheckFeasible rejects a dataset whose aggregate capacity cannot cover
// aggregate demand. The optimizer calls this before formulating so an
// undersized network surfaces as ErrInfeasible instead of a solver status.
func CheckFeasible(ds *Dataset) error {
	demand := ds.TotalDemandTons()
	if supply := ds.TotalSupplyTons(); supply < demand {
		return fmt.Errorf("total supplier capacity %.2f t < total demand %.2f t: %w", supply, demand, ErrInfeasible)
	}
	if capacity := ds.TotalFactoryCapacityTons(); capacity < demand {
		return fmt.Errorf("total factory capacity %.2f t < total demand %.2f t: %w", capacity, demand, ErrInfeasible)
	}
	return nil
}

// BuildFlowLP formulates the LP: minimize total CO2 subject to supplier
// capacity, factory balance and capacity, and demand satisfaction.
func BuildFlowLP(ds *Dataset, opts FlowOptions) (*FlowLP, error) {
	lp := &FlowLP{ds: ds, StartX: 0, StartY: len(ds.SupplyRoutes)}
	lp.VarCount = len(ds.SupplyRoutes) + len(ds.DeliveryRoutes)
	lp.VarUpperBound = ds.TotalDemandTons()
	lp.VarNames = make([]string, 0, lp.VarCount)
	lp.Objective = make([]float64, 0, lp.VarCount)
	lp.CostPerTon = make([]float64, 0, lp.VarCount)

	for _, r := range ds.SupplyRoutes {
		mode, ok := ds.ModeByID(r.ModeID)
		if !ok {
			return nil, fmt.Errorf("supply route %s->%s: unknown mode id %q", r.SupplierID, r.FactoryID, r.ModeID)
		}
		lp.VarNames = append(lp.VarNames, fmt.Sprintf("x_%s_%s", r.SupplierID, r.FactoryID))
		lp.Objective = append(lp.Objective, r.DistanceKm*mode.EmissionFactor)
		lp.CostPerTon = append(lp.CostPerTon, r.DistanceKm*mode.CostFactor)
	}
	for _, r := range ds.DeliveryRoutes {
		mode, ok := ds.ModeByID(r.ModeID)
		if !ok {
			return nil, fmt.Errorf("delivery route %s->%s: unknown mode id %q", r.FactoryID, r.RegionID, r.ModeID)
		}
		lp.VarNames = append(lp.VarNames, fmt.Sprintf("y_%s_%s", r.FactoryID, r.RegionID))
		lp.Objective = append(lp.Objective, r.DistanceKm*mode.EmissionFactor)
		lp.CostPerTon = append(lp.CostPerTon, r.DistanceKm*mode.CostFactor)
	}

	for _, s := range ds.Suppliers {
		var (
			ind []int32
			val []float64
		)
		for i, r := range ds.SupplyRoutes {
			if r.SupplierID == s.ID {
				ind = append(ind, int32(lp.StartX+i))
				val = append(val, 1.0)
			}
		}
		lp.Constraints = append(lp.Constraints, FlowConstraint{
			Name: fmt.Sprintf("supplier_cap_%s", s.ID), Ind: ind, Val: val,
			Sense: LessEqual, RHS: s.CapacityTons,
		})
	}

	for _, f := range ds.Factories {
		var (
			balInd []int32
			balVal []float64
			capInd []int32
			capVal []float64
		)
		for i, r := range ds.SupplyRoutes {
			if r.FactoryID == f.ID {
				balInd = append(balInd, int32(lp.StartX+i))
				balVal = append(balVal, 1.0)
			}
		}
		for j, r := range ds.DeliveryRoutes {
			if r.FactoryID == f.ID {
				balInd = append(balInd, int32(lp.StartY+j))
				balVal = append(balVal, -1.0)
				capInd = append(capInd, int32(lp.StartY+j))
				capVal = append(capVal, 1.0)
			}
		}
		lp.Constraints = append(lp.Constraints, FlowConstraint{
			Name: fmt.Sprintf("balance_%s", f.ID), Ind: balInd, Val: balVal,
			Sense: Equal, RHS: 0,
		})
		lp.Constraints = append(lp.Constraints, FlowConstraint{
			Name: fmt.Sprintf("factory_cap_%s", f.ID), Ind: capInd, Val: capVal,
			Sense: LessEqual, RHS: f.CapacityTons,
		})
	}

	demand := ds.RegionDemand()
	for _, reg := range ds.Regions {
		var (
			ind []int32
			val []float64
		)
		for j, r := range ds.DeliveryRoutes {
			if r.RegionID == reg.ID {
				ind = append(ind, int32(lp.StartY+j))
				val = append(val, 1.0)
			}
		}
		lp.Constraints = append(lp.Constraints, FlowConstraint{
			Name: fmt.Sprintf("demand_%s", reg.ID), Ind: ind, Val: val,
			Sense: GreaterEqual, RHS: demand[reg.ID],
		})
	}

	if opts.CostBudgetMultiplier > 0 {
		ind := make([]int32, lp.VarCount)
		val := make([]float64, lp.VarCount)
		for i := 0; i < lp.VarCount; i++ {
			ind[i] = int32(i)
			val[i] = lp.CostPerTon[i]
		}
		lp.Constraints = append(lp.Constraints, FlowConstraint{
			Name: "cost_budget", Ind: ind, Val: val,
			Sense: LessEqual, RHS: GreedyBaselineCost(ds) * opts.CostBudgetMultiplier,
		})
	}

	return lp, nil
}

// GreedyBaselineCost estimates a cost ceiling from a naive allocation:
// every region is served over its cheapest-by-distance delivery route and
// every factory sources over its nearest supply route, with the total
// demand split evenly across factories.
func GreedyBaselineCost(ds *Dataset) float64 {
	demand := ds.RegionDemand()
	cost := 0.0

	nearestDelivery := make(map[string]DeliveryRoute)
	for _, r := range ds.DeliveryRoutes {
		best, ok := nearestDelivery[r.RegionID]
		if !ok || r.DistanceKm < best.DistanceKm {
			nearestDelivery[r.RegionID] = r
		}
	}
	for _, r := range nearestDelivery {
		if mode, ok := ds.ModeByID(r.ModeID); ok {
			cost += EstimateCost(r.DistanceKm, demand[r.RegionID], mode.CostFactor)
		}
	}

	nearestSupply := make(map[string]SupplyRoute)
	for _, r := range ds.SupplyRoutes {
		best, ok := nearestSupply[r.FactoryID]
		if !ok || r.DistanceKm < best.DistanceKm {
			nearestSupply[r.FactoryID] = r
		}
	}
	perFactoryTons := 0.0
	if len(ds.Factories) > 0 {
		perFactoryTons = ds.TotalDemandTons() / float64(len(ds.Factories))
	}
	for _, r := range nearestSupply {
		if mode, ok := ds.ModeByID(r.ModeID); ok {
			cost += EstimateCost(r.DistanceKm, perFactoryTons, mode.CostFactor)
		}
	}
	return cost
}

// minimum flow reported in the results table
const flowEps = 1e-6

// NewFlowResult maps raw variable values back onto routes, dropping
// near-zero flows and aggregating emissions and cost.
func (lp *FlowLP) NewFlowResult(values []float64, optimal bool) *FlowResult {
	res := &FlowResult{Optimal: optimal}
	for i, r := range lp.ds.SupplyRoutes {
		flow := values[lp.StartX+i]
		res.TotalEmissionsKg += lp.Objective[lp.StartX+i] * flow
		res.TotalCost += lp.CostPerTon[lp.StartX+i] * flow
		if flow > flowEps {
			mode, _ := lp.ds.ModeByID(r.ModeID)
			res.Flows = append(res.Flows, FlowRow{
				RouteID:     fmt.Sprintf("%s->%s", r.SupplierID, r.FactoryID),
				Stage:       StageSupply,
				FromID:      r.SupplierID,
				ToID:        r.FactoryID,
				FlowTons:    flow,
				EmissionsKg: EstimateEmissions(r.DistanceKm, flow, mode.EmissionFactor),
				Cost:        EstimateCost(r.DistanceKm, flow, mode.CostFactor),
			})
		}
	}
	for j, r := range lp.ds.DeliveryRoutes {
		flow := values[lp.StartY+j]
		res.TotalEmissionsKg += lp.Objective[lp.StartY+j] * flow
		res.TotalCost += lp.CostPerTon[lp.StartY+j] * flow
		if flow > flowEps {
			mode, _ := lp.ds.ModeByID(r.ModeID)
			res.Flows = append(res.Flows, FlowRow{
				RouteID:     fmt.Sprintf("%s->%s", r.FactoryID, r.RegionID),
				Stage:       StageDelivery,
				FromID:      r.FactoryID,
				ToID:        r.RegionID,
				FlowTons:    flow,
				EmissionsKg: EstimateEmissions(r.DistanceKm, flow, mode.EmissionFactor),
				Cost:        EstimateCost(r.DistanceKm, flow, mode.CostFactor),
			})
		}
	}
	sort.Slice(res.Flows, func(i, j int) bool {
		if res.Flows[i].Stage != res.Flows[j].Stage {
			return res.Flows[i].Stage == StageSupply
		}
		return res.Flows[i].RouteID < res.Flows[j].RouteID
	})
	return res
}

// Optimize runs the full pipeline for one dataset: feasibility pre-check,
// formulation, backend solve. An undersized network comes back with
// Infeasible set and no flows.
func Optimize(ds *Dataset, opts FlowOptions, backend FlowBackend) (*FlowResult, error) {
	if err := CheckFeasible(ds); err != nil {
		if errors.Is(err, ErrInfeasible) {
			return &FlowResult{Infeasible: true}, nil
		}
		return nil, err
	}
	lp, err := BuildFlowLP(ds, opts)
	if err != nil {
		return nil, err
	}
	return backend.Solve(lp)
}

const validateEps = 1e-4

// ValidateFlows re-checks a solution against every network invariant:
// non-negative flows, supplier and factory capacities, factory balance and
// demand coverage.
func ValidateFlows(ds *Dataset, res *FlowResult) error {
	if res.Infeasible {
		return nil
	}
	supplierOut := make(map[string]float64)
	factoryIn := make(map[string]float64)
	factoryOut := make(map[string]float64)
	regionIn := make(map[string]float64)

	for _, f := range res.Flows {
		if f.FlowTons < -validateEps {
			return fmt.Errorf("route %s: negative flow %.6f", f.RouteID, f.FlowTons)
		}
		switch f.Stage {
		case StageSupply:
			supplierOut[f.FromID] += f.FlowTons
			factoryIn[f.ToID] += f.FlowTons
		case StageDelivery:
			factoryOut[f.FromID] += f.FlowTons
			regionIn[f.ToID] += f.FlowTons
		default:
			return fmt.Errorf("route %s: unknown stage %q", f.RouteID, f.Stage)
		}
	}

	for _, s := range ds.Suppliers {
		if supplierOut[s.ID] > s.CapacityTons+validateEps {
			return fmt.Errorf("supplier %s: outflow %.2f exceeds capacity %.2f", s.ID, supplierOut[s.ID], s.CapacityTons)
		}
	}
	for _, f := range ds.Factories {
		if diff := factoryIn[f.ID] - factoryOut[f.ID]; diff > validateEps || diff < -validateEps {
			return fmt.Errorf("factory %s: inflow %.2f != outflow %.2f", f.ID, factoryIn[f.ID], factoryOut[f.ID])
		}
		if factoryOut[f.ID] > f.CapacityTons+validateEps {
			return fmt.Errorf("factory %s: outflow %.2f exceeds capacity %.2f", f.ID, factoryOut[f.ID], f.CapacityTons)
		}
	}
	demand := ds.RegionDemand()
	for _, r := range ds.Regions {
		if regionIn[r.ID] < demand[r.ID]-validateEps {
			return fmt.Errorf("region %s: inflow %.2f below demand %.2f", r.ID, regionIn[r.ID], demand[r.ID])
		}
	}
	return nil
}
