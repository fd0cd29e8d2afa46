package cfo

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubBackend returns a fixed variable vector, standing in for a solver.
type stubBackend struct {
	values []float64
	called bool
}

func (b *stubBackend) Solve(lp *FlowLP) (*FlowResult, error) {
	b.called = true
	return lp.NewFlowResult(b.values, true), nil
}

// twoByTwoDataset is the reference network: 2 suppliers (100 t each),
// 2 factories (150 t each), 2 regions (80 t demand each), truck everywhere.
// Variable order: x_S1F1, x_S1F2, x_S2F1, x_S2F2, y_F1R1, y_F1R2, y_F2R1,
// y_F2R2.
func twoByTwoDataset() *Dataset {
	return &Dataset{
		Suppliers: []Supplier{
			{ID: "S1", CapacityTons: 100},
			{ID: "S2", CapacityTons: 100},
		},
		Factories: []Factory{
			{ID: "F1", CapacityTons: 150},
			{ID: "F2", CapacityTons: 150},
		},
		Regions: []Region{
			{ID: "R1", DemandTons: 80},
			{ID: "R2", DemandTons: 80},
		},
		TransportModes: []TransportMode{
			{ID: "truck", EmissionFactor: 0.1, CostFactor: 0.09},
		},
		SupplyRoutes: []SupplyRoute{
			{SupplierID: "S1", FactoryID: "F1", DistanceKm: 100, ModeID: "truck"},
			{SupplierID: "S1", FactoryID: "F2", DistanceKm: 200, ModeID: "truck"},
			{SupplierID: "S2", FactoryID: "F1", DistanceKm: 200, ModeID: "truck"},
			{SupplierID: "S2", FactoryID: "F2", DistanceKm: 100, ModeID: "truck"},
		},
		DeliveryRoutes: []DeliveryRoute{
			{FactoryID: "F1", RegionID: "R1", DistanceKm: 50, ModeID: "truck"},
			{FactoryID: "F1", RegionID: "R2", DistanceKm: 150, ModeID: "truck"},
			{FactoryID: "F2", RegionID: "R1", DistanceKm: 150, ModeID: "truck"},
			{FactoryID: "F2", RegionID: "R2", DistanceKm: 50, ModeID: "truck"},
		},
		Demands: []Demand{
			{RegionID: "R1", Quantity: 80, Period: "2025-01"},
			{RegionID: "R2", Quantity: 80, Period: "2025-01"},
		},
	}
}

func TestCheckFeasible(t *testing.T) {
	ds := twoByTwoDataset()
	require.NoError(t, CheckFeasible(ds))

	short := twoByTwoDataset()
	short.Suppliers[0].CapacityTons = 50
	short.Suppliers[1].CapacityTons = 50
	err := CheckFeasible(short)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInfeasible))

	bottleneck := twoByTwoDataset()
	bottleneck.Factories[0].CapacityTons = 40
	bottleneck.Factories[1].CapacityTons = 40
	err = CheckFeasible(bottleneck)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInfeasible))
}

func TestOptimizeReportsInfeasibleWithoutSolving(t *testing.T) {
	ds := twoByTwoDataset()
	ds.Demands = append(ds.Demands, Demand{RegionID: "R1", Quantity: 500, Period: "2025-02"})

	backend := &stubBackend{}
	res, err := Optimize(ds, FlowOptions{}, backend)
	require.NoError(t, err)
	assert.True(t, res.Infeasible)
	assert.False(t, backend.called, "backend must not be invoked for an undersized network")
	assert.Empty(t, res.Flows)
}

func TestBuildFlowLP(t *testing.T) {
	ds := twoByTwoDataset()
	lp, err := BuildFlowLP(ds, FlowOptions{})
	require.NoError(t, err)

	assert.Equal(t, 8, lp.VarCount)
	assert.Equal(t, 0, lp.StartX)
	assert.Equal(t, 4, lp.StartY)
	assert.InDelta(t, 160.0, lp.VarUpperBound, 1e-9)

	// Objective is distance * emission factor per ton.
	assert.InDelta(t, 10.0, lp.Objective[0], 1e-9)  // x_S1F1: 100 km * 0.1
	assert.InDelta(t, 20.0, lp.Objective[1], 1e-9)  // x_S1F2: 200 km * 0.1
	assert.InDelta(t, 5.0, lp.Objective[4], 1e-9)   // y_F1R1: 50 km * 0.1
	assert.InDelta(t, 9.0, lp.CostPerTon[0], 1e-9)  // 100 km * 0.09
	assert.InDelta(t, 4.5, lp.CostPerTon[4], 1e-9)  // 50 km * 0.09

	// 2 supplier caps + 2 balances + 2 factory caps + 2 demands.
	require.Len(t, lp.Constraints, 8)

	byName := map[string]FlowConstraint{}
	for _, c := range lp.Constraints {
		byName[c.Name] = c
	}

	supCap := byName["supplier_cap_S1"]
	assert.Equal(t, LessEqual, supCap.Sense)
	assert.InDelta(t, 100.0, supCap.RHS, 1e-9)
	assert.Equal(t, []int32{0, 1}, supCap.Ind)

	balance := byName["balance_F1"]
	assert.Equal(t, Equal, balance.Sense)
	assert.InDelta(t, 0.0, balance.RHS, 1e-9)
	assert.Equal(t, []int32{0, 2, 4, 5}, balance.Ind)
	assert.Equal(t, []float64{1, 1, -1, -1}, balance.Val)

	facCap := byName["factory_cap_F2"]
	assert.Equal(t, LessEqual, facCap.Sense)
	assert.InDelta(t, 150.0, facCap.RHS, 1e-9)

	demand := byName["demand_R1"]
	assert.Equal(t, GreaterEqual, demand.Sense)
	assert.InDelta(t, 80.0, demand.RHS, 1e-9)
	assert.Equal(t, []int32{4, 6}, demand.Ind)
}

func TestBuildFlowLPCostBudget(t *testing.T) {
	ds := twoByTwoDataset()
	lp, err := BuildFlowLP(ds, FlowOptions{CostBudgetMultiplier: 1.5})
	require.NoError(t, err)

	last := lp.Constraints[len(lp.Constraints)-1]
	assert.Equal(t, "cost_budget", last.Name)
	assert.Equal(t, LessEqual, last.Sense)
	// Greedy baseline: both regions over their 50 km route
	// (2 * 80 t * 50 km * 0.09) plus both factories over their 100 km
	// route at 80 t each (2 * 80 t * 100 km * 0.09) = 720 + 1440.
	assert.InDelta(t, 2160.0*1.5, last.RHS, 1e-6)
	assert.Len(t, last.Ind, lp.VarCount)
}

func TestGreedyBaselineCost(t *testing.T) {
	assert.InDelta(t, 2160.0, GreedyBaselineCost(twoByTwoDataset()), 1e-6)
}

func TestOptimizeHandComputedExample(t *testing.T) {
	ds := twoByTwoDataset()
	// The obvious optimum: each supplier feeds its near factory, each
	// factory serves its near region.
	backend := &stubBackend{values: []float64{80, 0, 0, 80, 80, 0, 0, 80}}

	res, err := Optimize(ds, FlowOptions{}, backend)
	require.NoError(t, err)
	require.True(t, backend.called)
	assert.False(t, res.Infeasible)
	assert.True(t, res.Optimal)
	require.Len(t, res.Flows, 4)

	// Emissions: 2 * (80 * 100 * 0.1) + 2 * (80 * 50 * 0.1) = 2400.
	assert.InDelta(t, 2400.0, res.TotalEmissionsKg, 1e-6)
	// Cost: 2 * (80 * 100 * 0.09) + 2 * (80 * 50 * 0.09) = 2160.
	assert.InDelta(t, 2160.0, res.TotalCost, 1e-6)

	totalDelivered := 0.0
	for _, f := range res.Flows {
		if f.Stage == StageDelivery {
			totalDelivered += f.FlowTons
		}
	}
	assert.InDelta(t, 160.0, totalDelivered, 1e-6)

	require.NoError(t, ValidateFlows(ds, res))

	rowEmissions := 0.0
	for _, f := range res.Flows {
		rowEmissions += f.EmissionsKg
	}
	assert.InDelta(t, res.TotalEmissionsKg, rowEmissions, 1e-6)
}

func TestValidateFlows(t *testing.T) {
	ds := twoByTwoDataset()

	valid := &FlowResult{Flows: []FlowRow{
		{RouteID: "S1->F1", Stage: StageSupply, FromID: "S1", ToID: "F1", FlowTons: 80},
		{RouteID: "S2->F2", Stage: StageSupply, FromID: "S2", ToID: "F2", FlowTons: 80},
		{RouteID: "F1->R1", Stage: StageDelivery, FromID: "F1", ToID: "R1", FlowTons: 80},
		{RouteID: "F2->R2", Stage: StageDelivery, FromID: "F2", ToID: "R2", FlowTons: 80},
	}}
	require.NoError(t, ValidateFlows(ds, valid))

	testCases := []struct {
		name  string
		flows []FlowRow
	}{
		{
			name: "supplier over capacity",
			flows: []FlowRow{
				{Stage: StageSupply, FromID: "S1", ToID: "F1", FlowTons: 160},
				{Stage: StageDelivery, FromID: "F1", ToID: "R1", FlowTons: 80},
				{Stage: StageDelivery, FromID: "F1", ToID: "R2", FlowTons: 80},
			},
		},
		{
			name: "unmet demand",
			flows: []FlowRow{
				{Stage: StageSupply, FromID: "S1", ToID: "F1", FlowTons: 80},
				{Stage: StageDelivery, FromID: "F1", ToID: "R1", FlowTons: 80},
			},
		},
		{
			name: "factory balance broken",
			flows: []FlowRow{
				{Stage: StageSupply, FromID: "S1", ToID: "F1", FlowTons: 10},
				{Stage: StageDelivery, FromID: "F1", ToID: "R1", FlowTons: 80},
				{Stage: StageDelivery, FromID: "F2", ToID: "R2", FlowTons: 80},
			},
		},
		{
			name: "negative flow",
			flows: []FlowRow{
				{Stage: StageSupply, FromID: "S1", ToID: "F1", FlowTons: -5},
			},
		},
	}
	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFlows(ds, &FlowResult{Flows: tt.flows})
			assert.Error(t, err)
		})
	}

	// An infeasible result has no flows to validate.
	assert.NoError(t, ValidateFlows(ds, &FlowResult{Infeasible: true}))
}
