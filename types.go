package cfo

// Supplier provides raw material measured in tons.
type Supplier struct {
	ID           string  `csv:"id" json:"id"`
	Region       string  `csv:"region" json:"region"`
	CapacityTons float64 `csv:"capacity" json:"capacity"`
	Lat          float64 `csv:"lat" json:"lat"`
	Lon          float64 `csv:"lon" json:"lon"`
}

// Factory converts incoming material into outgoing product one to one.
type Factory struct {
	ID           string  `csv:"id" json:"id"`
	Region       string  `csv:"region" json:"region"`
	CapacityTons float64 `csv:"capacity" json:"capacity"`
	Lat          float64 `csv:"lat" json:"lat"`
	Lon          float64 `csv:"lon" json:"lon"`
}

// Region is a demand node.
type Region struct {
	ID         string  `csv:"id" json:"id"`
	DemandTons float64 `csv:"demand" json:"demand"`
	Lat        float64 `csv:"lat" json:"lat"`
	Lon        float64 `csv:"lon" json:"lon"`
}

// TransportMode carries the emission and cost factors per ton-km.
type TransportMode struct {
	ID             string  `csv:"id" json:"id"`
	EmissionFactor float64 `csv:"emission_factor" json:"emission_factor"`
	CostFactor     float64 `csv:"cost_factor" json:"cost_factor"`
}

// SupplyRoute is a supplier -> factory edge.
type SupplyRoute struct {
	SupplierID string  `csv:"supplier_id" json:"supplier_id"`
	FactoryID  string  `csv:"factory_id" json:"factory_id"`
	DistanceKm float64 `csv:"distance_km" json:"distance_km"`
	ModeID     string  `csv:"mode_id" json:"mode_id"`
}

// DeliveryRoute is a factory -> region edge.
type DeliveryRoute struct {
	FactoryID  string  `csv:"factory_id" json:"factory_id"`
	RegionID   string  `csv:"region_id" json:"region_id"`
	DistanceKm float64 `csv:"distance_km" json:"distance_km"`
	ModeID     string  `csv:"mode_id" json:"mode_id"`
}

// Demand is the required quantity for a region in a period.
type Demand struct {
	RegionID string  `csv:"region_id" json:"region_id"`
	Quantity float64 `csv:"quantity" json:"quantity"`
	Period   string  `csv:"period" json:"period"`
}

// Dataset is one generated supply chain. It is written once by the
// generator and read-only afterwards.
type Dataset struct {
	Suppliers      []Supplier      `json:"suppliers"`
	Factories      []Factory       `json:"factories"`
	Regions        []Region        `json:"regions"`
	TransportModes []TransportMode `json:"transport_modes"`
	SupplyRoutes   []SupplyRoute   `json:"routes_sup_to_fac"`
	DeliveryRoutes []DeliveryRoute `json:"routes_fac_to_reg"`
	Demands        []Demand        `json:"demand"`
}

// ModeByID returns the transport mode for id, or false when unknown.
func (ds *Dataset) ModeByID(id string) (TransportMode, bool) {
	for _, m := range ds.TransportModes {
		if m.ID == id {
			return m, true
		}
	}
	return TransportMode{}, false
}

// RegionDemand sums demand rows per region across all periods.
func (ds *Dataset) RegionDemand() map[string]float64 {
	out := make(map[string]float64, len(ds.Regions))
	for _, d := range ds.Demands {
		out[d.RegionID] += d.Quantity
	}
	return out
}

// TotalDemandTons is the quantity the whole network must deliver.
func (ds *Dataset) TotalDemandTons() float64 {
	total := 0.0
	for _, d := range ds.Demands {
		total += d.Quantity
	}
	return total
}

// TotalSupplyTons sums supplier capacities.
func (ds *Dataset) TotalSupplyTons() float64 {
	total := 0.0
	for _, s := range ds.Suppliers {
		total += s.CapacityTons
	}
	return total
}

// TotalFactoryCapacityTons sums factory processing capacities.
func (ds *Dataset) TotalFactoryCapacityTons() float64 {
	total := 0.0
	for _, f := range ds.Factories {
		total += f.CapacityTons
	}
	return total
}

// FlowRow is one line of optimization_results.csv.
type FlowRow struct {
	RouteID     string  `csv:"route_id" json:"route_id"`
	Stage       string  `csv:"stage" json:"stage"`
	FromID      string  `csv:"from_id" json:"from_id"`
	ToID        string  `csv:"to_id" json:"to_id"`
	FlowTons    float64 `csv:"flow_tons" json:"flow_tons"`
	EmissionsKg float64 `csv:"emissions_kg" json:"emissions_kg"`
	Cost        float64 `csv:"cost" json:"cost"`
}

// FlowResult is the outcome of one optimizer run. Infeasible is a regular
// result state, not an error.
type FlowResult struct {
	Infeasible       bool      `json:"infeasible"`
	Optimal          bool      `json:"optimal"`
	Flows            []FlowRow `json:"flows"`
	TotalEmissionsKg float64   `json:"total_emissions_kg"`
	TotalCost        float64   `json:"total_cost"`
}

// RunSummary is the JSON artifact written next to the results file.
type RunSummary struct {
	RunID                string  `json:"run_id"`
	DataDir              string  `json:"data_dir"`
	Infeasible           bool    `json:"infeasible"`
	Optimal              bool    `json:"optimal"`
	TotalEmissionsKg     float64 `json:"total_emissions_kg"`
	TotalCost            float64 `json:"total_cost"`
	TotalDemandTons      float64 `json:"total_demand_tons"`
	TotalSupplyTons      float64 `json:"total_supply_tons"`
	CostBudgetMultiplier float64 `json:"cost_budget_multiplier,omitempty"`

	Time    string  `json:"time"`
	System  SysInfo `json:"system"`
	Comment string  `json:"comment,omitempty"`
}

// SysInfo saves the basic system information
type SysInfo struct {
	Platform string
	CPU      string
	RAM      string
}
