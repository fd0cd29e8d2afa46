package cfo

// Transport mode factor tables. The values are illustrative, not sourced
// from any inventory database.
var (
	// DefaultTransportFactors is kg CO2 per ton-km.
	DefaultTransportFactors = map[string]float64{
		"truck": 0.1,
		"rail":  0.03,
		"ship":  0.015,
		"air":   0.6,
	}

	// DefaultTransportCosts is USD per ton-km.
	DefaultTransportCosts = map[string]float64{
		"truck": 0.09,
		"rail":  0.05,
		"ship":  0.03,
		"air":   0.8,
	}

	// CanonicalModeOrder fixes the iteration order of the maps above so
	// generated output stays deterministic.
	CanonicalModeOrder = []string{"truck", "rail", "ship", "air"}
)

// EstimateEmissions returns the CO2 mass in kg for moving loadTons over
// distanceKm with the given emission factor. Any non-positive argument
// yields 0.
func EstimateEmissions(distanceKm, loadTons, efKgPerTonKm float64) float64 {
	if distanceKm <= 0 || loadTons <= 0 || efKgPerTonKm <= 0 {
		return 0
	}
	return distanceKm * loadTons * efKgPerTonKm
}

// EstimateCost returns the transport cost for moving loadTons over
// distanceKm with the given cost factor. Any non-positive argument yields 0.
func EstimateCost(distanceKm, loadTons, costPerTonKm float64) float64 {
	if distanceKm <= 0 || loadTons <= 0 || costPerTonKm <= 0 {
		return 0
	}
	return distanceKm * loadTons * costPerTonKm
}
