package cfo

import (
	"fmt"
	"math"
	"math/rand"
)

// Distance models for generated routes, analogous to an edge weight type:
// haversine derives km from generated coordinates, uniform draws km from
// [MinDistanceKm, MaxDistanceKm].
const (
	DistanceHaversine = "HAVERSINE"
	DistanceUniform   = "UNIFORM"
)

// Rough bounding box over Europe used to place entities.
const (
	euLatMin = 36.0
	euLatMax = 60.0
	euLonMin = -10.0
	euLonMax = 30.0
)

var areaNames = []string{"north", "south", "east", "west", "central"}

// Mode weights per stage, heavy on truck. Used only when the dataset has
// exactly the four canonical modes.
var (
	supplyModeWeights   = []float64{0.6, 0.2, 0.15, 0.05}
	deliveryModeWeights = []float64{0.7, 0.2, 0.08, 0.02}
)

// GenConfig parameterizes one synthetic dataset.
type GenConfig struct {
	NumSuppliers      int
	NumFactories      int
	NumRegions        int
	NumTransportModes int
	Seed              int64
	Periods           []string

	DistanceModel string
	MinDistanceKm float64
	MaxDistanceKm float64

	MinSupplierCapacityTons float64
	MaxSupplierCapacityTons float64
	MinFactoryCapacityTons  float64
	MaxFactoryCapacityTons  float64
	MinRegionDemandTons     float64
	MaxRegionDemandTons     float64
}

// DefaultGenConfig mirrors the ranges of the reference dataset.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		NumSuppliers:            15,
		NumFactories:            5,
		NumRegions:              10,
		NumTransportModes:       4,
		Seed:                    42,
		Periods:                 []string{"2025-01"},
		DistanceModel:           DistanceHaversine,
		MinDistanceKm:           50,
		MaxDistanceKm:           3000,
		MinSupplierCapacityTons: 200,
		MaxSupplierCapacityTons: 800,
		MinFactoryCapacityTons:  500,
		MaxFactoryCapacityTons:  2000,
		MinRegionDemandTons:     150,
		MaxRegionDemandTons:     600,
	}
}

func (cfg *GenConfig) validate() error {
	if cfg.NumSuppliers <= 0 || cfg.NumFactories <= 0 || cfg.NumRegions <= 0 || cfg.NumTransportModes <= 0 {
		return fmt.Errorf("entity counts must be positive, got suppliers=%d factories=%d regions=%d modes=%d",
			cfg.NumSuppliers, cfg.NumFactories, cfg.NumRegions, cfg.NumTransportModes)
	}
	if len(cfg.Periods) == 0 {
		return fmt.Errorf("at least one demand period is required")
	}
	switch cfg.DistanceModel {
	case DistanceHaversine, DistanceUniform:
	default:
		return fmt.Errorf("unknown distance model %q", cfg.DistanceModel)
	}
	if cfg.MinDistanceKm <= 0 || cfg.MaxDistanceKm < cfg.MinDistanceKm {
		return fmt.Errorf("invalid distance range [%f, %f]", cfg.MinDistanceKm, cfg.MaxDistanceKm)
	}
	return nil
}

// Generate produces a full dataset: every supplier is connected to every
// factory and every factory to every region. The same seed yields the same
// dataset.
func Generate(cfg GenConfig) (*Dataset, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	ds := &Dataset{}

	ds.TransportModes = generateModes(cfg.NumTransportModes, rng)

	for i := 0; i < cfg.NumSuppliers; i++ {
		lat, lon := randomPointInEurope(rng)
		ds.Suppliers = append(ds.Suppliers, Supplier{
			ID:           fmt.Sprintf("S%03d", i+1),
			Region:       areaNames[rng.Intn(len(areaNames))],
			CapacityTons: round2(uniform(rng, cfg.MinSupplierCapacityTons, cfg.MaxSupplierCapacityTons)),
			Lat:          round4(lat),
			Lon:          round4(lon),
		})
	}

	for i := 0; i < cfg.NumFactories; i++ {
		lat, lon := randomPointInEurope(rng)
		ds.Factories = append(ds.Factories, Factory{
			ID:           fmt.Sprintf("F%02d", i+1),
			Region:       areaNames[rng.Intn(len(areaNames))],
			CapacityTons: round2(uniform(rng, cfg.MinFactoryCapacityTons, cfg.MaxFactoryCapacityTons)),
			Lat:          round4(lat),
			Lon:          round4(lon),
		})
	}

	for i := 0; i < cfg.NumRegions; i++ {
		lat, lon := randomPointInEurope(rng)
		ds.Regions = append(ds.Regions, Region{
			ID:  fmt.Sprintf("R%03d", i+1),
			Lat: round4(lat),
			Lon: round4(lon),
		})
	}

	for _, p := range cfg.Periods {
		for i := range ds.Regions {
			q := round2(uniform(rng, cfg.MinRegionDemandTons, cfg.MaxRegionDemandTons))
			ds.Regions[i].DemandTons = round2(ds.Regions[i].DemandTons + q)
			ds.Demands = append(ds.Demands, Demand{
				RegionID: ds.Regions[i].ID,
				Quantity: q,
				Period:   p,
			})
		}
	}

	supplyWeights := modeWeights(ds.TransportModes, supplyModeWeights)
	for _, s := range ds.Suppliers {
		for _, f := range ds.Factories {
			ds.SupplyRoutes = append(ds.SupplyRoutes, SupplyRoute{
				SupplierID: s.ID,
				FactoryID:  f.ID,
				DistanceKm: routeDistance(cfg, rng, s.Lat, s.Lon, f.Lat, f.Lon),
				ModeID:     ds.TransportModes[weightedChoice(rng, supplyWeights)].ID,
			})
		}
	}

	deliveryWeights := modeWeights(ds.TransportModes, deliveryModeWeights)
	for _, f := range ds.Factories {
		for _, r := range ds.Regions {
			ds.DeliveryRoutes = append(ds.DeliveryRoutes, DeliveryRoute{
				FactoryID:  f.ID,
				RegionID:   r.ID,
				DistanceKm: routeDistance(cfg, rng, f.Lat, f.Lon, r.Lat, r.Lon),
				ModeID:     ds.TransportModes[weightedChoice(rng, deliveryWeights)].ID,
			})
		}
	}

	return ds, nil
}

// generateModes returns the canonical truck/rail/ship/air table, extended
// with synthetic modes when more than four are requested.
func generateModes(n int, rng *rand.Rand) []TransportMode {
	var modes []TransportMode
	for i := 0; i < n && i < len(CanonicalModeOrder); i++ {
		name := CanonicalModeOrder[i]
		modes = append(modes, TransportMode{
			ID:             name,
			EmissionFactor: DefaultTransportFactors[name],
			CostFactor:     DefaultTransportCosts[name],
		})
	}
	for i := len(modes); i < n; i++ {
		modes = append(modes, TransportMode{
			ID:             fmt.Sprintf("mode%d", i+1),
			EmissionFactor: round4(uniform(rng, 0.01, 0.7)),
			CostFactor:     round4(uniform(rng, 0.02, 0.9)),
		})
	}
	return modes
}

func routeDistance(cfg GenConfig, rng *rand.Rand, lat1, lon1, lat2, lon2 float64) float64 {
	if cfg.DistanceModel == DistanceUniform {
		return round2(uniform(rng, cfg.MinDistanceKm, cfg.MaxDistanceKm))
	}
	return round2(HaversineKm(lat1, lon1, lat2, lon2))
}

func modeWeights(modes []TransportMode, canonical []float64) []float64 {
	if len(modes) == len(canonical) {
		return canonical
	}
	w := make([]float64, len(modes))
	for i := range w {
		w[i] = 1.0
	}
	return w
}

func weightedChoice(rng *rand.Rand, weights []float64) int {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	r := rng.Float64() * total
	for i, w := range weights {
		r -= w
		if r < 0 {
			return i
		}
	}
	return len(weights) - 1
}

func randomPointInEurope(rng *rand.Rand) (lat, lon float64) {
	lat = uniform(rng, euLatMin, euLatMax)
	lon = uniform(rng, euLonMin, euLonMax)
	return lat, lon
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
