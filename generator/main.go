package main

import (
	"flag"
	"fmt"
	"path/filepath"

	cfo "github.com/ajena12/carbon-footprint-optimizer"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	seeds   cfo.ArrayIntFlags
	periods cfo.ArrayStringFlags
)

func main() {
	flag.Var(&seeds, "seed", "Random seed; repeat to generate one dataset per seed")
	flag.Var(&periods, "period", "Demand period label; repeat for multiple periods")
	numSuppliers := flag.Int("num_suppliers", 15, "Number of suppliers")
	numFactories := flag.Int("num_factories", 5, "Number of factories")
	numRegions := flag.Int("num_regions", 10, "Number of demand regions")
	numModes := flag.Int("num_transport_modes", 4, "Number of transport modes")
	outDir := flag.String("out_dir", "data", "Directory for the generated CSV files")
	distanceModel := flag.String("distance_model", cfo.DistanceHaversine,
		"How route distances are derived: HAVERSINE from coordinates or UNIFORM from the km range")
	minKm := flag.Float64("min_distance_km", 50, "Lower bound of the km range for UNIFORM distances")
	maxKm := flag.Float64("max_distance_km", 3000, "Upper bound of the km range for UNIFORM distances")
	configPath := flag.String("config", "", "Optional config file overriding the generation defaults")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg := cfo.DefaultGenConfig()
	if *configPath != "" {
		if err := applyConfigFile(*configPath, &cfg); err != nil {
			logger.Fatal("reading config file", zap.String("path", *configPath), zap.Error(err))
		}
	}

	// Explicit flags win over the config file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "num_suppliers":
			cfg.NumSuppliers = *numSuppliers
		case "num_factories":
			cfg.NumFactories = *numFactories
		case "num_regions":
			cfg.NumRegions = *numRegions
		case "num_transport_modes":
			cfg.NumTransportModes = *numModes
		case "distance_model":
			cfg.DistanceModel = *distanceModel
		case "min_distance_km":
			cfg.MinDistanceKm = *minKm
		case "max_distance_km":
			cfg.MaxDistanceKm = *maxKm
		case "period":
			cfg.Periods = periods
		}
	})
	if len(seeds) == 0 {
		seeds = append(seeds, int(cfg.Seed))
	}

	for _, seed := range seeds {
		cfg.Seed = int64(seed)
		dir := *outDir
		if len(seeds) > 1 {
			dir = filepath.Join(*outDir, fmt.Sprintf("seed_%d", seed))
		}
		ds, err := cfo.Generate(cfg)
		if err != nil {
			logger.Fatal("generating dataset", zap.Int("seed", seed), zap.Error(err))
		}
		if err := cfo.WriteDataset(dir, ds); err != nil {
			logger.Fatal("writing dataset", zap.String("dir", dir), zap.Error(err))
		}
		logger.Info("dataset generated",
			zap.String("dir", dir),
			zap.Int("seed", seed),
			zap.Int("suppliers", len(ds.Suppliers)),
			zap.Int("factories", len(ds.Factories)),
			zap.Int("regions", len(ds.Regions)),
			zap.Int("supply_routes", len(ds.SupplyRoutes)),
			zap.Int("delivery_routes", len(ds.DeliveryRoutes)),
			zap.Float64("total_demand_tons", ds.TotalDemandTons()))
	}
}

func applyConfigFile(path string, cfg *cfo.GenConfig) error {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return err
	}
	if v.IsSet("num_suppliers") {
		cfg.NumSuppliers = v.GetInt("num_suppliers")
	}
	if v.IsSet("num_factories") {
		cfg.NumFactories = v.GetInt("num_factories")
	}
	if v.IsSet("num_regions") {
		cfg.NumRegions = v.GetInt("num_regions")
	}
	if v.IsSet("num_transport_modes") {
		cfg.NumTransportModes = v.GetInt("num_transport_modes")
	}
	if v.IsSet("seed") {
		cfg.Seed = v.GetInt64("seed")
	}
	if v.IsSet("periods") {
		cfg.Periods = v.GetStringSlice("periods")
	}
	if v.IsSet("distance_model") {
		cfg.DistanceModel = v.GetString("distance_model")
	}
	if v.IsSet("min_distance_km") {
		cfg.MinDistanceKm = v.GetFloat64("min_distance_km")
	}
	if v.IsSet("max_distance_km") {
		cfg.MaxDistanceKm = v.GetFloat64("max_distance_km")
	}
	if v.IsSet("min_supplier_capacity_tons") {
		cfg.MinSupplierCapacityTons = v.GetFloat64("min_supplier_capacity_tons")
	}
	if v.IsSet("max_supplier_capacity_tons") {
		cfg.MaxSupplierCapacityTons = v.GetFloat64("max_supplier_capacity_tons")
	}
	if v.IsSet("min_factory_capacity_tons") {
		cfg.MinFactoryCapacityTons = v.GetFloat64("min_factory_capacity_tons")
	}
	if v.IsSet("max_factory_capacity_tons") {
		cfg.MaxFactoryCapacityTons = v.GetFloat64("max_factory_capacity_tons")
	}
	if v.IsSet("min_region_demand_tons") {
		cfg.MinRegionDemandTons = v.GetFloat64("min_region_demand_tons")
	}
	if v.IsSet("max_region_demand_tons") {
		cfg.MaxRegionDemandTons = v.GetFloat64("max_region_demand_tons")
	}
	return nil
}
