package main

import (
	"flag"
	"os"
	"path/filepath"

	cfo "github.com/ajena12/carbon-footprint-optimizer"
	"github.com/jszwec/csvutil"
	"go.uber.org/zap"
)

// predictionRow compares the trained model against the estimator for one
// route at a reference load of one ton.
type predictionRow struct {
	RouteID           string  `csv:"route_id"`
	Stage             string  `csv:"stage"`
	ModeID            string  `csv:"mode_id"`
	DistanceKm        float64 `csv:"distance_km"`
	PredictedKgPerTon float64 `csv:"predicted_kg_per_ton"`
	EstimatedKgPerTon float64 `csv:"estimated_kg_per_ton"`
}

func main() {
	dataDir := flag.String("data_dir", "data", "Directory holding the dataset CSV files")
	modelDir := flag.String("model_dir", "outputs/model", "Directory holding the trained model")
	outPath := flag.String("out_path", "outputs/predictions.csv", "Where the prediction table is written")
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
	model, err := cfo.LoadEmissionModel(*modelDir)
	if err != nil {
		logger.Fatal("loading model", zap.String("model_dir", *modelDir), zap.Error(err))
	}

	samples, err := cfo.BuildTrainingSet(ds)
	if err != nil {
		logger.Fatal("building route samples", zap.Error(err))
	}
	rows := make([]predictionRow, 0, len(samples))
	for _, s := range samples {
		pred, err := model.Predict(s.DistanceKm, s.ModeID, s.Stage)
		if err != nil {
			logger.Fatal("predicting", zap.String("mode_id", s.ModeID), zap.Error(err))
		}
		rows = append(rows, predictionRow{
			RouteID:           s.RouteID,
			Stage:             s.Stage,
			ModeID:            s.ModeID,
			DistanceKm:        s.DistanceKm,
			PredictedKgPerTon: pred,
			EstimatedKgPerTon: s.EmissionsKg,
		})
	}

	if dir := filepath.Dir(*outPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.Fatal("creating output dir", zap.String("dir", dir), zap.Error(err))
		}
	}
	data, err := csvutil.Marshal(rows)
	if err != nil {
		logger.Fatal("marshaling predictions", zap.Error(err))
	}
	if err := os.WriteFile(*outPath, data, 0644); err != nil {
		logger.Fatal("writing predictions", zap.String("path", *outPath), zap.Error(err))
	}
	logger.Info("predictions saved", zap.String("path", *outPath), zap.Int("routes", len(rows)))
}
