package main

import (
	"flag"

	cfo "github.com/ajena12/carbon-footprint-optimizer"
	"go.uber.org/zap"
)

func main() {
	dataDir := flag.String("data_dir", "data", "Directory holding the dataset CSV files")
	modelDir := flag.String("model_dir", "outputs/model", "Directory for the trained model and metrics")
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

	samples, err := cfo.BuildTrainingSet(ds)
	if err != nil {
		logger.Fatal("building training set", zap.Error(err))
	}
	model, metrics, err := cfo.FitEmissionModel(samples)
	if err != nil {
		logger.Fatal("fitting model", zap.Error(err))
	}
	if err := cfo.SaveEmissionModel(*modelDir, model, metrics); err != nil {
		logger.Fatal("saving model", zap.String("model_dir", *modelDir), zap.Error(err))
	}

	logger.Info("model trained",
		zap.String("model_dir", *modelDir),
		zap.Int("samples", metrics.N),
		zap.Float64("mae", metrics.MAE),
		zap.Float64("r2", metrics.R2))
}
