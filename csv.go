package cfo

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jszwec/csvutil"
)

// Dataset file names, one flat CSV per entity table.
const (
	SuppliersFile      = "suppliers.csv"
	FactoriesFile      = "factories.csv"
	RegionsFile        = "regions.csv"
	TransportModesFile = "transport_modes.csv"
	SupplyRoutesFile   = "routes_sup_to_fac.csv"
	DeliveryRoutesFile = "routes_fac_to_reg.csv"
	DemandFile         = "demand.csv"
	ResultsFile        = "optimization_results.csv"
)

// WriteDataset writes all entity tables of ds into dir, creating it if
// needed. Output is deterministic for a deterministic dataset.
func WriteDataset(dir string, ds *Dataset) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	files := []struct {
		name string
		v    interface{}
	}{
		{SuppliersFile, ds.Suppliers},
		{FactoriesFile, ds.Factories},
		{RegionsFile, ds.Regions},
		{TransportModesFile, ds.TransportModes},
		{SupplyRoutesFile, ds.SupplyRoutes},
		{DeliveryRoutesFile, ds.DeliveryRoutes},
		{DemandFile, ds.Demands},
	}
	for _, f := range files {
		if err := writeCSV(filepath.Join(dir, f.name), f.v); err != nil {
			return err
		}
	}
	return nil
}

// LoadDataset reads all entity tables from dir and validates referential
// integrity. A route or demand row referencing a missing id is fatal.
func LoadDataset(dir string) (*Dataset, error) {
	ds := &Dataset{}
	if err := readCSV(filepath.Join(dir, SuppliersFile), &ds.Suppliers); err != nil {
		return nil, err
	}
	if err := readCSV(filepath.Join(dir, FactoriesFile), &ds.Factories); err != nil {
		return nil, err
	}
	if err := readCSV(filepath.Join(dir, RegionsFile), &ds.Regions); err != nil {
		return nil, err
	}
	if err := readCSV(filepath.Join(dir, TransportModesFile), &ds.TransportModes); err != nil {
		return nil, err
	}
	if err := readCSV(filepath.Join(dir, SupplyRoutesFile), &ds.SupplyRoutes); err != nil {
		return nil, err
	}
	if err := readCSV(filepath.Join(dir, DeliveryRoutesFile), &ds.DeliveryRoutes); err != nil {
		return nil, err
	}
	if err := readCSV(filepath.Join(dir, DemandFile), &ds.Demands); err != nil {
		return nil, err
	}
	if err := ValidateDataset(ds); err != nil {
		return nil, err
	}
	return ds, nil
}

// ValidateDataset checks every foreign key in the route and demand tables.
func ValidateDataset(ds *Dataset) error {
	suppliers := make(map[string]bool, len(ds.Suppliers))
	for _, s := range ds.Suppliers {
		suppliers[s.ID] = true
	}
	factories := make(map[string]bool, len(ds.Factories))
	for _, f := range ds.Factories {
		factories[f.ID] = true
	}
	regions := make(map[string]bool, len(ds.Regions))
	for _, r := range ds.Regions {
		regions[r.ID] = true
	}
	modes := make(map[string]bool, len(ds.TransportModes))
	for _, m := range ds.TransportModes {
		modes[m.ID] = true
	}

	for i, r := range ds.SupplyRoutes {
		if !suppliers[r.SupplierID] {
			return fmt.Errorf("%s row %d: unknown supplier id %q", SupplyRoutesFile, i+2, r.SupplierID)
		}
		if !factories[r.FactoryID] {
			return fmt.Errorf("%s row %d: unknown factory id %q", SupplyRoutesFile, i+2, r.FactoryID)
		}
		if !modes[r.ModeID] {
			return fmt.Errorf("%s row %d: unknown mode id %q", SupplyRoutesFile, i+2, r.ModeID)
		}
	}
	for i, r := range ds.DeliveryRoutes {
		if !factories[r.FactoryID] {
			return fmt.Errorf("%s row %d: unknown factory id %q", DeliveryRoutesFile, i+2, r.FactoryID)
		}
		if !regions[r.RegionID] {
			return fmt.Errorf("%s row %d: unknown region id %q", DeliveryRoutesFile, i+2, r.RegionID)
		}
		if !modes[r.ModeID] {
			return fmt.Errorf("%s row %d: unknown mode id %q", DeliveryRoutesFile, i+2, r.ModeID)
		}
	}
	for i, d := range ds.Demands {
		if !regions[d.RegionID] {
			return fmt.Errorf("%s row %d: unknown region id %q", DemandFile, i+2, d.RegionID)
		}
	}
	return nil
}

// WriteFlowResults writes the optimizer's flow table to path.
func WriteFlowResults(path string, flows []FlowRow) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return writeCSV(path, flows)
}

// LoadFlowResults reads a flow table written by WriteFlowResults.
func LoadFlowResults(path string) ([]FlowRow, error) {
	var flows []FlowRow
	if err := readCSV(path, &flows); err != nil {
		return nil, err
	}
	return flows, nil
}

func writeCSV(path string, v interface{}) error {
	data, err := csvutil.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func readCSV(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := csvutil.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}
