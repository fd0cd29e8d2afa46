package cfo

import (
	"fmt"

	"git.solver4all.com/azaryc2s/gorobi/gurobi"
)

// GurobiBackend solves flow LPs with Gurobi. The zero value logs to
// flow-lp.log in the working directory.
type GurobiBackend struct {
	LogPath string
}

func NewGurobiBackend() *GurobiBackend {
	return &GurobiBackend{LogPath: "flow-lp.log"}
}

// Solve loads the formulation into a fresh Gurobi model and maps the
// solver status back: OPTIMAL yields an optimal result, INF_OR_UNBD an
// infeasible one, anything else the best incumbent with Optimal unset.
func (b *GurobiBackend) Solve(lp *FlowLP) (*FlowResult, error) {
	env, err := gurobi.LoadEnv(b.LogPath)
	if err != nil {
		return nil, fmt.Errorf("loading gurobi env: %w", err)
	}
	defer env.Free()
	env.SetIntParam("LogToConsole", int32(0))

	model, err := env.NewModel("flow", 0, nil, nil, nil, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("creating model: %w", err)
	}
	defer model.Free()

	for i := 0; i < lp.VarCount; i++ {
		err = model.AddVar(nil, nil, lp.Objective[i], 0.0, lp.VarUpperBound, gurobi.CONTINUOUS, lp.VarNames[i])
		if err != nil {
			return nil, fmt.Errorf("adding variable %s: %w", lp.VarNames[i], err)
		}
	}

	err = model.SetIntAttr(gurobi.INT_ATTR_MODELSENSE, gurobi.MINIMIZE)
	if err != nil {
		return nil, fmt.Errorf("setting model sense: %w", err)
	}

	for _, c := range lp.Constraints {
		err = model.AddConstr(c.Ind, c.Val, gurobiSense(c.Sense), c.RHS, c.Name)
		if err != nil {
			return nil, fmt.Errorf("adding constraint %s: %w", c.Name, err)
		}
	}

	err = model.Optimize()
	if err != nil {
		return nil, fmt.Errorf("optimizing: %w", err)
	}

	optimstatus, err := model.GetIntAttr(gurobi.INT_ATTR_STATUS)
	if err != nil {
		return nil, fmt.Errorf("reading status: %w", err)
	}
	if optimstatus == gurobi.INF_OR_UNBD {
		return &FlowResult{Infeasible: true}, nil
	}

	values, err := model.GetDblAttrArray(gurobi.DBL_ATTR_X, 0, int32(lp.VarCount))
	if err != nil {
		// A non-optimal status without an incumbent means the solver
		// proved the model has no solution to report.
		if optimstatus != gurobi.OPTIMAL {
			return &FlowResult{Infeasible: true}, nil
		}
		return nil, fmt.Errorf("reading solution: %w", err)
	}
	return lp.NewFlowResult(values, optimstatus == gurobi.OPTIMAL), nil
}

func gurobiSense(sense int8) int8 {
	switch sense {
	case Equal:
		return gurobi.EQUAL
	case GreaterEqual:
		return gurobi.GREATER_EQUAL
	default:
		return gurobi.LESS_EQUAL
	}
}
