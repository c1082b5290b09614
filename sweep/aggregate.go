package sweep

import (
	"math"

	"github.com/cellchar/cellchar/harness"
	"github.com/cellchar/cellchar/types"
)

// aggregate computes the derived metrics for every grid point and writes
// them back into the table. Callers must not invoke it until the sweep has
// recorded every raw metric; a missing value fails the whole aggregation.
//
// The rail charge with the smaller magnitude is the internal/short-circuit
// component; the larger one charges the load. Leakage is corrected over the
// energy window using the average of the two rail currents.
func aggregate(t *harness.Table, settings types.Settings) error {
	vdd := settings.VDD.Voltage
	for _, p := range t.Pairs() {
		qIn, err := t.Value(p, types.MetricQInDyn)
		if err != nil {
			return err
		}
		qVdd, err := t.Value(p, types.MetricQVddDyn)
		if err != nil {
			return err
		}
		qVss, err := t.Value(p, types.MetricQVssDyn)
		if err != nil {
			return err
		}
		eStart, err := t.Value(p, types.MetricEnergyStart)
		if err != nil {
			return err
		}
		eEnd, err := t.Value(p, types.MetricEnergyEnd)
		if err != nil {
			return err
		}
		iVdd, err := t.Value(p, types.MetricIVddLeak)
		if err != nil {
			return err
		}
		iVss, err := t.Value(p, types.MetricIVssLeak)
		if err != nil {
			return err
		}

		meanLeak := (math.Abs(iVdd) + math.Abs(iVss)) / 2

		q := qVss
		if math.Abs(qVdd) < math.Abs(qVss) {
			q = qVdd
		}
		internalCharge := math.Abs(q) - (eEnd-eStart)*meanLeak
		internalEnergy := internalCharge * vdd
		if settings.EnergyScale > 0 {
			internalEnergy *= settings.EnergyScale
		}
		internalEnergy = math.Abs(internalEnergy)

		if err := t.Put(p, types.MetricInternalEnergy, internalEnergy); err != nil {
			return err
		}
		if err := t.Put(p, types.MetricInputEnergy, math.Abs(qIn)*vdd); err != nil {
			return err
		}
		if err := t.Put(p, types.MetricInputCapacitance, math.Abs(qIn)/vdd); err != nil {
			return err
		}
		if err := t.Put(p, types.MetricLeakagePower, meanLeak*vdd); err != nil {
			return err
		}
	}
	return nil
}

// Summary condenses one populated harness table. Delay is exposed both as
// the grid mean and the worst-case maximum; capacitance, transition, energy
// and leakage figures are grid means.
type Summary struct {
	Cell       string
	Arc        string
	GridPoints int

	MeanPropDelay      float64
	MaxPropDelay       float64
	MeanTransition     float64
	InputCapacitance   float64
	MeanInternalEnergy float64
	LeakagePower       float64
}

// Summarize reads the harness-level figures from a fully aggregated table.
func Summarize(h harness.Harness) (Summary, error) {
	t := h.Table()
	s := Summary{
		Cell:       h.CellName(),
		Arc:        h.Arc(),
		GridPoints: t.Size(),
	}

	var err error
	if s.MeanPropDelay, err = t.MeanOf(types.MetricPropInOut); err != nil {
		return Summary{}, err
	}
	if s.MaxPropDelay, err = t.MaxOf(types.MetricPropInOut); err != nil {
		return Summary{}, err
	}
	if s.MeanTransition, err = t.MeanOf(types.MetricTransOut); err != nil {
		return Summary{}, err
	}
	if s.InputCapacitance, err = t.MeanOf(types.MetricInputCapacitance); err != nil {
		return Summary{}, err
	}
	if s.MeanInternalEnergy, err = t.MeanOf(types.MetricInternalEnergy); err != nil {
		return Summary{}, err
	}
	if s.LeakagePower, err = t.MeanOf(types.MetricLeakagePower); err != nil {
		return Summary{}, err
	}
	return s, nil
}
