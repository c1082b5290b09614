package types

// Metric names one scalar produced by characterization. The raw names match
// the measurement identifiers the simulation oracle reports; the derived
// names are computed by the aggregator from raw values.
type Metric string

const (
	// Raw measurements.
	MetricEnergyStart Metric = "energy_start"
	MetricEnergyEnd   Metric = "energy_end"
	MetricPropInOut   Metric = "prop_in_out"
	MetricTransOut    Metric = "trans_out"
	MetricQInDyn      Metric = "q_in_dyn"
	MetricQOutDyn     Metric = "q_out_dyn"
	MetricQVddDyn     Metric = "q_vdd_dyn"
	MetricQVssDyn     Metric = "q_vss_dyn"
	MetricIInLeak     Metric = "i_in_leak"
	MetricIVddLeak    Metric = "i_vdd_leak"
	MetricIVssLeak    Metric = "i_vss_leak"

	// Derived metrics.
	MetricInternalEnergy   Metric = "internal_energy"
	MetricInputEnergy      Metric = "input_energy"
	MetricInputCapacitance Metric = "input_capacitance"
	MetricLeakagePower     Metric = "leakage_power"
)

// WindowPassMetrics is what the windowing pass reports: the threshold
// crossings bounding the energy window, plus the timing figures the deck
// measures on every run.
func WindowPassMetrics() []Metric {
	return []Metric{MetricPropInOut, MetricTransOut, MetricEnergyStart, MetricEnergyEnd}
}

// MeasurePassMetrics is what the measurement pass reports once the energy
// window is fixed.
func MeasurePassMetrics() []Metric {
	return []Metric{
		MetricPropInOut, MetricTransOut,
		MetricQInDyn, MetricQOutDyn, MetricQVddDyn, MetricQVssDyn,
		MetricIInLeak, MetricIVddLeak, MetricIVssLeak,
	}
}

// RawMetrics lists every raw measurement a completed grid point records.
func RawMetrics() []Metric {
	return []Metric{
		MetricEnergyStart, MetricEnergyEnd,
		MetricPropInOut, MetricTransOut,
		MetricQInDyn, MetricQOutDyn, MetricQVddDyn, MetricQVssDyn,
		MetricIInLeak, MetricIVddLeak, MetricIVssLeak,
	}
}

// DerivedMetrics lists the aggregator's outputs.
func DerivedMetrics() []Metric {
	return []Metric{
		MetricInternalEnergy, MetricInputEnergy,
		MetricInputCapacitance, MetricLeakagePower,
	}
}
