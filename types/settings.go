package types

import "fmt"

// Rail names a supply node and its voltage.
type Rail struct {
	Name    string  `yaml:"name"`
	Voltage float64 `yaml:"voltage"`
}

// Thresholds is a pair of waveform trip points expressed as fractions of the
// supply voltage.
type Thresholds struct {
	Low  float64 `yaml:"low"`
	High float64 `yaml:"high"`
}

// Settings carries the library-wide characterization parameters shared by
// every cell: supply rails, measurement thresholds, unit scales and the
// simulator to drive.
type Settings struct {
	// Simulator is the path to the external simulator binary. The CLI can
	// override whatever the library file declares.
	Simulator string `yaml:"simulator"`

	Temperature float64 `yaml:"temperature"`

	VDD   Rail  `yaml:"vdd"`
	VSS   Rail  `yaml:"vss"`
	NWell *Rail `yaml:"nwell,omitempty"`
	PWell *Rail `yaml:"pwell,omitempty"`

	// LogicThresholds defines the delay/transition trip window. The sweep
	// engine derives the slew magnitude from its width.
	LogicThresholds Thresholds `yaml:"logic_thresholds"`
	// EnergyThresholds defines the crossings located by the windowing pass.
	EnergyThresholds Thresholds `yaml:"energy_thresholds"`
	// EnergyScale optionally scales internal energy by a measurement
	// threshold fraction. Zero disables scaling.
	EnergyScale float64 `yaml:"energy_scale,omitempty"`
	// EnergyTimeExtent is the default window length in seconds handed to the
	// windowing pass, before the measured window replaces it.
	EnergyTimeExtent float64 `yaml:"energy_time_extent,omitempty"`

	// TimeUnit converts declared slew values to seconds; CapacitanceUnit
	// converts declared load values to farads.
	TimeUnit        float64 `yaml:"time_unit"`
	CapacitanceUnit float64 `yaml:"capacitance_unit"`
}

// SetDefaults fills unset optional fields with conventional values.
func (s *Settings) SetDefaults() {
	if s.VDD.Name == "" {
		s.VDD.Name = "VDD"
	}
	if s.VSS.Name == "" {
		s.VSS.Name = "VSS"
	}
	if s.Temperature == 0 {
		s.Temperature = 25
	}
	if s.LogicThresholds == (Thresholds{}) {
		s.LogicThresholds = Thresholds{Low: 0.2, High: 0.8}
	}
	if s.EnergyThresholds == (Thresholds{}) {
		s.EnergyThresholds = Thresholds{Low: 0.1, High: 0.9}
	}
	if s.EnergyTimeExtent == 0 {
		s.EnergyTimeExtent = 10e-9
	}
	if s.TimeUnit == 0 {
		s.TimeUnit = 1e-9
	}
	if s.CapacitanceUnit == 0 {
		s.CapacitanceUnit = 1e-12
	}
}

// Validate checks the settings for internal consistency.
func (s *Settings) Validate() error {
	if s.Simulator == "" {
		return fmt.Errorf("simulator binary is required")
	}
	if s.VDD.Voltage == s.VSS.Voltage {
		return fmt.Errorf("vdd and vss voltages must differ, both are %v", s.VDD.Voltage)
	}
	if err := s.LogicThresholds.check("logic"); err != nil {
		return err
	}
	if err := s.EnergyThresholds.check("energy"); err != nil {
		return err
	}
	if s.EnergyScale < 0 || s.EnergyScale > 1 {
		return fmt.Errorf("energy_scale must be within [0, 1], got %v", s.EnergyScale)
	}
	if s.EnergyTimeExtent <= 0 {
		return fmt.Errorf("energy_time_extent must be positive, got %v", s.EnergyTimeExtent)
	}
	if s.TimeUnit <= 0 {
		return fmt.Errorf("time_unit must be positive, got %v", s.TimeUnit)
	}
	if s.CapacitanceUnit <= 0 {
		return fmt.Errorf("capacitance_unit must be positive, got %v", s.CapacitanceUnit)
	}
	return nil
}

func (t Thresholds) check(kind string) error {
	if t.Low <= 0 || t.High >= 1 || t.Low >= t.High {
		return fmt.Errorf("%s thresholds must satisfy 0 < low < high < 1, got low=%v high=%v", kind, t.Low, t.High)
	}
	return nil
}
