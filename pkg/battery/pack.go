// Package battery holds the canonical battery pack record shared between
// BMS decoders and inverter encoders.
//
// All fixed-point values are stored as scaled integers. The unit and scale
// of every field is given in its comment.
package battery

import "fmt"

const (
	// MaxCells is the capacity of the per-cell arrays.
	MaxCells = 48
	// MaxTempSensors is the capacity of the temperature sensor array.
	MaxTempSensors = 16
	// DigitalIOs is the number of digital in/out states reported by a BMS.
	DigitalIOs = 8
)

// Chemistry of the cells.
type Chemistry int

const (
	LithiumIron Chemistry = iota
	TernaryLithium
	LithiumTitanate
)

func (c Chemistry) String() string {
	switch c {
	case LithiumIron:
		return "lifepo4"
	case TernaryLithium:
		return "ternary"
	case LithiumTitanate:
		return "lto"
	}
	return fmt.Sprintf("chemistry(%d)", int(c))
}

// ChargeStatus is the charge/discharge direction of the pack.
type ChargeStatus int

const (
	Stationary ChargeStatus = iota
	Charging
	Discharging
)

func (s ChargeStatus) String() string {
	switch s {
	case Stationary:
		return "stationary"
	case Charging:
		return "charging"
	case Discharging:
		return "discharging"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Pack is the decoded telemetry of one physical battery pack.
//
// A decoder fills a Pack once per polling cycle, an encoder reads it. Array
// entries past NumberOfCells / NumOfTempSensors are zero and carry no data.
type Pack struct {
	// Identity and topology
	Type                  Chemistry
	RatedCapacitymAh      int // 1mAh per cell
	RatedCellmV           int // 1mV nominal cell voltage
	ModulesInSeries       int
	ModuleNumberOfCells   int
	ModuleVoltage         int // 1V
	ModuleRatedCapacityAh int // 1Ah
	NumberOfCells         int
	NumOfTempSensors      int

	// Limits
	MaxPackVoltageLimit     int // 0.1V
	MinPackVoltageLimit     int // 0.1V
	MaxPackChargeCurrent    int // 0.1A
	MaxPackDischargeCurrent int // 0.1A

	// Live metrics
	PackVoltage          int // 0.1V
	PackCurrent          int // 0.1A, positive = charging
	PackSOC              int // 0.1%
	PackSOH              int // 0.1%
	RemainingCapacitymAh int

	// Cell extrema
	MaxCellmV   int
	MaxCellVNum int
	MinCellmV   int
	MinCellVNum int
	CellDiffmV  int

	// Temperature extrema
	TempMax        int // 0.1C
	TempMin        int // 0.1C
	TempAverage    int // 0.1C
	TempMaxCellNum int
	TempMinCellNum int

	// Module extrema
	MaxModulemV      int
	MinModulemV      int
	MaxModulemVNum   int
	MinModulemVNum   int
	MaxModuleTemp    int // 0.1C
	MinModuleTemp    int // 0.1C
	MaxModuleTempNum int
	MinModuleTempNum int

	// Status flags
	ChargeDischargeStatus ChargeStatus
	ChargeMOSState        bool
	DischargeMOSState     bool
	ForceCharge           bool
	ChargeForbidden       bool
	DischargeForbidden    bool
	ChargeState           bool // charger connected
	LoadState             bool // load connected
	DIO                   [DigitalIOs]bool
	BMSCycles             int
	BMSHeartBeat          int

	// Cell detail
	CellVmV           [MaxCells]int       // 1mV
	CellTemperature   [MaxTempSensors]int // 0.1C
	CellBalanceState  [MaxCells]bool
	CellBalanceActive bool

	Alarms Alarms

	ManufacturerCode string
	HardwareVersion  string
	SoftwareVersion  string
}

// Reset zeroes the record so it can be reused for the next polling cycle.
func (p *Pack) Reset() {
	*p = Pack{}
}

// Cells returns the voltages of the active cells.
func (p *Pack) Cells() []int {
	return p.CellVmV[:clamp(p.NumberOfCells, MaxCells)]
}

// Temperatures returns the readings of the active temperature sensors.
func (p *Pack) Temperatures() []int {
	return p.CellTemperature[:clamp(p.NumOfTempSensors, MaxTempSensors)]
}

// DeriveCellStats recomputes the cell and temperature extrema from the
// active entries of the cell arrays. Cell and sensor numbers are 1-based.
func (p *Pack) DeriveCellStats() {
	cells := p.Cells()
	if len(cells) > 0 {
		p.MaxCellmV, p.MaxCellVNum = cells[0], 1
		p.MinCellmV, p.MinCellVNum = cells[0], 1
		for i, mv := range cells[1:] {
			if mv > p.MaxCellmV {
				p.MaxCellmV, p.MaxCellVNum = mv, i+2
			}
			if mv < p.MinCellmV {
				p.MinCellmV, p.MinCellVNum = mv, i+2
			}
		}
		p.CellDiffmV = p.MaxCellmV - p.MinCellmV
	}

	p.CellBalanceActive = false
	for _, b := range p.CellBalanceState[:len(cells)] {
		if b {
			p.CellBalanceActive = true
			break
		}
	}

	temps := p.Temperatures()
	if len(temps) > 0 {
		sum := 0
		p.TempMax, p.TempMaxCellNum = temps[0], 1
		p.TempMin, p.TempMinCellNum = temps[0], 1
		for i, t := range temps {
			sum += t
			if t > p.TempMax {
				p.TempMax, p.TempMaxCellNum = t, i+1
			}
			if t < p.TempMin {
				p.TempMin, p.TempMinCellNum = t, i+1
			}
		}
		p.TempAverage = sum / len(temps)
	}
}

// Validate checks the record invariants.
func (p *Pack) Validate() error {
	if p.NumberOfCells < 0 || p.NumberOfCells > MaxCells {
		return fmt.Errorf("battery: cell count %d out of range 0..%d", p.NumberOfCells, MaxCells)
	}
	if p.NumOfTempSensors < 0 || p.NumOfTempSensors > MaxTempSensors {
		return fmt.Errorf("battery: temperature sensor count %d out of range 0..%d", p.NumOfTempSensors, MaxTempSensors)
	}
	if p.MaxCellmV < p.MinCellmV {
		return fmt.Errorf("battery: max cell voltage %dmV below min %dmV", p.MaxCellmV, p.MinCellmV)
	}
	if p.TempMax < p.TempMin {
		return fmt.Errorf("battery: max temperature %d below min %d", p.TempMax, p.TempMin)
	}
	return nil
}

func clamp(n, limit int) int {
	if n < 0 {
		return 0
	}
	if n > limit {
		return limit
	}
	return n
}
