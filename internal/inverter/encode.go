// Package inverter forwards battery pack records to an inverter.
package inverter

import (
	"github.com/jonamat/go-bms-bridge/pkg/battery"
)

// Encode converts a pack into the holding register image.
// No IO. No side effects.
func Encode(p *battery.Pack) []uint16 {
	regs := make([]uint16, RegisterCount)

	regs[RegPackVoltage] = clampU16(p.PackVoltage)
	regs[RegPackCurrent] = signed(p.PackCurrent)
	regs[RegSOC] = clampU16(p.PackSOC)
	regs[RegSOH] = clampU16(p.PackSOH)

	regs[RegMaxChargeVoltage] = clampU16(p.MaxPackVoltageLimit)
	regs[RegMinDischargeVoltage] = clampU16(p.MinPackVoltageLimit)
	regs[RegMaxChargeCurrent] = clampU16(p.MaxPackChargeCurrent)
	regs[RegMaxDischargeCurrent] = clampU16(p.MaxPackDischargeCurrent)
	regs[RegRemainingCapacity] = clampU16(p.RemainingCapacitymAh / 100)
	regs[RegRatedCapacity] = clampU16(p.RatedCapacitymAh / 100)

	regs[RegTempMax] = signed(p.TempMax)
	regs[RegTempMin] = signed(p.TempMin)
	regs[RegTempAverage] = signed(p.TempAverage)

	regs[RegMaxCellVoltage] = clampU16(p.MaxCellmV)
	regs[RegMinCellVoltage] = clampU16(p.MinCellmV)
	regs[RegCellDiff] = clampU16(p.CellDiffmV)
	regs[RegNumberOfCells] = clampU16(p.NumberOfCells)
	regs[RegCycles] = clampU16(p.BMSCycles)
	regs[RegHeartBeat] = clampU16(p.BMSHeartBeat)

	regs[RegFlags] = flags(p)
	regs[RegAlarmLevel] = uint16(p.Alarms.Highest())
	for i, n := range p.Alarms.Each() {
		if *n.Level != battery.AlarmNone {
			regs[RegAlarmBits+i/16] |= 1 << (i % 16)
		}
	}

	return regs
}

func flags(p *battery.Pack) uint16 {
	var f uint16
	set := func(cond bool, bit uint16) {
		if cond {
			f |= bit
		}
	}
	set(p.ChargeMOSState, FlagChargeMOS)
	set(p.DischargeMOSState, FlagDischargeMOS)
	set(p.ChargeDischargeStatus == battery.Charging, FlagCharging)
	set(p.ChargeDischargeStatus == battery.Discharging, FlagDischarging)
	set(p.ForceCharge, FlagForceCharge)
	set(p.ChargeForbidden, FlagChargeForbidden)
	set(p.DischargeForbidden, FlagDischargeForbidden)
	set(p.CellBalanceActive, FlagBalancing)
	set(p.ChargeState, FlagChargerConnected)
	set(p.LoadState, FlagLoadConnected)
	return f
}

func clampU16(v int) uint16 {
	if v < 0 {
		return 0
	}
	if v > 0xffff {
		return 0xffff
	}
	return uint16(v)
}

func signed(v int) uint16 {
	if v < -0x8000 {
		v = -0x8000
	}
	if v > 0x7fff {
		v = 0x7fff
	}
	return uint16(int16(v))
}

// packRegisters encodes registers big-endian for the wire.
func packRegisters(regs []uint16) []byte {
	out := make([]byte, len(regs)*2)
	for i, r := range regs {
		out[2*i] = byte(r >> 8)
		out[2*i+1] = byte(r)
	}
	return out
}
