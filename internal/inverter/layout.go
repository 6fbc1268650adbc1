package inverter

// Holding register image layout.
// Scaled values follow battery.Pack units; signed values are two's complement.

// ---- IMAGE GEOMETRY ----

// RegisterCount is the fixed number of registers written per cycle.
const RegisterCount = 24

// ---- LIVE METRICS ----

const (
	RegPackVoltage = 0 // 0.1V
	RegPackCurrent = 1 // 0.1A, signed, positive = charging
	RegSOC         = 2 // 0.1%
	RegSOH         = 3 // 0.1%
)

// ---- LIMITS ----

const (
	RegMaxChargeVoltage    = 4 // 0.1V
	RegMinDischargeVoltage = 5 // 0.1V
	RegMaxChargeCurrent    = 6 // 0.1A
	RegMaxDischargeCurrent = 7 // 0.1A
	RegRemainingCapacity   = 8 // 0.1Ah
	RegRatedCapacity       = 9 // 0.1Ah
)

// ---- TEMPERATURES (0.1C, signed) ----

const (
	RegTempMax     = 10
	RegTempMin     = 11
	RegTempAverage = 12
)

// ---- CELLS ----

const (
	RegMaxCellVoltage = 13 // 1mV
	RegMinCellVoltage = 14 // 1mV
	RegCellDiff       = 15 // 1mV
	RegNumberOfCells  = 16
	RegCycles         = 17
	RegHeartBeat      = 18
)

// ---- STATUS ----

// RegFlags holds the FlagXxx bits.
const RegFlags = 19

// RegAlarmLevel holds the highest battery.AlarmLevel.
const RegAlarmLevel = 20

// RegAlarmBits is the first of AlarmRegisters registers with one bit per
// alarm condition, in battery.Alarms.Each order, low bit first.
const RegAlarmBits = 21

// AlarmRegisters is the number of alarm bit registers.
const AlarmRegisters = 3

const (
	FlagChargeMOS uint16 = 1 << iota
	FlagDischargeMOS
	FlagCharging
	FlagDischarging
	FlagForceCharge
	FlagChargeForbidden
	FlagDischargeForbidden
	FlagBalancing
	FlagChargerConnected
	FlagLoadConnected
)
