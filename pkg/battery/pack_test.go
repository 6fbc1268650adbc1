package battery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveCellStats(t *testing.T) {
	var p Pack
	p.NumberOfCells = 4
	copy(p.CellVmV[:], []int{3301, 3345, 3290, 3310})
	// trailing entries beyond the active count must be ignored
	p.CellVmV[10] = 4200
	p.NumOfTempSensors = 2
	copy(p.CellTemperature[:], []int{215, 240})
	p.CellBalanceState[1] = true

	p.DeriveCellStats()

	assert.Equal(t, 3345, p.MaxCellmV)
	assert.Equal(t, 2, p.MaxCellVNum)
	assert.Equal(t, 3290, p.MinCellmV)
	assert.Equal(t, 3, p.MinCellVNum)
	assert.Equal(t, 55, p.CellDiffmV)
	assert.True(t, p.CellBalanceActive)

	assert.Equal(t, 240, p.TempMax)
	assert.Equal(t, 2, p.TempMaxCellNum)
	assert.Equal(t, 215, p.TempMin)
	assert.Equal(t, 1, p.TempMinCellNum)
	assert.Equal(t, 227, p.TempAverage)

	require.NoError(t, p.Validate())
}

func TestDeriveCellStatsNoCells(t *testing.T) {
	var p Pack
	p.DeriveCellStats()
	assert.Zero(t, p.MaxCellmV)
	assert.False(t, p.CellBalanceActive)
	assert.NoError(t, p.Validate())
}

func TestValidateRejectsInvertedExtrema(t *testing.T) {
	p := Pack{MaxCellmV: 3200, MinCellmV: 3300}
	assert.Error(t, p.Validate())

	p = Pack{TempMax: 100, TempMin: 200}
	assert.Error(t, p.Validate())

	p = Pack{NumberOfCells: MaxCells + 1}
	assert.Error(t, p.Validate())
}

func TestCellsClampsToCapacity(t *testing.T) {
	p := Pack{NumberOfCells: 100, NumOfTempSensors: -1}
	assert.Len(t, p.Cells(), MaxCells)
	assert.Empty(t, p.Temperatures())
}

func TestReset(t *testing.T) {
	p := Pack{PackVoltage: 532, ManufacturerCode: "DL"}
	p.Alarms.SOCLow = AlarmWarning
	p.Reset()
	assert.Equal(t, Pack{}, p)
}

func TestAlarms(t *testing.T) {
	var a Alarms
	assert.False(t, a.Any())
	assert.Empty(t, a.Active())

	a.CellVoltageHigh = AlarmWarning
	a.ShortCircuit = AlarmActive

	assert.True(t, a.Any())
	assert.Equal(t, AlarmActive, a.Highest())
	assert.Equal(t, []string{"cell_voltage_high", "short_circuit"}, a.Active())
}

func TestStringers(t *testing.T) {
	assert.Equal(t, "charging", Charging.String())
	assert.Equal(t, "lifepo4", LithiumIron.String())
	assert.Equal(t, "warning", AlarmWarning.String())
	assert.Equal(t, "status(9)", ChargeStatus(9).String())
}
