package battery

// AlarmLevel is the severity of one alarm condition.
type AlarmLevel uint8

const (
	AlarmNone AlarmLevel = iota
	AlarmWarning
	AlarmActive
)

func (l AlarmLevel) String() string {
	switch l {
	case AlarmNone:
		return "none"
	case AlarmWarning:
		return "warning"
	case AlarmActive:
		return "alarm"
	}
	return "unknown"
}

// Alarms holds the independent alarm conditions reported by a BMS.
type Alarms struct {
	CellVoltageHigh      AlarmLevel
	CellVoltageLow       AlarmLevel
	PackVoltageHigh      AlarmLevel
	PackVoltageLow       AlarmLevel
	ChargeTempHigh       AlarmLevel
	ChargeTempLow        AlarmLevel
	DischargeTempHigh    AlarmLevel
	DischargeTempLow     AlarmLevel
	ChargeCurrentHigh    AlarmLevel
	DischargeCurrentHigh AlarmLevel
	SOCHigh              AlarmLevel
	SOCLow               AlarmLevel
	CellVoltageDiffHigh  AlarmLevel
	TempDiffHigh         AlarmLevel

	ChargeMOSTempHigh           AlarmLevel
	DischargeMOSTempHigh        AlarmLevel
	ChargeMOSTempSensorFault    AlarmLevel
	DischargeMOSTempSensorFault AlarmLevel
	ChargeMOSAdhesion           AlarmLevel
	DischargeMOSAdhesion        AlarmLevel
	ChargeMOSOpenCircuit        AlarmLevel
	DischargeMOSOpenCircuit     AlarmLevel

	AFEAcquisitionFault        AlarmLevel
	VoltageCollectDropped      AlarmLevel
	TempSensorFault            AlarmLevel
	EEPROMFault                AlarmLevel
	RTCFault                   AlarmLevel
	PrechargeFailure           AlarmLevel
	CommunicationFault         AlarmLevel
	InternalCommunicationFault AlarmLevel
	CurrentModuleFault         AlarmLevel
	PackVoltageDetectFault     AlarmLevel
	ShortCircuit               AlarmLevel
	LowVoltageChargeForbidden  AlarmLevel
}

// Named is one alarm condition with its name, as returned by Each.
type Named struct {
	Name  string
	Level *AlarmLevel
}

// Each returns every condition in a fixed order. The Level pointers
// address the fields of a, so decoders can set them by table.
func (a *Alarms) Each() []Named {
	return []Named{
		{"cell_voltage_high", &a.CellVoltageHigh},
		{"cell_voltage_low", &a.CellVoltageLow},
		{"pack_voltage_high", &a.PackVoltageHigh},
		{"pack_voltage_low", &a.PackVoltageLow},
		{"charge_temp_high", &a.ChargeTempHigh},
		{"charge_temp_low", &a.ChargeTempLow},
		{"discharge_temp_high", &a.DischargeTempHigh},
		{"discharge_temp_low", &a.DischargeTempLow},
		{"charge_current_high", &a.ChargeCurrentHigh},
		{"discharge_current_high", &a.DischargeCurrentHigh},
		{"soc_high", &a.SOCHigh},
		{"soc_low", &a.SOCLow},
		{"cell_voltage_diff_high", &a.CellVoltageDiffHigh},
		{"temp_diff_high", &a.TempDiffHigh},
		{"charge_mos_temp_high", &a.ChargeMOSTempHigh},
		{"discharge_mos_temp_high", &a.DischargeMOSTempHigh},
		{"charge_mos_temp_sensor_fault", &a.ChargeMOSTempSensorFault},
		{"discharge_mos_temp_sensor_fault", &a.DischargeMOSTempSensorFault},
		{"charge_mos_adhesion", &a.ChargeMOSAdhesion},
		{"discharge_mos_adhesion", &a.DischargeMOSAdhesion},
		{"charge_mos_open_circuit", &a.ChargeMOSOpenCircuit},
		{"discharge_mos_open_circuit", &a.DischargeMOSOpenCircuit},
		{"afe_acquisition_fault", &a.AFEAcquisitionFault},
		{"voltage_collect_dropped", &a.VoltageCollectDropped},
		{"temp_sensor_fault", &a.TempSensorFault},
		{"eeprom_fault", &a.EEPROMFault},
		{"rtc_fault", &a.RTCFault},
		{"precharge_failure", &a.PrechargeFailure},
		{"communication_fault", &a.CommunicationFault},
		{"internal_communication_fault", &a.InternalCommunicationFault},
		{"current_module_fault", &a.CurrentModuleFault},
		{"pack_voltage_detect_fault", &a.PackVoltageDetectFault},
		{"short_circuit", &a.ShortCircuit},
		{"low_voltage_charge_forbidden", &a.LowVoltageChargeForbidden},
	}
}

// Active returns the names of all conditions above AlarmNone.
func (a *Alarms) Active() []string {
	var out []string
	for _, n := range a.Each() {
		if *n.Level != AlarmNone {
			out = append(out, n.Name)
		}
	}
	return out
}

// Highest returns the most severe level across all conditions.
func (a *Alarms) Highest() AlarmLevel {
	highest := AlarmNone
	for _, n := range a.Each() {
		if *n.Level > highest {
			highest = *n.Level
		}
	}
	return highest
}

// Any reports whether any condition is raised.
func (a *Alarms) Any() bool {
	return a.Highest() != AlarmNone
}
