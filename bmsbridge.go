// Package bmsbridge exposes the frame port, the serial transport, the Daly
// decoder and the battery record for use outside this module.
package bmsbridge

import (
	_battery "github.com/jonamat/go-bms-bridge/pkg/battery"

	_bms "github.com/jonamat/go-bms-bridge/internal/bms"
	_port "github.com/jonamat/go-bms-bridge/internal/port"
	_serialport "github.com/jonamat/go-bms-bridge/internal/serialport"
)

type Port = _port.Port
type PortConfig = _port.Config
type Validator = _port.Validator

var AcceptAll = _port.AcceptAll

var (
	ErrFrameLength = _port.ErrFrameLength
	ErrNotOpen     = _port.ErrNotOpen
	ErrOpenFailed  = _port.ErrOpenFailed
)

type SerialPort = _serialport.Port
type SerialConfig = _serialport.Config
type SerialDriver = _serialport.Driver
type SerialStats = _serialport.Stats

var NewSerialPort = _serialport.New
var TarmDriver = _serialport.TarmDriver
var BugstDriver = _serialport.BugstDriver
var ListPorts = _serialport.ListPorts

type DalyBMS = _bms.DalyBMS
type DalyOptions = _bms.Options

var NewDalyBMS = _bms.New

const DalyFrameLength = _bms.FrameLength

type Pack = _battery.Pack
type Alarms = _battery.Alarms
