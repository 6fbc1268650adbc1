package registry

import (
	"github.com/rs/zerolog"

	"github.com/jonamat/go-bms-bridge/internal/bms"
	"github.com/jonamat/go-bms-bridge/internal/inverter"
	"github.com/jonamat/go-bms-bridge/internal/port"
	"github.com/jonamat/go-bms-bridge/internal/serialport"
)

// BMS describes a decoder: the frame length its port must assemble and
// a constructor on that port.
type BMS struct {
	FrameLength int
	New         func(p port.Port, opts bms.Options, log zerolog.Logger) bms.Reader
}

// Inverter builds a writer from its configuration.
type Inverter func(cfg inverter.Config, log zerolog.Logger) (inverter.Writer, error)

// Set groups the registries consulted at startup.
type Set struct {
	BMS       *Registry[BMS]
	Inverters *Registry[Inverter]
	Drivers   *Registry[serialport.Driver]
}

// Default returns the built-in entries.
func Default() *Set {
	s := &Set{
		BMS:       New[BMS]("bms"),
		Inverters: New[Inverter]("inverter"),
		Drivers:   New[serialport.Driver]("serial driver"),
	}

	// names are distinct literals; Register cannot fail here
	_ = s.BMS.Register("daly", BMS{
		FrameLength: bms.FrameLength,
		New: func(p port.Port, opts bms.Options, log zerolog.Logger) bms.Reader {
			return bms.New(p, opts, log)
		},
	})

	_ = s.Inverters.Register("modbus", func(cfg inverter.Config, log zerolog.Logger) (inverter.Writer, error) {
		w, err := inverter.NewModbusWriter(cfg, log)
		if err != nil {
			return nil, err
		}
		return w, nil
	})
	_ = s.Inverters.Register("none", func(_ inverter.Config, log zerolog.Logger) (inverter.Writer, error) {
		return inverter.NewLogWriter(log), nil
	})

	_ = s.Drivers.Register("tarm", serialport.TarmDriver)
	_ = s.Drivers.Register("bugst", serialport.BugstDriver)

	return s
}
