package inverter

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/goburrow/modbus"
	"github.com/rs/zerolog"

	"github.com/jonamat/go-bms-bridge/pkg/battery"
)

// Writer forwards a pack record to an inverter.
type Writer interface {
	WritePack(pack *battery.Pack) error
	Close() error
}

// Mode is the Modbus transport.
type Mode string

const (
	ModeTCP Mode = "tcp"
	ModeRTU Mode = "rtu"
)

// Config of a ModbusWriter.
type Config struct {
	Mode        Mode
	Endpoint    string // host:port for tcp, serial device for rtu
	BaudRate    int    // rtu only
	UnitID      uint8
	BaseAddress uint16
	Timeout     time.Duration
}

func (c Config) Validate() error {
	if c.Endpoint == "" {
		return errors.New("inverter: endpoint required")
	}
	switch c.Mode {
	case ModeTCP:
	case ModeRTU:
		if c.BaudRate <= 0 {
			return fmt.Errorf("inverter: invalid baud rate %d", c.BaudRate)
		}
	default:
		return fmt.Errorf("inverter: unknown mode %q", c.Mode)
	}
	if int(c.BaseAddress)+RegisterCount > 0x10000 {
		return fmt.Errorf("inverter: base address %d leaves no room for %d registers", c.BaseAddress, RegisterCount)
	}
	return nil
}

// registerClient is the part of modbus.Client the writer uses.
type registerClient interface {
	WriteMultipleRegisters(address, quantity uint16, value []byte) ([]byte, error)
}

// ModbusWriter writes the register image of every pack with one
// WriteMultipleRegisters request.
type ModbusWriter struct {
	mu      sync.Mutex
	cfg     Config
	handler io.Closer
	client  registerClient
	log     zerolog.Logger
}

// NewModbusWriter builds the Modbus handler for cfg. A failed initial
// connect is logged only; the handler reconnects on the next write.
func NewModbusWriter(cfg Config, log zerolog.Logger) (*ModbusWriter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log = log.With().Str("component", "inverter").Str("endpoint", cfg.Endpoint).Logger()

	var (
		handler modbus.ClientHandler
		connect func() error
		closer  io.Closer
	)
	switch cfg.Mode {
	case ModeTCP:
		h := modbus.NewTCPClientHandler(cfg.Endpoint)
		h.Timeout = cfg.Timeout
		h.SlaveId = cfg.UnitID
		handler, connect, closer = h, h.Connect, h
	case ModeRTU:
		h := modbus.NewRTUClientHandler(cfg.Endpoint)
		h.BaudRate = cfg.BaudRate
		h.DataBits = 8
		h.Parity = "N"
		h.StopBits = 1
		h.Timeout = cfg.Timeout
		h.SlaveId = cfg.UnitID
		handler, connect, closer = h, h.Connect, h
	}

	if err := connect(); err != nil {
		log.Warn().Err(err).Msg("inverter not reachable yet")
	}

	return newModbusWriter(cfg, modbus.NewClient(handler), closer, log), nil
}

func newModbusWriter(cfg Config, client registerClient, handler io.Closer, log zerolog.Logger) *ModbusWriter {
	return &ModbusWriter{
		cfg:     cfg,
		handler: handler,
		client:  client,
		log:     log,
	}
}

// WritePack encodes pack and writes it at the configured base address.
func (w *ModbusWriter) WritePack(pack *battery.Pack) error {
	regs := Encode(pack)

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.client.WriteMultipleRegisters(w.cfg.BaseAddress, uint16(len(regs)), packRegisters(regs)); err != nil {
		return fmt.Errorf("inverter: write registers at %d: %w", w.cfg.BaseAddress, err)
	}
	w.log.Debug().Uint16("address", w.cfg.BaseAddress).Int("count", len(regs)).Msg("pack written")
	return nil
}

func (w *ModbusWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.handler == nil {
		return nil
	}
	return w.handler.Close()
}

// LogWriter only logs every pack. It stands in when no inverter is attached.
type LogWriter struct {
	log zerolog.Logger
}

func NewLogWriter(log zerolog.Logger) *LogWriter {
	return &LogWriter{log: log.With().Str("component", "inverter").Logger()}
}

func (w *LogWriter) WritePack(pack *battery.Pack) error {
	w.log.Info().
		Str("voltage", fmt.Sprintf("%.1fV", battery.FromDeci(pack.PackVoltage))).
		Str("current", fmt.Sprintf("%.1fA", battery.FromDeci(pack.PackCurrent))).
		Str("soc", fmt.Sprintf("%.1f%%", battery.FromDeci(pack.PackSOC))).
		Int("cells", pack.NumberOfCells).
		Int("cell_diff_mv", pack.CellDiffmV).
		Str("status", pack.ChargeDischargeStatus.String()).
		Strs("alarms", pack.Alarms.Active()).
		Msg("pack")
	return nil
}

func (w *LogWriter) Close() error { return nil }
