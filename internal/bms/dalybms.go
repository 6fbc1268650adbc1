// Package bms decodes the Daly UART / RS485 protocol into battery.Pack records.
package bms

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/jonamat/go-bms-bridge/internal/port"
	"github.com/jonamat/go-bms-bridge/pkg/battery"
)

const (
	// AddressUART is the host address used on the UART / RS485 port.
	AddressUART byte = 0x40
	// AddressBluetooth is the host address used through the Bluetooth module.
	AddressBluetooth byte = 0x80

	DefaultRetries    = 3
	DefaultRetryDelay = 200 * time.Millisecond
)

// Reader fills a battery pack record from a BMS.
type Reader interface {
	ReadPack(ctx context.Context, pack *battery.Pack) error
}

// Options of a DalyBMS.
type Options struct {
	Address    byte
	Retries    int
	RetryDelay time.Duration
}

// DalyBMS talks to one Daly BMS over a frame port.
type DalyBMS struct {
	port       port.Port
	address    byte
	retries    int
	retryDelay time.Duration
	log        zerolog.Logger
}

// New returns a decoder on p. Zero options take the defaults.
func New(p port.Port, opts Options, log zerolog.Logger) *DalyBMS {
	if opts.Address == 0 {
		opts.Address = AddressUART
	}
	if opts.Retries <= 0 {
		opts.Retries = DefaultRetries
	}
	if opts.RetryDelay < 0 {
		opts.RetryDelay = 0
	} else if opts.RetryDelay == 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	return &DalyBMS{
		port:       p,
		address:    opts.Address,
		retries:    opts.Retries,
		retryDelay: opts.RetryDelay,
		log:        log.With().Str("component", "daly").Logger(),
	}
}

// Port returns the underlying frame port.
func (b *DalyBMS) Port() port.Port {
	return b.port
}

// Connect opens the port.
func (b *DalyBMS) Connect() error {
	return b.port.Open()
}

// Disconnect closes the port.
func (b *DalyBMS) Disconnect() error {
	return b.port.Close()
}

// ReadPack runs the full query sequence and fills pack. Status goes first
// so the cell and sensor counts are known for the multi-frame queries.
func (b *DalyBMS) ReadPack(ctx context.Context, pack *battery.Pack) error {
	steps := []func(context.Context, *battery.Pack) error{
		b.ReadStatus,
		b.ReadRatedCapacity,
		b.ReadVoltageLimits,
		b.ReadCurrentLimits,
		b.ReadSOC,
		b.ReadCellVoltageRange,
		b.ReadTemperatureRange,
		b.ReadMosfetStatus,
		b.ReadCellVoltages,
		b.ReadTemperatures,
		b.ReadBalancingStatus,
		b.ReadAlarms,
	}
	for _, step := range steps {
		if err := step(ctx, pack); err != nil {
			return err
		}
	}
	return nil
}
