package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jonamat/go-bms-bridge/internal/bms"
	"github.com/jonamat/go-bms-bridge/internal/config"
	"github.com/jonamat/go-bms-bridge/internal/inverter"
	"github.com/jonamat/go-bms-bridge/internal/logging"
	"github.com/jonamat/go-bms-bridge/internal/poller"
	"github.com/jonamat/go-bms-bridge/internal/port"
	"github.com/jonamat/go-bms-bridge/internal/registry"
	"github.com/jonamat/go-bms-bridge/internal/serialport"
	"github.com/jonamat/go-bms-bridge/pkg/battery"
)

const usage = "usage: bmsbridge [-list-ports] <config.yaml|config.toml>"

func main() {
	listPorts := flag.Bool("list-ports", false, "print the serial ports found on this host and exit")
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if *listPorts {
		if err := printPorts(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, flag.Arg(0)); err != nil {
		log.Error().Err(err).Msg("bridge stopped")
		stop()
		os.Exit(1)
	}
}

func printPorts() error {
	ports, err := serialport.ListPorts()
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		fmt.Println("no serial ports found")
	}
	for _, p := range ports {
		fmt.Println(p)
	}
	return nil
}

func run(ctx context.Context, cfgPath string) error {
	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}
	config.Normalize(cfg)
	b := cfg.Bridge

	logger := logging.New(logging.Config{
		Level:   b.Log.Level,
		JSON:    b.Log.JSON,
		NoColor: b.Log.NoColor,
	}, os.Stderr)

	// --------------------
	// Resolve registry entries once
	// --------------------

	reg := registry.Default()
	decoder, err := reg.BMS.Get(b.BMS.Type)
	if err != nil {
		return err
	}
	driver, err := reg.Drivers.Get(b.BMS.Port.Driver)
	if err != nil {
		return err
	}
	newWriter, err := reg.Inverters.Get(b.Inverter.Type)
	if err != nil {
		return err
	}

	// --------------------
	// BMS side
	// --------------------

	sp, err := serialport.New(serialport.Config{
		Config: port.Config{
			Device:      b.BMS.Port.Device,
			BaudRate:    b.BMS.Port.Baud,
			FrameLength: decoder.FrameLength,
		},
		ReadTimeout:     b.BMS.Port.ReadTimeout(),
		Pacing:          b.BMS.Port.Pacing(),
		ReceiveAttempts: b.BMS.Port.ReceiveAttempts,
		ReceiveInterval: b.BMS.Port.ReceiveInterval(),
	}, driver, logger)
	if err != nil {
		return err
	}
	defer sp.Close()

	// the port reopens on demand; a BMS that is not plugged in yet is not fatal
	if err := sp.Open(); err != nil {
		logger.Warn().Err(err).Msg("bms port not available yet")
	}

	// bms.Options reads a zero delay as the default and a negative one as none
	retryDelay := b.BMS.RetryDelay()
	if retryDelay == 0 {
		retryDelay = -1
	}
	reader := decoder.New(sp, bms.Options{
		Address:    b.BMS.Address,
		Retries:    b.BMS.Retries,
		RetryDelay: retryDelay,
	}, logger)

	// --------------------
	// Inverter side
	// --------------------

	writer, err := newWriter(inverter.Config{
		Mode:        inverter.Mode(b.Inverter.Mode),
		Endpoint:    b.Inverter.Endpoint,
		BaudRate:    b.Inverter.Baud,
		UnitID:      b.Inverter.UnitID,
		BaseAddress: b.Inverter.BaseAddress,
		Timeout:     b.Inverter.Timeout(),
	}, logger)
	if err != nil {
		return err
	}
	defer writer.Close()

	p, err := poller.New(poller.Config{Name: b.Name, Interval: b.PollInterval()}, reader, writer, logger)
	if err != nil {
		return err
	}

	logger.Info().
		Str("bridge", b.Name).
		Str("bms", b.BMS.Type).
		Str("device", b.BMS.Port.Device).
		Str("inverter", b.Inverter.Type).
		Dur("interval", b.PollInterval()).
		Msg("bridge started")

	out := make(chan poller.Result)
	go p.Run(ctx, out)

	for {
		select {
		case <-ctx.Done():
			st := sp.Stats()
			logger.Info().
				Uint64("frames_sent", st.FramesSent).
				Uint64("frames_received", st.FramesReceived).
				Uint64("read_errors", st.ReadErrors).
				Msg("bridge stopping")
			return nil
		case res := <-out:
			if res.Err == nil {
				logPack(logger, res.Pack)
			}
		}
	}
}

func logPack(logger zerolog.Logger, pack *battery.Pack) {
	ev := logger.Debug()
	if pack.Alarms.Any() {
		ev = logger.Warn().Strs("alarms", pack.Alarms.Active())
	}
	ev.Int("voltage_dv", pack.PackVoltage).
		Int("current_da", pack.PackCurrent).
		Int("soc_permille", pack.PackSOC).
		Int("cell_diff_mv", pack.CellDiffmV).
		Msg("cycle")
}
