// Package poller drives the bridge cycle: read a pack from the BMS, then
// forward it to the inverter.
package poller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jonamat/go-bms-bridge/internal/bms"
	"github.com/jonamat/go-bms-bridge/internal/inverter"
	"github.com/jonamat/go-bms-bridge/pkg/battery"
)

// Config is the minimal runtime config the poller needs.
type Config struct {
	Name     string
	Interval time.Duration
}

// Result is the outcome of one poll cycle.
type Result struct {
	Name     string
	At       time.Time
	Duration time.Duration
	Pack     *battery.Pack // nil when the read failed
	Err      error         // non-nil means the cycle failed
}

// Poller is a clock-driven bridge between one BMS and one inverter.
type Poller struct {
	cfg    Config
	reader bms.Reader
	writer inverter.Writer
	log    zerolog.Logger
}

// New creates a poller with immutable config.
func New(cfg Config, reader bms.Reader, writer inverter.Writer, log zerolog.Logger) (*Poller, error) {
	if cfg.Name == "" {
		return nil, errors.New("poller: name required")
	}
	if cfg.Interval <= 0 {
		return nil, errors.New("poller: interval must be > 0")
	}
	if reader == nil || writer == nil {
		return nil, errors.New("poller: reader and writer required")
	}
	return &Poller{
		cfg:    cfg,
		reader: reader,
		writer: writer,
		log:    log.With().Str("component", "poller").Str("bridge", cfg.Name).Logger(),
	}, nil
}

// PollOnce performs exactly one cycle on a fresh pack record.
// Any failure aborts the cycle; nothing is forwarded.
func (p *Poller) PollOnce(ctx context.Context) (res Result) {
	res = Result{Name: p.cfg.Name, At: time.Now()}
	defer func() { res.Duration = time.Since(res.At) }()

	pack := &battery.Pack{}
	if err := p.reader.ReadPack(ctx, pack); err != nil {
		res.Err = fmt.Errorf("poller: read bms: %w", err)
		return res
	}

	pack.DeriveCellStats()
	if err := pack.Validate(); err != nil {
		res.Err = fmt.Errorf("poller: %w", err)
		return res
	}
	res.Pack = pack

	if err := p.writer.WritePack(pack); err != nil {
		res.Err = fmt.Errorf("poller: write inverter: %w", err)
	}
	return res
}

// Run starts the ticker loop and emits a Result per cycle on out.
// One goroutine per bridge. No overlap.
func (p *Poller) Run(ctx context.Context, out chan<- Result) {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			res := p.PollOnce(ctx)
			if res.Err != nil && ctx.Err() != nil {
				return
			}
			if res.Err != nil {
				p.log.Warn().Err(res.Err).Dur("took", res.Duration).Msg("poll failed")
			} else {
				p.log.Debug().Dur("took", res.Duration).Msg("poll ok")
			}

			select {
			case out <- res:
			case <-ctx.Done():
				return
			}
		}
	}
}
