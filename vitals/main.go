package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/conn/i2c/i2creg"
	"periph.io/x/periph/host"

	"github.com/cgxeiji/vitals"
	"github.com/cgxeiji/vitals/dht11"
	"github.com/cgxeiji/vitals/max30102"
	"github.com/cgxeiji/vitals/mlx90614"
)

func main() {
	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	logger, err := newLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()
	logger = logger.With(zap.String("session", uuid.NewString()))

	if err := run(cfg, logger); err != nil {
		logger.Fatal("vitals stopped", zap.Error(err))
	}
}

func run(cfg *config, logger *zap.Logger) error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("could not initialize host: %w", err)
	}

	bus, err := i2creg.Open(cfg.Bus)
	if err != nil {
		return fmt.Errorf("could not open I2C bus: %w", err)
	}
	defer bus.Close()

	sensor, err := max30102.New(bus, uint16(cfg.PPGAddr))
	if err != nil {
		return err
	}
	defer sensor.Close()

	if rev, err := sensor.RevID(); err == nil {
		logger.Info("MAX30102 detected", zap.Uint8("rev", rev))
	}
	if temp, err := sensor.Temperature(); err == nil {
		logger.Debug("MAX30102 die temperature", zap.Float64("celsius", temp))
	}
	if cfg.Calibrate {
		ir, red, err := sensor.Calibrate()
		if err != nil {
			return err
		}
		logger.Info("calibration", zap.Float64("ir_mA", ir), zap.Float64("red_mA", red))
	}
	period, err := sensor.SamplePeriod()
	if err != nil {
		return err
	}
	// The FIFO holds 32 words and rolls over when full.
	if cfg.Poll >= 32*period {
		logger.Warn("polling too slowly, samples will be lost",
			zap.Duration("poll", cfg.Poll), zap.Duration("period", period))
	}
	if err := sensor.Drain(); err != nil {
		return err
	}

	s := &station{
		ppg: sensor,
		pipeline: vitals.New(
			vitals.Capacity(cfg.Window),
			vitals.SamplePeriod(period),
			vitals.Logger(logger.Named("pipeline")),
		),
		session: &vitals.Session{Stable: cfg.Stable, Limit: cfg.Timeout},
		minIR:   uint32(cfg.MinIR),
		log:     logger,
		now:     time.Now,
	}

	if thermo, err := mlx90614.New(bus, uint16(cfg.ThermoAddr)); err != nil {
		logger.Warn("no infrared thermometer", zap.Error(err))
	} else {
		s.thermo = thermo
	}

	if cfg.DHTPin != "" {
		pin := gpioreg.ByName(cfg.DHTPin)
		if pin == nil {
			return fmt.Errorf("no GPIO pin named %q", cfg.DHTPin)
		}
		hygro, err := dht11.New(pin)
		if err != nil {
			return err
		}
		s.hygro = hygro
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sampleT := time.NewTicker(cfg.Poll)
	defer sampleT.Stop()
	reportT := time.NewTicker(cfg.Report)
	defer reportT.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-sampleT.C:
			s.sample()
		case <-reportT.C:
			for _, r := range s.report() {
				fmt.Println(r.StatusLine())
			}
		}
	}
}
