package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/cjeanneret/SafeDial/internal/config"
	"github.com/cjeanneret/SafeDial/internal/debug"
	"github.com/cjeanneret/SafeDial/internal/hw/gpio"
	"github.com/cjeanneret/SafeDial/internal/hw/indicator"
	"github.com/cjeanneret/SafeDial/internal/hw/stepper"
	"github.com/cjeanneret/SafeDial/internal/input"
	"github.com/cjeanneret/SafeDial/internal/logic/dial"
	"github.com/cjeanneret/SafeDial/internal/logic/motion"
	"github.com/cjeanneret/SafeDial/internal/logic/session"
	"github.com/cjeanneret/SafeDial/internal/report"
)

// Overrides are CLI values that replace the config file. Zero values mean
// "keep the config".
type Overrides struct {
	Start       *int
	Format      string
	SkipInvalid bool
	DebugLevel  *int
}

func main() {
	// CLI flags
	start := &optionalIntFlag{}
	flag.Var(start, "start", "override dial start position (0-99)")
	debugLevel := &optionalIntFlag{}
	flag.Var(debugLevel, "debug", "override debug level (0-4)")
	cfgPath := flag.String("config", "", "path to a YAML config under configs/ (default: built-in settings)")
	format := flag.String("format", "", "report format: text or json")
	skipInvalid := flag.Bool("skip_invalid", false, "skip unparsable lines instead of aborting")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <rotations-file>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	inputPath := flag.Arg(0)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Load configuration
	cfg := config.Default()
	if *cfgPath != "" {
		if err := config.ValidateConfigPath(*cfgPath); err != nil {
			log.Fatalf("invalid config path: %v", err)
		}
		var err error
		cfg, err = config.Load(*cfgPath)
		if err != nil {
			log.Fatalf("load config failed: %v", err)
		}
	}

	overrides := Overrides{
		Start:       start.value(),
		Format:      *format,
		SkipInvalid: *skipInvalid,
		DebugLevel:  debugLevel.value(),
	}
	if err := validateCLIOverrides(overrides); err != nil {
		log.Fatalf("invalid CLI override: %v", err)
	}
	applyOverrides(cfg, overrides)

	debug.Init(cfg.Defaults.DebugLevel)
	debug.Section("Initialization")
	debug.Value("Config path", *cfgPath)
	debug.Value("Input", inputPath)
	debug.Value("Start position", cfg.StartPosition())

	if err := run(ctx, cfg, inputPath, os.Stdout); err != nil {
		log.Fatalf("safedial: %v", err)
	}
}

// run processes every rotation in inputPath and writes the report to out.
func run(ctx context.Context, cfg *config.Config, inputPath string, out io.Writer) error {
	d, err := dial.New(cfg.StartPosition())
	if err != nil {
		return err
	}

	rep, err := report.New(cfg.Report.Format, out)
	if err != nil {
		return err
	}
	observers := []session.Observer{rep}

	if cfg.NeedsGPIO() {
		debug.Step(1, "Initializing hardware")
		ctrl, closeHW, err := newHardware(cfg)
		if err != nil {
			return err
		}
		defer closeHW()
		observers = append(observers, ctrl)
	}

	src, err := input.Open(inputPath)
	if err != nil {
		return err
	}
	defer src.Close()

	debug.Section("Turning dial")
	s := session.New(d, session.Options{SkipInvalid: cfg.Dial.SkipInvalid}, observers...)
	totals, err := s.Run(ctx, src)
	if err != nil {
		return err
	}
	return rep.Summary(totals)
}

// newHardware wires the GPIO outputs enabled in cfg into a motion controller.
func newHardware(cfg *config.Config) (*motion.Controller, func(), error) {
	debug.Value("Mock GPIO", cfg.Defaults.MockGPIO)
	drv, err := gpio.NewDriver(cfg.Defaults.MockGPIO)
	if err != nil {
		return nil, nil, fmt.Errorf("init GPIO failed: %w", err)
	}

	var mover motion.Mover = idleMover{}
	stepsPerRev, microstepping := 1, dial.Positions
	if cfg.Actuator.Enabled {
		st := cfg.Actuator.Stepper
		debug.PrintStruct("Knob stepper config", st)
		mover = stepper.NewStepper(drv, stepper.Config{
			StepPin:   st.StepPin,
			DirPin:    st.DirPin,
			EnablePin: st.EnablePin,
			Invert:    st.Invert,
			StepDelay: cfg.MoveSpeed() / 2,
		})
		stepsPerRev, microstepping = st.StepsPerRev, st.Microstepping
	}
	calc, err := motion.NewClickCalculator(stepsPerRev, microstepping)
	if err != nil {
		_ = drv.Close()
		return nil, nil, err
	}

	var ind indicator.Indicator = indicator.None{}
	if cfg.Indicator.Enabled {
		debug.Value("Indicator pin", cfg.Indicator.Pin)
		ind = indicator.NewPulse(drv, cfg.Indicator.Pin, cfg.PulseWidth(), cfg.Indicator.MaxBlinks)
	}

	ctrl := motion.NewController(mover, calc, ind)
	if err := ctrl.EnableMotor(); err != nil {
		_ = drv.Close()
		return nil, nil, fmt.Errorf("enable motor: %w", err)
	}

	closeHW := func() {
		if err := ctrl.DisableMotor(); err != nil {
			log.Printf("disabling motor failed: %v", err)
		}
		if err := drv.Close(); err != nil {
			log.Printf("closing GPIO driver failed: %v", err)
		}
	}
	return ctrl, closeHW, nil
}

// idleMover stands in for the stepper when only the indicator is wired.
type idleMover struct{}

func (idleMover) MoveSteps(int64) error { return nil }
func (idleMover) Enable() error         { return nil }
func (idleMover) Disable() error        { return nil }

// validateCLIOverrides checks that set CLI overrides are within valid ranges.
func validateCLIOverrides(o Overrides) error {
	if o.Start != nil && (*o.Start < 0 || *o.Start >= dial.Positions) {
		return fmt.Errorf("start must be between 0 and %d, got %d", dial.Positions-1, *o.Start)
	}
	if o.Format != "" && o.Format != report.FormatText && o.Format != report.FormatJSON {
		return fmt.Errorf("format must be %s or %s, got %q", report.FormatText, report.FormatJSON, o.Format)
	}
	if o.DebugLevel != nil && (*o.DebugLevel < debug.LevelOff || *o.DebugLevel > debug.LevelTrace) {
		return fmt.Errorf("debug must be between %d and %d, got %d", debug.LevelOff, debug.LevelTrace, *o.DebugLevel)
	}
	return nil
}

// applyOverrides mutates cfg with the overrides that were set.
func applyOverrides(cfg *config.Config, o Overrides) {
	if o.Start != nil {
		start := *o.Start
		cfg.Dial.StartPosition = &start
	}
	if o.Format != "" {
		cfg.Report.Format = o.Format
	}
	if o.SkipInvalid {
		cfg.Dial.SkipInvalid = true
	}
	if o.DebugLevel != nil {
		cfg.Defaults.DebugLevel = *o.DebugLevel
	}
}

// optionalIntFlag implements flag.Value for an int that may be left unset,
// so an explicit 0 can be told apart from "not given".
type optionalIntFlag struct {
	val int
	set bool
}

func (f *optionalIntFlag) String() string {
	if f == nil || !f.set {
		return ""
	}
	return strconv.Itoa(f.val)
}

func (f *optionalIntFlag) Set(s string) error {
	v, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	f.val = v
	f.set = true
	return nil
}

func (f *optionalIntFlag) value() *int {
	if !f.set {
		return nil
	}
	v := f.val
	return &v
}
