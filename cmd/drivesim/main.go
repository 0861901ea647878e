// Command drivesim runs a driving scenario offline and prints the step log.
//
//	drivesim --scenario lap.json > log.json
//	cat lap.json | drivesim --record sqlite --out-dir ./recordings
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/RacingGame/vehiclectl/internal/config"
	"github.com/RacingGame/vehiclectl/internal/logging"
	"github.com/RacingGame/vehiclectl/internal/sim"
	"github.com/RacingGame/vehiclectl/internal/storage"
	"github.com/RacingGame/vehiclectl/pkg/core"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "drivesim:", err)
		os.Exit(1)
	}
}

type options struct {
	scenario string
	output   string
	record   string
	outDir   string
	session  string
	pretty   bool
	logLevel string
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	v := viper.New()
	fs := pflag.NewFlagSet("drivesim", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringP("scenario", "s", "-", "scenario JSON file, - for stdin")
	fs.StringP("output", "o", "-", "log output file, - for stdout")
	fs.String("record", "", "also record the run: memory or sqlite")
	fs.String("out-dir", "./recordings", "directory for recordings")
	fs.String("session", "", "session name for recordings (default: scenario id)")
	fs.Bool("pretty", false, "indent the log output")
	fs.String("log-level", "info", "log level")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if err := v.BindPFlags(fs); err != nil {
		return options{}, err
	}
	v.SetEnvPrefix("DRIVESIM")
	v.AutomaticEnv()

	return options{
		scenario: v.GetString("scenario"),
		output:   v.GetString("output"),
		record:   v.GetString("record"),
		outDir:   v.GetString("out-dir"),
		session:  v.GetString("session"),
		pretty:   v.GetBool("pretty"),
		logLevel: v.GetString("log-level"),
	}, nil
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	logs := logging.NewSlogManager()
	logs.Setup(stderr, opts.logLevel, nil)
	logger := logs.Logger()

	input, err := readInput(opts.scenario, stdin)
	if err != nil {
		return err
	}

	var out []byte
	if opts.record == "" && !opts.pretty {
		res, err := sim.RunJSON(string(input))
		if err != nil {
			return err
		}
		out = []byte(res)
	} else {
		var sc sim.Scenario
		if err := json.Unmarshal(input, &sc); err != nil {
			return fmt.Errorf("invalid input JSON: %w", err)
		}
		log, err := runScenario(sc, opts, logs, logger)
		if err != nil {
			return err
		}
		if opts.pretty {
			out, err = json.MarshalIndent(log, "", "  ")
		} else {
			out, err = json.Marshal(log)
		}
		if err != nil {
			return fmt.Errorf("marshaling output: %w", err)
		}
	}
	return writeOutput(opts.output, stdout, append(out, '\n'))
}

// runScenario runs sc, recording it when opts.record names a backend.
func runScenario(sc sim.Scenario, opts options, logs *logging.SlogManager, logger *slog.Logger) (sim.Log, error) {
	r, err := sim.New(sc)
	if err != nil {
		return sim.Log{}, err
	}
	if opts.record == "" {
		return r.Run()
	}

	config.SetDefaults()
	cfg := config.GetStorageConfig()
	cfg.Type = opts.record
	cfg.Memory.OutputDir = opts.outDir
	cfg.SQLite.OutputDir = opts.outDir

	backend, err := storage.NewBackend(cfg, config.GetDBConfig(), logs)
	if err != nil {
		return sim.Log{}, err
	}
	if err := backend.Init(); err != nil {
		return sim.Log{}, fmt.Errorf("failed to initialize %s storage: %w", cfg.Type, err)
	}
	defer backend.Close()

	name := opts.session
	if name == "" {
		name = sc.Meta.ScenarioID
	}
	session := &core.Session{SessionName: name, TrackName: sc.TrackName, StartTime: time.Now()}
	var tr *core.Track
	if t := r.Track(); t != nil {
		session.TrackName = t.Name()
		tr = &core.Track{Name: t.Name(), Waypoints: t.Points(), Length: t.Length()}
	}
	if err := backend.StartSession(session, tr); err != nil {
		return sim.Log{}, fmt.Errorf("failed to start session: %w", err)
	}
	for _, v := range sc.Vehicles {
		info := &core.Vehicle{ID: v.ID, Profile: v.Profile, TrackName: session.TrackName, JoinTime: session.StartTime}
		if err := backend.AddVehicle(info); err != nil {
			return sim.Log{}, fmt.Errorf("vehicle %d: %w", v.ID, err)
		}
	}

	r.SetRecorder(backend)
	log, runErr := r.Run()
	if err := backend.EndSession(); err != nil {
		return sim.Log{}, errors.Join(runErr, fmt.Errorf("failed to end session: %w", err))
	}
	if runErr != nil {
		return sim.Log{}, runErr
	}

	if ex, ok := backend.(storage.Exporter); ok && ex.ExportedFilePath() != "" {
		logger.Info("Recording written", "file", ex.ExportedFilePath(), "steps", len(log.Output))
	}
	return log, nil
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" || path == "" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	return data, nil
}

func writeOutput(path string, stdout io.Writer, data []byte) error {
	if path == "-" || path == "" {
		_, err := stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0644)
}
