package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// SessionExport is the root JSON structure
type SessionExport struct {
	ExtensionVersion string          `json:"extensionVersion"`
	ExtensionBuild   string          `json:"extensionBuild,omitempty"`
	SessionName      string          `json:"sessionName"`
	TrackName        string          `json:"trackName"`
	StartTime        time.Time       `json:"startTime"`
	EndTick          uint            `json:"endTick"`
	Settings         json.RawMessage `json:"settings,omitempty"`
	Track            *TrackJSON      `json:"track,omitempty"`
	Vehicles         []VehicleJSON   `json:"vehicles"`
}

// TrackJSON is the waypoint loop of the session
type TrackJSON struct {
	Name      string       `json:"name"`
	Length    float64      `json:"length"`
	Waypoints [][3]float64 `json:"waypoints"`
}

// VehicleJSON is one vehicle with its compact step and waypoint rows
type VehicleJSON struct {
	ID        uint16  `json:"id"`
	Profile   string  `json:"profile"`
	TrackName string  `json:"trackName,omitempty"`
	JoinTick  uint    `json:"joinTick"`
	Laps      int     `json:"laps"`
	Steps     [][]any `json:"steps"`
	Waypoints [][]any `json:"waypoints"`
}

// ExportFileName builds the recording file name for a session.
func ExportFileName(sessionName string, start time.Time, compress bool) string {
	name := strings.ReplaceAll(sessionName, " ", "_")
	name = strings.ReplaceAll(name, ":", "_")
	name = strings.ReplaceAll(name, string(filepath.Separator), "_")
	if name == "" {
		name = "session"
	}
	ext := ".json"
	if compress {
		ext = ".json.gz"
	}
	return fmt.Sprintf("%s_%s%s", name, start.Format("20060102_150405"), ext)
}

// exportJSON writes the session data to a JSON file, gzipped if configured
func (b *Backend) exportJSON() error {
	export := b.buildExport()

	filename := ExportFileName(b.session.SessionName, b.session.StartTime, b.cfg.CompressOutput)
	outputPath := filepath.Join(b.cfg.OutputDir, filename)

	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if b.cfg.CompressOutput {
		if err := writeGzipJSON(outputPath, export); err != nil {
			return err
		}
	} else {
		if err := writeJSON(outputPath, export); err != nil {
			return err
		}
	}

	b.lastExportPath = outputPath
	return nil
}

func (b *Backend) buildExport() SessionExport {
	export := SessionExport{
		ExtensionVersion: b.session.ExtensionVersion,
		ExtensionBuild:   b.session.ExtensionBuild,
		SessionName:      b.session.SessionName,
		TrackName:        b.session.TrackName,
		StartTime:        b.session.StartTime,
		Vehicles:         make([]VehicleJSON, 0, len(b.vehicles)),
	}
	if json.Valid(b.session.Settings) {
		export.Settings = json.RawMessage(b.session.Settings)
	}

	if b.track != nil {
		tj := &TrackJSON{
			Name:      b.track.Name,
			Length:    b.track.Length,
			Waypoints: make([][3]float64, len(b.track.Waypoints)),
		}
		for i, p := range b.track.Waypoints {
			tj.Waypoints[i] = [3]float64(p)
		}
		export.Track = tj
	}

	var maxTick uint
	for _, record := range b.sortedVehicles() {
		v := VehicleJSON{
			ID:        record.Vehicle.ID,
			Profile:   record.Vehicle.Profile,
			TrackName: record.Vehicle.TrackName,
			JoinTick:  record.Vehicle.JoinTick,
			Steps:     make([][]any, 0, len(record.Steps)),
			Waypoints: make([][]any, 0, len(record.Waypoints)),
		}

		// [tick, [x,y,z], yaw, speed, wheelSpeed, steer, throttle, handbrake, waypointIndex, motorTorque]
		for _, s := range record.Steps {
			v.Steps = append(v.Steps, []any{
				s.Tick,
				[3]float64(s.Position),
				s.Yaw,
				s.Speed,
				s.WheelSpeed,
				s.Signals.Steer,
				s.Signals.Throttle,
				boolToInt(s.Signals.Handbrake),
				s.WaypointIndex,
				s.MotorTorque,
			})
			if s.Tick > maxTick {
				maxTick = s.Tick
			}
		}

		// [tick, reached, next, lap]
		for _, w := range record.Waypoints {
			v.Waypoints = append(v.Waypoints, []any{w.Tick, w.Reached, w.Next, w.Lap})
			if w.Lap > v.Laps {
				v.Laps = w.Lap
			}
		}

		export.Vehicles = append(export.Vehicles, v)
	}
	export.EndTick = maxTick

	return export
}

func writeJSON(path string, data SessionExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	return encoder.Encode(data)
}

func writeGzipJSON(path string, data SessionExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	gzWriter := gzip.NewWriter(f)
	defer gzWriter.Close()

	encoder := json.NewEncoder(gzWriter)
	return encoder.Encode(data)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
