package config

import (
	"fmt"
	"time"
)

// Profile names select one of the built-in logger layouts.
const (
	ProfileDatalog       = "datalog"
	ProfileFieldCapacity = "field_capacity"
)

// Calibration sources.
const (
	SourceConstant  = "constant"
	SourcePersisted = "persisted"
)

const (
	// HeaderDatalog lists more columns than the logger fills; only date, time
	// and weight are ever written.
	HeaderDatalog       = "Data;Hora;Id;Bateria[V];Temp_placa[C];Temp_solo[C];Const_Diel;Condutiv[uS/cm];Umidade[m3/m3*100];Salinidade[uS/cm]"
	HeaderFieldCapacity = "Data;Hora;Peso"
)

// Config represents the logger configuration.
type Config struct {
	Profile     string            `yaml:"profile"`
	Debug       bool              `yaml:"debug"`
	Log         LogConfig         `yaml:"log"`
	Schedule    ScheduleConfig    `yaml:"schedule"`
	Calibration CalibrationConfig `yaml:"calibration"`
	Clock       ClockConfig       `yaml:"clock"`
	Storage     StorageConfig     `yaml:"storage"`
	Pins        PinConfig         `yaml:"pins"`
	Serial      SerialConfig      `yaml:"serial"`
	Mock        MockConfig        `yaml:"mock"`
	View        ViewConfig        `yaml:"view"`
}

// LogConfig describes the log file on the storage volume.
type LogConfig struct {
	FileName string `yaml:"file_name"`
	Header   string `yaml:"header"`
}

// ScheduleConfig contains sampling parameters.
type ScheduleConfig struct {
	Period         time.Duration `yaml:"period"`
	AverageSamples int           `yaml:"average_samples"`
	PollInterval   time.Duration `yaml:"poll_interval"` // 0 = busy-poll
}

// CalibrationConfig selects where scale and offset come from.
type CalibrationConfig struct {
	Source     string  `yaml:"source"`     // constant or persisted
	Scale      float64 `yaml:"scale"`      // used when source is constant
	Offset     float64 `yaml:"offset"`     // used when source is constant
	Convention string  `yaml:"convention"` // subtract or add
	Store      string  `yaml:"store"`      // host file holding the persisted 8-byte blob
}

// ClockConfig contains real-time clock switches.
type ClockConfig struct {
	AdjustOnBoot bool `yaml:"adjust_on_boot"`
}

// StorageConfig contains storage volume parameters.
type StorageConfig struct {
	Dir        string `yaml:"dir"` // host directory standing in for the SD card
	BusSpeedHz uint32 `yaml:"bus_speed_hz"`
}

// PinConfig maps the load-cell amplifier to MCU pins.
type PinConfig struct {
	LoadCellData  int `yaml:"load_cell_data"`
	LoadCellClock int `yaml:"load_cell_clock"`
}

// SerialConfig contains serial port configuration.
type SerialConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
}

// MockConfig contains simulated transducer parameters.
type MockConfig struct {
	Load         float64 `yaml:"load"`           // Simulated load in engineering units
	RawOffset    float64 `yaml:"raw_offset"`     // Raw counts at zero load
	RawScale     float64 `yaml:"raw_scale"`      // Raw counts per engineering unit
	Noise        float64 `yaml:"noise"`          // Peak noise in raw counts
	DriftPerHour float64 `yaml:"drift_per_hour"` // Load change per hour (evaporation)

	RowInterval time.Duration `yaml:"row_interval"` // Row echo interval of the simulated device
}

// ViewConfig contains trend display parameters.
type ViewConfig struct {
	Window           time.Duration `yaml:"window"`             // Time span kept for display
	Column           int           `yaml:"column"`             // Value column to plot, 0 = first after date and time
	EventThreshold   float64       `yaml:"event_threshold"`    // Weight change per hour that marks an event
	MinEventDuration time.Duration `yaml:"min_event_duration"` // Shorter events are ignored
	MaxPoints        int           `yaml:"max_points"`         // Points drawn after downsampling
	Smooth           int           `yaml:"smooth"`             // Moving average length, 0 = disabled
}

// Preset returns the configuration of a built-in profile.
func Preset(profile string) (*Config, error) {
	cfg := &Config{
		Profile: profile,
		Debug:   true,
		Schedule: ScheduleConfig{
			Period:         15 * time.Minute,
			AverageSamples: 10,
			PollInterval:   100 * time.Millisecond,
		},
		Storage: StorageConfig{
			Dir:        "sd",
			BusSpeedHz: 4000000,
		},
		Serial: SerialConfig{
			Port:     "/dev/ttyACM0",
			BaudRate: 115200,
		},
		Mock: MockConfig{
			Load:         1200,
			RawOffset:    36.6,
			RawScale:     1 / 9.378,
			Noise:        0.5,
			DriftPerHour: -2,
			RowInterval:  time.Second,
		},
		View: ViewConfig{
			Window:           7 * 24 * time.Hour,
			EventThreshold:   100,
			MinEventDuration: 0,
			MaxPoints:        1000,
		},
	}

	switch profile {
	case ProfileDatalog:
		cfg.Log = LogConfig{FileName: "datalog.csv", Header: HeaderDatalog}
		cfg.Calibration = CalibrationConfig{
			Source:     SourceConstant,
			Scale:      9.378,
			Offset:     343.35,
			Convention: "subtract",
			Store:      "calibration.bin",
		}
		cfg.Pins = PinConfig{LoadCellData: 17, LoadCellClock: 16}
	case ProfileFieldCapacity:
		cfg.Log = LogConfig{FileName: "datalogFieldCapacity.csv", Header: HeaderFieldCapacity}
		cfg.Calibration = CalibrationConfig{
			Source:     SourcePersisted,
			Scale:      1.0,
			Offset:     0.0,
			Convention: "subtract",
			Store:      "calibration.bin",
		}
		cfg.Pins = PinConfig{LoadCellData: 15, LoadCellClock: 14}
	default:
		return nil, fmt.Errorf("unknown profile %q", profile)
	}

	return cfg, nil
}

// Default returns the datalog profile.
func Default() *Config {
	cfg, _ := Preset(ProfileDatalog)
	return cfg
}

// Validate reports settings the logger cannot run with.
func (c *Config) Validate() error {
	switch c.Calibration.Source {
	case SourceConstant, SourcePersisted:
	default:
		return fmt.Errorf("unknown calibration source %q", c.Calibration.Source)
	}
	switch c.Calibration.Convention {
	case "subtract", "add":
	default:
		return fmt.Errorf("unknown calibration convention %q", c.Calibration.Convention)
	}
	// The uptime counter ticks in milliseconds; a shorter period truncates to zero.
	if c.Schedule.Period < time.Millisecond {
		return fmt.Errorf("schedule period must be at least 1ms, got %s", c.Schedule.Period)
	}
	// The period is compared against a 32-bit millisecond counter.
	if c.Schedule.Period.Milliseconds() > int64(^uint32(0)) {
		return fmt.Errorf("schedule period %s does not fit the uptime counter", c.Schedule.Period)
	}
	if c.View.Column < 0 {
		return fmt.Errorf("view column must not be negative, got %d", c.View.Column)
	}
	return nil
}

// ensureDefaults fills missing fields from the profile preset.
func (c *Config) ensureDefaults() error {
	if c.Profile == "" {
		c.Profile = ProfileDatalog
	}
	def, err := Preset(c.Profile)
	if err != nil {
		return err
	}

	if c.Log.FileName == "" {
		c.Log.FileName = def.Log.FileName
	}
	if c.Log.Header == "" {
		c.Log.Header = def.Log.Header
	}

	if c.Schedule.Period == 0 {
		c.Schedule.Period = def.Schedule.Period
	}
	if c.Schedule.AverageSamples <= 0 {
		c.Schedule.AverageSamples = def.Schedule.AverageSamples
	}

	if c.Calibration.Source == "" {
		c.Calibration.Source = def.Calibration.Source
	}
	if c.Calibration.Convention == "" {
		c.Calibration.Convention = def.Calibration.Convention
	}
	if c.Calibration.Store == "" {
		c.Calibration.Store = def.Calibration.Store
	}
	// A constant calibration with both values missing means the file did not set it.
	if c.Calibration.Source == SourceConstant && c.Calibration.Scale == 0 && c.Calibration.Offset == 0 {
		c.Calibration.Scale = def.Calibration.Scale
		c.Calibration.Offset = def.Calibration.Offset
	}

	if c.Storage.Dir == "" {
		c.Storage.Dir = def.Storage.Dir
	}
	if c.Storage.BusSpeedHz == 0 {
		c.Storage.BusSpeedHz = def.Storage.BusSpeedHz
	}

	if c.Pins.LoadCellData == 0 && c.Pins.LoadCellClock == 0 {
		c.Pins = def.Pins
	}

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = def.Serial.BaudRate
	}

	if c.Mock.RawScale == 0 {
		c.Mock.RawScale = def.Mock.RawScale
	}
	if c.Mock.RowInterval <= 0 {
		c.Mock.RowInterval = def.Mock.RowInterval
	}

	if c.View.Window <= 0 {
		c.View.Window = def.View.Window
	}
	if c.View.EventThreshold == 0 {
		c.View.EventThreshold = def.View.EventThreshold
	}
	if c.View.MaxPoints <= 0 {
		c.View.MaxPoints = def.View.MaxPoints
	}
	return nil
}
