/*
DESCRIPTION
  config.go loads and patches the daemon's YAML configuration
  file.

AUTHORS
  Resinforge Engineering <engineering@resinforge.dev>

LICENSE
  Copyright (C) 2026 Resinforge. All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of Resinforge.
*/

// Package printconfig loads and patches the daemon's YAML configuration
// file. Configuration is effectively immutable once loaded: a patch
// produces a new in-memory value and rewrites the file, backing up the
// previous version with a UNIX-timestamp suffix. There is no live
// reload; readers that already hold a Configuration keep seeing the
// pre-patch value for the remainder of their reference.
package printconfig

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/resinforge/printctl/internal/perr"
)

// PrinterSection holds motion/geometry defaults for the printer.
//
// Field tags double as the JSON shape the HTTP façade's /config routes
// serialise, matching the original implementation's serde-derived
// snake_case API (see original_source/src/configuration.rs).
type PrinterSection struct {
	Serial                    string  `yaml:"serial" json:"serial"`
	Baudrate                  int     `yaml:"baudrate" json:"baudrate"`
	MaxZMM                    float64 `yaml:"max_z" json:"max_z"`
	DefaultLiftMM             float64 `yaml:"default_lift" json:"default_lift"`
	DefaultUpSpeedMMPerSec    float64 `yaml:"default_up_speed" json:"default_up_speed"`
	DefaultDownSpeedMMPerSec  float64 `yaml:"default_down_speed" json:"default_down_speed"`
	DefaultWaitBeforeExposure float64 `yaml:"default_wait_before_exposure" json:"default_wait_before_exposure"`
	DefaultWaitAfterExposure  float64 `yaml:"default_wait_after_exposure" json:"default_wait_after_exposure"`
}

// GcodeSection holds the motion protocol's command templates.
type GcodeSection struct {
	Boot           string `yaml:"boot" json:"boot"`
	Shutdown       string `yaml:"shutdown" json:"shutdown"`
	Home           string `yaml:"home_command" json:"home_command"`
	Move           string `yaml:"move_command" json:"move_command"`
	ManualMove     string `yaml:"manual_move_command" json:"manual_move_command"`
	PrintStart     string `yaml:"print_start" json:"print_start"`
	PrintEnd       string `yaml:"print_end" json:"print_end"`
	LayerStart     string `yaml:"layer_start" json:"layer_start"`
	CureStart      string `yaml:"cure_start" json:"cure_start"`
	CureEnd        string `yaml:"cure_end" json:"cure_end"`
	MoveSync       string `yaml:"move_sync" json:"move_sync"`
	MoveTimeoutSec int    `yaml:"move_timeout" json:"move_timeout"`
	StatusCheck    string `yaml:"status_check" json:"status_check"`
	StatusDesired  string `yaml:"status_desired" json:"status_desired"`
}

// DisplaySection describes the mask display and its pixel format.
type DisplaySection struct {
	FrameBuffer  string  `yaml:"frame_buffer" json:"frame_buffer"`
	BitWidths    []uint8 `yaml:"bit_widths" json:"bit_widths"`
	LeftPad      uint8   `yaml:"left_pad" json:"left_pad"`
	RightPad     uint8   `yaml:"right_pad" json:"right_pad"`
	ScreenWidth  int     `yaml:"screen_width" json:"screen_width"`
	ScreenHeight int     `yaml:"screen_height" json:"screen_height"`
}

// APISection configures the non-core HTTP façade.
type APISection struct {
	UploadPath string `yaml:"upload_path" json:"upload_path"`
	USBGlob    string `yaml:"usb_glob" json:"usb_glob"`
	Port       int    `yaml:"port" json:"port"`
}

// Configuration is the full daemon configuration.
type Configuration struct {
	Printer PrinterSection `yaml:"printer" json:"printer"`
	Gcode   GcodeSection   `yaml:"gcode" json:"gcode"`
	API     APISection     `yaml:"api" json:"api"`
	Display DisplaySection `yaml:"display" json:"display"`

	path string // source file, unexported so it never round-trips through YAML or JSON.
}

// Load reads and parses the configuration file at path.
func Load(path string) (*Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, perr.ConfigurationErr(fmt.Errorf("reading config %s: %w", path, err))
	}
	var cfg Configuration
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, perr.ConfigurationErr(fmt.Errorf("parsing config %s: %w", path, err))
	}
	cfg.path = path
	return &cfg, nil
}

// Patch applies fn to a copy of cfg and persists the result, backing up
// the existing file first. The receiver's in-memory value is left
// untouched; callers that want the new value must use the returned
// Configuration.
func (c *Configuration) Patch(fn func(*Configuration)) (*Configuration, error) {
	patched := *c
	fn(&patched)
	if err := patched.save(); err != nil {
		return nil, err
	}
	return &patched, nil
}

func (c *Configuration) save() error {
	if c.path == "" {
		return perr.ConfigurationErr(fmt.Errorf("config has no backing file path"))
	}

	content, err := yaml.Marshal(c)
	if err != nil {
		return perr.ConfigurationErr(fmt.Errorf("marshalling config: %w", err))
	}

	if _, err := os.Stat(c.path); err == nil {
		backup := fmt.Sprintf("%s.%d.old", c.path, time.Now().Unix())
		if err := os.Rename(c.path, backup); err != nil {
			return perr.ConfigurationErr(fmt.Errorf("backing up config to %s: %w", backup, err))
		}
	}

	if err := os.WriteFile(c.path, content, 0o644); err != nil {
		return perr.ConfigurationErr(fmt.Errorf("writing config %s: %w", c.path, err))
	}
	return nil
}

// Path returns the backing file path, or "" if this Configuration was
// not loaded from a file. A Configuration returned by Patch keeps the
// path of the one it was patched from.
func (c *Configuration) Path() string { return c.path }
