package editor

import "time"

// Config holds the gesture thresholds.
type Config struct {
	DoubleTapWindow     time.Duration `yaml:"double_tap_window" toml:"double_tap_window" json:"doubleTapWindow" validate:"gt=0"`
	DoubleTapDistance   float64       `yaml:"double_tap_distance" toml:"double_tap_distance" json:"doubleTapDistance" validate:"gte=0"`
	DragDelay           time.Duration `yaml:"drag_delay" toml:"drag_delay" json:"dragDelay" validate:"gte=0"`
	SelectedDragDelay   time.Duration `yaml:"selected_drag_delay" toml:"selected_drag_delay" json:"selectedDragDelay" validate:"gte=0"`
	ConnectionTimeout   time.Duration `yaml:"connection_timeout" toml:"connection_timeout" json:"connectionTimeout" validate:"gt=0"`
	DragThreshold       float64       `yaml:"drag_threshold" toml:"drag_threshold" json:"dragThreshold" validate:"gte=0"`
	ConnectionTolerance float64       `yaml:"connection_tolerance" toml:"connection_tolerance" json:"connectionTolerance" validate:"gte=0"`
	NewNodeTitle        string        `yaml:"new_node_title" toml:"new_node_title" json:"newNodeTitle"`
}

// DefaultConfig returns the thresholds both front ends share.
func DefaultConfig() Config {
	return Config{
		DoubleTapWindow:     450 * time.Millisecond,
		DoubleTapDistance:   10,
		DragDelay:           120 * time.Millisecond,
		SelectedDragDelay:   80 * time.Millisecond,
		ConnectionTimeout:   3000 * time.Millisecond,
		DragThreshold:       6,
		ConnectionTolerance: 8,
		NewNodeTitle:        "Nueva idea",
	}
}
