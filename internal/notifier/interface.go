package notifier

import (
	"time"

	"github.com/tkaraxa/sibyl/internal/core"
)

// Config holds notifier configuration
type Config struct {
	Type   string         `mapstructure:"type"`
	Params map[string]any `mapstructure:"params"`
}

// Alert is the notification payload for a routed recommendation.
type Alert struct {
	Asset          string
	Recommendation core.Recommendation
	Warning        string
	GeneratedAt    time.Time
}

// Notifier defines the interface for recommendation notification
type Notifier interface {
	// Name returns the unique identifier for this notifier
	Name() string

	// Init initializes the notifier with configuration
	Init(cfg Config) error

	// Send sends a single alert
	Send(alert Alert) error

	// SendBatch sends multiple alerts
	SendBatch(alerts []Alert) error
}
