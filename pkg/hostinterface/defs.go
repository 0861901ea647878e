package hostinterface

import (
	"sync"
	"time"

	"github.com/RacingGame/vehiclectl/internal/dispatcher"
)

// Config defines how calls to this extension will be handled
var Config = newConfig()

type configStruct struct {
	mu sync.RWMutex

	// version is returned when the host first loads the extension
	version string

	// dispatcher handles event routing
	dispatcher *dispatcher.Dispatcher

	now func() time.Time
}

func newConfig() *configStruct {
	return &configStruct{version: "No version set", now: time.Now}
}

// SetVersion sets the version string returned when the host loads the extension
func SetVersion(version string) {
	Config.mu.Lock()
	defer Config.mu.Unlock()
	Config.version = version
}

// SetDispatcher sets the event dispatcher for handling commands
func SetDispatcher(d *dispatcher.Dispatcher) {
	Config.mu.Lock()
	defer Config.mu.Unlock()
	Config.dispatcher = d
}

// GetDispatcher returns the configured dispatcher, or nil if not set
func GetDispatcher() *dispatcher.Dispatcher {
	Config.mu.RLock()
	defer Config.mu.RUnlock()
	return Config.dispatcher
}

func (c *configStruct) snapshot() (string, *dispatcher.Dispatcher, func() time.Time) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version, c.dispatcher, c.now
}
