package move

import (
	"sync"

	"github.com/openfluidics/dropctl/internal/device"
)

// Logger is the optional structured logger accepted by the controller.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// StopFunc decides when a feedback collection is complete. It receives the
// full buffer of samples collected so far, newest last, after each new
// sample is appended.
//
// A returned error marks a transient predicate fault: it is logged and the
// collection continues. It never aborts the wait.
type StopFunc func(samples []device.FeedbackSample) (bool, error)

// Controller sequences liquid movement on one device.
//
// A Controller holds no per-operation state; it may be reused across
// operations, but supports only one operation in flight at a time (the
// device's feedback stream and actuated-channel state are a single shared
// resource).
type Controller struct {
	proxy device.Proxy

	logger   Logger
	loggerMu sync.RWMutex
}

// New creates a controller driving the given device proxy.
func New(proxy device.Proxy) *Controller {
	return &Controller{proxy: proxy}
}

// SetLogger sets an optional structured logger.
func (c *Controller) SetLogger(logger Logger) {
	c.loggerMu.Lock()
	c.logger = logger
	c.loggerMu.Unlock()
}

func (c *Controller) logDebug(msg string, args ...any) {
	c.loggerMu.RLock()
	logger := c.logger
	c.loggerMu.RUnlock()

	if logger != nil {
		logger.Debug(msg, args...)
	}
}

func (c *Controller) logInfo(msg string, args ...any) {
	c.loggerMu.RLock()
	logger := c.logger
	c.loggerMu.RUnlock()

	if logger != nil {
		logger.Info(msg, args...)
	}
}

func (c *Controller) logError(msg string, args ...any) {
	c.loggerMu.RLock()
	logger := c.logger
	c.loggerMu.RUnlock()

	if logger != nil {
		logger.Error(msg, args...)
	}
}
