package telemetry

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/openfluidics/dropctl/internal/device"
)

// Writer is the sink a Recorder mirrors feedback into.
// *influxdb.Client satisfies it.
type Writer interface {
	WriteCapacitance(deviceID string, capacitance float64, sampleCount int, voltage float64, timestamp time.Time)
}

// Source provides the capacitance stream to record.
// device.Proxy satisfies it.
type Source interface {
	Capacitance() *device.Signal[device.FeedbackSample]
}

// Recorder mirrors one device's capacitance feedback into a Writer.
//
// Samples are timestamped with wall-clock arrival time; the device's own
// microsecond counter only orders samples within a control operation and
// wraps every ~71 minutes, so it is unsuitable as a series timestamp.
type Recorder struct {
	deviceID string
	writer   Writer

	sub  *device.Subscription[device.FeedbackSample]
	stop chan struct{}
	done chan struct{}

	mu      sync.Mutex
	started bool
	stopped bool

	recorded atomic.Uint64
}

// NewRecorder creates a recorder for the given device. Call Start to begin
// mirroring and Stop to release the subscription.
func NewRecorder(deviceID string, source Source, writer Writer) *Recorder {
	return &Recorder{
		deviceID: deviceID,
		writer:   writer,
		sub:      source.Capacitance().Subscribe(0),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the mirroring goroutine. Start after Stop is a no-op.
func (r *Recorder) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started || r.stopped {
		return
	}
	r.started = true
	go r.run()
}

func (r *Recorder) run() {
	defer close(r.done)
	for {
		select {
		case <-r.stop:
			return
		case sample := <-r.sub.C:
			r.writer.WriteCapacitance(
				r.deviceID,
				sample.Capacitance,
				sample.SampleCount,
				sample.ActuationVoltage,
				time.Now(),
			)
			r.recorded.Add(1)
		}
	}
}

// Stop ends mirroring and releases the subscription. Stop is idempotent,
// safe without a prior Start, and blocks until the mirroring goroutine has
// exited.
func (r *Recorder) Stop() {
	r.mu.Lock()
	if !r.stopped {
		r.stopped = true
		r.sub.Close()
		close(r.stop)
		if !r.started {
			// No goroutine to wait for.
			close(r.done)
		}
	}
	r.mu.Unlock()
	<-r.done
}

// Recorded returns the number of samples written so far.
func (r *Recorder) Recorded() uint64 {
	return r.recorded.Load()
}
