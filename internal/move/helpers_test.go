package move

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/openfluidics/dropctl/internal/device"
)

// fakeProxy implements device.Proxy for controller tests. Actuation
// confirmations are emitted synchronously from SetActuatedChannels via the
// confirm hook; capacitance samples are fed by a samplePump.
type fakeProxy struct {
	capacitance *device.Signal[device.FeedbackSample]
	channels    *device.Signal[[]int]

	mu            sync.Mutex
	enabledEvents []string
	actuations    [][]int
	intervals     []int
	interval      int

	// confirm maps a requested channel set to the confirmed set the
	// device reports. Defaults to echoing the request.
	confirm func(channels []int) []int
}

func newFakeProxy() *fakeProxy {
	return &fakeProxy{
		capacitance: device.NewSignal[device.FeedbackSample](),
		channels:    device.NewSignal[[]int](),
		confirm:     func(channels []int) []int { return channels },
	}
}

func (f *fakeProxy) EnableEvent(_ context.Context, event string) error {
	f.mu.Lock()
	f.enabledEvents = append(f.enabledEvents, event)
	f.mu.Unlock()
	return nil
}

func (f *fakeProxy) SetActuatedChannels(_ context.Context, channels []int, _ bool) error {
	requested := make([]int, len(channels))
	copy(requested, channels)

	f.mu.Lock()
	f.actuations = append(f.actuations, requested)
	confirm := f.confirm
	f.mu.Unlock()

	f.channels.Emit(confirm(requested))
	return nil
}

func (f *fakeProxy) SetCapacitanceUpdateInterval(_ context.Context, ms int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.intervals = append(f.intervals, ms)
	prev := f.interval
	f.interval = ms
	return prev, nil
}

func (f *fakeProxy) Capacitance() *device.Signal[device.FeedbackSample] {
	return f.capacitance
}

func (f *fakeProxy) ChannelsUpdated() *device.Signal[[]int] {
	return f.channels
}

func (f *fakeProxy) actuationLog() [][]int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]int, len(f.actuations))
	copy(out, f.actuations)
	return out
}

func (f *fakeProxy) intervalLog() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int, len(f.intervals))
	copy(out, f.intervals)
	return out
}

var _ device.Proxy = (*fakeProxy)(nil)

// pumpStepUS is the simulated device time between pumped samples (50 ms),
// chosen so a 300 ms settle window needs a handful of samples.
const pumpStepUS = 50_000

// startPump feeds constant-capacitance samples into the proxy's feedback
// signal until the test ends. Device timestamps advance by pumpStepUS per
// sample regardless of wall-clock pacing.
func startPump(t *testing.T, proxy *fakeProxy, capacitance float64) {
	t.Helper()

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		var ts uint32
		for {
			select {
			case <-stop:
				return
			default:
			}
			proxy.capacitance.Emit(device.FeedbackSample{
				Event:            device.EventCapacitanceUpdated,
				Capacitance:      capacitance,
				TimeUS:           ts,
				SampleCount:      50,
				ActuationVoltage: 115,
			})
			ts += pumpStepUS
			time.Sleep(time.Millisecond)
		}
	}()
	t.Cleanup(func() {
		close(stop)
		<-done
	})
}

// samplesAt builds a sample sequence with the given relative timestamps (in
// seconds) and capacitance values, starting from the given origin counter.
func samplesAt(origin uint32, times []float64, values []float64) []device.FeedbackSample {
	samples := make([]device.FeedbackSample, len(times))
	for i := range times {
		samples[i] = device.FeedbackSample{
			Event:       device.EventCapacitanceUpdated,
			Capacitance: values[i],
			TimeUS:      origin + uint32(times[i]*1e6),
			SampleCount: 50,
		}
	}
	return samples
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
