package move

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/openfluidics/dropctl/internal/device"
)

func TestActuateChannelsValidation(t *testing.T) {
	tests := []struct {
		name          string
		requested     []int
		confirmed     []int
		allowDisabled bool
		want          []int
		wantMismatch  bool
	}{
		{
			name:          "exact match strict",
			requested:     []int{1, 2, 3},
			confirmed:     []int{1, 2, 3},
			allowDisabled: false,
			want:          []int{1, 2, 3},
		},
		{
			name:          "subset rejected in strict mode",
			requested:     []int{1, 2, 3},
			confirmed:     []int{1, 2},
			allowDisabled: false,
			wantMismatch:  true,
		},
		{
			name:          "subset accepted with disabled channels allowed",
			requested:     []int{1, 2, 3},
			confirmed:     []int{1, 2},
			allowDisabled: true,
			want:          []int{1, 2},
		},
		{
			name:          "unrequested channel rejected even when disabled allowed",
			requested:     []int{1, 2, 3},
			confirmed:     []int{1, 2, 4},
			allowDisabled: true,
			wantMismatch:  true,
		},
		{
			name:          "unrequested channel rejected in strict mode",
			requested:     []int{1, 2, 3},
			confirmed:     []int{1, 2, 3, 4},
			allowDisabled: false,
			wantMismatch:  true,
		},
		{
			name:          "empty confirmation tolerated when disabled allowed",
			requested:     []int{5},
			confirmed:     []int{},
			allowDisabled: true,
			want:          []int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proxy := newFakeProxy()
			proxy.confirm = func([]int) []int { return tt.confirmed }
			ctrl := New(proxy)

			got, err := ctrl.ActuateChannels(context.Background(), tt.requested, tt.allowDisabled)

			if tt.wantMismatch {
				if !errors.Is(err, ErrActuationMismatch) {
					t.Fatalf("ActuateChannels() error = %v, want actuation mismatch", err)
				}
				var mismatch *MismatchError
				if !errors.As(err, &mismatch) {
					t.Fatal("error does not expose *MismatchError")
				}
				if !equalInts(mismatch.Requested, tt.requested) {
					t.Errorf("MismatchError.Requested = %v, want %v", mismatch.Requested, tt.requested)
				}
				if !equalInts(mismatch.Actuated, tt.confirmed) {
					t.Errorf("MismatchError.Actuated = %v, want %v", mismatch.Actuated, tt.confirmed)
				}
				return
			}

			if err != nil {
				t.Fatalf("ActuateChannels() unexpected error: %v", err)
			}
			if !equalInts(got, tt.want) {
				t.Errorf("ActuateChannels() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestActuateChannelsEnablesConfirmationEvent(t *testing.T) {
	proxy := newFakeProxy()
	ctrl := New(proxy)

	if _, err := ctrl.ActuateChannels(context.Background(), []int{7}, true); err != nil {
		t.Fatalf("ActuateChannels() error: %v", err)
	}

	proxy.mu.Lock()
	defer proxy.mu.Unlock()
	if len(proxy.enabledEvents) != 1 || proxy.enabledEvents[0] != device.EventChannelsUpdated {
		t.Errorf("enabled events = %v, want [%s]", proxy.enabledEvents, device.EventChannelsUpdated)
	}
}

func TestActuateChannelsCancelledWhileWaiting(t *testing.T) {
	proxy := newFakeProxy()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	// silentProxy never emits a confirmation, so the wait must end on the
	// deadline.
	ctrl := New(&silentProxy{fakeProxy: proxy})
	_, err := ctrl.ActuateChannels(ctx, []int{1}, true)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("ActuateChannels() error = %v, want deadline exceeded", err)
	}

	if got := proxy.channels.SubscriberCount(); got != 0 {
		t.Errorf("confirmation subscribers after cancel = %d, want 0 (subscription leaked)", got)
	}
}

// silentProxy wraps fakeProxy but never emits an actuation confirmation.
type silentProxy struct {
	*fakeProxy
}

func (p *silentProxy) SetActuatedChannels(_ context.Context, channels []int, _ bool) error {
	p.mu.Lock()
	p.actuations = append(p.actuations, channels)
	p.mu.Unlock()
	return nil
}
