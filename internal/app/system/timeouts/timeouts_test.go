package timeouts_test

import (
	"testing"
	"time"

	"github.com/dalemusser/partnerportal/internal/app/system/timeouts"
)

func TestConfigure_OnlyNonZero(t *testing.T) {
	t.Cleanup(timeouts.Reset)

	timeouts.Configure(timeouts.Config{Short: 7 * time.Second})

	if got := timeouts.Short(); got != 7*time.Second {
		t.Errorf("Short() = %v, want 7s", got)
	}
	if got := timeouts.Medium(); got != timeouts.DefaultMedium {
		t.Errorf("Medium() = %v, want default %v", got, timeouts.DefaultMedium)
	}
}

func TestReset(t *testing.T) {
	timeouts.Configure(timeouts.Config{Ping: time.Minute, Batch: time.Hour})
	timeouts.Reset()

	c := timeouts.Current()
	if c.Ping != timeouts.DefaultPing || c.Batch != timeouts.DefaultBatch {
		t.Errorf("Reset did not restore defaults: %+v", c)
	}
}
