package fuzzy

import "testing"

func TestThresholdAdaptsToWordLength(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.threshold("cat"); got != cfg.ShortDistance {
		t.Errorf("threshold(cat) = %d, want %d", got, cfg.ShortDistance)
	}
	if got := cfg.threshold("kubernetes"); got != cfg.LongDistance {
		t.Errorf("threshold(kubernetes) = %d, want %d", got, cfg.LongDistance)
	}
}
