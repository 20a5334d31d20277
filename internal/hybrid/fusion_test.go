package hybrid

import "testing"

func TestFuseRRFTopRankedEverywhereWins(t *testing.T) {
	channels := []ChannelHits{
		{Channel: "lexical", IDs: []int64{1, 2, 3}},
		{Channel: "vector", IDs: []int64{1, 3, 2}},
	}
	fused := FuseRRF(channels, 60)
	if len(fused) == 0 || fused[0].MemoryID != 1 {
		t.Fatalf("FuseRRF = %+v, want id 1 ranked first", fused)
	}
}

func TestFuseRRFAbsentChannelContributesZero(t *testing.T) {
	channels := []ChannelHits{
		{Channel: "lexical", IDs: []int64{5}},
	}
	fused := FuseRRF(channels, 60)
	if len(fused) != 1 || fused[0].MemoryID != 5 {
		t.Fatalf("FuseRRF = %+v, want single doc 5", fused)
	}
	want := 1.0 / 61.0
	if fused[0].Score != want {
		t.Errorf("FuseRRF score = %v, want %v", fused[0].Score, want)
	}
}

func TestFuseRRFAbsentFromAllChannelsIsAbsent(t *testing.T) {
	channels := []ChannelHits{
		{Channel: "lexical", IDs: []int64{1, 2}},
	}
	fused := FuseRRF(channels, 60)
	for _, f := range fused {
		if f.MemoryID == 99 {
			t.Fatalf("FuseRRF included id 99, want absent")
		}
	}
}

func TestFuseRRFUnionsAcrossChannels(t *testing.T) {
	channels := []ChannelHits{
		{Channel: "lexical", IDs: []int64{1}},
		{Channel: "fuzzy", IDs: []int64{2}},
	}
	fused := FuseRRF(channels, 60)
	if len(fused) != 2 {
		t.Fatalf("FuseRRF union = %+v, want 2 docs", fused)
	}
}

func TestFuseRRFDefaultsKWhenNonPositive(t *testing.T) {
	channels := []ChannelHits{{Channel: "lexical", IDs: []int64{7}}}
	fused := FuseRRF(channels, 0)
	want := 1.0 / float64(DefaultRRFK+1)
	if fused[0].Score != want {
		t.Errorf("FuseRRF default k score = %v, want %v", fused[0].Score, want)
	}
}
