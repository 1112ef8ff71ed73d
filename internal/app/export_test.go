package app

import (
	"testing"
	"time"

	"futures-six/internal/series"
)

func TestDownsampleBars(t *testing.T) {
	bars := make([]series.ContinuousBar, 10)
	for i := range bars {
		bars[i].TradingDate = time.Date(2025, time.March, 1+i, 0, 0, 0, 0, time.UTC)
	}

	got := downsampleBars(bars, 4)
	if len(got) != 4 {
		t.Fatalf("expected 4 points, got %d", len(got))
	}
	if !got[0].TradingDate.Equal(bars[0].TradingDate) || !got[3].TradingDate.Equal(bars[9].TradingDate) {
		t.Fatal("downsampling must keep the first and last points")
	}

	if got := downsampleBars(bars, 20); len(got) != 10 {
		t.Fatalf("no downsampling needed below the cap, got %d", len(got))
	}
	if got := downsampleBars(bars, 0); len(got) != 10 {
		t.Fatalf("a zero cap disables downsampling, got %d", len(got))
	}
}
