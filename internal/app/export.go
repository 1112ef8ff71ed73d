package app

import (
	"context"
	"encoding/csv"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"futures-six/internal/series"
)

// Export renders one continuous series as CSV and/or a PNG chart.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.Series == "" {
		return errors.New("--series is required")
	}
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}
	if _, err := series.ParseSeries(opts.Series); err != nil {
		return err
	}

	opts.MaxPoints = a.Config.ResolveMaxPoints(opts.MaxPoints)

	store, closeStore, err := a.openStoreReadOnly(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	to := time.Now().UTC()
	if opts.To != nil {
		to = opts.To.UTC()
	}

	from := to.AddDate(0, 0, -opts.MaxPoints)
	if opts.From != nil {
		from = opts.From.UTC()
	}

	if !from.Before(to) {
		return errors.New("from must be before to")
	}

	bars, err := store.ListSeriesBars(ctx, opts.Series, from, to)
	if err != nil {
		return err
	}
	if len(bars) == 0 {
		a.Logger.Info().Str("series", opts.Series).Msg("no bars found for export window")
		return nil
	}

	downsampled := downsampleBars(bars, opts.MaxPoints)
	a.Logger.Info().Int("total", len(bars)).Int("exported", len(downsampled)).Msg("exporting bars")

	if opts.CSVPath != "" {
		if err := writeBarsCSV(opts.CSVPath, downsampled); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		if err := writeBarsPNG(opts.PNGPath, opts.Series, downsampled); err != nil {
			return err
		}
	}

	return nil
}

func downsampleBars(bars []series.ContinuousBar, max int) []series.ContinuousBar {
	if max <= 0 || len(bars) <= max {
		return bars
	}

	result := make([]series.ContinuousBar, 0, max)
	step := float64(len(bars)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(math.Round(step * float64(i)))
		if idx >= len(bars) {
			idx = len(bars) - 1
		}
		result = append(result, bars[idx])
	}
	return result
}

func writeBarsCSV(path string, bars []series.ContinuousBar) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"trading_date", "contract_series", "underlying_instrument_id", "open", "high", "low", "close", "volume"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, bar := range bars {
		record := []string{
			bar.TradingDate.Format("2006-01-02"),
			bar.Series.String(),
			strconv.FormatInt(bar.UnderlyingID, 10),
			bar.Open.String(),
			bar.High.String(),
			bar.Low.String(),
			bar.Close.String(),
			strconv.FormatInt(bar.Volume, 10),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return writer.Error()
}

func writeBarsPNG(path, seriesKey string, bars []series.ContinuousBar) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	x := make([]time.Time, len(bars))
	closes := make([]float64, len(bars))
	volumes := make([]float64, len(bars))

	for i, bar := range bars {
		x[i] = bar.TradingDate
		closes[i] = bar.Close.InexactFloat64()
		volumes[i] = float64(bar.Volume)
	}

	priceFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.2f")
	}
	graph := chart.Chart{
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Close",
			ValueFormatter: priceFormatter,
		},
		YAxisSecondary: chart.YAxis{
			Name: "Volume",
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    seriesKey,
				XValues: x,
				YValues: closes,
			},
			chart.TimeSeries{
				Name:    "Volume",
				XValues: x,
				YValues: volumes,
				YAxis:   chart.YAxisSecondary,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
