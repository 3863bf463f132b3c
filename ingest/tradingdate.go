package ingest

import (
	"fmt"
	"time"

	"github.com/neomantra/pointline"
)

// DeriveTradingDate stamps a trading_date column (days since Unix epoch,
// pointline.Date) computed from each row's ts_event_us interpreted in
// its exchange's IANA timezone (§3).
func DeriveTradingDate(df *pointline.Frame) (*pointline.Frame, error) {
	if err := requireColumns(df, "trading_date", "exchange", "ts_event_us"); err != nil {
		return nil, err
	}
	exchange := df.MustColumn("exchange")
	ts := df.MustColumn("ts_event_us")
	n := df.NumRows()

	locCache := make(map[string]*time.Location, 4)
	out := make([]int32, n)
	for i := 0; i < n; i++ {
		ex := exchange.Str[i]
		tzName, ok := pointline.ExchangeTimezone(ex)
		if !ok {
			return nil, fmt.Errorf("%w: %q", pointline.ErrUnknownExchange, ex)
		}
		loc, ok := locCache[tzName]
		if !ok {
			var err error
			loc, err = time.LoadLocation(tzName)
			if err != nil {
				return nil, fmt.Errorf("pointline/ingest: loading timezone %q: %w", tzName, err)
			}
			locCache[tzName] = loc
		}
		t := time.UnixMicro(ts.I64[i]).In(loc)
		midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		out[i] = int32(midnight.Unix() / 86400)
	}
	return df.WithColumn(pointline.NewColumn("trading_date", out)), nil
}
