package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/ducminhle1904/prediction-trader/pkg/types"
)

// CSVProvider implements DataProvider for CSV files
type CSVProvider struct {
	format CSVColumnMapping
}

// NewCSVProvider creates a new CSV data provider with default format
func NewCSVProvider() *CSVProvider {
	return &CSVProvider{format: DefaultCSVFormat}
}

// NewCSVProviderWithFormat creates a new CSV data provider with custom format
func NewCSVProviderWithFormat(format CSVColumnMapping) *CSVProvider {
	return &CSVProvider{format: format}
}

// GetName returns the name of the data provider
func (p *CSVProvider) GetName() string {
	return "CSV Provider"
}

// LoadData loads historical data from a CSV file
func (p *CSVProvider) LoadData(source string) ([]types.OHLCV, error) {
	file, err := os.Open(source)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	format := p.format

	// Skip header
	if _, err := reader.Read(); err != nil {
		return nil, err
	}

	var data []types.OHLCV

	lineNum := 1 // header already consumed
	for {
		record, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("error reading CSV at line %d: %v", lineNum, err)
		}
		lineNum++

		if len(record) < format.MinColumns {
			log.Printf("⚠️ Insufficient columns at line %d (expected %d, got %d), skipping", lineNum, format.MinColumns, len(record))
			continue
		}

		timestamp, err := parseTimestamp(record[format.TimestampCol], format.DateFormat)
		if err != nil {
			log.Printf("⚠️ Invalid timestamp '%s' at line %d, skipping: %v", record[format.TimestampCol], lineNum, err)
			continue
		}

		open, err := strconv.ParseFloat(record[format.OpenCol], 64)
		if err != nil {
			log.Printf("⚠️ Invalid open price '%s' at line %d, skipping: %v", record[format.OpenCol], lineNum, err)
			continue
		}

		high, err := strconv.ParseFloat(record[format.HighCol], 64)
		if err != nil {
			log.Printf("⚠️ Invalid high price '%s' at line %d, skipping: %v", record[format.HighCol], lineNum, err)
			continue
		}

		low, err := strconv.ParseFloat(record[format.LowCol], 64)
		if err != nil {
			log.Printf("⚠️ Invalid low price '%s' at line %d, skipping: %v", record[format.LowCol], lineNum, err)
			continue
		}

		closePrice, err := strconv.ParseFloat(record[format.CloseCol], 64)
		if err != nil {
			log.Printf("⚠️ Invalid close price '%s' at line %d, skipping: %v", record[format.CloseCol], lineNum, err)
			continue
		}

		volume, err := strconv.ParseFloat(record[format.VolumeCol], 64)
		if err != nil {
			log.Printf("⚠️ Invalid volume '%s' at line %d, skipping: %v", record[format.VolumeCol], lineNum, err)
			continue
		}

		if open <= 0 || high <= 0 || low <= 0 || closePrice <= 0 {
			log.Printf("⚠️ Invalid price data (negative or zero) at line %d, skipping", lineNum)
			continue
		}
		if high < low {
			log.Printf("⚠️ High price is lower than low at line %d, skipping", lineNum)
			continue
		}

		data = append(data, types.OHLCV{
			Timestamp: timestamp,
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closePrice,
			Volume:    volume,
		})
	}

	return data, nil
}

// parseTimestamp accepts either the configured date format or a unix
// timestamp in seconds or milliseconds.
func parseTimestamp(value, format string) (time.Time, error) {
	if ts, err := time.Parse(format, value); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(value, 10, 64); err == nil {
		if unix > 1e12 {
			return time.UnixMilli(unix).UTC(), nil
		}
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

// ValidateData validates the integrity of loaded data
func (p *CSVProvider) ValidateData(data []types.OHLCV) error {
	if len(data) == 0 {
		return fmt.Errorf("no data provided")
	}

	for i, candle := range data {
		if candle.Open <= 0 || candle.High <= 0 || candle.Low <= 0 || candle.Close <= 0 {
			return fmt.Errorf("invalid price data at index %d: prices must be positive", i)
		}
		if candle.High < candle.Low {
			return fmt.Errorf("invalid price data at index %d: high (%.4f) cannot be less than low (%.4f)",
				i, candle.High, candle.Low)
		}
		if i > 0 && !candle.Timestamp.After(data[i-1].Timestamp) {
			return fmt.Errorf("invalid timestamp sequence at index %d: timestamps must be strictly increasing", i)
		}
	}

	return nil
}
