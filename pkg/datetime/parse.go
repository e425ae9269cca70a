// Package datetime provides date and time utility functions.
package datetime

import (
	"fmt"
	"time"

	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/constants"
)

const (
	// DateTimeLayout is the format expected in config files and is also the output
	// date format.
	DateTimeLayout = constants.DateTimeLayout
)

// PeriodLabels returns count+1 month labels where label i is start offset by
// i months. An empty start yields empty labels so projections without a
// calendar anchor stay purely index-based.
func PeriodLabels(start string, count int) ([]string, error) {
	if count < 0 {
		return nil, fmt.Errorf("period count must be non-negative, got %d", count)
	}
	labels := make([]string, count+1)
	if start == "" {
		return labels, nil
	}
	startT, err := time.Parse(DateTimeLayout, start)
	if err != nil {
		return nil, fmt.Errorf("invalid start month %q: %w", start, err)
	}
	for i := range labels {
		labels[i] = startT.AddDate(0, i, 0).Format(DateTimeLayout)
	}
	return labels, nil
}

// MonthOffset returns the number of whole months from start to date, both
// in DateTimeLayout. The result is negative when date precedes start.
func MonthOffset(start, date string) (int, error) {
	startT, err := time.Parse(DateTimeLayout, start)
	if err != nil {
		return 0, fmt.Errorf("invalid start month %q: %w", start, err)
	}
	dateT, err := time.Parse(DateTimeLayout, date)
	if err != nil {
		return 0, fmt.Errorf("invalid month %q: %w", date, err)
	}
	return (dateT.Year()-startT.Year())*12 + int(dateT.Month()-startT.Month()), nil
}
