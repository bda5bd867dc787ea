package core

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidSheetName      = errors.New("invalid sheet name")
	ErrDataSourceUnavailable = errors.New("sheets API not initialized")
	ErrEmptySheet            = errors.New("no data found")
)

// InvalidSheetNameError reports a requested sheet outside the valid calendar.
// Input is echoed exactly as the caller sent it.
type InvalidSheetNameError struct {
	Input string
}

func (e *InvalidSheetNameError) Error() string {
	return fmt.Sprintf("invalid sheet name '%s': must be between JANUARY %d and DECEMBER %d",
		e.Input, FirstYear, LastYear)
}

func (e *InvalidSheetNameError) Is(target error) bool {
	return target == ErrInvalidSheetName
}

// EmptySheetError reports a fetched range without any data row below the header.
type EmptySheetError struct {
	Sheet string
}

func (e *EmptySheetError) Error() string {
	return fmt.Sprintf("no data found in '%s'", e.Sheet)
}

func (e *EmptySheetError) Is(target error) bool {
	return target == ErrEmptySheet
}
