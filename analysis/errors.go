package analysis

import (
	"errors"
	"fmt"
)

// ErrEmptyDataset matches any *EmptyDatasetError via errors.Is.
var ErrEmptyDataset = errors.New("empty dataset")

// EmptyDatasetError is returned when no valid fare record survives
// normalization. No report is produced in that case.
type EmptyDatasetError struct {
	Total    int
	Rejected int
}

func (e *EmptyDatasetError) Error() string {
	if e.Total == 0 {
		return "empty dataset: no fare records supplied"
	}
	return fmt.Sprintf("empty dataset: all %d fare records were rejected", e.Rejected)
}

func (e *EmptyDatasetError) Is(target error) bool {
	return target == ErrEmptyDataset
}
