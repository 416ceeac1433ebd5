package dataset

import "fmt"

// DataFormatError indicates the input file is absent, unreadable, or not in
// the expected labeled format. Loader failures are fatal to a run.
type DataFormatError struct {
	Path   string
	Reason string
	Err    error
}

func (e *DataFormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("dataset %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("dataset %s: %s", e.Path, e.Reason)
}

func (e *DataFormatError) Unwrap() error { return e.Err }

func formatErr(path, reason string, err error) *DataFormatError {
	return &DataFormatError{Path: path, Reason: reason, Err: err}
}
