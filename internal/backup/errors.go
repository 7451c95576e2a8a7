// Package backup exports a user's library to a single JSON document and
// imports such documents back, remapping ids and skipping what is already owned.
package backup

import "errors"

var (
	// ErrNothingToExport means every collection was empty, so no file is produced.
	ErrNothingToExport = errors.New("nothing to export")

	// ErrMalformed means the input is not a JSON backup document.
	ErrMalformed = errors.New("backup is not valid JSON")

	// ErrUnsupportedVersion means the version field is missing or not one we read.
	ErrUnsupportedVersion = errors.New("unrecognised backup format")

	// ErrEmptyBackup means the document parsed but holds no records.
	ErrEmptyBackup = errors.New("backup contains no records")

	// ErrCommitFailed means the import's single write batch was rejected.
	// Nothing from the import was written.
	ErrCommitFailed = errors.New("import could not be saved")
)
