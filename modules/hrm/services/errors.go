package services

import "github.com/iota-uz/staffimport/pkg/serrors"

var (
	ErrFileMissing       = serrors.NewError("IMPORT_FILE_MISSING", "no file was provided", "")
	ErrFileTooLarge      = serrors.NewError("IMPORT_FILE_TOO_LARGE", "file exceeds the maximum allowed size", "")
	ErrUnsupportedFormat = serrors.NewError("IMPORT_UNSUPPORTED_FORMAT", "only .csv and .xlsx files are supported", "")
	ErrFileMalformed     = serrors.NewError("IMPORT_FILE_MALFORMED", "the file could not be parsed", "")
	ErrTooManyRows       = serrors.NewError("IMPORT_TOO_MANY_ROWS", "file exceeds the maximum number of rows", "")
	ErrNoValidRows       = serrors.NewError("IMPORT_NO_VALID_ROWS", "no valid rows to import", "")
	// ErrImportCancelled reports a rolled-back import attempt: nothing of the
	// job, its row logs, or the stored file remains.
	ErrImportCancelled = serrors.NewError("IMPORT_CANCELLED", "import was cancelled and rolled back", "")
)
