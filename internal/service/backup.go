package service

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/bookshelfapp/bookshelf-server/internal/backup"
	domainerrors "github.com/bookshelfapp/bookshelf-server/internal/errors"
	"github.com/bookshelfapp/bookshelf-server/internal/store"
)

// BackupService exports and restores whole libraries and turns backup
// failures into coded errors.
type BackupService struct {
	exporter *backup.Exporter
	importer *backup.Importer
	logger   *slog.Logger
}

// NewBackupService creates a new backup service.
func NewBackupService(s store.DocumentStore, logger *slog.Logger) *BackupService {
	return &BackupService{
		exporter: backup.NewExporter(s),
		importer: backup.NewImporter(s, logger),
		logger:   logger,
	}
}

// Export builds the user's backup document.
func (s *BackupService) Export(ctx context.Context, userID string) (*backup.Document, error) {
	doc, err := s.exporter.Export(ctx, userID)
	if err != nil {
		return nil, s.backupError(err, "export", userID)
	}
	s.logger.Info("library exported", "user_id", userID,
		"books", len(doc.Books),
		"bin", len(doc.Bin),
		"genres", len(doc.Genres),
		"series", len(doc.Series),
		"wishlist", len(doc.Wishlist),
	)
	return doc, nil
}

// Import restores doc into the user's library. On a failed commit the
// returned summary still carries the skip counts alongside the error.
func (s *BackupService) Import(ctx context.Context, userID string, doc *backup.Document, opts backup.ImportOptions) (*backup.Summary, error) {
	sum, err := s.importer.Import(ctx, userID, doc, opts)
	if err != nil {
		err = s.backupError(err, "import", userID)
		var coded *domainerrors.Error
		if sum != nil && errors.As(err, &coded) {
			err = coded.WithDetails(sum)
		}
		return sum, err
	}
	return sum, nil
}

// ImportFile decodes a backup file and imports it.
func (s *BackupService) ImportFile(ctx context.Context, userID string, r io.Reader, opts backup.ImportOptions) (*backup.Summary, error) {
	doc, err := backup.Decode(r)
	if err != nil {
		return nil, s.backupError(err, "decode backup", userID)
	}
	return s.Import(ctx, userID, doc, opts)
}

func (s *BackupService) backupError(err error, op, userID string) error {
	switch {
	case errors.Is(err, backup.ErrNothingToExport):
		return domainerrors.Wrap(err, domainerrors.CodeEmpty, "there is nothing to export yet")
	case errors.Is(err, backup.ErrMalformed):
		return domainerrors.Wrap(err, domainerrors.CodeValidation, "the backup file is not valid JSON")
	case errors.Is(err, backup.ErrUnsupportedVersion):
		return domainerrors.Wrap(err, domainerrors.CodeUnsupportedFormat, "unrecognised backup format")
	case errors.Is(err, backup.ErrEmptyBackup):
		return domainerrors.Wrap(err, domainerrors.CodeEmpty, "the backup file contains no records")
	case errors.Is(err, backup.ErrCommitFailed):
		s.logger.Error(op+" failed", "user_id", userID, "error", err)
		return domainerrors.Wrap(err, domainerrors.CodeUnavailable, "import failed, nothing was saved, please try again")
	default:
		return storeFailure(s.logger, err, op, "user_id", userID)
	}
}
