package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bookshelfapp/bookshelf-server/internal/backup"
)

// MaxBackupSize caps uploaded backup files (32 MB).
const MaxBackupSize = 32 << 20

func (s *Server) registerBackupRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "exportBackup",
		Method:      http.MethodGet,
		Path:        "/api/v1/backup/export",
		Summary:     "Export backup",
		Description: "Downloads the whole library as a dated JSON backup file",
		Tags:        []string{"Backup"},
		Security:    []map[string][]string{{"bearer": {}}},
		Metadata:    map[string]any{rawResponse: true},
	}, s.handleExportBackup)

	huma.Register(s.api, huma.Operation{
		OperationID:  "importBackup",
		Method:       http.MethodPost,
		Path:         "/api/v1/backup/import",
		Summary:      "Import backup",
		Description:  "Merges a backup file into the library, skipping anything already present",
		Tags:         []string{"Backup"},
		MaxBodyBytes: MaxBackupSize,
		Security:     []map[string][]string{{"bearer": {}}},
	}, s.handleImportBackup)
}

// === DTOs ===

type ExportBackupOutput struct {
	ContentType        string `header:"Content-Type"`
	ContentDisposition string `header:"Content-Disposition"`
	Body               []byte
}

type ImportBackupInput struct {
	DryRun  bool   `query:"dry_run" doc:"Report what would be imported without writing"`
	RawBody []byte
}

type ImportBackupResponse struct {
	Summary    *backup.Summary `json:"summary" doc:"Created and skipped counts per category"`
	Message    string          `json:"message" doc:"One-line description of the outcome"`
	NothingNew bool            `json:"nothing_new" doc:"True when every record was already present"`
}

type ImportBackupOutput struct {
	Body ImportBackupResponse
}

// === Handlers ===

func (s *Server) handleExportBackup(ctx context.Context, _ *struct{}) (*ExportBackupOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	doc, err := s.services.Backup.Export(ctx, userID)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := backup.Encode(&buf, doc); err != nil {
		return nil, err
	}

	return &ExportBackupOutput{
		ContentType:        "application/json",
		ContentDisposition: fmt.Sprintf("attachment; filename=%q", backup.FileName(doc.ExportedAt)),
		Body:               buf.Bytes(),
	}, nil
}

func (s *Server) handleImportBackup(ctx context.Context, input *ImportBackupInput) (*ImportBackupOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	summary, err := s.services.Backup.ImportFile(ctx, userID, bytes.NewReader(input.RawBody),
		backup.ImportOptions{DryRun: input.DryRun})
	if err != nil {
		return nil, err
	}

	return &ImportBackupOutput{Body: ImportBackupResponse{
		Summary:    summary,
		Message:    summary.Message(),
		NothingNew: summary.NothingNew(),
	}}, nil
}
