package service

import (
	"context"

	"github.com/corp-qr-hub/internal/domain/scan"
)

// ArchiveService stores one consumed scan event.
type ArchiveService interface {
	Archive(ctx context.Context, event *scan.Recorded) error
}
