package sqcbapi

import (
	"context"
	"fmt"
	"os"

	"github.com/sqcb_dashboard/backend/internal/models"
)

// FileSource serves records from a JSON export of the upstream API. Used for
// demos and offline reports.
type FileSource struct {
	Path string
}

func (f FileSource) ListRecords(ctx context.Context) ([]models.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("sqcbapi: read %s: %w", f.Path, err)
	}
	return DecodeRecords(data)
}
