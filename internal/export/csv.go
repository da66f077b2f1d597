// internal/export/csv.go
//
// CSV export of a learning path. The backend render is preferred (it is the
// authoritative formatter); when it is unreachable the same columns are
// produced locally, matching the hand-built rows of the original dashboard.

package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kindrove/pathway/internal/api"
	"github.com/kindrove/pathway/internal/model"
)

var header = []string{"Module #", "Title", "Description", "Hours", "Topics"}

// Exporter writes learning-path CSV files into the export directory.
type Exporter struct {
	client *api.Client
	dir    string
	log    *zap.Logger
}

// New builds an exporter writing into dir.
func New(client *api.Client, dir string, log *zap.Logger) *Exporter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Exporter{client: client, dir: dir, log: log}
}

// Export renders the path to a CSV file and returns the file's location.
// Remote first; local fallback on any remote failure, since the local
// render needs neither network nor auth.
func (e *Exporter) Export(ctx context.Context, lp model.LearningPath) (string, error) {
	path := filepath.Join(e.dir, fileName(lp))

	data, err := e.client.ExportCSV(ctx, lp)
	if err == nil {
		if werr := os.WriteFile(path, data, 0o644); werr != nil {
			return "", fmt.Errorf("export: write %s: %w", path, werr)
		}
		return path, nil
	}
	e.log.Warn("remote export failed, rendering locally",
		zap.String("error_kind", api.KindOf(err).String()), zap.Error(err))

	f, ferr := os.Create(path)
	if ferr != nil {
		return "", fmt.Errorf("export: create %s: %w", path, ferr)
	}
	defer f.Close()
	if werr := Write(f, lp); werr != nil {
		return "", werr
	}
	return path, nil
}

// Write renders the module table as CSV.
func Write(w io.Writer, lp model.LearningPath) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("export: write header: %w", err)
	}
	for i, m := range lp.Modules {
		row := []string{
			strconv.Itoa(i + 1),
			m.Title,
			m.Description,
			strconv.FormatFloat(m.Hours, 'f', -1, 64),
			strings.Join(m.Topics, "; "),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("export: write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// fileName derives <title>_<timestamp>.csv, filesystem-safe.
func fileName(lp model.LearningPath) string {
	title := strings.TrimSpace(lp.Title)
	if title == "" {
		title = "learning-path"
	}
	title = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, title)
	return fmt.Sprintf("%s_%s.csv", title, time.Now().Format("20060102-150405"))
}
