// Package report serializes warning rows to CSV and stages the result as
// a transient file for mail attachment.
package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/xxxhand/scan-ota-status/internal/core"
)

// header columns, in warning-row field order.
var header = []string{"sn", "accountId", "email", "iotKey", "uid", "count"}

// Artifact is a staged report file plus its raw bytes, kept in memory so
// the attachment never re-reads the file.
type Artifact struct {
	FileName string
	Path     string
	Content  []byte
}

// Build serializes rows to UTF-8 CSV text: header first, one line per row,
// row order preserved. Identical inputs produce byte-identical output.
func Build(rows []core.WarningRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, r := range rows {
		rec := []string{r.SN, r.AccountID, r.Email, r.IoTKey, r.UID, strconv.Itoa(r.Count)}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write stages the report in dir under a timestamped name, so names stay
// unique across process restarts. The file is left behind for operational
// housekeeping; this job never deletes it.
func Write(dir string, rows []core.WarningRow) (*Artifact, error) {
	content, err := Build(rows)
	if err != nil {
		return nil, core.NewArtifactError("serialize report", err)
	}
	name := fmt.Sprintf("scanOtaStatus_%d.csv", time.Now().UnixMilli())
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return nil, core.NewArtifactError("write report file", err)
	}
	return &Artifact{FileName: name, Path: path, Content: content}, nil
}
