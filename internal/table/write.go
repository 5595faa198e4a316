package table

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// Write saves the table as CSV at the given path, creating parent
// directories as needed.
func Write(path string, t *Table) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrap(err, "table: create output dir")
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "table: create output")
	}
	if err := WriteTo(f, t); err != nil {
		f.Close()
		return err
	}
	return eris.Wrap(f.Close(), "table: close output")
}

// WriteTo writes the table as CSV to w, header first.
func WriteTo(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.cols); err != nil {
		return eris.Wrap(err, "table: write header")
	}
	for i := range t.rows {
		if err := cw.Write(t.row(i)); err != nil {
			return eris.Wrap(err, "table: write row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "table: flush")
}
