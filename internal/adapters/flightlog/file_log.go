package flightlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/domain"
)

const currentName = "current.csv"

// Dir owns the on-disk layout for flight logs:
//
//	<root>/current.csv   active session backing log
//	<root>/archive/      completed session logs, moved here on clear
//	<root>/backup/       always-append copies of completed logs, never pruned
//	<root>/flights/      permanent saved flight records
type Dir struct {
	root     string
	archive  string
	backup   string
	flights  string
	currentP string
}

func OpenDir(root string) (*Dir, error) {
	d := &Dir{
		root:     root,
		archive:  filepath.Join(root, "archive"),
		backup:   filepath.Join(root, "backup"),
		flights:  filepath.Join(root, "flights"),
		currentP: filepath.Join(root, currentName),
	}
	for _, dir := range []string{root, d.archive, d.backup, d.flights} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Writer appends packets to the current session's backing log. Every Append
// reaches the disk before returning; the in-memory view is never ahead of
// the log.
type Writer struct {
	file *os.File
	csv  *csv.Writer
	rows int
}

// NewSessionLog truncates current.csv and starts it with a header row:
// the received wall clock followed by every record field in wire order.
func (d *Dir) NewSessionLog() (*Writer, error) {
	f, err := os.OpenFile(d.currentP, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	w := &Writer{file: f, csv: csv.NewWriter(f)}

	header := append([]string{"received_at"}, domain.FieldNames()...)
	if err := w.csv.Write(header); err != nil {
		f.Close()
		return nil, err
	}
	if err := w.sync(); err != nil {
		f.Close()
		return nil, err
	}
	return w, nil
}

func (w *Writer) Append(p *domain.Packet) error {
	if err := w.csv.Write(p.Row()); err != nil {
		return fmt.Errorf("flight log append: %w", err)
	}
	if err := w.sync(); err != nil {
		return fmt.Errorf("flight log append: %w", err)
	}
	w.rows++
	return nil
}

func (w *Writer) Rows() int { return w.rows }

func (w *Writer) sync() error {
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return err
	}
	return w.file.Sync()
}

func (w *Writer) Close() error {
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}

// ArchiveCurrent finishes the session log: a copy lands in backup/ and the
// original moves to archive/. The writer is closed; the archived file is
// never touched again.
func (d *Dir) ArchiveCurrent(w *Writer, sessionID string) error {
	if err := w.Close(); err != nil {
		return fmt.Errorf("archive close: %w", err)
	}
	name := d.uniqueSessionName(sessionID)
	if err := copyFile(d.currentP, filepath.Join(d.backup, name)); err != nil {
		return fmt.Errorf("archive backup copy: %w", err)
	}
	if err := os.Rename(d.currentP, filepath.Join(d.archive, name)); err != nil {
		return fmt.Errorf("archive move: %w", err)
	}
	return nil
}

// SaveCurrent copies the live log to a timestamped permanent flight record
// without disturbing the current session. Returns the record name.
func (d *Dir) SaveCurrent(w *Writer, at time.Time) (string, error) {
	if err := w.sync(); err != nil {
		return "", fmt.Errorf("save flush: %w", err)
	}
	name := fmt.Sprintf("flight_%s.csv", at.Format("2006-01-02_15-04-05"))
	if err := copyFile(d.currentP, filepath.Join(d.flights, name)); err != nil {
		return "", fmt.Errorf("save copy: %w", err)
	}
	return name, nil
}

// uniqueSessionName picks the file name for a completed session's log.
// Session IDs carry millisecond resolution, so two back-to-back transitions
// can share one; a numbered suffix keeps the earlier log intact instead of
// letting the rename overwrite it.
func (d *Dir) uniqueSessionName(sessionID string) string {
	name := fmt.Sprintf("session_%s.csv", sessionID)
	for n := 2; fileExists(filepath.Join(d.archive, name)) || fileExists(filepath.Join(d.backup, name)); n++ {
		name = fmt.Sprintf("session_%s_%d.csv", sessionID, n)
	}
	return name
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ArchivePath resolves a completed session's log location.
func (d *Dir) ArchivePath(sessionID string) string {
	return filepath.Join(d.archive, fmt.Sprintf("session_%s.csv", sessionID))
}

// BackupPath resolves a completed session's backup copy.
func (d *Dir) BackupPath(sessionID string) string {
	return filepath.Join(d.backup, fmt.Sprintf("session_%s.csv", sessionID))
}

// FlightPath resolves a saved flight record's location.
func (d *Dir) FlightPath(name string) string {
	return filepath.Join(d.flights, name)
}

// CurrentPath is the active backing log location.
func (d *Dir) CurrentPath() string { return d.currentP }

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
