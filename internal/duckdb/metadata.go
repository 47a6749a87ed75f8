package duckdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/MehwishAlam/pgx/internal/refdata"
)

// FileFingerprint holds stat-based identity for a file.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile creates a FileFingerprint from an on-disk file.
func StatFile(path string) (FileFingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

func formatModTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// Fresh reports whether the stored table of kind for gene was imported from
// a file with the same size and modification time as fp.
func (s *Store) Fresh(ctx context.Context, kind refdata.Kind, gene string, fp FileFingerprint) (bool, error) {
	var size int64
	var modTime string
	err := s.db.QueryRowContext(ctx,
		`SELECT size, mod_time FROM table_sources WHERE kind=? AND gene=?`,
		int32(kind), gene).Scan(&size, &modTime)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query %s source for %s: %w", kind, gene, err)
	}
	return size == fp.Size && modTime == formatModTime(fp.ModTime), nil
}

// sourceOf returns the recorded origin of a stored table. ok is false when
// no table of kind was stored for gene.
func (s *Store) sourceOf(ctx context.Context, kind refdata.Kind, gene string) (fp FileFingerprint, ok bool, err error) {
	var modTime string
	err = s.db.QueryRowContext(ctx,
		`SELECT path, size, mod_time FROM table_sources WHERE kind=? AND gene=?`,
		int32(kind), gene).Scan(&fp.Path, &fp.Size, &modTime)
	if errors.Is(err, sql.ErrNoRows) {
		return fp, false, nil
	}
	if err != nil {
		return fp, false, fmt.Errorf("query %s source for %s: %w", kind, gene, err)
	}
	if modTime != "" {
		fp.ModTime, _ = time.Parse(time.RFC3339Nano, modTime)
	}
	return fp, true, nil
}

func recordSource(ctx context.Context, conn *sql.Conn, kind refdata.Kind, gene string, fp FileFingerprint) error {
	if _, err := conn.ExecContext(ctx,
		`DELETE FROM table_sources WHERE kind=? AND gene=?`, int32(kind), gene); err != nil {
		return fmt.Errorf("clear %s source for %s: %w", kind, gene, err)
	}
	if _, err := conn.ExecContext(ctx,
		`INSERT INTO table_sources (kind, gene, path, size, mod_time) VALUES (?, ?, ?, ?, ?)`,
		int32(kind), gene, fp.Path, fp.Size, formatModTime(fp.ModTime)); err != nil {
		return fmt.Errorf("record %s source for %s: %w", kind, gene, err)
	}
	return nil
}

// Genes lists the genes with a stored table of kind, sorted.
func (s *Store) Genes(ctx context.Context, kind refdata.Kind) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT gene FROM table_sources WHERE kind=? ORDER BY gene`, int32(kind))
	if err != nil {
		return nil, fmt.Errorf("query %s genes: %w", kind, err)
	}
	defer rows.Close()

	var genes []string
	for rows.Next() {
		var g string
		if err := rows.Scan(&g); err != nil {
			return nil, fmt.Errorf("scan gene: %w", err)
		}
		genes = append(genes, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate genes: %w", err)
	}
	return genes, nil
}
