package migrate

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"regexp"
	"strings"

	"go.uber.org/multierr"
)

var migrationFileRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

const (
	markerUp        = "-- +goose Up"
	markerDown      = "-- +goose Down"
	markerStmtBegin = "-- +goose StatementBegin"
	markerStmtEnd   = "-- +goose StatementEnd"
)

// ValidateDir checks the migrations stored under dir on disk.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("read dir %q: %w", dir, err)
	}
	return ValidateFS(os.DirFS(dir))
}

// ValidateFS reports every malformed migration at the root of fsys: bad
// filenames, duplicate versions, missing or misordered goose markers and
// unbalanced statement blocks.
func ValidateFS(fsys fs.FS) error {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}

	var errs error
	versions := map[string]string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || path.Ext(name) != ".sql" {
			continue
		}

		m := migrationFileRe.FindStringSubmatch(name)
		if m == nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: expected YYYYMMDDHHMMSS_name.sql", name))
			continue
		}
		if prev, ok := versions[m[1]]; ok {
			errs = multierr.Append(errs, fmt.Errorf("%s: version %s already used by %s", name, m[1], prev))
		}
		versions[m[1]] = name

		body, err := fs.ReadFile(fsys, name)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		errs = multierr.Append(errs, checkMarkers(name, string(body)))
	}
	return errs
}

func checkMarkers(name, body string) error {
	up := strings.Index(body, markerUp)
	down := strings.Index(body, markerDown)
	switch {
	case up < 0:
		return fmt.Errorf("%s: missing %q", name, markerUp)
	case down < 0:
		return fmt.Errorf("%s: missing %q", name, markerDown)
	case down < up:
		return fmt.Errorf("%s: %q must come before %q", name, markerUp, markerDown)
	}

	depth := 0
	for _, line := range strings.Split(body, "\n") {
		switch strings.TrimSpace(line) {
		case markerStmtBegin:
			depth++
			if depth > 1 {
				return fmt.Errorf("%s: nested %q", name, markerStmtBegin)
			}
		case markerStmtEnd:
			depth--
			if depth < 0 {
				return fmt.Errorf("%s: %q without a matching begin", name, markerStmtEnd)
			}
		}
	}
	if depth != 0 {
		return fmt.Errorf("%s: unterminated %q", name, markerStmtBegin)
	}
	return nil
}
