package migration

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"text/template"
	"time"
)

const upTemplate = `-- {{.Name}}
-- Created: {{.Created}}

`

const downTemplate = `-- Rollback of {{.Name}}

`

var fileRe = regexp.MustCompile(`^(\d+)_([a-z0-9_]+)\.(up|down)\.sql$`)

// File is one up/down migration pair
type File struct {
	Version  uint
	Name     string
	Created  string
	UpPath   string
	DownPath string
}

// Base is the file name without direction and extension
func (f *File) Base() string {
	return fmt.Sprintf("%06d_%s", f.Version, f.Name)
}

// Create writes the next sequential migration pair into dir
func Create(dir, name string) (*File, error) {
	slug := sanitizeName(name)
	if slug == "" {
		return nil, errors.New("migration name must contain letters or digits")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create migrations directory: %w", err)
	}

	existing, err := List(dir)
	if err != nil {
		return nil, err
	}
	var next uint = 1
	if n := len(existing); n > 0 {
		last, _, _ := parseBase(existing[n-1])
		next = last + 1
	}

	f := &File{
		Version: next,
		Name:    slug,
		Created: time.Now().UTC().Format(time.RFC3339),
	}
	f.UpPath = filepath.Join(dir, f.Base()+".up.sql")
	f.DownPath = filepath.Join(dir, f.Base()+".down.sql")

	if err := writeTemplate(f.UpPath, upTemplate, f); err != nil {
		return nil, err
	}
	if err := writeTemplate(f.DownPath, downTemplate, f); err != nil {
		_ = os.Remove(f.UpPath)
		return nil, err
	}
	return f, nil
}

func writeTemplate(p, text string, f *File) error {
	tmpl, err := template.New(path.Base(p)).Parse(text)
	if err != nil {
		return err
	}
	out, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", p, err)
	}
	defer out.Close()
	return tmpl.Execute(out, f)
}

// sanitizeName lowercases name and joins its words with underscores
func sanitizeName(name string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			pendingSep = true
		}
	}
	return b.String()
}

// List returns the migration bases in dir in version order. A missing
// directory has no migrations.
func List(dir string) ([]string, error) {
	bases, err := list(os.DirFS(dir), ".")
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	return bases, err
}

func list(fsys fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	bases := make([]string, 0, len(entries)/2)
	for _, entry := range entries {
		m := fileRe.FindStringSubmatch(entry.Name())
		if entry.IsDir() || m == nil || m[3] != "up" {
			continue
		}
		base := m[1] + "_" + m[2]
		if !seen[base] {
			seen[base] = true
			bases = append(bases, base)
		}
	}
	sort.Slice(bases, func(i, j int) bool {
		vi, _, _ := parseBase(bases[i])
		vj, _, _ := parseBase(bases[j])
		return vi < vj
	})
	return bases, nil
}

func parseBase(base string) (uint, string, bool) {
	version, name, ok := strings.Cut(base, "_")
	if !ok {
		return 0, "", false
	}
	n, err := strconv.ParseUint(version, 10, 32)
	if err != nil {
		return 0, "", false
	}
	return uint(n), name, true
}
