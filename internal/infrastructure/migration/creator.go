package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/template"
	"time"
)

const scaffoldTemplate = `-- {{.Name}} ({{.Direction}}, {{.Dialect}})
-- Created: {{.Timestamp}}
{{- if .Description}}
-- {{.Description}}
{{- end}}

`

var scaffold = template.Must(template.New("migration").Parse(scaffoldTemplate))

// MigrationFile describes one scaffolded migration pair for one dialect
type MigrationFile struct {
	Version  uint
	Name     string
	Dialect  string
	UpPath   string
	DownPath string
}

// CreateMigration scaffolds an up/down pair in every dialect directory under
// root. All dialects share the next free sequence number so they stay aligned.
func CreateMigration(root, name, description string) ([]MigrationFile, error) {
	slug := sanitizeName(name)
	if slug == "" {
		return nil, fmt.Errorf("migration name %q has no usable characters", name)
	}

	version, err := nextVersion(root)
	if err != nil {
		return nil, err
	}
	base := fmt.Sprintf("%06d_%s", version, slug)
	timestamp := time.Now().Format(time.RFC3339)

	files := make([]MigrationFile, 0, len(Dialects))
	for _, dialect := range Dialects {
		dir := SourceDir(root, dialect)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
		mf := MigrationFile{
			Version:  version,
			Name:     slug,
			Dialect:  dialect,
			UpPath:   filepath.Join(dir, base+".up.sql"),
			DownPath: filepath.Join(dir, base+".down.sql"),
		}
		for direction, path := range map[string]string{"up": mf.UpPath, "down": mf.DownPath} {
			if err := writeScaffold(path, map[string]string{
				"Name":        name,
				"Direction":   direction,
				"Dialect":     dialect,
				"Timestamp":   timestamp,
				"Description": description,
			}); err != nil {
				removeScaffolds(append(files, mf))
				return nil, err
			}
		}
		files = append(files, mf)
	}
	return files, nil
}

func writeScaffold(path string, data map[string]string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()
	if err := scaffold.Execute(f, data); err != nil {
		return fmt.Errorf("failed to render %s: %w", path, err)
	}
	return nil
}

func removeScaffolds(files []MigrationFile) {
	for _, mf := range files {
		_ = os.Remove(mf.UpPath)
		_ = os.Remove(mf.DownPath)
	}
}

// nextVersion returns one past the highest version found in any dialect
func nextVersion(root string) (uint, error) {
	var highest uint
	for _, dialect := range Dialects {
		names, err := ListMigrations(root, dialect)
		if err != nil {
			return 0, err
		}
		for _, name := range names {
			prefix, _, _ := strings.Cut(name, "_")
			v, err := strconv.ParseUint(prefix, 10, 64)
			if err != nil {
				continue
			}
			if uint(v) > highest {
				highest = uint(v)
			}
		}
	}
	return highest + 1, nil
}

// sanitizeName lowercases name and folds separators into single underscores
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

// ListMigrations returns the sorted base names of the up migrations of one dialect
func ListMigrations(root, dialect string) ([]string, error) {
	entries, err := os.ReadDir(SourceDir(root, dialect))
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if base, ok := strings.CutSuffix(entry.Name(), ".up.sql"); ok {
			names = append(names, base)
		}
	}
	sort.Strings(names)
	return names, nil
}
