package scan

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/msolomos/contest-arbiter/internal/catalog"
	"github.com/msolomos/contest-arbiter/internal/contracts"
)

// ReadTextFile loads a submission file as text with the Latin-1
// fallback. A read failure never aborts the scan: it yields a single
// HIGH issue for the file instead.
func ReadTextFile(path, relPath string) (string, *contracts.Issue) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", &contracts.Issue{
			Severity:       contracts.SeverityHigh,
			Category:       catalog.CategoryReadError,
			Description:    fmt.Sprintf("Cannot read file: %v", err),
			FilePath:       relPath,
			Recommendation: "Verify the file is valid readable source",
		}
	}
	return DecodeText(raw), nil
}

// ListFiles walks a submission directory and returns relative paths
// matching the extension filter (empty means all files), sorted for
// deterministic scan order. The shared bot template is excluded.
func ListFiles(root string, exts ...string) ([]string, error) {
	extSet := make(map[string]bool, len(exts))
	for _, e := range exts {
		extSet[strings.ToLower(e)] = true
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == catalog.TemplateDirName {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.Contains(path, catalog.TemplateDirName) {
			return nil
		}
		if len(extSet) > 0 && !extSet[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	sort.Strings(files)
	return files, nil
}
