package contracts

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Submission identifies one contest entry directory.
type Submission struct {
	ID          string `json:"id"`          // directory name, e.g. "#01 (Alice)"
	Participant string `json:"participant"` // extracted display name
	Path        string `json:"path"`        // absolute directory path
}

// folder names like "#01 (Alice)" carry the participant in parentheses
var participantDirPattern = regexp.MustCompile(`#\d+\s*\(([^)]+)\)`)

var readmeAuthorPrefixes = []string{"author:", "participant:", "by:"}

// DiscoverSubmissions lists submission directories under basePath,
// sorted by ID for deterministic evaluation order. Hidden directories
// and non-directories are skipped.
func DiscoverSubmissions(basePath string) ([]Submission, error) {
	entries, err := os.ReadDir(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read base path %s: %w", basePath, err)
	}

	var subs []Submission
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		dir := filepath.Join(basePath, e.Name())
		subs = append(subs, Submission{
			ID:          e.Name(),
			Participant: ExtractParticipant(e.Name(), dir),
			Path:        dir,
		})
	}

	sort.Slice(subs, func(i, j int) bool { return subs[i].ID < subs[j].ID })
	return subs, nil
}

// ResolveSubmissions maps explicit submission IDs to Submission values
// rooted at basePath. Unknown IDs are an error so a typo never silently
// shrinks the candidate set.
func ResolveSubmissions(basePath string, ids []string) ([]Submission, error) {
	var subs []Submission
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		dir := filepath.Join(basePath, id)
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			return nil, fmt.Errorf("submission %q not found under %s", id, basePath)
		}
		subs = append(subs, Submission{
			ID:          id,
			Participant: ExtractParticipant(id, dir),
			Path:        dir,
		})
	}

	sort.Slice(subs, func(i, j int) bool { return subs[i].ID < subs[j].ID })
	return subs, nil
}

// ExtractParticipant derives a display name for a submission. The
// folder-name pattern wins; otherwise the first ten lines of README.md
// are checked for an Author/Participant/By header; otherwise "Unknown".
func ExtractParticipant(dirName, dirPath string) string {
	if m := participantDirPattern.FindStringSubmatch(dirName); m != nil {
		return strings.TrimSpace(m[1])
	}

	if name := participantFromReadme(filepath.Join(dirPath, "README.md")); name != "" {
		return name
	}

	return "Unknown"
}

func participantFromReadme(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for i := 0; i < 10 && scanner.Scan(); i++ {
		line := strings.TrimSpace(strings.TrimLeft(scanner.Text(), "#* "))
		lower := strings.ToLower(line)
		for _, prefix := range readmeAuthorPrefixes {
			if strings.HasPrefix(lower, prefix) {
				name := strings.TrimSpace(line[len(prefix):])
				name = strings.Trim(name, "*_` ")
				if name != "" {
					return name
				}
			}
		}
	}
	return ""
}
