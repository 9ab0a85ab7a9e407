package assistant

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LoadKnowledge concatenates every .txt and .md file in dir, in name order,
// each under a "### <file name>" header. A missing directory yields an empty
// knowledge base.
func LoadKnowledge(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read knowledge dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".txt", ".md":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var sb strings.Builder
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return "", fmt.Errorf("failed to read knowledge file %s: %w", name, err)
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "### %s\n", name)
		sb.WriteString(strings.TrimSpace(string(data)))
	}
	return sb.String(), nil
}
