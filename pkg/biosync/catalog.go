package biosync

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ParseCatalog reads a model list. The model id is the second
// whitespace-separated column; lines with fewer columns are ignored.
// The result is deduplicated and sorted.
func ParseCatalog(r io.Reader) ([]Model, error) {
	// Model lists are often saved by Windows editors, so honour a UTF-8 or
	// UTF-16 BOM and fall back to plain UTF-8.
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	seen := make(map[Model]struct{})
	reader := bufio.NewReader(decoded)
	for {
		// No line length limit: one oversized line must not hide the others.
		line, err := reader.ReadString('\n')
		if fields := strings.Fields(line); len(fields) >= 2 {
			if model := NewModel(fields[1]); model != "" {
				seen[model] = struct{}{}
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read model list: %w", err)
		}
	}

	models := make([]Model, 0, len(seen))
	for m := range seen {
		models = append(models, m)
	}
	slices.Sort(models)
	return models, nil
}

// LoadCatalog parses the model list at path. On failure it returns an empty
// list along with the error so callers can still run with zero models.
func LoadCatalog(path string) ([]Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return []Model{}, fmt.Errorf("open model list: %w", err)
	}
	defer f.Close()

	models, err := ParseCatalog(f)
	if err != nil {
		return []Model{}, err
	}

	slog.Info("Retrieved models from list", "path", path, "count", len(models))
	return models, nil
}
