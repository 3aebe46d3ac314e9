package biosync

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

var ErrNotDirectory = errors.New("not a directory")

// firmwareName matches "<alphanumeric base>.<three digit version>".
var firmwareName = regexp.MustCompile(`^[A-Za-z0-9]+\.([0-9]{3})$`)

// ParseFirmwareVersion extracts the version from a firmware file name.
// Names that do not follow the convention exactly yield false.
func ParseFirmwareVersion(name string) (Version, bool) {
	match := firmwareName.FindStringSubmatch(name)
	if match == nil {
		return NoVersion, false
	}
	n, err := strconv.Atoi(match[1])
	if err != nil {
		return NoVersion, false
	}
	return Version(n), true
}

// ResolveVersion returns the highest firmware version held in dir for the
// given model. Only the top level of dir is scanned, and files are
// attributed to a model by a case-folded name prefix, the same folding
// NewModel applies.
//
// A missing directory yields NoVersion and an error wrapping fs.ErrNotExist.
func ResolveVersion(dir string, model Model) (Version, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return NoVersion, fmt.Errorf("firmware directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return NoVersion, fmt.Errorf("firmware directory %s: %w", dir, ErrNotDirectory)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return NoVersion, fmt.Errorf("list firmware directory %s: %w", dir, err)
	}

	fold := cases.Fold()
	prefix := fold.String(string(model))
	best := NoVersion
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(fold.String(name), prefix) {
			continue
		}
		if v, ok := ParseFirmwareVersion(name); ok && v > best {
			best = v
		}
	}
	return best, nil
}
