package biosync

import (
	"context"
	"fmt"
	"strings"
)

type Source interface {
	// CheckForUpdate looks up the firmware currently published for model.
	// It returns a nil Release when the vendor does not list a usable entry.
	// The source reports what it finds regardless of the local version.
	CheckForUpdate(ctx context.Context, model Model) (*Release, error)
}

// Extractor unpacks a downloaded archive into a target directory.
type Extractor interface {
	Extract(archivePath, targetDir string) error
}

// Release is a firmware version published by the vendor.
type Release struct {
	Model   Model
	Version Version
	// Archive is the file name the vendor download produces. When empty the
	// default naming convention applies.
	Archive string

	// Trigger requests the vendor download into dir. It returns once the
	// download was started, not when the file is complete.
	Trigger func(ctx context.Context, dir string) error
	// Close releases whatever the source holds for this release. May be nil.
	Close func()
}

// ArchiveName is the file name expected in the download directory once the
// triggered download completes.
func (r *Release) ArchiveName() string {
	if r.Archive != "" {
		return r.Archive
	}
	return DefaultArchiveName(r.Model, r.Version.String())
}

func (r *Release) release() {
	if r != nil && r.Close != nil {
		r.Close()
	}
}

// DefaultArchiveName builds "<MODEL>AS<version>.zip".
func DefaultArchiveName(model Model, version string) string {
	return fmt.Sprintf("%sAS%s.zip", strings.ToUpper(string(model)), version)
}
