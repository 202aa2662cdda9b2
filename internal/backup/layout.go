package backup

import (
	"fmt"
	"strings"
)

// PathError is returned when the backup root cannot be derived from the name
// of a manifest.
type PathError struct {
	Name string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("backup name %q must have at least 2 slashes so the backup root can be found", e.Name)
}

// Root returns the root of the backup whose manifest is stored under name,
// i.e. everything before the second to last slash.
//
//	backups/host1/2023-01-01/index.json -> backups/host1
func Root(name string) (string, error) {
	last := strings.LastIndexByte(name, '/')
	if last < 0 {
		return "", &PathError{Name: name}
	}
	prev := strings.LastIndexByte(name[:last], '/')
	if prev < 0 {
		return "", &PathError{Name: name}
	}
	return name[:prev], nil
}

// BlockName returns the name of the object holding the block with the given
// checksum below root. The checksum must be at least four characters long,
// which Parse guarantees for all blocks of a manifest.
func BlockName(root, checksum string) string {
	return root + "/blocks/" + checksum[0:2] + "/" + checksum[2:4] + "/" + checksum + ".blk"
}
