// Package driver: DSN-to-file-list resolution. A csvsqldb database
// directory mixes CSV data files with the `.csvdb/` catalog
// sub-directory; discoverDataFiles walks the former into the file list
// CREATE MAPPING patterns resolve against.
package driver

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/csvsqldb/csvsqldb/catalog"
	"github.com/csvsqldb/csvsqldb/csverrors"
)

// discoverDataFiles walks dir non-recursively and returns every regular
// file's full path
// except the catalog's own `.csvdb` sub-directory, so CREATE MAPPING
// patterns have a candidate list to match against.
func discoverDataFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, csverrors.Filesystem.New(errors.Wrapf(err, "could not list database directory %q", dir).Error())
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || e.Name() == catalog.CatalogDir {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	return files, nil
}
