package report

import (
	"bufio"
	"io"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// WriteAtomic calls write with a buffered temporary file in path's directory
// and renames it over path only if every step succeeds. On failure the
// temporary file is removed and path is left as it was.
func WriteAtomic(path string, write func(io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return eris.Wrapf(err, "report: create temp file in %s", dir)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	bw := bufio.NewWriter(tmp)
	if err = write(bw); err != nil {
		return err
	}
	if err = bw.Flush(); err != nil {
		return eris.Wrap(err, "report: flush")
	}
	if err = tmp.Sync(); err != nil {
		return eris.Wrap(err, "report: sync")
	}
	if err = tmp.Close(); err != nil {
		return eris.Wrap(err, "report: close")
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return eris.Wrapf(err, "report: rename to %s", path)
	}
	return nil
}
