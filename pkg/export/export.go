// Package export delivers a rendered artifact to the user.
//
// Export is only possible from a successful render: every function in this
// package is a no-op that reports ok == false when the result is not
// [render.StatusSuccess]. The SVG markup is written verbatim.
package export

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/matzehuels/diagrammer/pkg/errors"
	"github.com/matzehuels/diagrammer/pkg/render"
)

const (
	// MIMEType is the media type of exported artifacts.
	MIMEType = "image/svg+xml"

	// FileName is the name used for downloaded artifacts.
	FileName = "diagram.svg"
)

// SVG returns the artifact markup of a successful result.
func SVG(res render.Result) ([]byte, bool) {
	if !res.OK() {
		return nil, false
	}
	return res.Artifact.SVG, true
}

// WriteFile writes the artifact to dir/diagram.svg. See WriteFileAs.
func WriteFile(dir string, res render.Result) (string, bool, error) {
	return WriteFileAs(filepath.Join(dir, FileName), res)
}

// WriteFileAs writes the artifact to path through a temporary file in the
// same directory that is renamed into place. The temporary file is removed on
// every failure path. It returns the written path and whether anything was
// exported.
func WriteFileAs(path string, res render.Result) (string, bool, error) {
	svg, ok := SVG(res)
	if !ok {
		return "", false, nil
	}
	if err := writeAtomic(path, svg); err != nil {
		return "", false, err
	}
	return path, true, nil
}

func writeAtomic(path string, data []byte) (err error) {
	if err := errors.ValidateFileName(filepath.Base(path)); err != nil {
		return err
	}

	if err := ensureDir(path); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err = tmp.Chmod(0644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename to %s: %w", path, err)
	}
	return nil
}

// Write sends the artifact as a diagram.svg attachment. Nothing is written to
// w when the result is not a success.
func Write(w http.ResponseWriter, res render.Result) (bool, error) {
	svg, ok := SVG(res)
	if !ok {
		return false, nil
	}
	h := w.Header()
	h.Set("Content-Type", MIMEType)
	h.Set("Content-Disposition", `attachment; filename="`+FileName+`"`)
	h.Set("Content-Length", strconv.Itoa(len(svg)))
	w.WriteHeader(http.StatusOK)
	_, err := w.Write(svg)
	return true, err
}
