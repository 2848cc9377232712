package export

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/matzehuels/diagrammer/pkg/render"
)

// Supported export formats.
const (
	FormatSVG = "svg"
	FormatPNG = "png"
	FormatPDF = "pdf"
)

// ToPDF converts SVG bytes to PDF using rsvg-convert.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func ToPDF(svg []byte) ([]byte, error) {
	return rsvgConvert(svg, "pdf")
}

// ToPNG converts SVG bytes to PNG using rsvg-convert with the given scale factor.
// Scale of 2.0 produces a 2x resolution image.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func ToPNG(svg []byte, scale float64) ([]byte, error) {
	return rsvgConvert(svg, "png", "-z", fmt.Sprintf("%.2f", scale))
}

// rsvgPath is the converter binary. Tests point it at a stub.
var rsvgPath = "rsvg-convert"

// rsvgConvert shells out to rsvg-convert for format conversion.
func rsvgConvert(svg []byte, format string, extraArgs ...string) ([]byte, error) {
	bin, err := exec.LookPath(rsvgPath)
	if err != nil {
		return nil, fmt.Errorf("%s export requires librsvg. Install with:\n  macOS:  brew install librsvg\n  Linux:  apt install librsvg2-bin", format)
	}

	args := append([]string{"-f", format}, extraArgs...)
	cmd := exec.Command(bin, args...)
	cmd.Stdin = bytes.NewReader(svg)

	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("rsvg-convert: %v: %s", err, errBuf.String())
	}
	return out.Bytes(), nil
}

// ParseFormats splits a comma-separated format list, defaulting to svg.
func ParseFormats(s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return []string{FormatSVG}, nil
	}
	var formats []string
	seen := map[string]bool{}
	for _, f := range strings.Split(s, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		switch f {
		case FormatSVG, FormatPNG, FormatPDF:
		default:
			return nil, fmt.Errorf("unsupported format %q (use svg, png or pdf)", f)
		}
		if !seen[f] {
			seen[f] = true
			formats = append(formats, f)
		}
	}
	return formats, nil
}

// Encode returns the artifact in the given format.
func Encode(res render.Result, format string, scale float64) ([]byte, bool, error) {
	svg, ok := SVG(res)
	if !ok {
		return nil, false, nil
	}
	switch format {
	case FormatSVG, "":
		return svg, true, nil
	case FormatPNG:
		data, err := ToPNG(svg, scale)
		return data, true, err
	case FormatPDF:
		data, err := ToPDF(svg)
		return data, true, err
	default:
		return nil, false, fmt.Errorf("unsupported format %q", format)
	}
}

// WriteFormats writes the artifact once per format next to base, replacing
// base's extension. It returns the written paths.
func WriteFormats(base string, res render.Result, formats []string, scale float64) ([]string, error) {
	if !res.OK() {
		return nil, nil
	}
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	var paths []string
	for _, f := range formats {
		data, _, err := Encode(res, f, scale)
		if err != nil {
			return paths, err
		}
		path := stem + "." + f
		if err := writeAtomic(path, data); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// HasConverter reports whether PNG and PDF conversion is available.
func HasConverter() bool {
	_, err := exec.LookPath(rsvgPath)
	return err == nil
}

// ensureDir creates the parent directory of path.
func ensureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0755)
}
