// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/poiesic/boroughs/core"
)

// DefaultPDFPattern is the file name template for neighborhood guides.
// "{neighborhood}" and "{borough}" are replaced with the key's fields.
const DefaultPDFPattern = "{neighborhood} — CityNeighborhoods.NYC.pdf"

// PDFLoader extracts plain text from per-neighborhood PDF files.
type PDFLoader struct {
	baseDir string
	pattern string
	logger  *slog.Logger
}

// PDFOption configures a PDFLoader.
type PDFOption func(*PDFLoader)

// WithPattern overrides the file name template.
func WithPattern(pattern string) PDFOption {
	return func(l *PDFLoader) {
		l.pattern = pattern
	}
}

// WithPDFLogger sets the logger.
func WithPDFLogger(logger *slog.Logger) PDFOption {
	return func(l *PDFLoader) {
		l.logger = logger
	}
}

// NewPDFLoader creates a loader reading files from baseDir.
func NewPDFLoader(baseDir string, opts ...PDFOption) *PDFLoader {
	l := &PDFLoader{
		baseDir: baseDir,
		pattern: DefaultPDFPattern,
		logger:  slog.Default().With("component", "source"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Path returns the PDF path for key. The neighborhood name is used verbatim.
func (l *PDFLoader) Path(key core.NeighborhoodKey) string {
	name := strings.NewReplacer(
		"{neighborhood}", key.Neighborhood,
		"{borough}", key.Borough,
	).Replace(l.pattern)
	return filepath.Join(l.baseDir, name)
}

// Check reports whether the PDF for key exists.
// Returns core.ErrSourceNotFound if it does not.
func (l *PDFLoader) Check(key core.NeighborhoodKey) error {
	path := l.Path(key)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", core.ErrSourceNotFound, path)
		}
		return err
	}
	return nil
}

// Load returns the document text for key.
// Returns core.ErrSourceNotFound if the file does not exist.
func (l *PDFLoader) Load(ctx context.Context, key core.NeighborhoodKey) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := l.Check(key); err != nil {
		return "", err
	}
	path := l.Path(key)

	f, rdr, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf %s: %w", path, err)
	}
	defer f.Close()

	b, err := rdr.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to read pdf text %s: %w", path, err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, b); err != nil {
		return "", fmt.Errorf("failed to read pdf buffer %s: %w", path, err)
	}

	text := buf.String()
	l.logger.Debug("loaded pdf", "path", path, "pages", rdr.NumPage(), "chars", len(text))
	return text, nil
}
