package layer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	oerrors "github.com/keyforge/dispatch/internal/errors"
	"github.com/keyforge/dispatch/internal/layout"
)

// BaseSource supplies the factory matrix a user layout is diffed against.
type BaseSource interface {
	// Load returns the base matrix for a sanitized board name and base
	// layout name. Legacy selects the board's legacy base variant.
	Load(board, base string, legacy bool) ([]layout.MatrixKey, error)
}

// FileBaseSource reads base layouts from a directory of JSON files named
// {board}-{base}.json, or {board}-{base}.lts.json for legacy variants.
type FileBaseSource struct {
	Root string
}

// BaseFileName returns the file name of a base layout.
func BaseFileName(board, base string, legacy bool) string {
	if legacy {
		return fmt.Sprintf("%s-%s.lts.json", board, base)
	}
	return fmt.Sprintf("%s-%s.json", board, base)
}

// Load implements BaseSource.
func (s FileBaseSource) Load(board, base string, legacy bool) ([]layout.MatrixKey, error) {
	path := filepath.Join(s.Root, BaseFileName(board, base, legacy))
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, oerrors.NewNotFoundError(
				fmt.Sprintf("base layout %s not found", filepath.Base(path)),
				path,
				"check the header Name and Base fields",
			)
		}
		return nil, fmt.Errorf("reading base layout %s: %w", path, err)
	}
	return DecodeBase(data)
}

// DecodeBase extracts the matrix from a base layout document. Only the
// matrix is needed; the rest of the document is not validated.
func DecodeBase(data []byte) ([]layout.MatrixKey, error) {
	var doc struct {
		Matrix []layout.MatrixKey `json:"matrix"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding base layout: %w", err)
	}
	if doc.Matrix == nil {
		return nil, fmt.Errorf("decoding base layout: missing field `matrix`")
	}
	return doc.Matrix, nil
}
