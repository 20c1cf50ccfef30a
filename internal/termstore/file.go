package termstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/MrWong99/homonym/internal/dictionary"
)

// termFile is the on-disk layout of a YAML term file:
//
//	terms:
//	  - romanization: xueyangbaohedu
//	    canonical: 血氧饱和度
type termFile struct {
	Terms []dictionary.Term `yaml:"terms"`
}

// FileStore reads terms from a YAML file on every call, so edits are picked
// up by the next reload.
type FileStore struct {
	path string
}

// Compile-time interface check.
var _ Store = (*FileStore)(nil)

// NewFileStore returns a [FileStore] for path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Terms reads and validates the file. Terms keep their file order.
func (s *FileStore) Terms(ctx context.Context) ([]dictionary.Term, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("termstore: open %q: %w", s.path, err)
	}
	defer f.Close()

	terms, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("termstore: %q: %w", s.path, err)
	}
	return terms, nil
}

// Decode parses a YAML term document from r.
func Decode(r io.Reader) ([]dictionary.Term, error) {
	var tf termFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&tf); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	var errs []error
	for i, t := range tf.Terms {
		if err := validate(t); err != nil {
			errs = append(errs, fmt.Errorf("terms[%d]: %w", i, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return tf.Terms, nil
}

// Encode writes terms to w in the layout read by [Decode].
func Encode(w io.Writer, terms []dictionary.Term) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(termFile{Terms: terms}); err != nil {
		return fmt.Errorf("termstore: encode yaml: %w", err)
	}
	return enc.Close()
}
