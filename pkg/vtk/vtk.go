// Package vtk reads and writes legacy ASCII VTK polydata files. The format
// carries an indexed triangle surface plus optional per-vertex scalars, which
// is how activation-mapped surfaces move between pipeline stages.
package vtk

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"neuroviz/internal/models"
)

// ErrBadFormat reports a file that is not legacy ASCII VTK polydata.
var ErrBadFormat = errors.New("vtk: not a legacy ASCII polydata file")

// WriteFile saves a mesh as legacy ASCII polydata. Per-vertex scalars are
// emitted as a POINT_DATA section when present.
func WriteFile(path string, m *models.Mesh) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating VTK file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)

	fmt.Fprintln(w, "# vtk DataFile Version 3.0")
	fmt.Fprintln(w, "neuroviz surface")
	fmt.Fprintln(w, "ASCII")
	fmt.Fprintln(w, "DATASET POLYDATA")

	fmt.Fprintf(w, "POINTS %d float\n", m.NumVertices())
	for _, v := range m.Vertices {
		fmt.Fprintf(w, "%g %g %g\n", v[0], v[1], v[2])
	}

	fmt.Fprintf(w, "POLYGONS %d %d\n", m.NumFaces(), 4*m.NumFaces())
	for _, face := range m.Faces {
		fmt.Fprintf(w, "3 %d %d %d\n", face[0], face[1], face[2])
	}

	if m.HasScalars() {
		fmt.Fprintf(w, "POINT_DATA %d\n", m.NumVertices())
		fmt.Fprintln(w, "SCALARS activation float 1")
		fmt.Fprintln(w, "LOOKUP_TABLE default")
		for _, s := range m.Scalars {
			fmt.Fprintf(w, "%g\n", s)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing VTK file: %w", err)
	}
	return nil
}

// ReadFile parses a legacy ASCII polydata file written by WriteFile or any
// compatible tool. Only triangular polygons are accepted.
func ReadFile(path string) (*models.Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening VTK file: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 1024*1024), 1024*1024)

	tokens := newTokenizer(sc)

	// Header: version comment, title, encoding, dataset type.
	line, err := tokens.line()
	if err != nil || !strings.HasPrefix(line, "# vtk DataFile") {
		return nil, ErrBadFormat
	}
	if _, err := tokens.line(); err != nil { // title, free text
		return nil, ErrBadFormat
	}
	line, err = tokens.line()
	if err != nil || strings.TrimSpace(line) != "ASCII" {
		return nil, ErrBadFormat
	}
	line, err = tokens.line()
	if err != nil || !strings.Contains(line, "POLYDATA") {
		return nil, ErrBadFormat
	}

	m := &models.Mesh{}
	for {
		word, err := tokens.next()
		if err != nil {
			break
		}
		switch word {
		case "POINTS":
			n, err := tokens.nextInt()
			if err != nil {
				return nil, fmt.Errorf("vtk: bad POINTS count: %w", err)
			}
			if _, err := tokens.next(); err != nil { // data type
				return nil, fmt.Errorf("vtk: truncated POINTS header: %w", err)
			}
			m.Vertices = make([][3]float64, n)
			for i := 0; i < n; i++ {
				for c := 0; c < 3; c++ {
					v, err := tokens.nextFloat()
					if err != nil {
						return nil, fmt.Errorf("vtk: truncated POINTS data: %w", err)
					}
					m.Vertices[i][c] = v
				}
			}
		case "POLYGONS":
			n, err := tokens.nextInt()
			if err != nil {
				return nil, fmt.Errorf("vtk: bad POLYGONS count: %w", err)
			}
			if _, err := tokens.nextInt(); err != nil { // total value count
				return nil, fmt.Errorf("vtk: truncated POLYGONS header: %w", err)
			}
			m.Faces = make([][3]int, 0, n)
			for i := 0; i < n; i++ {
				sides, err := tokens.nextInt()
				if err != nil {
					return nil, fmt.Errorf("vtk: truncated POLYGONS data: %w", err)
				}
				if sides != 3 {
					return nil, fmt.Errorf("vtk: polygon %d has %d sides, only triangles supported", i, sides)
				}
				var face [3]int
				for c := 0; c < 3; c++ {
					idx, err := tokens.nextInt()
					if err != nil {
						return nil, fmt.Errorf("vtk: truncated POLYGONS data: %w", err)
					}
					face[c] = idx
				}
				m.Faces = append(m.Faces, face)
			}
		case "POINT_DATA":
			n, err := tokens.nextInt()
			if err != nil {
				return nil, fmt.Errorf("vtk: bad POINT_DATA count: %w", err)
			}
			// SCALARS <name> <type> [components], then LOOKUP_TABLE <name>.
			for i := 0; i < 3; i++ {
				if _, err := tokens.next(); err != nil {
					return nil, fmt.Errorf("vtk: truncated SCALARS header: %w", err)
				}
			}
			word, err := tokens.next()
			if err != nil {
				return nil, fmt.Errorf("vtk: truncated SCALARS header: %w", err)
			}
			if word == "1" {
				// Optional component count was present; consume LOOKUP_TABLE.
				word, err = tokens.next()
				if err != nil {
					return nil, fmt.Errorf("vtk: truncated SCALARS header: %w", err)
				}
			}
			if word != "LOOKUP_TABLE" {
				return nil, fmt.Errorf("vtk: expected LOOKUP_TABLE, got %q", word)
			}
			if _, err := tokens.next(); err != nil { // table name
				return nil, fmt.Errorf("vtk: truncated LOOKUP_TABLE: %w", err)
			}
			m.Scalars = make([]float64, n)
			for i := 0; i < n; i++ {
				v, err := tokens.nextFloat()
				if err != nil {
					return nil, fmt.Errorf("vtk: truncated scalar data: %w", err)
				}
				m.Scalars[i] = v
			}
		}
	}

	if len(m.Vertices) == 0 {
		return nil, ErrBadFormat
	}
	if m.Scalars != nil && len(m.Scalars) != len(m.Vertices) {
		return nil, fmt.Errorf("vtk: %d scalars for %d vertices", len(m.Scalars), len(m.Vertices))
	}
	return m, nil
}

// tokenizer yields whitespace-separated words across lines, with a mode for
// consuming whole header lines.
type tokenizer struct {
	sc      *bufio.Scanner
	pending []string
}

func newTokenizer(sc *bufio.Scanner) *tokenizer {
	return &tokenizer{sc: sc}
}

func (t *tokenizer) line() (string, error) {
	if len(t.pending) > 0 {
		line := strings.Join(t.pending, " ")
		t.pending = nil
		return line, nil
	}
	for t.sc.Scan() {
		line := strings.TrimSpace(t.sc.Text())
		if line != "" {
			return line, nil
		}
	}
	if err := t.sc.Err(); err != nil {
		return "", err
	}
	return "", errors.New("unexpected end of file")
}

func (t *tokenizer) next() (string, error) {
	for len(t.pending) == 0 {
		if !t.sc.Scan() {
			if err := t.sc.Err(); err != nil {
				return "", err
			}
			return "", errors.New("unexpected end of file")
		}
		t.pending = strings.Fields(t.sc.Text())
	}
	word := t.pending[0]
	t.pending = t.pending[1:]
	return word, nil
}

func (t *tokenizer) nextInt() (int, error) {
	word, err := t.next()
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(word)
}

func (t *tokenizer) nextFloat() (float64, error) {
	word, err := t.next()
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(word, 64)
}
