// Package stl reads and writes binary STL files.
package stl

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"neuroviz/pkg/mesh"
)

// header is the fixed-size comment block at the start of a binary STL file.
const headerSize = 80

// SaveToSTL writes triangles to path in binary STL format: an 80 byte
// header, a uint32 triangle count, then 50 bytes per facet.
func SaveToSTL(path string, triangles []mesh.Triangle) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating STL file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)

	var header [headerSize]byte
	copy(header[:], "neuroviz surface reconstruction")
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("writing STL header: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(triangles))); err != nil {
		return fmt.Errorf("writing triangle count: %w", err)
	}

	for i, t := range triangles {
		if err := binary.Write(w, binary.LittleEndian, t.Normal); err != nil {
			return fmt.Errorf("writing triangle %d: %w", i, err)
		}
		for _, v := range [][3]float32{t.Vertex1, t.Vertex2, t.Vertex3} {
			if err := binary.Write(w, binary.LittleEndian, v); err != nil {
				return fmt.Errorf("writing triangle %d: %w", i, err)
			}
		}
		// Attribute byte count, unused.
		if err := binary.Write(w, binary.LittleEndian, uint16(0)); err != nil {
			return fmt.Errorf("writing triangle %d: %w", i, err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing STL file: %w", err)
	}
	return nil
}

// LoadFromSTL reads a binary STL file back into a triangle list.
func LoadFromSTL(path string) ([]mesh.Triangle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening STL file: %w", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)

	var header [headerSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("reading STL header: %w", err)
	}

	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("reading triangle count: %w", err)
	}

	triangles := make([]mesh.Triangle, 0, count)
	for i := uint32(0); i < count; i++ {
		var t mesh.Triangle
		if err := binary.Read(r, binary.LittleEndian, &t.Normal); err != nil {
			return nil, fmt.Errorf("reading triangle %d: %w", i, err)
		}
		if err := binary.Read(r, binary.LittleEndian, &t.Vertex1); err != nil {
			return nil, fmt.Errorf("reading triangle %d: %w", i, err)
		}
		if err := binary.Read(r, binary.LittleEndian, &t.Vertex2); err != nil {
			return nil, fmt.Errorf("reading triangle %d: %w", i, err)
		}
		if err := binary.Read(r, binary.LittleEndian, &t.Vertex3); err != nil {
			return nil, fmt.Errorf("reading triangle %d: %w", i, err)
		}
		var attr uint16
		if err := binary.Read(r, binary.LittleEndian, &attr); err != nil {
			return nil, fmt.Errorf("reading triangle %d: %w", i, err)
		}
		triangles = append(triangles, t)
	}
	return triangles, nil
}
