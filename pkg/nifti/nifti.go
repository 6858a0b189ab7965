// Package nifti reads and writes NIfTI-1 volumes (.nii and .nii.gz).
// It decodes the 348-byte header, handles both byte orders, converts the
// common voxel datatypes to float64 and applies the scl_slope/scl_inter
// intensity scaling, exposing the result as a models.Volume.
package nifti

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"neuroviz/internal/models"
)

// Datatype codes from the NIfTI-1 standard.
const (
	typeUint8   = 2
	typeInt16   = 4
	typeInt32   = 8
	typeFloat32 = 16
	typeFloat64 = 64
	typeUint16  = 512
)

// Unit codes from xyzt_units.
const (
	unitsMeter = 1
	unitsMM    = 2
	unitsSec   = 8
	unitsMSec  = 16
	unitsUSec  = 24
)

// ErrNotNIfTI reports that the file lacks the NIfTI-1 magic.
var ErrNotNIfTI = errors.New("nifti: not a NIfTI-1 file")

const headerSize = 348

// header mirrors the fixed NIfTI-1 header layout.
type header struct {
	SizeofHdr    int32
	DataType     [10]byte
	DBName       [18]byte
	Extents      int32
	SessionError int16
	Regular      byte
	DimInfo      byte
	Dim          [8]int16
	IntentP1     float32
	IntentP2     float32
	IntentP3     float32
	IntentCode   int16
	Datatype     int16
	Bitpix       int16
	SliceStart   int16
	Pixdim       [8]float32
	VoxOffset    float32
	SclSlope     float32
	SclInter     float32
	SliceEnd     int16
	SliceCode    byte
	XyztUnits    byte
	CalMax       float32
	CalMin       float32
	SliceDur     float32
	Toffset      float32
	Glmax        int32
	Glmin        int32
	Descrip      [80]byte
	AuxFile      [24]byte
	QformCode    int16
	SformCode    int16
	QuaternB     float32
	QuaternC     float32
	QuaternD     float32
	QoffsetX     float32
	QoffsetY     float32
	QoffsetZ     float32
	SrowX        [4]float32
	SrowY        [4]float32
	SrowZ        [4]float32
	IntentName   [16]byte
	Magic        [4]byte
}

// ReadFile loads a NIfTI-1 volume from path. Gzip compression is detected
// from the file content, so both .nii and .nii.gz work regardless of name.
func ReadFile(path string) (*models.Volume, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("nifti: open %s: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = f

	// Sniff the gzip magic.
	var head [2]byte
	if _, err := io.ReadFull(f, head[:]); err != nil {
		return nil, fmt.Errorf("nifti: read %s: %w", path, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("nifti: seek %s: %w", path, err)
	}
	if head[0] == 0x1f && head[1] == 0x8b {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("nifti: gunzip %s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}

	return Read(r)
}

// Read decodes a NIfTI-1 stream.
func Read(r io.Reader) (*models.Volume, error) {
	raw := make([]byte, headerSize)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("nifti: read header: %w", err)
	}

	// sizeof_hdr doubles as the endianness probe: it must decode to 348.
	order := binary.ByteOrder(binary.LittleEndian)
	if binary.LittleEndian.Uint32(raw[:4]) != headerSize {
		if binary.BigEndian.Uint32(raw[:4]) != headerSize {
			return nil, ErrNotNIfTI
		}
		order = binary.BigEndian
	}

	var hdr header
	if err := binary.Read(bytes.NewReader(raw), order, &hdr); err != nil {
		return nil, fmt.Errorf("nifti: decode header: %w", err)
	}

	magic := strings.TrimRight(string(hdr.Magic[:3]), "\x00")
	if magic != "n+1" && magic != "ni1" {
		return nil, ErrNotNIfTI
	}

	rank := int(hdr.Dim[0])
	if rank < 3 || rank > 4 {
		return nil, fmt.Errorf("nifti: unsupported dimensionality %d", rank)
	}

	width := int(hdr.Dim[1])
	height := int(hdr.Dim[2])
	depth := int(hdr.Dim[3])
	frames := 1
	if rank == 4 {
		frames = int(hdr.Dim[4])
	}
	if width <= 0 || height <= 0 || depth <= 0 || frames <= 0 {
		return nil, fmt.Errorf("nifti: invalid dimensions %dx%dx%dx%d", width, height, depth, frames)
	}

	bytesPerVoxel, err := voxelSize(hdr.Datatype)
	if err != nil {
		return nil, err
	}

	// Skip from the end of the header to vox_offset.
	skip := int64(hdr.VoxOffset) - headerSize
	if skip < 0 {
		skip = 4 // single-file default offset 352
	}
	if _, err := io.CopyN(io.Discard, r, skip); err != nil {
		return nil, fmt.Errorf("nifti: skip to voxel data: %w", err)
	}

	n := width * height * depth * frames
	buf := make([]byte, n*bytesPerVoxel)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("nifti: read voxel data: %w", err)
	}

	data, err := decodeVoxels(buf, hdr.Datatype, n, order)
	if err != nil {
		return nil, err
	}

	// Apply intensity scaling when present. slope==0 means "no scaling".
	slope := float64(hdr.SclSlope)
	inter := float64(hdr.SclInter)
	if slope != 0 && (slope != 1 || inter != 0) {
		for i := range data {
			data[i] = data[i]*slope + inter
		}
	}

	vol := &models.Volume{
		Data:       data,
		Width:      width,
		Height:     height,
		Depth:      depth,
		NumVolumes: frames,
	}
	applyGeometry(vol, &hdr)
	return vol, nil
}

// applyGeometry fills spacing, origin, direction and TR from the header.
func applyGeometry(vol *models.Volume, hdr *header) {
	for i := 0; i < 3; i++ {
		s := float64(hdr.Pixdim[i+1])
		if s == 0 {
			s = 1
		}
		vol.Spacing[i] = math.Abs(s)
	}

	spaceUnits := hdr.XyztUnits & 0x07
	if spaceUnits == unitsMeter {
		for i := range vol.Spacing {
			vol.Spacing[i] *= 1000
		}
	}

	vol.TR = float64(hdr.Pixdim[4])
	switch hdr.XyztUnits & 0x38 {
	case unitsMSec:
		vol.TR /= 1e3
	case unitsUSec:
		vol.TR /= 1e6
	}

	if hdr.SformCode > 0 {
		rows := [3][4]float32{hdr.SrowX, hdr.SrowY, hdr.SrowZ}
		for r := 0; r < 3; r++ {
			for c := 0; c < 3; c++ {
				v := float64(rows[r][c])
				if vol.Spacing[c] != 0 {
					vol.Direction[r*3+c] = v / vol.Spacing[c]
				}
			}
			vol.Origin[r] = float64(rows[r][3])
		}
		return
	}

	vol.Direction = [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}
	vol.Origin = [3]float64{
		float64(hdr.QoffsetX),
		float64(hdr.QoffsetY),
		float64(hdr.QoffsetZ),
	}
}

func voxelSize(datatype int16) (int, error) {
	switch datatype {
	case typeUint8:
		return 1, nil
	case typeInt16, typeUint16:
		return 2, nil
	case typeInt32, typeFloat32:
		return 4, nil
	case typeFloat64:
		return 8, nil
	default:
		return 0, fmt.Errorf("nifti: unsupported datatype code %d", datatype)
	}
}

func decodeVoxels(buf []byte, datatype int16, n int, order binary.ByteOrder) ([]float64, error) {
	data := make([]float64, n)
	switch datatype {
	case typeUint8:
		for i := 0; i < n; i++ {
			data[i] = float64(buf[i])
		}
	case typeInt16:
		for i := 0; i < n; i++ {
			data[i] = float64(int16(order.Uint16(buf[i*2:])))
		}
	case typeUint16:
		for i := 0; i < n; i++ {
			data[i] = float64(order.Uint16(buf[i*2:]))
		}
	case typeInt32:
		for i := 0; i < n; i++ {
			data[i] = float64(int32(order.Uint32(buf[i*4:])))
		}
	case typeFloat32:
		for i := 0; i < n; i++ {
			data[i] = float64(math.Float32frombits(order.Uint32(buf[i*4:])))
		}
	case typeFloat64:
		for i := 0; i < n; i++ {
			data[i] = math.Float64frombits(order.Uint64(buf[i*8:]))
		}
	default:
		return nil, fmt.Errorf("nifti: unsupported datatype code %d", datatype)
	}
	return data, nil
}

// WriteFile saves a 3D volume as float32 NIfTI-1. When path ends in .gz the
// stream is gzip-compressed.
func WriteFile(path string, vol *models.Volume) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("nifti: create %s: %w", path, err)
	}
	defer f.Close()

	var w io.Writer = f
	var gz *gzip.Writer
	if strings.HasSuffix(path, ".gz") {
		gz = gzip.NewWriter(f)
		defer gz.Close()
		w = gz
	}

	if err := Write(w, vol); err != nil {
		return err
	}
	if gz != nil {
		return gz.Close()
	}
	return nil
}

// Write encodes a volume as a single-file float32 NIfTI-1 stream.
func Write(w io.Writer, vol *models.Volume) error {
	if vol.NumVolumes > 1 {
		return fmt.Errorf("nifti: writing 4D series is not supported")
	}

	var hdr header
	hdr.SizeofHdr = headerSize
	hdr.Regular = 'r'
	hdr.Dim[0] = 3
	hdr.Dim[1] = int16(vol.Width)
	hdr.Dim[2] = int16(vol.Height)
	hdr.Dim[3] = int16(vol.Depth)
	for i := 4; i < 8; i++ {
		hdr.Dim[i] = 1
	}
	hdr.Datatype = typeFloat32
	hdr.Bitpix = 32
	hdr.Pixdim[0] = 1
	for i := 0; i < 3; i++ {
		hdr.Pixdim[i+1] = float32(vol.Spacing[i])
	}
	hdr.VoxOffset = 352
	hdr.SclSlope = 1
	hdr.XyztUnits = unitsMM | unitsSec
	hdr.SformCode = 1
	hdr.QformCode = 0

	aff := vol.Affine()
	for c := 0; c < 4; c++ {
		hdr.SrowX[c] = float32(aff[0][c])
		hdr.SrowY[c] = float32(aff[1][c])
		hdr.SrowZ[c] = float32(aff[2][c])
	}
	copy(hdr.Magic[:], "n+1\x00")
	copy(hdr.Descrip[:], "neuroviz")

	if err := binary.Write(w, binary.LittleEndian, &hdr); err != nil {
		return fmt.Errorf("nifti: write header: %w", err)
	}
	// Extension flag: none.
	if _, err := w.Write([]byte{0, 0, 0, 0}); err != nil {
		return fmt.Errorf("nifti: write extension flag: %w", err)
	}

	buf := make([]byte, len(vol.Data)*4)
	for i, v := range vol.Data {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(float32(v)))
	}
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("nifti: write voxel data: %w", err)
	}
	return nil
}
