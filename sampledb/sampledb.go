// Package sampledb accumulates radiance samples per pixel.
//
// Keeping sums and counts rather than finished pixels lets a render be
// resumed later to add more samples.
package sampledb

import (
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"row-major/lenscast/vmath/colour"

	"gonum.org/v1/gonum/stat"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

const dataLayoutVersion = 1

const (
	maxHeaderLength = 1 << 20
	maxPixels       = 1 << 28
)

var ErrBadLayout = errors.New("unsupported sample db layout")

type SampleDB struct {
	RowSize, ColSize int

	// Scene and Seed record what was rendered into the db, so a resumed
	// render can refuse to mix in samples of something else.
	Scene string
	Seed  uint64

	// Sums holds three entries (red, green, blue) per pixel, row-major.
	Sums []float64

	// Counts holds one entry per pixel.
	Counts []float64
}

type Sample struct {
	Sum   colour.T
	Count float64
}

// Mean is the average of the recorded samples, or black if there are none.
func (s Sample) Mean() colour.T {
	if s.Count == 0 {
		return colour.Black
	}
	return colour.T{s.Sum[0] / s.Count, s.Sum[1] / s.Count, s.Sum[2] / s.Count}
}

func New(rowSize, colSize int) *SampleDB {
	s := &SampleDB{}
	s.Resize(rowSize, colSize)
	return s
}

func (s *SampleDB) Resize(rowSize, colSize int) {
	s.RowSize = rowSize
	s.ColSize = colSize

	s.Sums = make([]float64, rowSize*colSize*3)
	s.Counts = make([]float64, rowSize*colSize)
}

func (s *SampleDB) RecordSample(r, c int, radiance colour.T) {
	idx := r*s.ColSize + c
	s.Sums[idx*3+0] += radiance[0]
	s.Sums[idx*3+1] += radiance[1]
	s.Sums[idx*3+2] += radiance[2]
	s.Counts[idx] += 1
}

func (s *SampleDB) ReadSample(r, c int) Sample {
	idx := r*s.ColSize + c
	return Sample{
		Sum:   colour.T{s.Sums[idx*3+0], s.Sums[idx*3+1], s.Sums[idx*3+2]},
		Count: s.Counts[idx],
	}
}

// TotalSamples counts every sample recorded in the db.
func (s *SampleDB) TotalSamples() int {
	total := 0
	for _, c := range s.Counts {
		total += int(c)
	}
	return total
}

// Cut copies out the rows [rowSrc, rowLim) and columns [colSrc, colLim).
func (s *SampleDB) Cut(rowSrc, rowLim, colSrc, colLim int) *SampleDB {
	dst := &SampleDB{Scene: s.Scene, Seed: s.Seed}
	dst.Resize(rowLim-rowSrc, colLim-colSrc)

	dstIndex := 0
	for r := rowSrc; r < rowLim; r++ {
		for c := colSrc; c < colLim; c++ {
			srcIndex := r*s.ColSize + c
			copy(dst.Sums[dstIndex*3:dstIndex*3+3], s.Sums[srcIndex*3:srcIndex*3+3])
			dst.Counts[dstIndex] = s.Counts[srcIndex]
			dstIndex++
		}
	}

	return dst
}

// Paste writes src over s with its top left corner at (rowSrc, colSrc).
func (s *SampleDB) Paste(src *SampleDB, rowSrc, colSrc int) {
	for r := 0; r < src.RowSize; r++ {
		for c := 0; c < src.ColSize; c++ {
			dstIndex := (r+rowSrc)*s.ColSize + (c + colSrc)
			srcIndex := r*src.ColSize + c
			copy(s.Sums[dstIndex*3:dstIndex*3+3], src.Sums[srcIndex*3:srcIndex*3+3])
			s.Counts[dstIndex] = src.Counts[srcIndex]
		}
	}
}

// Stats summarizes the image: luminance mean and standard deviation over
// pixels, and the range of per-pixel sample counts.
type Stats struct {
	LuminanceMean   float64
	LuminanceStdDev float64
	MinCount        float64
	MaxCount        float64
}

// Luminance is the Rec. 709 luma of a linear colour.
func Luminance(c colour.T) float64 {
	return 0.2126*c[0] + 0.7152*c[1] + 0.0722*c[2]
}

func (s *SampleDB) Stats() Stats {
	if len(s.Counts) == 0 {
		return Stats{}
	}

	lum := make([]float64, 0, len(s.Counts))
	minCount, maxCount := math.Inf(1), math.Inf(-1)
	for r := 0; r < s.RowSize; r++ {
		for c := 0; c < s.ColSize; c++ {
			samp := s.ReadSample(r, c)
			lum = append(lum, Luminance(samp.Mean()))
			minCount = math.Min(minCount, samp.Count)
			maxCount = math.Max(maxCount, samp.Count)
		}
	}

	result := Stats{MinCount: minCount, MaxCount: maxCount}
	if len(lum) == 1 {
		result.LuminanceMean = lum[0]
		return result
	}
	result.LuminanceMean, result.LuminanceStdDev = stat.MeanStdDev(lum, nil)
	return result
}

// Header returns the metadata stored in front of the sample data.
func (s *SampleDB) Header() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		"dataLayoutVersion": dataLayoutVersion,
		"rowSize":           s.RowSize,
		"colSize":           s.ColSize,
		"scene":             s.Scene,
		// structpb numbers are doubles, which cannot carry every uint64.
		"seed": fmt.Sprintf("%d", s.Seed),
	})
}

func fromHeader(hdr *structpb.Struct) (*SampleDB, error) {
	fields := hdr.GetFields()

	if v := fields["dataLayoutVersion"].GetNumberValue(); v != dataLayoutVersion {
		return nil, fmt.Errorf("%w: version %v", ErrBadLayout, v)
	}

	rows := fields["rowSize"].GetNumberValue()
	cols := fields["colSize"].GetNumberValue()
	if rows < 0 || cols < 0 || rows != math.Trunc(rows) || cols != math.Trunc(cols) {
		return nil, fmt.Errorf("%w: bad dimensions %vx%v", ErrBadLayout, rows, cols)
	}
	if rows*cols > maxPixels || rows > maxPixels || cols > maxPixels {
		return nil, fmt.Errorf("%w: %vx%v is more than %d pixels", ErrBadLayout, rows, cols, maxPixels)
	}

	var seed uint64
	if _, err := fmt.Sscanf(fields["seed"].GetStringValue(), "%d", &seed); err != nil {
		return nil, fmt.Errorf("while parsing seed: %w", err)
	}

	db := &SampleDB{
		Scene: fields["scene"].GetStringValue(),
		Seed:  seed,
	}
	db.Resize(int(rows), int(cols))
	return db, nil
}

func Read(in io.Reader) (*SampleDB, error) {
	var headerLength uint64
	if err := binary.Read(in, binary.LittleEndian, &headerLength); err != nil {
		return nil, fmt.Errorf("while reading header length: %w", err)
	}

	if headerLength > maxHeaderLength {
		return nil, fmt.Errorf("%w: header length %d", ErrBadLayout, headerLength)
	}

	headerBytes := make([]byte, int(headerLength))
	if _, err := io.ReadFull(in, headerBytes); err != nil {
		return nil, fmt.Errorf("while reading header bytes: %w", err)
	}

	hdr := &structpb.Struct{}
	if err := proto.Unmarshal(headerBytes, hdr); err != nil {
		return nil, fmt.Errorf("while unmarshaling header: %w", err)
	}

	db, err := fromHeader(hdr)
	if err != nil {
		return nil, err
	}

	zipReader, err := zlib.NewReader(in)
	if err != nil {
		return nil, fmt.Errorf("while opening zip reader: %w", err)
	}
	defer zipReader.Close()

	if err := binary.Read(zipReader, binary.LittleEndian, db.Sums); err != nil {
		return nil, fmt.Errorf("while reading sample sums: %w", err)
	}

	if err := binary.Read(zipReader, binary.LittleEndian, db.Counts); err != nil {
		return nil, fmt.Errorf("while reading sample counts: %w", err)
	}

	return db, nil
}

func ReadFile(name string) (*SampleDB, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("while opening file: %w", err)
	}
	defer f.Close()

	return Read(f)
}

func Write(db *SampleDB, w io.Writer) error {
	hdr, err := db.Header()
	if err != nil {
		return fmt.Errorf("while building header: %w", err)
	}

	hdrBytes, err := proto.MarshalOptions{Deterministic: true}.Marshal(hdr)
	if err != nil {
		return fmt.Errorf("while marshaling header: %w", err)
	}

	headerLengthBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(headerLengthBytes, uint64(len(hdrBytes)))
	if _, err := w.Write(headerLengthBytes); err != nil {
		return fmt.Errorf("while writing header length: %w", err)
	}

	if _, err := w.Write(hdrBytes); err != nil {
		return fmt.Errorf("while writing header: %w", err)
	}

	zipWriter := zlib.NewWriter(w)

	if err := binary.Write(zipWriter, binary.LittleEndian, db.Sums); err != nil {
		return fmt.Errorf("while writing sample sums: %w", err)
	}

	if err := binary.Write(zipWriter, binary.LittleEndian, db.Counts); err != nil {
		return fmt.Errorf("while writing sample counts: %w", err)
	}

	if err := zipWriter.Close(); err != nil {
		return fmt.Errorf("while closing zip writer: %w", err)
	}

	return nil
}

// WriteFile writes db to a temporary file and renames it over name.
func WriteFile(db *SampleDB, name string) error {
	tmp := name + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("while creating output file: %w", err)
	}

	if err := Write(db, out); err != nil {
		out.Close()
		return fmt.Errorf("while writing sample db: %w", err)
	}

	if err := out.Close(); err != nil {
		return fmt.Errorf("while closing output file: %w", err)
	}

	if err := os.Rename(tmp, name); err != nil {
		return fmt.Errorf("while moving output file into place: %w", err)
	}

	return nil
}
