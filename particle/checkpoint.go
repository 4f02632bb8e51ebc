package particle

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/spatial/r3"
)

// Reader is the external-collaborator contract of spec.md §6:
// "a reader that populates ParticleSet with records of (com, qDisp,
// q, r, rf, b, name)". Formats beyond the CSV checkpoint below
// (binary, XYZ-like) are intentionally contract-only here.
type Reader interface {
	Read(r io.Reader) ([]Particle, error)
}

// checkpointRecord is the gocsv-tagged row shape of SPEC_FULL.md §3,
// mirroring the header-then-rows style of telemetry/output.go.
type checkpointRecord struct {
	Name   string  `csv:"name"`
	ComX   float64 `csv:"com_x"`
	ComY   float64 `csv:"com_y"`
	ComZ   float64 `csv:"com_z"`
	QDispX float64 `csv:"qdisp_x"`
	QDispY float64 `csv:"qdisp_y"`
	QDispZ float64 `csv:"qdisp_z"`
	Q      float64 `csv:"q"`
	R      float64 `csv:"r"`
	Rf     float64 `csv:"rf"`
	BMin   float64 `csv:"b_min"`
	BMax   float64 `csv:"b_max"`
}

// CSVReader implements Reader against the textual checkpoint format.
type CSVReader struct{}

// Read parses a CSV checkpoint into particle records. Parse failures
// are surfaced to the caller per spec.md §7 kind 4, never fatal.
func (CSVReader) Read(r io.Reader) ([]Particle, error) {
	var records []checkpointRecord
	if err := gocsv.Unmarshal(r, &records); err != nil {
		return nil, fmt.Errorf("particle: parsing checkpoint: %w", err)
	}

	out := make([]Particle, len(records))
	for i, rec := range records {
		p := Particle{
			Com:   r3.Vec{X: rec.ComX, Y: rec.ComY, Z: rec.ComZ},
			R:     rec.R,
			Rf:    rec.Rf,
			Q:     rec.Q,
			BMin:  rec.BMin,
			BMax:  rec.BMax,
			Name:  rec.Name,
			Index: i,
		}
		p.SetQDisp(r3.Vec{X: rec.QDispX, Y: rec.QDispY, Z: rec.QDispZ})
		out[i] = p
	}
	return out, nil
}

// SaveCheckpoint writes the set's particles as a CSV checkpoint with
// a single header row, the format CSVReader.Read expects back.
func SaveCheckpoint(w io.Writer, s *Set) error {
	records := make([]checkpointRecord, s.Len())
	for i, p := range s.particles {
		records[i] = checkpointRecord{
			Name:   p.Name,
			ComX:   p.Com.X, ComY: p.Com.Y, ComZ: p.Com.Z,
			QDispX: p.QDisp.X, QDispY: p.QDisp.Y, QDispZ: p.QDisp.Z,
			Q:    p.Q,
			R:    p.R,
			Rf:   p.Rf,
			BMin: p.BMin,
			BMax: p.BMax,
		}
	}
	if err := gocsv.Marshal(records, w); err != nil {
		return fmt.Errorf("particle: writing checkpoint: %w", err)
	}
	return nil
}

// LoadCheckpoint reads a CSV checkpoint directly into a new Set,
// using pModel/nModel as the insertion templates for any subsequent
// grand-canonical moves.
func LoadCheckpoint(r io.Reader, pModel, nModel Particle) (*Set, error) {
	particles, err := (CSVReader{}).Read(r)
	if err != nil {
		return nil, err
	}
	s := NewSet(pModel, nModel)
	for _, p := range particles {
		s.Append(p)
	}
	return s, nil
}
