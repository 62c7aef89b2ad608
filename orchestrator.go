package spmstitch

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Orchestrator wires the C1-C7 pipeline stages behind the public API
// consumed by cmd/spmstitch and by embedding callers. LoadTile and
// LoadTiles tag their log lines with the run ID the caller passes;
// Preview and Save each tag theirs with a fresh run ID of their own.
type Orchestrator struct {
	Config  Config
	Metrics *Metrics
	Logger  *zap.Logger
}

// NewOrchestrator builds an Orchestrator. A nil logger falls back to a
// no-op logger; metrics may be nil for no instrumentation.
func NewOrchestrator(cfg Config, metrics *Metrics, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{Config: cfg, Metrics: metrics, Logger: logger}
}

// LoadTile decodes one SPM file's requested channel (C2), logging and
// counting the outcome.
func (o *Orchestrator) LoadTile(runID, path string) (*Tile, error) {
	t, err := ReadTile(path, o.Config.ChannelLabel)
	if err != nil {
		o.Metrics.tileFailed()
		logTileFailed(o.Logger, runID, path, err)
		return nil, err
	}
	o.Metrics.tileLoaded()
	logTileLoaded(o.Logger, runID, path, o.Config.ChannelLabel)
	return t, nil
}

// LoadTiles decodes every path in order, stopping at the first failure.
func (o *Orchestrator) LoadTiles(runID string, paths []string) ([]*Tile, error) {
	tiles := make([]*Tile, 0, len(paths))
	for _, p := range paths {
		t, err := o.LoadTile(runID, p)
		if err != nil {
			return nil, err
		}
		tiles = append(tiles, t)
	}
	return tiles, nil
}

// FlattenAll applies C3 per-row plane removal to every tile in place.
func (o *Orchestrator) FlattenAll(tiles []*Tile) {
	for _, t := range tiles {
		FlattenTile(t)
	}
}

// alignAll runs C4 over consecutive tile pairs, returning one
// Displacement per pair (len(tiles)-1 entries).
func (o *Orchestrator) alignAll(runID string, tiles []*Tile) ([]Displacement, error) {
	if len(tiles) == 0 {
		return nil, &EmptyInput{Op: "alignAll"}
	}
	opts := AlignOptions{EdgeInset: o.Config.EdgeInset, OverlapMargin: o.Config.OverlapMargin}
	displacements := make([]Displacement, 0, len(tiles)-1)
	for i := 1; i < len(tiles); i++ {
		o.Metrics.alignmentRun()
		d, err := AlignPair(tiles[i-1], tiles[i], opts)
		if err != nil {
			return nil, err
		}
		logAligned(o.Logger, runID, i-1, d)
		displacements = append(displacements, d)
	}
	return displacements, nil
}

// Preview runs C4 -> C5 -> C6 and returns the composited mosaic without
// re-encoding it to an SPM file.
func (o *Orchestrator) Preview(tiles []*Tile) (*Mosaic, error) {
	runID := uuid.NewString()
	if len(tiles) == 0 {
		return nil, &EmptyInput{Op: "Preview"}
	}

	displacements, err := o.alignAll(runID, tiles)
	if err != nil {
		return nil, err
	}

	placements := PlanCanvas(tiles[0].Cols(), tiles[0].Rows(), displacements)
	mosaic := Composite(tiles, placements)
	o.Metrics.pixelsWritten(countWritten(mosaic))
	return mosaic, nil
}

// Save runs C4 -> C5 -> C6 -> C7 -> C2, writing the stitched mosaic to
// outPath using templatePath's header as the splice target.
func (o *Orchestrator) Save(tiles []*Tile, templatePath, outPath string) error {
	runID := uuid.NewString()
	start := time.Now()

	if len(tiles) == 0 {
		return &EmptyInput{Op: "Save"}
	}

	displacements, err := o.alignAll(runID, tiles)
	if err != nil {
		return err
	}

	placements := PlanCanvas(tiles[0].Cols(), tiles[0].Rows(), displacements)
	mosaic := Composite(tiles, placements)
	o.Metrics.pixelsWritten(countWritten(mosaic))

	hdr := tiles[0].Header
	encoded, err := EncodeMosaic(mosaic, hdr.BytesPerPixel, hdr.ZScaleSensV, o.Config.HeadroomFactor)
	if err != nil {
		return err
	}
	raster := PackRaster(encoded.Raw, hdr.BytesPerPixel)

	// The mosaic is wider (in tile pixels) than the template tile by the
	// canvas padding and any alignment shift, so the physical scan size
	// must scale with it rather than carry the template's own extent
	// unchanged (spec.md §9: the save path uses the computed size, never
	// the original's hardcoded 100 nm).
	scanSizeNM := hdr.ScanSizeNM * int64(mosaic.W) / int64(tiles[0].Cols())

	update := TileFieldUpdate{
		Label:         o.Config.ChannelLabel,
		DataLength:    int64(len(raster)),
		ZScaleValue:   encoded.ZScale,
		SampsPerLine:  int64(mosaic.W),
		NumberOfLines: int64(mosaic.H),
		ScanSizeNM:    scanSizeNM,
	}
	if err := WriteTile(templatePath, outPath, update, raster); err != nil {
		return err
	}

	o.Metrics.observeSaveDuration(time.Since(start).Seconds())
	logSaved(o.Logger, runID, outPath, mosaic.W)
	return nil
}

func countWritten(m *Mosaic) int {
	n := 0
	for _, row := range m.Written {
		for _, w := range row {
			if w {
				n++
			}
		}
	}
	return n
}

// RunID returns a fresh run correlation identifier, exposed so callers
// (e.g. the CLI) can log it before the orchestrator stages begin.
func RunID() string {
	return uuid.NewString()
}
