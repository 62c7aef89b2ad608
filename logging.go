package spmstitch

import "go.uber.org/zap"

// NewLogger builds a production zap logger for callers that don't build
// their own. The helpers below tag every line they write with its run ID.
func NewLogger() (*zap.Logger, error) {
	return zap.NewProduction()
}

func logTileLoaded(log *zap.Logger, runID, path, label string) {
	log.Info("loaded tile",
		zap.String("run_id", runID),
		zap.String("path", path),
		zap.String("channel", label),
	)
}

func logTileFailed(log *zap.Logger, runID, path string, err error) {
	log.Error("failed to load tile",
		zap.String("run_id", runID),
		zap.String("path", path),
		zap.Error(err),
	)
}

func logAligned(log *zap.Logger, runID string, index int, d Displacement) {
	log.Info("aligned tile pair",
		zap.String("run_id", runID),
		zap.Int("pair_index", index),
		zap.Int("dx", d.DX),
		zap.Int("dy", d.DY),
	)
}

func logSaved(log *zap.Logger, runID, outPath string, canvasSize int) {
	log.Info("saved mosaic",
		zap.String("run_id", runID),
		zap.String("out_path", outPath),
		zap.Int("canvas_size", canvasSize),
	)
}
