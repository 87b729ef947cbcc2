// Package render drives the per-pixel sampling loop.
package render

import (
	"context"
	"fmt"
	"math/rand/v2"

	"row-major/lenscast/camera"
	"row-major/lenscast/randsrc"
	"row-major/lenscast/rendermetrics"
	"row-major/lenscast/sampledb"
	"row-major/lenscast/scene"

	"github.com/golang/glog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultChunkRows = 16

type Options struct {
	// MaxDepth is the number of scattering events a path may undergo.
	MaxDepth int

	// TargetSamples is how many samples every pixel should have when the
	// render finishes.  Pixels that already have that many are skipped.
	TargetSamples int

	Seed uint64

	// ChunkRows is how many image rows a worker handles.  Zero means the
	// default.
	ChunkRows int

	// CameraIndex picks which of the scene's cameras to render from.
	CameraIndex int
}

func (o *Options) Validate() error {
	if o.MaxDepth < 0 {
		return fmt.Errorf("max depth %d is negative", o.MaxDepth)
	}
	if o.TargetSamples < 1 {
		return fmt.Errorf("target samples %d must be at least 1", o.TargetSamples)
	}
	if o.ChunkRows < 0 {
		return fmt.Errorf("chunk rows %d is negative", o.ChunkRows)
	}
	if o.CameraIndex < 0 {
		return fmt.Errorf("camera index %d is negative", o.CameraIndex)
	}
	return nil
}

func (o *Options) chunkRows() int {
	if o.ChunkRows == 0 {
		return defaultChunkRows
	}
	return o.ChunkRows
}

// ProgressFunction is told the number of samples taken so far and the number
// the render will take in total.
type ProgressFunction func(cur, tot int)

type chunkWorker struct {
	sampleDB         *sampledb.SampleDB
	rng              *rand.Rand
	progressFunction func(int)
	metrics          *rendermetrics.Recorder

	maxDepth      int
	targetSamples int

	// These are the dimensions of the overall image, not just the chunk.
	imgRows int
	imgCols int

	rowSrc int
	rowLim int

	camera camera.Camera
	scene  *scene.Scene
}

func (w *chunkWorker) render(ctx context.Context) error {
	tracer := otel.Tracer("row-major/lenscast/render")
	var span trace.Span
	ctx, span = tracer.Start(ctx, "chunkWorker.render")
	defer span.End()

	span.SetAttributes(attribute.Int("rowSrc", w.rowSrc), attribute.Int("rowLim", w.rowLim))

	for cr := w.rowSrc; cr < w.rowLim; cr++ {
		if err := ctx.Err(); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return err
		}

		samplesCollected := 0
		for cc := 0; cc < w.imgCols; cc++ {
			r := cr - w.rowSrc

			samp := w.sampleDB.ReadSample(r, cc)
			if int(samp.Count) >= w.targetSamples {
				continue
			}
			samplesToAdd := w.targetSamples - int(samp.Count)

			for cs := 0; cs < samplesToAdd; cs++ {
				// Row 0 is the top of the image, t = 1.
				s := (float64(cc) + w.rng.Float64()) / float64(w.imgCols)
				t := (float64(w.imgRows-1-cr) + w.rng.Float64()) / float64(w.imgRows)

				query := w.camera.ImageToRay(s, t, w.rng)
				radiance, info := w.scene.SamplePath(query, w.maxDepth, w.rng)
				w.sampleDB.RecordSample(r, cc, radiance)
				if w.metrics != nil {
					w.metrics.RecordPath(ctx, info)
				}
				samplesCollected++
			}
		}

		w.progressFunction(samplesCollected)
	}

	return nil
}

// Render adds samples to db until every pixel has opts.TargetSamples of them.
//
// The image is split into bands of rows.  Each band gets its own random
// stream, derived from the seed, the band and the number of samples already
// in db, so a resumed render draws fresh samples instead of repeating the
// ones it already has.  Bands are rendered one after another.
//
// If ctx is cancelled, Render stops between rows and returns the context's
// error; samples taken until then are kept in db.
func Render(ctx context.Context, s *scene.Scene, db *sampledb.SampleDB, opts *Options, metrics *rendermetrics.Recorder, progressFunction ProgressFunction) error {
	tracer := otel.Tracer("row-major/lenscast/render")
	var span trace.Span
	ctx, span = tracer.Start(ctx, "Render")
	defer span.End()

	if err := opts.Validate(); err != nil {
		err = fmt.Errorf("bad render options: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if opts.CameraIndex >= len(s.Cameras) {
		err := fmt.Errorf("camera %d requested, but the scene has %d", opts.CameraIndex, len(s.Cameras))
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	cam := s.Cameras[opts.CameraIndex]

	if progressFunction == nil {
		progressFunction = func(int, int) {}
	}

	// Count the samples already recorded.  When we resume a render, we don't
	// want to just repeat our same RNG choices again!
	existingSamples := db.TotalSamples()

	// Count the samples the render will add, for reporting progress.
	totalSamples := 0
	for _, c := range db.Counts {
		if int(c) < opts.TargetSamples {
			totalSamples += opts.TargetSamples - int(c)
		}
	}

	span.SetAttributes(
		attribute.Int("rows", db.RowSize),
		attribute.Int("cols", db.ColSize),
		attribute.Int("existingSamples", existingSamples),
		attribute.Int("totalSamples", totalSamples),
	)

	curProgress := 0
	chunkRows := opts.chunkRows()
	for chunk, rowSrc := 0, 0; rowSrc < db.RowSize; chunk, rowSrc = chunk+1, rowSrc+chunkRows {
		rowLim := rowSrc + chunkRows
		if rowLim > db.RowSize {
			rowLim = db.RowSize
		}

		worker := &chunkWorker{
			rng: randsrc.Stream(opts.Seed, randsrc.Key(uint64(existingSamples), uint64(chunk))),
			progressFunction: func(subProgress int) {
				curProgress += subProgress
				progressFunction(curProgress, totalSamples)
			},
			metrics:       metrics,
			maxDepth:      opts.MaxDepth,
			targetSamples: opts.TargetSamples,
			imgRows:       db.RowSize,
			imgCols:       db.ColSize,
			rowSrc:        rowSrc,
			rowLim:        rowLim,
			camera:        cam,
			scene:         s,
		}
		worker.sampleDB = db.Cut(rowSrc, rowLim, 0, db.ColSize)

		err := worker.render(ctx)

		// Keep whatever the worker finished, even if it was interrupted.
		db.Paste(worker.sampleDB, rowSrc, 0)

		if err != nil {
			err = fmt.Errorf("while rendering rows [%d, %d): %w", rowSrc, rowLim, err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}

		glog.V(1).Infof("Finished rows [%d, %d)", rowSrc, rowLim)
	}

	return nil
}
