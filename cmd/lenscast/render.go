package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/signal"

	"row-major/lenscast/randsrc"
	"row-major/lenscast/render"
	"row-major/lenscast/rendermetrics"
	"row-major/lenscast/sampledb"
	"row-major/lenscast/scenes"

	"github.com/golang/glog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// sceneStream is the random stream scene builders draw from.  Render chunks
// use the low streams.
const sceneStream = math.MaxUint64

var cmdRender = &cobra.Command{
	Use:   "render",
	Short: "Render a scene into a sample db",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return doRender(cmd.Context())
	},
}

func init() {
	cmdRender.Flags().String("scene", "random-spheres", "Scene to render (see `lenscast scenes`).")
	cmdRender.Flags().Int("rows", 225, "Image height in pixels.")
	cmdRender.Flags().Int("cols", 400, "Image width in pixels.")
	cmdRender.Flags().Int("samples", 100, "Samples to collect per pixel.")
	cmdRender.Flags().Int("max-depth", 50, "Maximum number of scattering events per path.")
	cmdRender.Flags().Uint64("seed", 1, "Seed for the scene builder and the sampler.")
	cmdRender.Flags().Int("chunk-rows", 0, "Rows rendered per chunk (0 for the default).")
	cmdRender.Flags().Int("camera", 0, "Index of the scene camera to render from.")
	cmdRender.Flags().String("output", "render.sdb", "Sample db to write.")
	cmdRender.Flags().Bool("resume", false, "Add samples to an existing output file instead of starting over.")
}

func doRender(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	sceneName := viper.GetString("scene")
	rows := viper.GetInt("rows")
	cols := viper.GetInt("cols")
	seed := viper.GetUint64("seed")
	output := viper.GetString("output")

	if rows < 1 || cols < 1 {
		return fmt.Errorf("image must be at least 1x1, got %dx%d", cols, rows)
	}

	opts := &render.Options{
		MaxDepth:      viper.GetInt("max-depth"),
		TargetSamples: viper.GetInt("samples"),
		Seed:          seed,
		ChunkRows:     viper.GetInt("chunk-rows"),
		CameraIndex:   viper.GetInt("camera"),
	}
	if err := opts.Validate(); err != nil {
		return fmt.Errorf("bad render options: %w", err)
	}

	var sampleDB *sampledb.SampleDB
	if viper.GetBool("resume") {
		var err error
		sampleDB, err = sampledb.ReadFile(output)
		if err != nil {
			return fmt.Errorf("resumption requested, but encountered error loading existing file: %w", err)
		}

		if sampleDB.RowSize != rows {
			return fmt.Errorf("resumption requested, but the existing sample db doesn't have the right number of rows (got %d, want %d)", sampleDB.RowSize, rows)
		}
		if sampleDB.ColSize != cols {
			return fmt.Errorf("resumption requested, but the existing sample db doesn't have the right number of columns (got %d, want %d)", sampleDB.ColSize, cols)
		}
		if sampleDB.Scene != sceneName {
			return fmt.Errorf("resumption requested, but the existing sample db holds a different scene (got %q, want %q)", sampleDB.Scene, sceneName)
		}
		if sampleDB.Seed != seed {
			return fmt.Errorf("resumption requested, but the existing sample db used a different seed (got %d, want %d)", sampleDB.Seed, seed)
		}
	} else {
		// Don't blow away hours of render time.
		if _, err := os.Stat(output); err == nil {
			return fmt.Errorf("resumption not requested, but output file %q exists", output)
		}

		sampleDB = sampledb.New(rows, cols)
		sampleDB.Scene = sceneName
		sampleDB.Seed = seed
	}

	s, err := scenes.Build(sceneName, float64(cols)/float64(rows), randsrc.Stream(seed, sceneStream))
	if err != nil {
		return fmt.Errorf("while building scene: %w", err)
	}

	metrics := rendermetrics.New()
	if err := metrics.RegisterViews(); err != nil {
		return fmt.Errorf("while registering metrics views: %w", err)
	}
	defer metrics.UnregisterViews()

	glog.Infof("Rendering %q at %dx%d, %d samples per pixel", sceneName, cols, rows, opts.TargetSamples)

	renderErr := render.Render(ctx, s, sampleDB, opts, metrics, logProgress())
	if renderErr != nil && !errors.Is(renderErr, context.Canceled) {
		return fmt.Errorf("while rendering: %w", renderErr)
	}
	if renderErr != nil {
		glog.Infof("Render interrupted, saving partial results")
	}

	if err := sampledb.WriteFile(sampleDB, output); err != nil {
		return fmt.Errorf("while saving sample db: %w", err)
	}
	glog.Infof("Wrote %s", output)

	counts, err := metrics.SampleCounts()
	if err != nil {
		return fmt.Errorf("while reading metrics: %w", err)
	}
	glog.Infof("Paths: %d escaped, %d absorbed, %d truncated", counts["escaped"], counts["absorbed"], counts["truncated"])

	return renderErr
}

func logProgress() render.ProgressFunction {
	lastPercent := -1
	return func(cur, tot int) {
		if tot == 0 {
			return
		}
		percent := 100 * cur / tot
		if percent != lastPercent {
			lastPercent = percent
			glog.Infof("Progress: %d/%d samples (%d%%)", cur, tot, percent)
		}
	}
}
