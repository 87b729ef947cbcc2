// Package rendermetrics records OpenCensus stats about sampled light paths.
package rendermetrics

import (
	"context"
	"fmt"

	"row-major/lenscast/scene"

	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

var keyOutcome = tag.MustNewKey("outcome")

type Recorder struct {
	samples     *stats.Int64Measure
	pathLengths *stats.Int64Measure

	samplesView     *view.View
	pathLengthsView *view.View
}

func New() *Recorder {
	r := &Recorder{}

	r.samples = stats.Int64("lenscast/samples", "Radiance samples taken", stats.UnitDimensionless)
	r.samplesView = &view.View{
		Name:        "lenscast/samples",
		Description: "Count of radiance samples, by how their path ended",

		TagKeys: []tag.Key{keyOutcome},

		Measure:     r.samples,
		Aggregation: view.Count(),
	}

	r.pathLengths = stats.Int64("lenscast/path_length", "Scattering events along a sampled path", stats.UnitDimensionless)
	r.pathLengthsView = &view.View{
		Name:        "lenscast/path_length",
		Description: "Distribution of scattering events per sampled path",

		Measure:     r.pathLengths,
		Aggregation: view.Distribution(1, 2, 4, 8, 16, 32, 64),
	}

	return r
}

func (r *Recorder) Views() []*view.View {
	return []*view.View{r.samplesView, r.pathLengthsView}
}

func (r *Recorder) RegisterViews() error {
	return view.Register(r.Views()...)
}

func (r *Recorder) UnregisterViews() {
	view.Unregister(r.Views()...)
}

func outcomeName(o scene.PathOutcome) string {
	switch o {
	case scene.PathEscaped:
		return "escaped"
	case scene.PathAbsorbed:
		return "absorbed"
	case scene.PathTruncated:
		return "truncated"
	}
	return "unknown"
}

// RecordPath notes one sampled path.
func (r *Recorder) RecordPath(ctx context.Context, info scene.PathInfo) {
	stats.RecordWithOptions(
		ctx,
		stats.WithTags(tag.Upsert(keyOutcome, outcomeName(info.Outcome))),
		stats.WithMeasurements(r.samples.M(1), r.pathLengths.M(int64(info.Bounces))))
}

// SampleCounts reports how many samples have been recorded so far, keyed by
// how their path ended.  The views must be registered.
func (r *Recorder) SampleCounts() (map[string]int64, error) {
	rows, err := view.RetrieveData(r.samplesView.Name)
	if err != nil {
		return nil, fmt.Errorf("while retrieving view data: %w", err)
	}

	counts := map[string]int64{}
	for _, row := range rows {
		data, ok := row.Data.(*view.CountData)
		if !ok {
			continue
		}

		outcome := ""
		for _, t := range row.Tags {
			if t.Key == keyOutcome {
				outcome = t.Value
			}
		}
		counts[outcome] += data.Value
	}
	return counts, nil
}
