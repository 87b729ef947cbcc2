package main

import (
	"context"
	"fmt"

	"row-major/lenscast/develop"
	"row-major/lenscast/publish"
	"row-major/lenscast/sampledb"
	"row-major/lenscast/scenes"

	"github.com/golang/glog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	googleopt "google.golang.org/api/option"
	"google.golang.org/protobuf/encoding/prototext"
)

var cmdDevelop = &cobra.Command{
	Use:   "develop",
	Short: "Turn a sample db into an image",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return doDevelop(cmd.Context())
	},
}

func init() {
	cmdDevelop.Flags().String("input", "render.sdb", "Sample db to read.")
	cmdDevelop.Flags().String("output", "render.png", "Image to write; the extension picks the format (.ppm, .png, .jpg, ...).")
	cmdDevelop.Flags().String("thumbnail", "", "If set, also write a reduced copy of the image here.")
	cmdDevelop.Flags().Uint("thumbnail-size", 256, "Bounding box edge of the thumbnail, in pixels.")
}

func doDevelop(ctx context.Context) error {
	tracer := otel.Tracer("row-major/lenscast/cmd")
	var span trace.Span
	_, span = tracer.Start(ctx, "develop")
	defer span.End()

	input := viper.GetString("input")
	output := viper.GetString("output")
	span.SetAttributes(attribute.String("input", input), attribute.String("output", output))

	db, err := sampledb.ReadFile(input)
	if err != nil {
		return fmt.Errorf("while reading sample db: %w", err)
	}

	img := develop.Image(db)
	if err := develop.Save(img, output); err != nil {
		return fmt.Errorf("while saving image: %w", err)
	}
	glog.Infof("Wrote %s", output)

	if thumbnail := viper.GetString("thumbnail"); thumbnail != "" {
		size := viper.GetUint("thumbnail-size")
		if err := develop.Save(develop.Thumbnail(img, size, size), thumbnail); err != nil {
			return fmt.Errorf("while saving thumbnail: %w", err)
		}
		glog.Infof("Wrote %s", thumbnail)
	}

	return nil
}

var cmdInspect = &cobra.Command{
	Use:   "inspect",
	Short: "Print the header and statistics of a sample db",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := sampledb.ReadFile(viper.GetString("input"))
		if err != nil {
			return fmt.Errorf("while reading sample db: %w", err)
		}

		hdr, err := db.Header()
		if err != nil {
			return fmt.Errorf("while building header: %w", err)
		}
		fmt.Println(prototext.Format(hdr))

		st := db.Stats()
		fmt.Printf("samples: %d total, %v to %v per pixel\n", db.TotalSamples(), st.MinCount, st.MaxCount)
		fmt.Printf("luminance: mean %.6g, stddev %.6g\n", st.LuminanceMean, st.LuminanceStdDev)
		return nil
	},
}

func init() {
	cmdInspect.Flags().String("input", "render.sdb", "Sample db to read.")
}

var cmdPublish = &cobra.Command{
	Use:   "publish [files...]",
	Short: "Upload files to gs:// or s3:// storage",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		dest, err := publish.ParseDestination(viper.GetString("destination"))
		if err != nil {
			return err
		}

		gcsOpts := []googleopt.ClientOption{googleopt.WithGRPCConnectionPool(1)}
		if creds := viper.GetString("credentials-file"); creds != "" {
			gcsOpts = append(gcsOpts, googleopt.WithCredentialsFile(creds))
		}

		p, err := publish.New(ctx, dest, gcsOpts...)
		if err != nil {
			return fmt.Errorf("while connecting to %s: %w", dest, err)
		}

		if err := publish.PublishFiles(ctx, p, args, viper.GetInt64("concurrency")); err != nil {
			return fmt.Errorf("while publishing to %s: %w", dest, err)
		}
		return nil
	},
}

func init() {
	cmdPublish.Flags().String("destination", "", "Where to upload, as gs://bucket/prefix or s3://bucket/prefix.")
	cmdPublish.Flags().Int64("concurrency", 4, "Maximum simultaneous uploads.")
	cmdPublish.Flags().String("credentials-file", "", "Service account key for gs:// destinations.  Application Default Credentials are used if unset.")
}

var cmdScenes = &cobra.Command{
	Use:   "scenes",
	Short: "List the scenes that can be rendered",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range scenes.Names() {
			fmt.Println(name)
		}
	},
}
