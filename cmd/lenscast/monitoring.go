package main

import (
	"fmt"
	"time"

	"contrib.go.opencensus.io/exporter/stackdriver"
	cloudtrace "github.com/GoogleCloudPlatform/opentelemetry-operations-go/exporter/trace"
	"github.com/golang/glog"
	"github.com/spf13/viper"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func init() {
	cmdRoot.PersistentFlags().Bool("monitoring", false, "Export traces and render metrics to Google Cloud.")
	cmdRoot.PersistentFlags().String("monitoring-project", "", "Override project used for monitoring integration.  If not specified, the project associated with Application Default Credentials is used.")
	cmdRoot.PersistentFlags().Float64("monitoring-trace-ratio", 0.01, "What ratio of traces should be exported?")
}

var monitoringShutdown []func()

// startMonitoring installs the Cloud Trace pipeline for OpenTelemetry spans
// and a Stackdriver exporter for the OpenCensus render metrics.
func startMonitoring() error {
	if !viper.GetBool("monitoring") {
		return nil
	}
	project := viper.GetString("monitoring-project")

	traceOpts := []cloudtrace.Option{}
	if project != "" {
		traceOpts = append(traceOpts, cloudtrace.WithProjectID(project))
	}

	_, traceShutdown, err := cloudtrace.InstallNewPipeline(traceOpts, sdktrace.WithSampler(sdktrace.TraceIDRatioBased(viper.GetFloat64("monitoring-trace-ratio"))))
	if err != nil {
		return fmt.Errorf("while installing Cloud Trace pipeline: %w", err)
	}
	monitoringShutdown = append(monitoringShutdown, traceShutdown)

	exporter, err := stackdriver.NewExporter(stackdriver.Options{
		ProjectID:         project,
		MetricPrefix:      "lenscast",
		ReportingInterval: 60 * time.Second,
	})
	if err != nil {
		return fmt.Errorf("while creating Stackdriver exporter: %w", err)
	}
	if err := exporter.StartMetricsExporter(); err != nil {
		return fmt.Errorf("while starting metrics exporter: %w", err)
	}
	monitoringShutdown = append(monitoringShutdown, func() {
		exporter.StopMetricsExporter()
		exporter.Flush()
	})

	glog.Infof("Monitoring enabled")
	return nil
}

func stopMonitoring() {
	for i := len(monitoringShutdown) - 1; i >= 0; i-- {
		monitoringShutdown[i]()
	}
	monitoringShutdown = nil
}
