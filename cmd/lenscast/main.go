// lenscast renders scenes of spheres with a Monte Carlo path tracer, and
// turns the accumulated samples into images.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime/pprof"
	"strings"

	"github.com/golang/glog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var cmdRoot = &cobra.Command{
	Use:   "lenscast",
	Short: "Offline path tracer",

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(cmd); err != nil {
			return err
		}

		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			glog.Infof("Flag --%s=%q", f.Name, viper.GetString(f.Name))
		})

		if err := startMonitoring(); err != nil {
			return err
		}

		if profile := viper.GetString("cpu-profile"); profile != "" {
			if err := startCPUProfile(profile); err != nil {
				return err
			}
		}
		return nil
	},
}

var configFile string

func init() {
	cmdRoot.PersistentFlags().StringVar(&configFile, "config", "", "YAML file to read flag values from.")
	cmdRoot.PersistentFlags().String("cpu-profile", "", "Write a CPU profile to this file.")
}

// loadConfig makes every flag of cmd readable through viper.  A value set on
// the command line wins over a LENSCAST_* environment variable, which wins
// over the config file.
func loadConfig(cmd *cobra.Command) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("while binding flags: %w", err)
	}

	viper.SetEnvPrefix("LENSCAST")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("while reading config file %q: %w", configFile, err)
		}
		glog.Infof("Using config file %s", viper.ConfigFileUsed())
	}

	return nil
}

var profileFile *os.File

func startCPUProfile(name string) error {
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("while creating CPU profile: %w", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()
		return fmt.Errorf("while starting CPU profile: %w", err)
	}
	profileFile = f
	return nil
}

func stopCPUProfile() {
	if profileFile == nil {
		return
	}
	pprof.StopCPUProfile()
	if err := profileFile.Close(); err != nil {
		glog.Errorf("While closing CPU profile: %v", err)
	}
	profileFile = nil
}

func main() {
	// glog's flags ride along with cobra's.
	cmdRoot.PersistentFlags().AddGoFlagSet(flag.CommandLine)
	flag.CommandLine.Parse([]string{})

	glog.CopyStandardLogTo("INFO")

	cmdRoot.AddCommand(cmdRender, cmdDevelop, cmdInspect, cmdPublish, cmdScenes)

	err := cmdRoot.ExecuteContext(context.Background())
	stopCPUProfile()
	stopMonitoring()
	if err != nil {
		glog.Exitf("Error: %v", err)
	}
	glog.Flush()
}
