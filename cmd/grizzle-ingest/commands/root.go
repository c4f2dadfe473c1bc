package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "grizzle-ingest",
	Short: "Infer a schema from a tabular or geospatial source and load it into PostgreSQL",
	Long: `grizzle-ingest analyzes a delimited, spreadsheet, shapefile, GeoJSON,
Parquet, Arrow IPC, Avro, or ArcGIS REST feature source, infers a normalized
table schema, and streams its rows into PostgreSQL via COPY FROM STDIN.

Examples:
  grizzle-ingest infer-schema --source source.yaml
  grizzle-ingest load --source source.yaml
  grizzle-ingest codegen --source source.yaml --package model`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is grizzle-ingest.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")

	viper.SetDefault("db.pool_min_conns", 2)
	viper.SetDefault("db.pool_max_conns", 10)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("grizzle-ingest")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("GRIZZLE_INGEST")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
		}
	}
}
