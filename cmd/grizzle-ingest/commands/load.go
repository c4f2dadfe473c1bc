package commands

import (
	"context"
	"fmt"

	"github.com/golshani-mhd/grizzle-ingest/internal/logging"
	"github.com/golshani-mhd/grizzle-ingest/loader"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var loadSource string

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Infer a source's schema and load its rows into PostgreSQL",
	RunE:  runLoad,
}

func init() {
	rootCmd.AddCommand(loadCmd)
	loadCmd.Flags().StringVarP(&loadSource, "source", "s", "", "path to a source options document")
	_ = loadCmd.MarkFlagRequired("source")
}

func runLoad(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	adapter, err := resolveSource(loadSource)
	if err != nil {
		return err
	}

	sch, err := adapter.InferSchema(ctx)
	if err != nil {
		return err
	}

	env := logging.Production
	if viper.GetBool("verbose") {
		env = logging.Development
	}
	logger, err := logging.New(env)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ld, err := loader.New(ctx, loader.Config{
		DSN:          viper.GetString("db.dsn"),
		PoolMinConns: int32(viper.GetInt("db.pool_min_conns")),
		PoolMaxConns: int32(viper.GetInt("db.pool_max_conns")),
	}, logger)
	if err != nil {
		return err
	}
	defer ld.Close()

	result, err := ld.Load(ctx, adapter, sch)
	if err != nil {
		return err
	}

	fmt.Printf("loaded %d rows into %s\n", result.RowsLoaded, sch.TableName)
	return nil
}
