package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var inferSchemaSource string

var inferSchemaCmd = &cobra.Command{
	Use:   "infer-schema",
	Short: "Infer and print the table schema a source would produce",
	RunE:  runInferSchema,
}

func init() {
	rootCmd.AddCommand(inferSchemaCmd)
	inferSchemaCmd.Flags().StringVarP(&inferSchemaSource, "source", "s", "", "path to a source options document")
	_ = inferSchemaCmd.MarkFlagRequired("source")
}

func runInferSchema(cmd *cobra.Command, args []string) error {
	adapter, err := resolveSource(inferSchemaSource)
	if err != nil {
		return err
	}

	sch, err := adapter.InferSchema(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("table %s\n", sch.TableName)
	for _, col := range sch.Columns {
		fmt.Printf("  %-32s %s\n", col.Name, col.Type)
	}
	return nil
}
