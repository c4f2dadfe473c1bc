package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/golshani-mhd/grizzle-ingest/internal/codegen"
	"github.com/spf13/cobra"
)

var (
	codegenSource  string
	codegenPackage string
	codegenOutput  string
)

var codegenCmd = &cobra.Command{
	Use:   "codegen",
	Short: "Infer a source's schema and emit a Go row struct for it",
	RunE:  runCodegen,
}

func init() {
	rootCmd.AddCommand(codegenCmd)
	codegenCmd.Flags().StringVarP(&codegenSource, "source", "s", "", "path to a source options document")
	codegenCmd.Flags().StringVar(&codegenPackage, "package", "model", "package name for the generated struct")
	codegenCmd.Flags().StringVarP(&codegenOutput, "output", "o", "", "output file (default: stdout)")
	_ = codegenCmd.MarkFlagRequired("source")
}

func runCodegen(cmd *cobra.Command, args []string) error {
	adapter, err := resolveSource(codegenSource)
	if err != nil {
		return err
	}

	sch, err := adapter.InferSchema(context.Background())
	if err != nil {
		return err
	}

	src, err := codegen.GenerateRowStruct(codegenPackage, sch)
	if err != nil {
		return err
	}

	if codegenOutput == "" {
		fmt.Print(src)
		return nil
	}
	return os.WriteFile(codegenOutput, []byte(src), 0644)
}
