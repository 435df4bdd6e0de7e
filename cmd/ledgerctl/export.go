package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/ledgerly/backend/internal/application/report"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a retailer statement",
	Long: `export writes a retailer statement as XLSX or PDF. When object storage
is configured the file is uploaded and a presigned link is printed instead.`,
	Example: `  ledgerctl export --tenant $TENANT --retailer $RETAILER --out statement.xlsx
  ledgerctl export --tenant $TENANT --retailer $RETAILER --format pdf --out statement.pdf`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().String("tenant", "", "tenant ID (required)")
	exportCmd.Flags().String("retailer", "", "retailer ID (required)")
	exportCmd.Flags().String("format", string(report.FormatXLSX), "xlsx or pdf")
	exportCmd.Flags().String("out", "", "output file (default: the statement file name)")
	_ = exportCmd.MarkFlagRequired("tenant")
	_ = exportCmd.MarkFlagRequired("retailer")
}

func runExport(cmd *cobra.Command, args []string) error {
	ids := make([]uuid.UUID, 2)
	for i, name := range []string{"tenant", "retailer"} {
		raw, _ := cmd.Flags().GetString(name)
		id, err := uuid.Parse(raw)
		if err != nil {
			return fmt.Errorf("invalid --%s: %w", name, err)
		}
		ids[i] = id
	}
	formatRaw, _ := cmd.Flags().GetString("format")
	format := report.Format(formatRaw)
	if !format.IsValid() {
		return fmt.Errorf("unsupported --format %q", formatRaw)
	}
	out, _ := cmd.Flags().GetString("out")

	a, err := openApp(cmd.Context(), openOptions{pdf: format == report.FormatPDF, store: true})
	if err != nil {
		return err
	}
	defer a.Close()

	file, err := a.Statements.Export(cmd.Context(), ids[0], ids[1], format)
	if err != nil {
		return err
	}
	if file.Uploaded() {
		fmt.Fprintln(cmd.OutOrStdout(), file.URL)
		return nil
	}

	if out == "" {
		out = file.Name
	}
	if err := os.WriteFile(out, file.Data, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%d bytes)\n", out, file.Size)
	return nil
}
