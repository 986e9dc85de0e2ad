package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"ratecalc/internal/core"
	"ratecalc/internal/style"
	"ratecalc/pkg/domain"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Dump, load and archive the whole catalog",
}

var catalogDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Write the catalog as JSON",
	Args:  cobra.NoArgs,
	RunE:  runCatalogDump,
}

var catalogLoadCmd = &cobra.Command{
	Use:   "load <file>",
	Short: "Replace the catalog with a JSON snapshot (- reads stdin)",
	Long: `Replace the whole catalog with the JSON snapshot in <file>.

The snapshot is rejected when its recipes form a cycle; the current catalog
is then left unchanged.`,
	Args: cobra.ExactArgs(1),
	RunE: runCatalogLoad,
}

var catalogExportCmd = &cobra.Command{
	Use:   "export <name>",
	Short: "Save the catalog as a new archived version of <name>",
	Args:  cobra.ExactArgs(1),
	RunE:  runCatalogExport,
}

var catalogImportCmd = &cobra.Command{
	Use:   "import <name>",
	Short: "Replace the catalog with an archived version of <name>",
	Long: `Replace the catalog with the newest archived version of <name>, or with
the version at --key.`,
	Args: cobra.ExactArgs(1),
	RunE: runCatalogImport,
}

var catalogHistoryCmd = &cobra.Command{
	Use:   "history <name>",
	Short: "List archived versions of <name>, oldest first",
	Args:  cobra.ExactArgs(1),
	RunE:  runCatalogHistory,
}

var (
	catalogDumpOut   string
	catalogImportKey string
)

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogDumpCmd)
	catalogCmd.AddCommand(catalogLoadCmd)
	catalogCmd.AddCommand(catalogExportCmd)
	catalogCmd.AddCommand(catalogImportCmd)
	catalogCmd.AddCommand(catalogHistoryCmd)

	catalogDumpCmd.Flags().StringVarP(&catalogDumpOut, "out", "o", "", "Write to file instead of stdout")
	catalogImportCmd.Flags().StringVar(&catalogImportKey, "key", "", "Archive key to import instead of the newest")
}

func runCatalogDump(cmd *cobra.Command, _ []string) error {
	catalog, err := rt.svc.Catalog(cmd.Context())
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(catalog, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if catalogDumpOut == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(catalogDumpOut, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", catalogDumpOut, err)
	}
	return nil
}

func runCatalogLoad(cmd *cobra.Command, args []string) error {
	var r io.Reader = cmd.InOrStdin()
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		r = f
	}
	catalog := domain.NewCatalog()
	if err := json.NewDecoder(r).Decode(catalog); err != nil {
		return fmt.Errorf("decoding catalog: %w", err)
	}
	if _, err := rt.svc.LoadCatalog(cmd.Context(), catalog); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "loaded %d ingredients, %d recipes\n", len(catalog.ListIngredients()), catalog.RecipeCount())
	return nil
}

func runCatalogExport(cmd *cobra.Command, args []string) error {
	archive, err := rt.catalogArchive(cmd.Context())
	if err != nil {
		return err
	}
	info, err := rt.svc.ExportCatalog(cmd.Context(), archive, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "exported %s (%d bytes)\n", info.Key, info.Size)
	return nil
}

func runCatalogImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	archive, err := rt.catalogArchive(ctx)
	if err != nil {
		return err
	}
	key := catalogImportKey
	if key == "" {
		info, _, err := rt.svc.ImportLatestCatalog(ctx, archive, args[0])
		if errors.Is(err, core.ErrNoArchive) {
			return fmt.Errorf("no archived versions of %s; run catalog export first", args[0])
		}
		if err != nil {
			return err
		}
		key = info.Key
	} else if _, err := rt.svc.ImportCatalog(ctx, archive, key); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "imported %s\n", key)
	return nil
}

func runCatalogHistory(cmd *cobra.Command, args []string) error {
	archive, err := rt.catalogArchive(cmd.Context())
	if err != nil {
		return err
	}
	infos, err := archive.List(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	p := style.NewPrinter(cmd.OutOrStdout())
	if len(infos) == 0 {
		fmt.Fprintf(p.Writer(), "no archived versions of %s\n", args[0])
		return nil
	}
	table := style.NewTable(
		style.Column{Name: "Key"},
		style.Column{Name: "Recipes", Align: style.AlignRight},
		style.Column{Name: "Bytes", Align: style.AlignRight},
	)
	for _, info := range infos {
		table.AddRow(info.Key, info.Metadata["recipes"], fmt.Sprint(info.Size))
	}
	fmt.Fprint(p.Writer(), table.Render(p))
	return nil
}
