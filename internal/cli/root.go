// Package cli provides the householdimport command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/dukerupert/householdimport/internal/config"
	"github.com/dukerupert/householdimport/internal/importer"
	"github.com/dukerupert/householdimport/internal/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const banner = "Household Data Importer"

// app is built in PersistentPreRunE and shared by the subcommands.
type app struct {
	cfgFile string
	cfg     *config.Config
	logger  *slog.Logger
}

func (a *app) importer(out io.Writer) *importer.Importer {
	return importer.New(a.cfg, out, a.logger)
}

// NewRootCmd creates the root command. Run without a subcommand it
// initializes the table, imports, and lists the result.
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "householdimport",
		Short: "Import household data from a spreadsheet into the local database",
		Long: `householdimport loads HouseholdId and name columns from an .xlsx, .xls or
.csv file into the households table, replacing its previous contents.

Without --file, the newest spreadsheet in the Downloads folder is used.
A .xlsx file always wins over .xls, and .xls over .csv.`,
		Args: cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}
			// .env is optional
			_ = godotenv.Load()

			cfg, err := config.Load(a.cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = logging.Setup(cfg.LogLevel)
			a.logger.Debug("config loaded", "file", cfg.File, "db", cfg.DBPath, "downloads", cfg.DownloadsDir)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDefault(cmd, a)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default: ./"+config.DefaultConfigFile+" if present)")
	flags.String("db", "", "path to the SQLite database (default: "+config.DefaultDBPath+")")
	flags.String("downloads-dir", "", "directory scanned for spreadsheets (default: ~/Downloads)")
	flags.StringP("file", "f", "", "import this file instead of auto-detecting one")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.Int("sample-size", config.DefaultSampleSize, "rows shown after import")

	rootCmd.AddCommand(newInitCommand(a))
	rootCmd.AddCommand(newImportCommand(a))
	rootCmd.AddCommand(newListCommand(a))
	rootCmd.AddCommand(newLocateCommand(a))

	return rootCmd
}

func runDefault(cmd *cobra.Command, a *app) error {
	out := cmd.OutOrStdout()
	im := a.importer(out)

	fmt.Fprintln(out, banner)
	fmt.Fprintln(out, strings.Repeat("=", 50))

	res := im.Import(cmd.Context(), a.cfg.Source)
	if errors.Is(res.Err, importer.ErrInit) {
		return res.Err
	}
	if res.OK() {
		fmt.Fprintln(out, "\n"+strings.Repeat("=", 50))
		printListError(out, im.List(cmd.Context()))
		return nil
	}

	fmt.Fprintln(out, "\nImport failed. Please check the error messages above.")
	printHints(out, res.Kind())
	return nil
}

func printHints(out io.Writer, kind importer.Kind) {
	switch kind {
	case importer.KindSchemaMismatch:
		fmt.Fprintf(out, "\nMake sure your spreadsheet has columns named '%s' and '%s'\n", importer.ColumnID, importer.ColumnName)
	case importer.KindInvalidData:
		fmt.Fprintf(out, "\nMake sure every '%s' value is a whole number\n", importer.ColumnID)
	case importer.KindNotFound, importer.KindUnsupportedFormat, importer.KindRead:
		fmt.Fprintln(out, "\nSupported file formats: .xlsx, .xls, .csv")
	case importer.KindStorage:
		fmt.Fprintln(out, "\nCheck that the database file is writable and HouseholdId values are unique")
	default:
		fmt.Fprintf(out, "\nMake sure your spreadsheet has columns named '%s' and '%s'\n", importer.ColumnID, importer.ColumnName)
		fmt.Fprintln(out, "Supported file formats: .xlsx, .xls, .csv")
	}
}

func printListError(out io.Writer, err error) {
	if err != nil {
		fmt.Fprintf(out, "Error listing households: %v\n", err)
	}
}
