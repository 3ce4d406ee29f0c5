package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/nebari-dev/authz/internal/audit"
	"github.com/nebari-dev/authz/internal/auth"
	"github.com/nebari-dev/authz/internal/db"
	"github.com/nebari-dev/authz/internal/server"
	"github.com/nebari-dev/authz/internal/transfer"
)

var importForce bool

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Replace all data with the contents of a file",
	Long: `Drop every role and organization and load the records from a JSON or
YAML file (default: the configured data file path). All records are written
in one transaction.

Use --force to skip the confirmation prompt. Without a terminal the prompt
cannot be answered, so --force is required.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runImport,
}

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write all data to a file",
	Long: `Write every role and organization to a JSON file, or YAML when the file
name ends in .yaml or .yml (default: the configured data file path).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

func init() {
	importCmd.Flags().BoolVarP(&importForce, "force", "f", false, "Skip the confirmation prompt")
}

func runImport(cmd *cobra.Command, args []string) error {
	appCfg, database, err := server.Open()
	if err != nil {
		return err
	}
	path := dataFilePath(args, appCfg.Data.FilePath)

	if !importForce {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return fmt.Errorf("refusing to clear the database without --force when stdin is not a terminal")
		}
		question := fmt.Sprintf("Are you sure you want to clear the database and import data from %s?", path)
		if !confirm(os.Stdin, os.Stderr, question) {
			fmt.Fprintln(os.Stderr, "Import cancelled")
			return nil
		}
	}

	if err := db.Migrate(database); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	if err := transfer.Import(cmd.Context(), database, path); err != nil {
		return err
	}

	actor := auth.AuditIdentity(appCfg.M2M)
	actorID, _ := strconv.ParseInt(actor.UserID, 10, 64)
	if err := audit.LogAction(cmd.Context(), database, actorID, actor.Handle, audit.ActionImportData, "file:"+path, nil); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to write audit log: %v\n", err)
	}

	fmt.Printf("Imported data from %s\n", path)
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	appCfg, database, err := server.Open()
	if err != nil {
		return err
	}
	path := dataFilePath(args, appCfg.Data.FilePath)

	if err := db.Migrate(database); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	if err := transfer.Export(cmd.Context(), database, path); err != nil {
		return err
	}
	fmt.Printf("Exported data to %s\n", path)
	return nil
}

// dataFilePath returns the file named on the command line, or fallback.
func dataFilePath(args []string, fallback string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	return fallback
}

// confirm asks a y/n question and reports whether the answer was yes.
func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N] ", question)
	answer, _ := bufio.NewReader(in).ReadString('\n')
	answer = strings.TrimSpace(strings.ToLower(answer))
	return answer == "y" || answer == "yes"
}
