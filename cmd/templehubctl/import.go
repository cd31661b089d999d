package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/dalemusser/templehub/internal/app/store/audit"
	"github.com/dalemusser/templehub/internal/app/store/donations"
	"github.com/dalemusser/templehub/internal/app/store/members"
	"github.com/dalemusser/templehub/internal/app/system/auditlog"
	"github.com/dalemusser/templehub/internal/app/system/ingest"
	"github.com/dalemusser/templehub/internal/app/system/normalize"
	"github.com/dalemusser/templehub/internal/app/system/sheets"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	asPhone     string
	callingCode string
)

// importCmd is the parent of the import subcommands.
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Bulk import members or donations",
	Long: `Import a spreadsheet through the same pipeline as the bulk upload
endpoints. Rows whose phone (members) or receipt number (donations) already
exists are skipped, so a file can be imported more than once.

The --as member must be an admin; the import is attributed to them.`,
}

var importMembersCmd = &cobra.Command{
	Use:   "members <file>",
	Short: "Import members from a .xlsx or .csv file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runImport(cmd.Context(), ingest.KindMembers, args[0])
	},
}

var importDonationsCmd = &cobra.Command{
	Use:   "donations <file>",
	Short: "Import donations from a .xlsx or .csv file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runImport(cmd.Context(), ingest.KindDonations, args[0])
	},
}

func init() {
	importCmd.PersistentFlags().StringVar(&asPhone, "as", "", "Phone of the admin running the import (required)")
	importCmd.PersistentFlags().StringVar(&callingCode, "calling-code", normalize.DefaultCallingCode, "Calling code for numbers without a country")
	_ = importCmd.MarkPersistentFlagRequired("as")

	importCmd.AddCommand(importMembersCmd)
	importCmd.AddCommand(importDonationsCmd)
}

func runImport(parent context.Context, kind, path string) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	rows, err := sheets.Read(f, path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	db, closeDB, err := connect(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	ms := members.New(db)
	phone, ok := normalize.Phone(asPhone, callingCode)
	if !ok {
		return fmt.Errorf("--as %q is not a valid phone number", asPhone)
	}
	actor, err := ms.GetByPhone(ctx, phone)
	if err != nil {
		return fmt.Errorf("look up %s: %w", phone, err)
	}

	pipeline := ingest.New(ms, donations.New(db), ingest.Options{DefaultCallingCode: callingCode})
	who := ingest.Actor{MemberID: actor.ID, Role: actor.RoleID, Phone: actor.Phone}

	var rep ingest.Report
	event := audit.EventMembersImported
	if kind == ingest.KindDonations {
		event = audit.EventDonationsImported
		rep, err = pipeline.ImportDonations(ctx, who, rows)
	} else {
		rep, err = pipeline.ImportMembers(ctx, who, rows)
	}
	if err != nil {
		return err
	}

	al := auditlog.New(audit.New(db), logger, auditlog.Config{Admin: auditlog.ModeAll})
	al.Imported(ctx, nil, event, actor.ID, rep.ImportID, rep.Inserted, rep.SkippedDuplicate, len(rep.SkippedInvalid), rep.Dropped)
	logger.Info("import finished",
		zap.String("kind", kind),
		zap.String("import_id", rep.ImportID),
		zap.Int("received", rep.Received),
		zap.Int("inserted", rep.Inserted))

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}
