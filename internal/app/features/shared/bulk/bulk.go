// Package bulk serves the JSON and spreadsheet-upload import endpoints that
// members and donations share.
package bulk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	apierrors "github.com/dalemusser/templehub/internal/app/features/errors"
	"github.com/dalemusser/templehub/internal/app/store/audit"
	"github.com/dalemusser/templehub/internal/app/system/auditlog"
	"github.com/dalemusser/templehub/internal/app/system/auth"
	"github.com/dalemusser/templehub/internal/app/system/authz"
	"github.com/dalemusser/templehub/internal/app/system/ingest"
	"github.com/dalemusser/templehub/internal/app/system/sheets"
	"github.com/dalemusser/templehub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// MaxJSONBytes caps the JSON import body.
const MaxJSONBytes = sheets.MaxUploadSize

// UploadField is the multipart field carrying the spreadsheet.
const UploadField = "file"

// ImportFunc is ingest.Pipeline.ImportMembers or ImportDonations.
type ImportFunc func(ctx context.Context, actor ingest.Actor, rows []map[string]string) (ingest.Report, error)

// Importer runs one kind of import for HTTP callers.
type Importer struct {
	Kind     string // ingest.KindMembers or ingest.KindDonations
	Key      string // JSON array name: "devotees" or "donations"
	Run      ImportFunc
	AuditLog *auditlog.Logger
	ErrLog   *apierrors.ErrorLogger
	Log      *zap.Logger
}

// ServeJSON imports {"<Key>": [{...}, ...]}.
func (im *Importer) ServeJSON(w http.ResponseWriter, r *http.Request) {
	actor, ok := im.actor(w, r)
	if !ok {
		return
	}
	var body map[string]json.RawMessage
	if err := apierrors.DecodeJSON(w, r, &body, MaxJSONBytes); err != nil {
		im.ErrLog.LogBadRequest(w, r, "bulk body decode failed", err, "invalid request body")
		return
	}
	raw, present := body[im.Key]
	if !present {
		apierrors.BadRequest(w, im.Key+" array is required")
		return
	}
	var items []map[string]any
	if err := decodeNumbers(raw, &items); err != nil {
		apierrors.BadRequest(w, im.Key+" must be an array of objects")
		return
	}
	im.run(w, r, actor, ingest.RowsFromJSON(items))
}

// ServeUpload imports the first sheet of a multipart .xlsx or .csv upload.
func (im *Importer) ServeUpload(w http.ResponseWriter, r *http.Request) {
	actor, ok := im.actor(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, sheets.MaxUploadSize+1<<20)
	if err := r.ParseMultipartForm(sheets.MaxUploadSize); err != nil {
		im.ErrLog.LogBadRequest(w, r, "bulk upload parse failed", err, "invalid upload")
		return
	}
	file, header, err := r.FormFile(UploadField)
	if err != nil {
		apierrors.BadRequest(w, "file is required")
		return
	}
	defer file.Close()

	rows, err := sheets.Read(file, header.Filename)
	switch {
	case errors.Is(err, sheets.ErrUnsupportedFormat), errors.Is(err, sheets.ErrTooManyRows):
		apierrors.BadRequest(w, err.Error())
		return
	case err != nil:
		im.ErrLog.LogBadRequest(w, r, "spreadsheet read failed", err, "could not read spreadsheet")
		return
	}
	im.run(w, r, actor, rows)
}

// actor authorizes the caller before the body is read.
func (im *Importer) actor(w http.ResponseWriter, r *http.Request) (ingest.Actor, bool) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		apierrors.Unauthorized(w)
		return ingest.Actor{}, false
	}
	if !authz.AtLeast(u.Role, authz.MinBulkImport) {
		apierrors.Forbidden(w)
		return ingest.Actor{}, false
	}
	return ingest.Actor{MemberID: u.ID, Role: u.Role, Phone: u.Phone}, true
}

func (im *Importer) run(w http.ResponseWriter, r *http.Request, actor ingest.Actor, rows []map[string]string) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Batch())
	defer cancel()

	rep, err := im.Run(ctx, actor, rows)
	switch {
	case errors.Is(err, ingest.ErrForbidden):
		apierrors.Forbidden(w)
		return
	case errors.Is(err, ingest.ErrEmptyBatch):
		apierrors.BadRequest(w, im.Key+" must not be empty")
		return
	case err != nil:
		im.ErrLog.LogServerError(w, r, "bulk import failed", err)
		return
	}

	event := audit.EventMembersImported
	if im.Kind == ingest.KindDonations {
		event = audit.EventDonationsImported
	}
	im.AuditLog.Imported(ctx, r, event, actor.MemberID, rep.ImportID,
		rep.Inserted, rep.SkippedDuplicate, len(rep.SkippedInvalid), rep.Dropped)
	im.Log.Info("bulk import finished",
		zap.String("kind", rep.Kind),
		zap.String("import_id", rep.ImportID),
		zap.Int("received", rep.Received),
		zap.Int("inserted", rep.Inserted),
		zap.Int("duplicates", rep.SkippedDuplicate),
		zap.Int("invalid", len(rep.SkippedInvalid)),
		zap.Int("dropped", rep.Dropped))
	apierrors.WriteJSON(w, http.StatusOK, rep)
}

func decodeNumbers(raw json.RawMessage, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(v)
}
