// Package ingest runs the bulk import pipeline shared by members and
// donations: map spreadsheet headers, drop keyless rows, normalize,
// validate, insert with duplicate-skipping, and report per-row outcomes.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dalemusser/templehub/internal/app/system/authz"
	"github.com/dalemusser/templehub/internal/app/system/inputval"
	"github.com/dalemusser/templehub/internal/domain/models"
	"github.com/google/uuid"
)

// Import kinds.
const (
	KindMembers   = "members"
	KindDonations = "donations"
)

var (
	// ErrForbidden means the caller may not bulk import. It is returned
	// before any row is looked at.
	ErrForbidden = errors.New("bulk import requires admin role")
	// ErrEmptyBatch means the request carried no rows.
	ErrEmptyBatch = errors.New("no rows to import")
)

// Actor is the member running an import.
type Actor struct {
	MemberID int64
	Role     models.Role
	// Phone supplies the fallback calling code for rows without a country.
	Phone string
}

// MemberWriter inserts members, skipping any whose phone already exists,
// and returns how many were actually inserted.
type MemberWriter interface {
	InsertMembers(ctx context.Context, members []models.Member) (int, error)
}

// DonationWriter inserts donations, skipping any whose receipt number
// already exists, and returns how many were actually inserted.
type DonationWriter interface {
	InsertDonations(ctx context.Context, donations []models.Donation) (int, error)
}

// Recorder observes finished imports (metrics).
type Recorder interface {
	RecordImport(kind string, rep Report)
}

// RowError explains why one row was skipped as invalid.
type RowError struct {
	Row    int                  `json:"row"` // 1-based position in the input
	Key    string               `json:"key"`
	Fields inputval.FieldErrors `json:"fields"`
}

// Report is the outcome of one import.
// Inserted + SkippedDuplicate + len(SkippedInvalid) + Dropped == Received.
type Report struct {
	ImportID         string     `json:"importId"`
	Kind             string     `json:"kind"`
	Received         int        `json:"received"`
	Dropped          int        `json:"dropped"`
	Inserted         int        `json:"inserted"`
	SkippedDuplicate int        `json:"skippedDuplicate"`
	SkippedInvalid   []string   `json:"skippedInvalid"`
	Errors           []RowError `json:"errors"`
}

// Options configures a Pipeline.
type Options struct {
	// DefaultCallingCode is used when neither the row's country nor the
	// actor's phone yields one.
	DefaultCallingCode string
	Recorder           Recorder
}

// Pipeline imports batches of raw rows.
type Pipeline struct {
	members      MemberWriter
	donations    DonationWriter
	opts         Options
	memberCols   Columns
	donationCols Columns
	now          func() time.Time
}

// New builds a Pipeline over the given writers using the embedded column
// alias table.
func New(members MemberWriter, donations DonationWriter, opts Options) *Pipeline {
	return &Pipeline{
		members:      members,
		donations:    donations,
		opts:         opts,
		memberCols:   defaultMembers,
		donationCols: defaultDonations,
		now:          time.Now,
	}
}

// ImportMembers runs the member pipeline. Imported members are inactive
// until their first login.
func (p *Pipeline) ImportMembers(ctx context.Context, actor Actor, rows []map[string]string) (Report, error) {
	if err := p.precheck(actor, rows); err != nil {
		return Report{}, err
	}
	rep := newReport(KindMembers, len(rows))
	now := p.now().UTC()
	code := p.fallbackCode(actor)

	valid := make([]models.Member, 0, len(rows))
	for i, raw := range rows {
		fields := p.memberCols.Map(raw)
		key := fields["phone"]
		if key == "" {
			rep.Dropped++
			continue
		}
		m, fe := memberFromFields(fields, code, now, actor.MemberID)
		if len(fe) > 0 {
			rep.invalid(i+1, key, fe)
			continue
		}
		valid = append(valid, m)
	}

	if len(valid) > 0 {
		n, err := p.members.InsertMembers(ctx, valid)
		if err != nil {
			return Report{}, fmt.Errorf("insert members: %w", err)
		}
		rep.Inserted = n
	}
	rep.SkippedDuplicate = len(valid) - rep.Inserted
	p.record(rep)
	return rep, nil
}

// ImportDonations runs the donation pipeline. Invalid rows are skipped and
// reported the same way member rows are.
func (p *Pipeline) ImportDonations(ctx context.Context, actor Actor, rows []map[string]string) (Report, error) {
	if err := p.precheck(actor, rows); err != nil {
		return Report{}, err
	}
	rep := newReport(KindDonations, len(rows))
	now := p.now().UTC()
	code := p.fallbackCode(actor)

	valid := make([]models.Donation, 0, len(rows))
	for i, raw := range rows {
		fields := p.donationCols.Map(raw)
		key := fields["receipt_number"]
		if key == "" {
			rep.Dropped++
			continue
		}
		d, fe := donationFromFields(fields, code, now, actor.MemberID)
		if len(fe) > 0 {
			rep.invalid(i+1, key, fe)
			continue
		}
		valid = append(valid, d)
	}

	if len(valid) > 0 {
		n, err := p.donations.InsertDonations(ctx, valid)
		if err != nil {
			return Report{}, fmt.Errorf("insert donations: %w", err)
		}
		rep.Inserted = n
	}
	rep.SkippedDuplicate = len(valid) - rep.Inserted
	p.record(rep)
	return rep, nil
}

func (p *Pipeline) precheck(actor Actor, rows []map[string]string) error {
	if !authz.AtLeast(actor.Role, authz.MinBulkImport) {
		return ErrForbidden
	}
	if len(rows) == 0 {
		return ErrEmptyBatch
	}
	return nil
}

func (p *Pipeline) record(rep Report) {
	if p.opts.Recorder != nil {
		p.opts.Recorder.RecordImport(rep.Kind, rep)
	}
}

func newReport(kind string, received int) Report {
	return Report{
		ImportID:       uuid.NewString(),
		Kind:           kind,
		Received:       received,
		SkippedInvalid: []string{},
		Errors:         []RowError{},
	}
}

func (r *Report) invalid(row int, key string, fe inputval.FieldErrors) {
	r.SkippedInvalid = append(r.SkippedInvalid, key)
	r.Errors = append(r.Errors, RowError{Row: row, Key: key, Fields: fe})
}

// RowsFromJSON flattens decoded JSON objects into string rows. Numbers keep
// their literal form so phone numbers and serial dates survive intact.
func RowsFromJSON(items []map[string]any) []map[string]string {
	out := make([]map[string]string, 0, len(items))
	for _, item := range items {
		row := make(map[string]string, len(item))
		for k, v := range item {
			switch t := v.(type) {
			case nil:
			case string:
				row[k] = t
			case json.Number:
				row[k] = t.String()
			case float64:
				row[k] = strconv.FormatFloat(t, 'f', -1, 64)
			case bool:
				row[k] = strconv.FormatBool(t)
			default:
				row[k] = fmt.Sprint(t)
			}
		}
		out = append(out, row)
	}
	return out
}
