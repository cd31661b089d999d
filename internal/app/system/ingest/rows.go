package ingest

import (
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dalemusser/templehub/internal/app/system/inputval"
	"github.com/dalemusser/templehub/internal/app/system/normalize"
	"github.com/dalemusser/templehub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
)

type memberRow struct {
	Phone         string `json:"phone" validate:"required,phone"`
	Name          string `json:"name" validate:"required,max=100"`
	Email         string `json:"email" validate:"omitempty,email,max=254"`
	Gender        string `json:"gender" validate:"omitempty,oneof=male female other"`
	Occupation    string `json:"occupation" validate:"max=100"`
	Skills        string `json:"skills" validate:"max=500"`
	AddressLine   string `json:"address_line" validate:"max=200"`
	City          string `json:"city" validate:"max=100"`
	State         string `json:"state" validate:"max=100"`
	Country       string `json:"country" validate:"max=100"`
	Pincode       string `json:"pincode" validate:"max=12"`
	SpouseName    string `json:"spouse_name" validate:"max=100"`
	ChildrenCount *int   `json:"children_count" validate:"omitempty,gte=0,lte=50"`
	TaxID         string `json:"tax_id" validate:"max=10"`
	InternalNote  string `json:"internal_note" validate:"max=2000"`
}

type donationRow struct {
	ReceiptNumber string `json:"receipt_number" validate:"required,max=50"`
	Phone         string `json:"phone" validate:"required,phone"`
	Name          string `json:"name" validate:"max=100"`
	Amount        int64  `json:"amount" validate:"gte=0"`
	PaymentMode   string `json:"payment_mode" validate:"max=50"`
	Campaign      string `json:"campaign" validate:"max=100"`
	InternalNote  string `json:"internal_note" validate:"max=2000"`
}

func (p *Pipeline) fallbackCode(actor Actor) string {
	if c := normalize.CallingCodeOf(actor.Phone); c != "" {
		return c
	}
	if p.opts.DefaultCallingCode != "" {
		return p.opts.DefaultCallingCode
	}
	return normalize.DefaultCallingCode
}

func rowPhone(fields map[string]string, fallback string) string {
	code := normalize.CallingCode(fields["country"])
	if code == "" {
		code = fallback
	}
	phone, _ := normalize.Phone(fields["phone"], code)
	return phone
}

func memberFromFields(fields map[string]string, fallbackCode string, now time.Time, actorID int64) (models.Member, inputval.FieldErrors) {
	fe := inputval.FieldErrors{}

	// Free-form text is cut to its storage limit; an oversized tax id is
	// dropped since a partial one is meaningless.
	row := memberRow{
		Phone:        rowPhone(fields, fallbackCode),
		Name:         normalize.Truncate(normalize.Name(fields["name"]), models.MaxNameLen),
		Email:        normalize.Email(fields["email"]),
		Gender:       normalize.Gender(fields["gender"]),
		Occupation:   normalize.Truncate(fields["occupation"], models.MaxOccupationLen),
		Skills:       normalize.Truncate(fields["skills"], models.MaxSkillsLen),
		AddressLine:  normalize.Truncate(fields["address_line"], models.MaxAddressLen),
		City:         normalize.Truncate(fields["city"], models.MaxPlaceLen),
		State:        normalize.Truncate(fields["state"], models.MaxPlaceLen),
		Country:      normalize.Truncate(fields["country"], models.MaxPlaceLen),
		Pincode:      fields["pincode"],
		SpouseName:   normalize.Truncate(normalize.Name(fields["spouse_name"]), models.MaxNameLen),
		TaxID:        fields["tax_id"],
		InternalNote: normalize.Truncate(fields["internal_note"], models.MaxNoteLen),
	}
	if utf8.RuneCountInString(row.TaxID) > models.MaxTaxIDLen {
		row.TaxID = ""
	}
	if v := fields["children_count"]; v != "" {
		if n, ok := wholeNumber(v); ok {
			c := int(n)
			row.ChildrenCount = &c
		} else {
			fe["children_count"] = "must be a whole number"
		}
	}
	dob := optionalDate(fields, "dob", fe)
	spouseDOB := optionalDate(fields, "spouse_dob", fe)
	anniversary := optionalDate(fields, "spouse_marriage_anniversary", fe)

	if err := inputval.Struct(row); err != nil {
		if vfe, ok := inputval.AsFieldErrors(err); ok {
			for k, v := range vfe {
				fe[k] = v
			}
		} else {
			fe["_row"] = err.Error()
		}
	}
	if len(fe) > 0 {
		return models.Member{}, fe
	}

	return models.Member{
		Phone:                     row.Phone,
		Name:                      row.Name,
		NameCI:                    text.Fold(row.Name),
		Email:                     row.Email,
		RoleID:                    models.RoleMember,
		Status:                    models.StatusInactive,
		Gender:                    row.Gender,
		DateOfBirth:               dob,
		Occupation:                row.Occupation,
		Skills:                    row.Skills,
		AddressLine:               row.AddressLine,
		City:                      row.City,
		State:                     row.State,
		Country:                   row.Country,
		Pincode:                   row.Pincode,
		SpouseName:                row.SpouseName,
		SpouseDateOfBirth:         spouseDOB,
		SpouseMarriageAnniversary: anniversary,
		ChildrenCount:             row.ChildrenCount,
		TaxID:                     row.TaxID,
		InternalNote:              row.InternalNote,
		CreatedAt:                 now,
		UpdatedAt:                 now,
		CreatedBy:                 &actorID,
		UpdatedBy:                 &actorID,
	}, nil
}

func donationFromFields(fields map[string]string, fallbackCode string, now time.Time, actorID int64) (models.Donation, inputval.FieldErrors) {
	fe := inputval.FieldErrors{}

	row := donationRow{
		ReceiptNumber: strings.TrimSpace(fields["receipt_number"]),
		Phone:         rowPhone(fields, fallbackCode),
		Name:          normalize.Truncate(normalize.Name(fields["name"]), models.MaxNameLen),
		PaymentMode:   normalize.Truncate(fields["payment_mode"], 50),
		Campaign:      normalize.Truncate(fields["campaign"], 100),
		InternalNote:  normalize.Truncate(fields["internal_note"], models.MaxNoteLen),
	}
	if v := fields["amount"]; v == "" {
		fe["amount"] = "is required"
	} else if n, ok := wholeNumber(v); ok {
		row.Amount = n
	} else {
		fe["amount"] = "must be a whole number"
	}
	var date time.Time
	if v := fields["date"]; v == "" {
		fe["date"] = "is required"
	} else if d, err := normalize.Date(v); err == nil {
		date = d
	} else {
		fe["date"] = "must be a date"
	}

	if err := inputval.Struct(row); err != nil {
		if vfe, ok := inputval.AsFieldErrors(err); ok {
			for k, v := range vfe {
				fe[k] = v
			}
		} else {
			fe["_row"] = err.Error()
		}
	}
	if len(fe) > 0 {
		return models.Donation{}, fe
	}

	return models.Donation{
		ReceiptNumber: row.ReceiptNumber,
		Phone:         row.Phone,
		Name:          row.Name,
		Amount:        row.Amount,
		PaymentMode:   row.PaymentMode,
		Date:          date,
		Campaign:      row.Campaign,
		InternalNote:  row.InternalNote,
		CreatedAt:     now,
		UpdatedAt:     now,
		CreatedBy:     &actorID,
		UpdatedBy:     &actorID,
	}, nil
}

func optionalDate(fields map[string]string, key string, fe inputval.FieldErrors) *time.Time {
	v := fields[key]
	if v == "" {
		return nil
	}
	d, err := normalize.Date(v)
	if err != nil {
		fe[key] = "must be a date"
		return nil
	}
	return &d
}

// wholeNumber parses "1,200", "1200" or "1200.00". Fractional values fail.
func wholeNumber(s string) (int64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int64(f)) {
		return 0, false
	}
	return int64(f), true
}

// sortedKeys returns the keys of m in ascending order.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
