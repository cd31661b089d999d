package donations_test

import (
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/templehub/internal/app/store/donations"
	"github.com/dalemusser/templehub/internal/app/system/reportrange"
	"github.com/dalemusser/templehub/internal/domain/models"
	"github.com/dalemusser/templehub/internal/testutil"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func dateRange(t *testing.T, s string) reportrange.DateRange {
	t.Helper()
	dr, err := reportrange.ParseDate(s, time.Now(), time.UTC)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return dr
}

func TestSummaryAndLine_Example(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := donations.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateDonation(ctx, "R1", "+919000000001", "A", 500, "2024-01-10")
	fixtures.CreateDonation(ctx, "R2", "+919000000002", "B", 700, "2024-01-10")
	fixtures.CreateDonation(ctx, "R3", "+919000000001", "A", 100, "2024-02-01")

	jan := dateRange(t, "2024-01-01-2024-01-31")

	got, err := store.Summary(ctx, jan, reportrange.AmountRange{})
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if got.TotalAmount != 1200 || got.Count != 2 {
		t.Errorf("Summary = %+v, want {1200 2}", got)
	}

	line, err := store.LineSummary(ctx, jan)
	if err != nil {
		t.Fatalf("LineSummary failed: %v", err)
	}
	if len(line) != 1 || line[0].Date != "2024-01-10" || line[0].Amount != 1200 {
		t.Errorf("LineSummary = %+v, want [{2024-01-10 1200}]", line)
	}

	// same range written day-first
	dmy := dateRange(t, "01/01/2024-31/01/2024")
	if got, _ := store.Summary(ctx, dmy, reportrange.AmountRange{}); got.TotalAmount != 1200 {
		t.Errorf("dd/mm range total = %d, want 1200", got.TotalAmount)
	}

	all, _ := store.Summary(ctx, reportrange.DateRange{}, reportrange.AmountRange{})
	if all.TotalAmount != 1300 || all.Count != 3 {
		t.Errorf("all-time = %+v", all)
	}

	ar, _ := reportrange.ParseAmount("600-1000")
	if got, _ := store.Summary(ctx, reportrange.DateRange{}, ar); got.TotalAmount != 700 || got.Count != 1 {
		t.Errorf("amount bracket = %+v, want {700 1}", got)
	}

	empty, err := store.Summary(ctx, dateRange(t, "2023-01-01-2023-01-31"), reportrange.AmountRange{})
	if err != nil || empty.Count != 0 || empty.TotalAmount != 0 {
		t.Errorf("empty range = %+v, %v", empty, err)
	}
}

func TestTopDonors(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := donations.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	registered := fixtures.CreateMember(ctx, "Registered Name", "+919000000001", models.RoleMember)
	fixtures.CreateDonation(ctx, "R1", registered.Phone, "Receipt Name", 300, "2024-03-01")
	fixtures.CreateDonation(ctx, "R2", registered.Phone, "Receipt Name", 400, "2024-03-02")
	fixtures.CreateDonation(ctx, "R3", "+919999999999", "Walk In", 1000, "2024-03-03")
	fixtures.CreateDonation(ctx, "R4", "+918888888888", "Small", 5, "2024-03-04")

	got, err := store.TopDonors(ctx, reportrange.DateRange{}, 2)
	if err != nil {
		t.Fatalf("TopDonors failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d rows, want 2", len(got))
	}

	if got[0].Phone != "+919999999999" || got[0].TotalAmount != 1000 || got[0].MemberID != nil || got[0].Name != "Walk In" {
		t.Errorf("first row = %+v", got[0])
	}
	if got[1].Phone != registered.Phone || got[1].TotalAmount != 700 || got[1].DonationCount != 2 {
		t.Errorf("second row = %+v", got[1])
	}
	if got[1].MemberID == nil || *got[1].MemberID != registered.ID || got[1].Name != "Registered Name" {
		t.Errorf("second row member = %v / %q", got[1].MemberID, got[1].Name)
	}
}

func TestInsertDonations_SkipsDuplicateReceipts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := donations.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	batch := []models.Donation{
		{ReceiptNumber: "A-1", Phone: "+919000000001", Name: "A", Amount: 10, Date: day("2024-01-01")},
		{ReceiptNumber: "A-2", Phone: "+919000000002", Name: "B", Amount: 20, Date: day("2024-01-02")},
	}
	if n, err := store.InsertDonations(ctx, batch); err != nil || n != 2 {
		t.Fatalf("first insert = %d, %v", n, err)
	}
	if n, err := store.InsertDonations(ctx, batch); err != nil || n != 0 {
		t.Fatalf("second insert = %d, %v", n, err)
	}

	if _, err := store.Create(ctx, batch[0]); !errors.Is(err, donations.ErrDuplicateReceipt) {
		t.Errorf("expected ErrDuplicateReceipt, got %v", err)
	}
}

func TestList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := donations.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateDonation(ctx, "R-300", "+919000000001", "Kamala", 2500, "2024-01-03")
	fixtures.CreateDonation(ctx, "R-100", "+919000000002", "Govind", 100, "2024-01-01")
	fixtures.CreateDonation(ctx, "R-200", "+919000000003", "Lalita", 750, "2024-01-02")

	t.Run("default sort is date ascending", func(t *testing.T) {
		got, total, err := store.List(ctx, donations.ListQuery{})
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if total != 3 || len(got) != 3 {
			t.Fatalf("total = %d, len = %d", total, len(got))
		}
		if got[0].ReceiptNumber != "R-100" || got[2].ReceiptNumber != "R-300" {
			t.Errorf("order = %s, %s, %s", got[0].ReceiptNumber, got[1].ReceiptNumber, got[2].ReceiptNumber)
		}
	})

	t.Run("pagination keeps total", func(t *testing.T) {
		got, total, err := store.List(ctx, donations.ListQuery{Sort: "amount", Desc: true, Offset: 1, Limit: 1})
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if total != 3 || len(got) != 1 || got[0].Amount != 750 {
			t.Errorf("page = %+v, total = %d", got, total)
		}
	})

	t.Run("filter matches amount text", func(t *testing.T) {
		got, total, _ := store.List(ctx, donations.ListQuery{Filter: "250"})
		if total != 1 || got[0].Name != "Kamala" {
			t.Errorf("got %+v, total %d", got, total)
		}
	})

	t.Run("filter matches name case-insensitively", func(t *testing.T) {
		got, total, _ := store.List(ctx, donations.ListQuery{Filter: "lalit"})
		if total != 1 || got[0].ReceiptNumber != "R-200" {
			t.Errorf("got %+v, total %d", got, total)
		}
	})
}

func TestUpdate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := donations.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	d := fixtures.CreateDonation(ctx, "R-1", "+919000000001", "Old", 100, "2024-01-01")
	amount := int64(150)
	if err := store.Update(ctx, d.ID, donations.Patch{Amount: &amount}, 7); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	got, _ := store.GetByID(ctx, d.ID)
	if got.Amount != 150 || got.Name != "Old" || got.UpdatedBy == nil || *got.UpdatedBy != 7 {
		t.Errorf("after update = %+v", got)
	}
	if err := store.Update(ctx, 424242, donations.Patch{Amount: &amount}, 7); !errors.Is(err, donations.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
