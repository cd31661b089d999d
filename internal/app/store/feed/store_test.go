package feed_test

import (
	"testing"
	"time"

	"github.com/dalemusser/templehub/internal/app/store/feed"
	"github.com/dalemusser/templehub/internal/domain/models"
	"github.com/dalemusser/templehub/internal/testutil"
)

func TestCreateAndList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := feed.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	author := int64(3)
	var ids []string
	posts := []struct {
		text string
		tags []string
	}{
		{"first #kirtan", []string{"kirtan"}},
		{"second", nil},
		{"third #kirtan #feast", []string{"kirtan", "feast"}},
	}
	for i, p := range posts {
		m, err := store.Create(ctx, models.FeedMessage{
			ExternalMessageID: int64(100 + i),
			ChatID:            -1001,
			Text:              p.text,
			Tags:              p.tags,
			CreatedBy:         &author,
			UpdatedBy:         &author,
		})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if m.ID == "" {
			t.Fatal("expected generated id")
		}
		ids = append(ids, m.ID)
		time.Sleep(2 * time.Millisecond)
	}

	got, err := store.List(ctx, 2, "")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 2 || got[0].ID != ids[2] || got[1].ID != ids[1] {
		t.Errorf("List order wrong: %+v", got)
	}

	tagged, err := store.List(ctx, 0, "kirtan")
	if err != nil {
		t.Fatalf("List by tag failed: %v", err)
	}
	if len(tagged) != 2 {
		t.Errorf("got %d tagged messages, want 2", len(tagged))
	}
}
