package metrics

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/greforce/udm-devconnector/pkg/ident"
	"github.com/greforce/udm-devconnector/pkg/models"
	"github.com/greforce/udm-devconnector/pkg/storage"
	"github.com/greforce/udm-devconnector/pkg/storage/memdb"
	"github.com/greforce/udm-devconnector/pkg/storage/storagetest"
)

func TestWrap_Contract(t *testing.T) {
	storagetest.Run(t, Wrap(memdb.New(), prometheus.NewRegistry()))
}

func TestWrap_RecordsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	db := Wrap(memdb.New(), reg).(*metricsStore)
	ctx := context.Background()

	post := &models.Post{ID: ident.New(), User: ident.New()}
	if err := db.PersistIfVersion(ctx, post, 0); err != nil {
		t.Fatal(err)
	}
	var got models.Post
	if err := db.FetchByID(ctx, storage.Posts, post.ID, &got); err != nil {
		t.Fatal(err)
	}
	if err := db.Persist(ctx, &got); err != nil {
		t.Fatal(err)
	}
	if err := db.FetchByID(ctx, storage.Posts, ident.New(), &got); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if err := db.PersistIfVersion(ctx, &got, 7); !errors.Is(err, storage.ErrVersionConflict) {
		t.Fatalf("want ErrVersionConflict, got %v", err)
	}

	tests := []struct {
		labels []string
		want   float64
	}{
		{labels: []string{"persist", "posts", "ok"}, want: 1},
		{labels: []string{"fetch_by_id", "posts", "ok"}, want: 1},
		{labels: []string{"fetch_by_id", "posts", "not_found"}, want: 1},
		{labels: []string{"persist_if_version", "posts", "ok"}, want: 1},
		{labels: []string{"persist_if_version", "posts", "conflict"}, want: 1},
	}
	for _, tt := range tests {
		if got := testutil.ToFloat64(db.outcomes.WithLabelValues(tt.labels...)); got != tt.want {
			t.Errorf("outcome %v: want %v, got %v", tt.labels, tt.want, got)
		}
	}

	if n := testutil.CollectAndCount(db.latency, "devconnector_store_latency_seconds"); n != 3 {
		t.Errorf("want 3 latency series, got %d", n)
	}
}
