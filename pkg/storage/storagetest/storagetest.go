// Package storagetest checks a storage.Storage implementation against the
// behaviour the mutation service relies on.
package storagetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/greforce/udm-devconnector/pkg/ident"
	"github.com/greforce/udm-devconnector/pkg/models"
	"github.com/greforce/udm-devconnector/pkg/storage"
)

// Run executes the contract tests against db. Every test uses fresh
// identifiers, so db may be shared and need not be empty.
func Run(t *testing.T, db storage.Storage) {
	t.Run("PersistFetch", func(t *testing.T) { testPersistFetch(t, db) })
	t.Run("FetchMissing", func(t *testing.T) { testFetchMissing(t, db) })
	t.Run("FetchOne", func(t *testing.T) { testFetchOne(t, db) })
	t.Run("PersistIfVersion", func(t *testing.T) { testPersistIfVersion(t, db) })
	t.Run("PersistAbsent", func(t *testing.T) { testPersistAbsent(t, db) })
	t.Run("Remove", func(t *testing.T) { testRemove(t, db) })
}

func testPersistFetch(t *testing.T, db storage.Storage) {
	ctx := context.Background()
	date := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	post := &models.Post{
		ID:       ident.New(),
		User:     ident.New(),
		Text:     "Hello",
		Likes:    []models.Like{{User: ident.New()}, {User: ident.New()}},
		Comments: []models.Comment{{ID: ident.New(), User: ident.New(), Text: "First", Date: date}},
		Date:     date,
	}
	if err := db.PersistIfVersion(ctx, post, 0); err != nil {
		t.Fatalf("unexpected error persisting post: %v", err)
	}
	if post.Version != 1 {
		t.Errorf("want version 1 after first persist, got %d", post.Version)
	}

	var got models.Post
	if err := db.FetchByID(ctx, storage.Posts, post.ID, &got); err != nil {
		t.Fatalf("unexpected error fetching post: %v", err)
	}
	if got.ID != post.ID || got.User != post.User || got.Text != post.Text || got.Version != 1 {
		t.Errorf("want post\n%+v\ngot post\n%+v", post, got)
	}
	if len(got.Likes) != 2 || got.Likes[0] != post.Likes[0] || got.Likes[1] != post.Likes[1] {
		t.Errorf("want likes %+v in order, got %+v", post.Likes, got.Likes)
	}
	if len(got.Comments) != 1 || got.Comments[0].ID != post.Comments[0].ID || !got.Comments[0].Date.Equal(date) {
		t.Errorf("want comments %+v, got %+v", post.Comments, got.Comments)
	}

	got.Text = "Edited"
	if err := db.Persist(ctx, &got); err != nil {
		t.Fatalf("unexpected error replacing post: %v", err)
	}
	var again models.Post
	if err := db.FetchByID(ctx, storage.Posts, post.ID, &again); err != nil {
		t.Fatal(err)
	}
	if again.Text != "Edited" || again.Version != 2 {
		t.Errorf("want edited post at version 2, got %q at %d", again.Text, again.Version)
	}

	to := date.AddDate(1, 0, 0)
	profile := &models.Profile{
		ID:     ident.New(),
		User:   ident.New(),
		Handle: "h-" + ident.New().String(),
		Status: "Developer",
		Experience: []models.Experience{
			{ID: ident.New(), Title: "Dev", Company: "Co", From: date, To: &to},
			{ID: ident.New(), Title: "Intern", Company: "Co", From: date, Current: true},
		},
		Education: []models.Education{{ID: ident.New(), School: "MIT", Degree: "BSc", FieldOfStudy: "CS", From: date}},
	}
	if err := db.PersistIfVersion(ctx, profile, 0); err != nil {
		t.Fatalf("unexpected error persisting profile: %v", err)
	}

	var gotProfile models.Profile
	if err := db.FetchByID(ctx, storage.Profiles, profile.ID, &gotProfile); err != nil {
		t.Fatalf("unexpected error fetching profile: %v", err)
	}
	if len(gotProfile.Experience) != 2 || gotProfile.Experience[0].ID != profile.Experience[0].ID {
		t.Fatalf("want experience %+v, got %+v", profile.Experience, gotProfile.Experience)
	}
	if gotProfile.Experience[0].To == nil || !gotProfile.Experience[0].To.Equal(to) {
		t.Errorf("want experience end %v, got %v", to, gotProfile.Experience[0].To)
	}
	if gotProfile.Experience[1].To != nil || !gotProfile.Experience[1].Current {
		t.Errorf("want open-ended current experience, got %+v", gotProfile.Experience[1])
	}
	if len(gotProfile.Education) != 1 || gotProfile.Education[0].FieldOfStudy != "CS" {
		t.Errorf("want education %+v, got %+v", profile.Education, gotProfile.Education)
	}
}

func testFetchMissing(t *testing.T, db storage.Storage) {
	var p models.Post
	err := db.FetchByID(context.Background(), storage.Posts, ident.New(), &p)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("want ErrNotFound, got %v", err)
	}
}

func testFetchOne(t *testing.T, db storage.Storage) {
	ctx := context.Background()

	owner := ident.New()
	handle := "h-" + ident.New().String()
	profile := &models.Profile{ID: ident.New(), User: owner, Handle: handle, Status: "Dev"}
	if err := db.PersistIfVersion(ctx, profile, 0); err != nil {
		t.Fatal(err)
	}
	other := &models.Profile{ID: ident.New(), User: ident.New(), Handle: "h-" + ident.New().String(), Status: "Dev"}
	if err := db.PersistIfVersion(ctx, other, 0); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		filter  storage.Filter
		wantID  bool
		wantErr error
	}{
		{name: "by owner", filter: storage.Filter{Owner: owner}, wantID: true},
		{name: "by handle", filter: storage.Filter{Handle: handle}, wantID: true},
		{name: "owner and handle", filter: storage.Filter{Owner: owner, Handle: handle}, wantID: true},
		{name: "mismatched pair", filter: storage.Filter{Owner: other.User, Handle: handle}, wantErr: storage.ErrNotFound},
		{name: "unknown owner", filter: storage.Filter{Owner: ident.New()}, wantErr: storage.ErrNotFound},
		{name: "empty filter", filter: storage.Filter{}, wantErr: storage.ErrEmptyFilter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got models.Profile
			err := db.FetchOne(ctx, storage.Profiles, tt.filter, &got)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("want error %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.ID != profile.ID {
				t.Errorf("want profile %v, got %v", profile.ID, got.ID)
			}
		})
	}
}

func testPersistIfVersion(t *testing.T, db storage.Storage) {
	ctx := context.Background()

	post := &models.Post{ID: ident.New(), User: ident.New(), Text: "v1"}
	if err := db.PersistIfVersion(ctx, post, 0); err != nil {
		t.Fatalf("unexpected error creating post: %v", err)
	}
	if post.Version != 1 {
		t.Fatalf("want version 1, got %d", post.Version)
	}

	dup := &models.Post{ID: post.ID, User: post.User, Text: "dup"}
	if err := db.PersistIfVersion(ctx, dup, 0); !errors.Is(err, storage.ErrVersionConflict) {
		t.Errorf("want ErrVersionConflict creating an existing post, got %v", err)
	}

	var a, b models.Post
	if err := db.FetchByID(ctx, storage.Posts, post.ID, &a); err != nil {
		t.Fatal(err)
	}
	if err := db.FetchByID(ctx, storage.Posts, post.ID, &b); err != nil {
		t.Fatal(err)
	}

	a.Text = "from a"
	if err := db.PersistIfVersion(ctx, &a, 1); err != nil {
		t.Fatalf("unexpected error on current version: %v", err)
	}
	if a.Version != 2 {
		t.Errorf("want version 2, got %d", a.Version)
	}

	b.Text = "from b"
	if err := db.PersistIfVersion(ctx, &b, 1); !errors.Is(err, storage.ErrVersionConflict) {
		t.Errorf("want ErrVersionConflict on stale version, got %v", err)
	}
	if b.Version != 1 {
		t.Errorf("want revision of rejected copy untouched, got %d", b.Version)
	}

	var got models.Post
	if err := db.FetchByID(ctx, storage.Posts, post.ID, &got); err != nil {
		t.Fatal(err)
	}
	if got.Text != "from a" || got.Version != 2 {
		t.Errorf("want %q at version 2, got %q at %d", "from a", got.Text, got.Version)
	}

	missing := &models.Post{ID: ident.New(), User: ident.New()}
	if err := db.PersistIfVersion(ctx, missing, 3); !errors.Is(err, storage.ErrVersionConflict) {
		t.Errorf("want ErrVersionConflict for missing document, got %v", err)
	}
}

func testPersistAbsent(t *testing.T, db storage.Storage) {
	ctx := context.Background()

	never := &models.Post{ID: ident.New(), User: ident.New(), Text: "never stored"}
	if err := db.Persist(ctx, never); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("want ErrNotFound persisting a document never stored, got %v", err)
	}
	var got models.Post
	if err := db.FetchByID(ctx, storage.Posts, never.ID, &got); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("want no document created, got %v", err)
	}

	post := &models.Post{ID: ident.New(), User: ident.New(), Text: "doomed"}
	if err := db.PersistIfVersion(ctx, post, 0); err != nil {
		t.Fatal(err)
	}
	var stale models.Post
	if err := db.FetchByID(ctx, storage.Posts, post.ID, &stale); err != nil {
		t.Fatal(err)
	}
	if err := db.Remove(ctx, post); err != nil {
		t.Fatal(err)
	}

	stale.Comments = append(stale.Comments, models.Comment{ID: ident.New(), User: ident.New(), Text: "late"})
	if err := db.Persist(ctx, &stale); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("want ErrNotFound persisting a removed document, got %v", err)
	}
	if stale.Version != 1 {
		t.Errorf("want revision of rejected copy untouched, got %d", stale.Version)
	}
	if err := db.FetchByID(ctx, storage.Posts, post.ID, &got); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("want removed document to stay removed, got %v", err)
	}
}

func testRemove(t *testing.T, db storage.Storage) {
	ctx := context.Background()

	post := &models.Post{ID: ident.New(), User: ident.New()}
	if err := db.PersistIfVersion(ctx, post, 0); err != nil {
		t.Fatal(err)
	}
	if err := db.Remove(ctx, post); err != nil {
		t.Fatalf("unexpected error removing post: %v", err)
	}

	var got models.Post
	if err := db.FetchByID(ctx, storage.Posts, post.ID, &got); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("want ErrNotFound after remove, got %v", err)
	}
	if err := db.Remove(ctx, post); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("want ErrNotFound removing twice, got %v", err)
	}
}
