package memdb

import (
	"context"
	"errors"
	"testing"

	"github.com/greforce/udm-devconnector/pkg/ident"
	"github.com/greforce/udm-devconnector/pkg/models"
	"github.com/greforce/udm-devconnector/pkg/storage"
	"github.com/greforce/udm-devconnector/pkg/storage/storagetest"
)

func TestStore_PersistFetch(t *testing.T) {
	db := New()
	ctx := context.Background()

	post := &models.Post{
		ID:       ident.New(),
		User:     ident.New(),
		Text:     "Hello",
		Likes:    []models.Like{{User: ident.New()}},
		Comments: []models.Comment{{ID: ident.New(), User: ident.New(), Text: "First"}},
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
	if got.ID != post.ID || got.User != post.User || got.Text != post.Text {
		t.Errorf("want post\n%+v\ngot post\n%+v", post, got)
	}
	if len(got.Likes) != 1 || got.Likes[0] != post.Likes[0] {
		t.Errorf("want likes %+v, got %+v", post.Likes, got.Likes)
	}
	if len(got.Comments) != 1 || got.Comments[0].ID != post.Comments[0].ID {
		t.Errorf("want comments %+v, got %+v", post.Comments, got.Comments)
	}
	if got.Version != 1 {
		t.Errorf("want stored version 1, got %d", got.Version)
	}
}

func TestStore_FetchIsWorkingCopy(t *testing.T) {
	db := New()
	ctx := context.Background()

	post := &models.Post{ID: ident.New(), User: ident.New(), Likes: []models.Like{{User: ident.New()}}}
	if err := db.PersistIfVersion(ctx, post, 0); err != nil {
		t.Fatal(err)
	}

	var a models.Post
	if err := db.FetchByID(ctx, storage.Posts, post.ID, &a); err != nil {
		t.Fatal(err)
	}
	a.Likes[0].User = ident.New()
	a.Text = "changed"

	var b models.Post
	if err := db.FetchByID(ctx, storage.Posts, post.ID, &b); err != nil {
		t.Fatal(err)
	}
	if b.Text != "" || b.Likes[0] != post.Likes[0] {
		t.Errorf("mutation of a fetched copy leaked into the store: %+v", b)
	}
}

func TestStore_FetchNotFound(t *testing.T) {
	db := New()
	ctx := context.Background()

	var p models.Post
	if err := db.FetchByID(ctx, storage.Posts, ident.New(), &p); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("want ErrNotFound, got %v", err)
	}

	var pr models.Profile
	if err := db.FetchOne(ctx, storage.Profiles, storage.Filter{Owner: ident.New()}, &pr); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("want ErrNotFound, got %v", err)
	}
}

func TestStore_FetchOne(t *testing.T) {
	db := New()
	ctx := context.Background()

	owner := ident.New()
	mine := &models.Profile{ID: ident.New(), User: owner, Handle: "mine"}
	other := &models.Profile{ID: ident.New(), User: ident.New(), Handle: "other"}
	for _, p := range []*models.Profile{mine, other} {
		if err := db.PersistIfVersion(ctx, p, 0); err != nil {
			t.Fatal(err)
		}
	}

	var got models.Profile
	if err := db.FetchOne(ctx, storage.Profiles, storage.Filter{Owner: owner}, &got); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != mine.ID || got.Handle != "mine" {
		t.Errorf("want profile %v, got %+v", mine.ID, got)
	}

	// Collections are separate namespaces.
	var post models.Post
	if err := db.FetchOne(ctx, storage.Posts, storage.Filter{Owner: owner}, &post); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("want ErrNotFound in posts collection, got %v", err)
	}
}

func TestStore_PersistIfVersion(t *testing.T) {
	db := New()
	ctx := context.Background()

	post := &models.Post{ID: ident.New(), User: ident.New()}

	if err := db.PersistIfVersion(ctx, post, 3); !errors.Is(err, storage.ErrVersionConflict) {
		t.Errorf("want ErrVersionConflict inserting with non-zero version, got %v", err)
	}
	if err := db.PersistIfVersion(ctx, post, 0); err != nil {
		t.Fatalf("unexpected error inserting: %v", err)
	}
	if post.Version != 1 {
		t.Errorf("want version 1, got %d", post.Version)
	}

	stale := *post
	post.Text = "first writer"
	if err := db.PersistIfVersion(ctx, post, 1); err != nil {
		t.Fatalf("unexpected error updating: %v", err)
	}

	stale.Text = "second writer"
	if err := db.PersistIfVersion(ctx, &stale, 1); !errors.Is(err, storage.ErrVersionConflict) {
		t.Errorf("want ErrVersionConflict for stale write, got %v", err)
	}
	if stale.Version != 1 {
		t.Errorf("rejected write must not bump version, got %d", stale.Version)
	}

	var got models.Post
	if err := db.FetchByID(ctx, storage.Posts, post.ID, &got); err != nil {
		t.Fatal(err)
	}
	if got.Text != "first writer" || got.Version != 2 {
		t.Errorf("want first writer at version 2, got %q at version %d", got.Text, got.Version)
	}
}

func TestStore_PersistLastWriterWins(t *testing.T) {
	db := New()
	ctx := context.Background()

	post := &models.Post{ID: ident.New(), User: ident.New()}
	if err := db.PersistIfVersion(ctx, post, 0); err != nil {
		t.Fatal(err)
	}

	var a, b models.Post
	if err := db.FetchByID(ctx, storage.Posts, post.ID, &a); err != nil {
		t.Fatal(err)
	}
	if err := db.FetchByID(ctx, storage.Posts, post.ID, &b); err != nil {
		t.Fatal(err)
	}

	a.Likes = append(a.Likes, models.Like{User: ident.New()})
	b.Comments = append(b.Comments, models.Comment{ID: ident.New()})
	if err := db.Persist(ctx, &a); err != nil {
		t.Fatal(err)
	}
	if err := db.Persist(ctx, &b); err != nil {
		t.Fatal(err)
	}

	var got models.Post
	if err := db.FetchByID(ctx, storage.Posts, post.ID, &got); err != nil {
		t.Fatal(err)
	}
	if len(got.Likes) != 0 || len(got.Comments) != 1 {
		t.Errorf("want the second write to replace the first, got likes=%d comments=%d", len(got.Likes), len(got.Comments))
	}
}

func TestStore_Remove(t *testing.T) {
	db := New()
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

func TestStore_FetchOneByHandle(t *testing.T) {
	db := New()
	ctx := context.Background()

	owner := ident.New()
	p := &models.Profile{ID: ident.New(), User: owner, Handle: "jdoe"}
	if err := db.PersistIfVersion(ctx, p, 0); err != nil {
		t.Fatal(err)
	}

	var got models.Profile
	if err := db.FetchOne(ctx, storage.Profiles, storage.Filter{Handle: "jdoe"}, &got); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != p.ID {
		t.Errorf("want profile %v, got %v", p.ID, got.ID)
	}

	err := db.FetchOne(ctx, storage.Profiles, storage.Filter{Owner: ident.New(), Handle: "jdoe"}, &got)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("want ErrNotFound when owner does not match, got %v", err)
	}

	if err := db.FetchOne(ctx, storage.Profiles, storage.Filter{}, &got); !errors.Is(err, storage.ErrEmptyFilter) {
		t.Errorf("want ErrEmptyFilter, got %v", err)
	}
}

func TestStore_Contract(t *testing.T) {
	storagetest.Run(t, New())
}
