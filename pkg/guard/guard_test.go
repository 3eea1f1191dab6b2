package guard

import (
	"errors"
	"testing"

	"github.com/gofrs/uuid"

	"github.com/greforce/udm-devconnector/pkg/ident"
	"github.com/greforce/udm-devconnector/pkg/models"
)

func TestAuthorize(t *testing.T) {
	owner := ident.New()
	liker := ident.New()
	stranger := ident.New()

	post := &models.Post{
		ID:    ident.New(),
		User:  owner,
		Likes: []models.Like{{User: liker}},
	}
	profile := &models.Profile{ID: ident.New(), User: owner}
	comment := models.Comment{ID: ident.New(), User: liker}

	tests := []struct {
		name       string
		op         Op
		actor      uuid.UUID
		parent     Owned
		record     Authored
		wantReason Reason
	}{
		{"add comment by stranger", AddComment, stranger, post, nil, ""},
		{"add comment by owner", AddComment, owner, post, nil, ""},

		{"remove own comment", RemoveComment, liker, post, comment, ""},
		{"remove comment by post owner", RemoveComment, owner, post, comment, NotOwner},
		{"remove comment by stranger", RemoveComment, stranger, post, comment, NotOwner},

		{"like by stranger", Like, stranger, post, nil, ""},
		{"like twice", Like, liker, post, nil, AlreadyLiked},
		{"like own post", Like, owner, post, nil, OwnResource},

		{"unlike liked", Unlike, liker, post, nil, ""},
		{"unlike not liked", Unlike, stranger, post, nil, NotYetLiked},
		{"unlike own post", Unlike, owner, post, nil, OwnResource},

		{"remove post by owner", RemovePost, owner, post, nil, ""},
		{"remove post by stranger", RemovePost, stranger, post, nil, NotOwner},

		{"add experience by owner", AddExperience, owner, profile, nil, ""},
		{"add experience by stranger", AddExperience, stranger, profile, nil, NotOwner},
		{"remove experience by owner", RemoveExperience, owner, profile, nil, ""},
		{"remove experience by stranger", RemoveExperience, stranger, profile, nil, NotOwner},
		{"add education by owner", AddEducation, owner, profile, nil, ""},
		{"add education by stranger", AddEducation, stranger, profile, nil, NotOwner},
		{"remove education by owner", RemoveEducation, owner, profile, nil, ""},
		{"remove education by stranger", RemoveEducation, stranger, profile, nil, NotOwner},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.op, tt.actor, tt.parent, tt.record)
			if tt.wantReason == "" {
				if err != nil {
					t.Fatalf("want authorized, got %v", err)
				}
				return
			}

			if !errors.Is(err, ErrForbidden) {
				t.Fatalf("want ErrForbidden, got %v", err)
			}
			var denied *DeniedError
			if !errors.As(err, &denied) {
				t.Fatalf("want *DeniedError, got %T", err)
			}
			if denied.Reason != tt.wantReason {
				t.Errorf("want reason %q, got %q", tt.wantReason, denied.Reason)
			}
			if denied.Op != tt.op {
				t.Errorf("want op %v, got %v", tt.op, denied.Op)
			}
		})
	}
}

func TestAuthorizeOwnPostRegardlessOfLikes(t *testing.T) {
	owner := ident.New()
	// Owner likes can only exist if written around the guard; the outcome must not change.
	post := &models.Post{User: owner, Likes: []models.Like{{User: owner}}}

	for _, op := range []Op{Like, Unlike} {
		var denied *DeniedError
		err := Authorize(op, owner, post, nil)
		if !errors.As(err, &denied) || denied.Reason != OwnResource {
			t.Errorf("%v: want reason %q, got %v", op, OwnResource, err)
		}
	}
}

func TestAuthorizeMisuse(t *testing.T) {
	actor := ident.New()
	profile := &models.Profile{User: actor}

	tests := []struct {
		name   string
		op     Op
		parent Owned
		record Authored
	}{
		{"nil parent", AddComment, nil, nil},
		{"remove comment without record", RemoveComment, &models.Post{}, nil},
		{"like a profile", Like, profile, nil},
		{"unknown op", Op(99), profile, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.op, actor, tt.parent, tt.record)
			if err == nil {
				t.Fatal("want error, got nil")
			}
			if errors.Is(err, ErrForbidden) {
				t.Errorf("misuse must not be reported as ErrForbidden: %v", err)
			}
		})
	}
}

func TestOpString(t *testing.T) {
	if got := Like.String(); got != "like" {
		t.Errorf("want %q, got %q", "like", got)
	}
	if got := Op(42).String(); got != "op(42)" {
		t.Errorf("want %q, got %q", "op(42)", got)
	}
}
