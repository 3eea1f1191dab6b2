package mutation

import (
	"context"
	"errors"
	"strings"

	"github.com/gofrs/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/greforce/udm-devconnector/pkg/guard"
	"github.com/greforce/udm-devconnector/pkg/ident"
	"github.com/greforce/udm-devconnector/pkg/models"
	"github.com/greforce/udm-devconnector/pkg/storage"
	"github.com/greforce/udm-devconnector/pkg/subcoll"
)

func (s *Service) loadPost(op string, id uuid.UUID) func(context.Context) (*models.Post, error) {
	return func(ctx context.Context) (*models.Post, error) {
		var p models.Post
		if err := s.db.FetchByID(ctx, storage.Posts, id, &p); err != nil {
			return nil, fetchError(op, NotFound, ReasonNoPost, err)
		}
		return &p, nil
	}
}

// checkActorProfile enforces RequireActorProfile.
func (s *Service) checkActorProfile(ctx context.Context, op string, actor uuid.UUID) error {
	if !s.requireProfile {
		return nil
	}
	var p models.Profile
	if err := s.db.FetchOne(ctx, storage.Profiles, storage.Filter{Owner: actor}, &p); err != nil {
		return fetchError(op, ProfileMissing, ReasonNoProfile, err)
	}
	return nil
}

// CreatePost stores a new post owned by actor.
func (s *Service) CreatePost(ctx context.Context, actor models.Actor, text string) (*models.Post, error) {
	const op = "create-post"
	if strings.TrimSpace(text) == "" {
		return nil, invalid(op, "text is required")
	}

	post := &models.Post{
		ID:       ident.New(),
		User:     actor.ID,
		Text:     text,
		Name:     actor.Name,
		Avatar:   actor.Avatar,
		Likes:    []models.Like{},
		Comments: []models.Comment{},
		Date:     s.timestamp(),
	}
	if err := s.persist(ctx, post, 0); err != nil {
		return nil, persistError(op, err)
	}

	log.Debugf("[mutation][%s] post %v created by %v", op, post.ID, actor.ID)
	return post, nil
}

// Post returns the post with the given id.
func (s *Service) Post(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	return s.loadPost("get-post", id)(ctx)
}

// AddComment prepends a comment by actor to the post. Any actor may comment.
func (s *Service) AddComment(ctx context.Context, postID uuid.UUID, actor models.Actor, text string) (*models.Post, error) {
	op := guard.AddComment.String()
	if strings.TrimSpace(text) == "" {
		return nil, invalid(op, "text is required")
	}

	return modify(ctx, s, op, s.loadPost(op, postID), func(p *models.Post) error {
		if err := guard.Authorize(guard.AddComment, actor.ID, p, nil); err != nil {
			return guardError(op, err)
		}
		p.Comments = subcoll.Prepend(p.Comments, models.Comment{
			ID:     ident.New(),
			User:   actor.ID,
			Text:   text,
			Name:   actor.Name,
			Avatar: actor.Avatar,
			Date:   s.timestamp(),
		})
		return nil
	})
}

// RemoveComment removes the comment with the given id. Only its author may
// remove it.
func (s *Service) RemoveComment(ctx context.Context, postID, actor, commentID uuid.UUID) (*models.Post, error) {
	op := guard.RemoveComment.String()

	return modify(ctx, s, op, s.loadPost(op, postID), func(p *models.Post) error {
		idx, err := subcoll.FindUnique(p.Comments, commentID)
		if err != nil {
			return lookupError(op, ReasonNoComment, err)
		}
		if err := guard.Authorize(guard.RemoveComment, actor, p, p.Comments[idx]); err != nil {
			return guardError(op, err)
		}
		p.Comments, err = subcoll.RemoveAt(p.Comments, idx)
		if err != nil {
			return fail(op, Mutating, CorruptDocument, ReasonInternal, err)
		}
		return nil
	})
}

// Like adds actor's like to the post. Owners cannot like their own post and
// nobody can like a post twice.
func (s *Service) Like(ctx context.Context, postID, actor uuid.UUID) (*models.Post, error) {
	op := guard.Like.String()
	if err := s.checkActorProfile(ctx, op, actor); err != nil {
		return nil, err
	}

	return modify(ctx, s, op, s.loadPost(op, postID), func(p *models.Post) error {
		if err := guard.Authorize(guard.Like, actor, p, nil); err != nil {
			return guardError(op, err)
		}
		p.Likes = subcoll.Prepend(p.Likes, models.Like{User: actor})
		return nil
	})
}

// Unlike removes actor's like from the post.
func (s *Service) Unlike(ctx context.Context, postID, actor uuid.UUID) (*models.Post, error) {
	op := guard.Unlike.String()
	if err := s.checkActorProfile(ctx, op, actor); err != nil {
		return nil, err
	}

	return modify(ctx, s, op, s.loadPost(op, postID), func(p *models.Post) error {
		if err := guard.Authorize(guard.Unlike, actor, p, nil); err != nil {
			return guardError(op, err)
		}
		idx, err := subcoll.FindUnique(p.Likes, actor)
		if err != nil {
			return lookupError(op, string(guard.NotYetLiked), err)
		}
		p.Likes, err = subcoll.RemoveAt(p.Likes, idx)
		if err != nil {
			return fail(op, Mutating, CorruptDocument, ReasonInternal, err)
		}
		return nil
	})
}

// RemovePost deletes the post. Only its owner may delete it.
func (s *Service) RemovePost(ctx context.Context, postID, actor uuid.UUID) error {
	op := guard.RemovePost.String()
	if err := s.checkActorProfile(ctx, op, actor); err != nil {
		return err
	}

	p, err := s.loadPost(op, postID)(ctx)
	if err != nil {
		return err
	}
	if err := guard.Authorize(guard.RemovePost, actor, p, nil); err != nil {
		return guardError(op, err)
	}

	if err := s.db.Remove(ctx, p); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fail(op, Persisting, NotFound, ReasonNoPost, err)
		}
		return persistError(op, err)
	}

	log.Debugf("[mutation][%s] post %v removed by %v", op, postID, actor)
	return nil
}
