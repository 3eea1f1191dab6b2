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

// ProfileFields are the top-level profile attributes set by SaveProfile.
// Empty fields leave the stored value untouched.
type ProfileFields struct {
	Handle    string   `json:"handle"`
	Company   string   `json:"company"`
	Website   string   `json:"website"`
	Location  string   `json:"location"`
	Bio       string   `json:"bio"`
	Status    string   `json:"status"`
	Skills    []string `json:"skills"`
	GitHub    string   `json:"githubusername"`
	YouTube   string   `json:"youtube"`
	Twitter   string   `json:"twitter"`
	Facebook  string   `json:"facebook"`
	LinkedIn  string   `json:"linkedin"`
	Instagram string   `json:"instagram"`
}

// apply copies the non-empty fields onto p.
func (in ProfileFields) apply(p *models.Profile) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}

	p.Handle = in.Handle
	p.Status = in.Status
	set(&p.Company, in.Company)
	set(&p.Website, in.Website)
	set(&p.Location, in.Location)
	set(&p.Bio, in.Bio)
	set(&p.GitHub, in.GitHub)
	set(&p.Social.YouTube, in.YouTube)
	set(&p.Social.Twitter, in.Twitter)
	set(&p.Social.Facebook, in.Facebook)
	set(&p.Social.LinkedIn, in.LinkedIn)
	set(&p.Social.Instagram, in.Instagram)
	if skills := normalizeSkills(in.Skills); len(skills) > 0 {
		p.Skills = skills
	}
}

// loadProfile fetches the profile with the given id, or actor's own profile
// when id is uuid.Nil.
func (s *Service) loadProfile(op string, id, actor uuid.UUID) func(context.Context) (*models.Profile, error) {
	return func(ctx context.Context) (*models.Profile, error) {
		var (
			p   models.Profile
			err error
		)
		if id == uuid.Nil {
			err = s.db.FetchOne(ctx, storage.Profiles, storage.Filter{Owner: actor}, &p)
		} else {
			err = s.db.FetchByID(ctx, storage.Profiles, id, &p)
		}
		if err != nil {
			return nil, fetchError(op, ProfileMissing, ReasonNoProfile, err)
		}
		return &p, nil
	}
}

// ProfileOf returns the profile owned by user.
func (s *Service) ProfileOf(ctx context.Context, user uuid.UUID) (*models.Profile, error) {
	return s.loadProfile("get-profile", uuid.Nil, user)(ctx)
}

// ProfileByHandle returns the profile with the given handle.
func (s *Service) ProfileByHandle(ctx context.Context, handle string) (*models.Profile, error) {
	var p models.Profile
	if err := s.db.FetchOne(ctx, storage.Profiles, storage.Filter{Handle: handle}, &p); err != nil {
		return nil, fetchError("get-profile", ProfileMissing, ReasonNoProfile, err)
	}
	return &p, nil
}

// SaveProfile creates actor's profile or updates its top-level attributes.
// Only the fields set in the request change; experience and education are
// left untouched. Handles are unique.
func (s *Service) SaveProfile(ctx context.Context, actor uuid.UUID, in ProfileFields) (*models.Profile, error) {
	const op = "save-profile"
	in.Handle = strings.TrimSpace(in.Handle)
	if in.Handle == "" || strings.TrimSpace(in.Status) == "" {
		return nil, invalid(op, "handle and status are required")
	}

	var holder models.Profile
	err := s.db.FetchOne(ctx, storage.Profiles, storage.Filter{Handle: in.Handle}, &holder)
	switch {
	case err == nil && holder.User != actor:
		return nil, fail(op, Fetching, ValidationFailed, ReasonHandleTaken, errors.New("handle already exists"))
	case err != nil && !errors.Is(err, storage.ErrNotFound):
		return nil, fetchError(op, ProfileMissing, ReasonNoProfile, err)
	}

	load := func(ctx context.Context) (*models.Profile, error) {
		p, err := s.loadProfile(op, uuid.Nil, actor)(ctx)
		if KindOf(err) == ProfileMissing {
			return &models.Profile{
				ID:         ident.New(),
				User:       actor,
				Skills:     []string{},
				Experience: []models.Experience{},
				Education:  []models.Education{},
				Date:       s.timestamp(),
			}, nil
		}
		return p, err
	}

	return modify(ctx, s, op, load, func(p *models.Profile) error {
		in.apply(p)
		return nil
	})
}

// RemoveProfile deletes actor's own profile together with its experience
// and education.
func (s *Service) RemoveProfile(ctx context.Context, actor uuid.UUID) error {
	const op = "remove-profile"

	p, err := s.loadProfile(op, uuid.Nil, actor)(ctx)
	if err != nil {
		return err
	}
	if err := s.db.Remove(ctx, p); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return goneError(op, p, err)
		}
		return persistError(op, err)
	}

	log.Debugf("[mutation][%s] profile %v removed by %v", op, p.ID, actor)
	return nil
}

func normalizeSkills(skills []string) []string {
	out := make([]string, 0, len(skills))
	for _, sk := range skills {
		if sk = strings.TrimSpace(sk); sk != "" {
			out = append(out, sk)
		}
	}
	return out
}

// AddExperience prepends exp to the profile. A nil profileID addresses
// actor's own profile.
func (s *Service) AddExperience(ctx context.Context, profileID, actor uuid.UUID, exp models.Experience) (*models.Profile, error) {
	op := guard.AddExperience.String()
	if strings.TrimSpace(exp.Title) == "" || strings.TrimSpace(exp.Company) == "" || exp.From.IsZero() {
		return nil, invalid(op, "title, company and from are required")
	}

	return modify(ctx, s, op, s.loadProfile(op, profileID, actor), func(p *models.Profile) error {
		if err := guard.Authorize(guard.AddExperience, actor, p, nil); err != nil {
			return guardError(op, err)
		}
		exp.ID = ident.New()
		p.Experience = subcoll.Prepend(p.Experience, exp)
		return nil
	})
}

// RemoveExperience removes the experience entry with the given id. Only the
// profile owner may remove it.
func (s *Service) RemoveExperience(ctx context.Context, profileID, actor, expID uuid.UUID) (*models.Profile, error) {
	op := guard.RemoveExperience.String()

	return modify(ctx, s, op, s.loadProfile(op, profileID, actor), func(p *models.Profile) error {
		idx, err := subcoll.FindUnique(p.Experience, expID)
		if err != nil {
			return lookupError(op, ReasonNoExperience, err)
		}
		if err := guard.Authorize(guard.RemoveExperience, actor, p, nil); err != nil {
			return guardError(op, err)
		}
		p.Experience, err = subcoll.RemoveAt(p.Experience, idx)
		if err != nil {
			return fail(op, Mutating, CorruptDocument, ReasonInternal, err)
		}
		return nil
	})
}

// AddEducation prepends edu to the profile. A nil profileID addresses
// actor's own profile.
func (s *Service) AddEducation(ctx context.Context, profileID, actor uuid.UUID, edu models.Education) (*models.Profile, error) {
	op := guard.AddEducation.String()
	if strings.TrimSpace(edu.School) == "" || strings.TrimSpace(edu.Degree) == "" ||
		strings.TrimSpace(edu.FieldOfStudy) == "" || edu.From.IsZero() {
		return nil, invalid(op, "school, degree, fieldofstudy and from are required")
	}

	return modify(ctx, s, op, s.loadProfile(op, profileID, actor), func(p *models.Profile) error {
		if err := guard.Authorize(guard.AddEducation, actor, p, nil); err != nil {
			return guardError(op, err)
		}
		edu.ID = ident.New()
		p.Education = subcoll.Prepend(p.Education, edu)
		return nil
	})
}

// RemoveEducation removes the education entry with the given id. Only the
// profile owner may remove it.
func (s *Service) RemoveEducation(ctx context.Context, profileID, actor, eduID uuid.UUID) (*models.Profile, error) {
	op := guard.RemoveEducation.String()

	return modify(ctx, s, op, s.loadProfile(op, profileID, actor), func(p *models.Profile) error {
		idx, err := subcoll.FindUnique(p.Education, eduID)
		if err != nil {
			return lookupError(op, ReasonNoEducation, err)
		}
		if err := guard.Authorize(guard.RemoveEducation, actor, p, nil); err != nil {
			return guardError(op, err)
		}
		p.Education, err = subcoll.RemoveAt(p.Education, idx)
		if err != nil {
			return fail(op, Mutating, CorruptDocument, ReasonInternal, err)
		}
		return nil
	})
}
