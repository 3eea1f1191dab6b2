package models

import (
	"time"

	"github.com/gofrs/uuid"

	"github.com/greforce/udm-devconnector/pkg/storage"
	"github.com/greforce/udm-devconnector/pkg/subcoll"
)

// Post is a parent document owning the likes and comments sub-collections.
// Both sub-collections are kept most-recent-first.
type Post struct {
	ID       uuid.UUID `bson:"_id" json:"id"`
	User     uuid.UUID `bson:"user" json:"user"`
	Text     string    `bson:"text" json:"text"`
	Name     string    `bson:"name" json:"name"`
	Avatar   string    `bson:"avatar" json:"avatar"`
	Likes    []Like    `bson:"likes" json:"likes"`
	Comments []Comment `bson:"comments" json:"comments"`
	Date     time.Time `bson:"date" json:"date"`
	Version  int64     `bson:"version" json:"version"`
}

func (p *Post) DocID() uuid.UUID { return p.ID }
func (p *Post) OwnerRef() uuid.UUID { return p.User }
func (p *Post) Collection() storage.Collection { return storage.Posts }
func (p *Post) Revision() int64 { return p.Version }
func (p *Post) SetRevision(v int64) { p.Version = v }

// LikedBy reports whether actor has a like on the post.
func (p *Post) LikedBy(actor uuid.UUID) bool {
	return subcoll.Contains(p.Likes, actor)
}

// Like is keyed by the liking actor: at most one per actor per post.
type Like struct {
	User uuid.UUID `bson:"user" json:"user"`
}

func (l Like) Key() uuid.UUID { return l.User }
func (l Like) AuthorRef() uuid.UUID { return l.User }

// Comment carries a snapshot of the author's name and avatar taken when the
// comment was added.
type Comment struct {
	ID     uuid.UUID `bson:"_id" json:"id"`
	User   uuid.UUID `bson:"user" json:"user"`
	Text   string    `bson:"text" json:"text"`
	Name   string    `bson:"name" json:"name"`
	Avatar string    `bson:"avatar" json:"avatar"`
	Date   time.Time `bson:"date" json:"date"`
}

func (c Comment) Key() uuid.UUID { return c.ID }
func (c Comment) AuthorRef() uuid.UUID { return c.User }

// Profile is a parent document owning the experience and education
// sub-collections.
type Profile struct {
	ID         uuid.UUID    `bson:"_id" json:"id"`
	User       uuid.UUID    `bson:"user" json:"user"`
	Handle     string       `bson:"handle" json:"handle"`
	Company    string       `bson:"company,omitempty" json:"company,omitempty"`
	Website    string       `bson:"website,omitempty" json:"website,omitempty"`
	Location   string       `bson:"location,omitempty" json:"location,omitempty"`
	Bio        string       `bson:"bio,omitempty" json:"bio,omitempty"`
	Status     string       `bson:"status" json:"status"`
	Skills     []string     `bson:"skills" json:"skills"`
	GitHub     string       `bson:"githubusername,omitempty" json:"githubusername,omitempty"`
	Social     Social       `bson:"social" json:"social"`
	Experience []Experience `bson:"experience" json:"experience"`
	Education  []Education  `bson:"education" json:"education"`
	Date       time.Time    `bson:"date" json:"date"`
	Version    int64        `bson:"version" json:"version"`
}

func (p *Profile) DocID() uuid.UUID { return p.ID }
func (p *Profile) OwnerRef() uuid.UUID { return p.User }
func (p *Profile) Collection() storage.Collection { return storage.Profiles }
func (p *Profile) Revision() int64 { return p.Version }
func (p *Profile) SetRevision(v int64) { p.Version = v }

type Social struct {
	YouTube   string `bson:"youtube,omitempty" json:"youtube,omitempty"`
	Twitter   string `bson:"twitter,omitempty" json:"twitter,omitempty"`
	Facebook  string `bson:"facebook,omitempty" json:"facebook,omitempty"`
	LinkedIn  string `bson:"linkedin,omitempty" json:"linkedin,omitempty"`
	Instagram string `bson:"instagram,omitempty" json:"instagram,omitempty"`
}

type Experience struct {
	ID          uuid.UUID  `bson:"_id" json:"id"`
	Title       string     `bson:"title" json:"title"`
	Company     string     `bson:"company" json:"company"`
	Location    string     `bson:"location,omitempty" json:"location,omitempty"`
	From        time.Time  `bson:"from" json:"from"`
	To          *time.Time `bson:"to,omitempty" json:"to,omitempty"`
	Current     bool       `bson:"current" json:"current"`
	Description string     `bson:"description,omitempty" json:"description,omitempty"`
}

func (e Experience) Key() uuid.UUID { return e.ID }

type Education struct {
	ID           uuid.UUID  `bson:"_id" json:"id"`
	School       string     `bson:"school" json:"school"`
	Degree       string     `bson:"degree" json:"degree"`
	FieldOfStudy string     `bson:"fieldofstudy" json:"fieldofstudy"`
	From         time.Time  `bson:"from" json:"from"`
	To           *time.Time `bson:"to,omitempty" json:"to,omitempty"`
	Current      bool       `bson:"current" json:"current"`
	Description  string     `bson:"description,omitempty" json:"description,omitempty"`
}

func (e Education) Key() uuid.UUID { return e.ID }

// Actor is the identity performing a mutation, as supplied by the
// authentication layer.
type Actor struct {
	ID     uuid.UUID
	Name   string
	Avatar string
}
