package common

// Kind is the closed set of entity kinds stored in the citation graph.
// Each kind carries its own node label, display attribute and the OpenAlex
// collection it is fetched from.
type Kind int

const (
	KindWork Kind = iota
	KindAuthor
	KindInstitution
)

// Kinds lists every entity kind in provisioning order.
var Kinds = []Kind{KindWork, KindAuthor, KindInstitution}

// Label returns the graph node label for the kind.
func (k Kind) Label() string {
	switch k {
	case KindWork:
		return "Work"
	case KindAuthor:
		return "Author"
	case KindInstitution:
		return "Institution"
	}
	return ""
}

// NameAttribute returns the node attribute holding the human readable name.
func (k Kind) NameAttribute() string {
	if k == KindWork {
		return "title"
	}
	return "display_name"
}

// Collection returns the OpenAlex collection path for the kind.
func (k Kind) Collection() string {
	switch k {
	case KindWork:
		return "works"
	case KindAuthor:
		return "authors"
	case KindInstitution:
		return "institutions"
	}
	return ""
}

func (k Kind) String() string {
	if l := k.Label(); l != "" {
		return l
	}
	return "Unknown"
}

// RelKind is the closed set of directed edge kinds.
type RelKind int

const (
	// RelReferenced links a citing work to the work it cites.
	RelReferenced RelKind = iota
	// RelAuthored links an author to a work.
	RelAuthored
	// RelAffiliatedWith links an author to an institution.
	RelAffiliatedWith
)

// Type returns the relationship type name used in the graph.
func (r RelKind) Type() string {
	switch r {
	case RelReferenced:
		return "REFERENCED"
	case RelAuthored:
		return "AUTHORED"
	case RelAffiliatedWith:
		return "AFFILIATED_WITH"
	}
	return ""
}

// Endpoints returns the kinds of the source and target node.
func (r RelKind) Endpoints() (Kind, Kind) {
	switch r {
	case RelAuthored:
		return KindAuthor, KindWork
	case RelAffiliatedWith:
		return KindAuthor, KindInstitution
	}
	return KindWork, KindWork
}

func (r RelKind) String() string { return r.Type() }

// Work is a bibliographic document as returned by OpenAlex.
//
// IDs are kept exactly as the API returns them (full URLs); callers normalize
// them with NormalizeID before they reach the graph store.
type Work struct {
	ID              string       `json:"id" validate:"required"`
	Title           string       `json:"title"`
	DisplayName     string       `json:"display_name"`
	DOI             string       `json:"doi,omitempty"`
	PublicationYear int          `json:"publication_year,omitempty"`
	ReferencedWorks []string     `json:"referenced_works"`
	Authorships     []Authorship `json:"authorships"`
}

// Name returns the title, falling back to the display name when OpenAlex
// leaves the title empty.
func (w Work) Name() string {
	if w.Title != "" {
		return w.Title
	}
	return w.DisplayName
}

// AuthorIDs returns the normalized, de-duplicated ids of the work's authors.
func (w Work) AuthorIDs() []string {
	ids := make([]string, 0, len(w.Authorships))
	for _, a := range w.Authorships {
		ids = append(ids, a.Author.ID)
	}
	return NormalizeIDs(ids)
}

// ReferenceIDs returns the normalized, de-duplicated ids of cited works.
func (w Work) ReferenceIDs() []string {
	return NormalizeIDs(w.ReferencedWorks)
}

// Authorship is one author entry of a work.
type Authorship struct {
	AuthorPosition string    `json:"author_position,omitempty"`
	Author         EntityRef `json:"author"`
}

// EntityRef is a nested reference to another OpenAlex entity.
type EntityRef struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name,omitempty"`
}

// Author is a person record.
type Author struct {
	ID           string        `json:"id" validate:"required"`
	DisplayName  string        `json:"display_name"`
	ORCID        string        `json:"orcid,omitempty"`
	Affiliations []Affiliation `json:"affiliations"`
}

// InstitutionIDs returns the normalized, de-duplicated ids of the author's
// affiliated institutions.
func (a Author) InstitutionIDs() []string {
	ids := make([]string, 0, len(a.Affiliations))
	for _, af := range a.Affiliations {
		ids = append(ids, af.Institution.ID)
	}
	return NormalizeIDs(ids)
}

// Affiliation ties an author to an institution for a set of years.
type Affiliation struct {
	Institution EntityRef `json:"institution"`
	Years       []int     `json:"years,omitempty"`
}

// Institution is an organization record.
type Institution struct {
	ID          string `json:"id" validate:"required"`
	DisplayName string `json:"display_name"`
	ROR         string `json:"ror,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
}

// CanonicalID returns the normalized id of the work.
func (w Work) CanonicalID() string { return NormalizeID(w.ID) }

// CanonicalID returns the normalized id of the author.
func (a Author) CanonicalID() string { return NormalizeID(a.ID) }

// CanonicalID returns the normalized id of the institution.
func (i Institution) CanonicalID() string { return NormalizeID(i.ID) }
