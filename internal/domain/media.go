package domain

// EntityKind distinguishes the two record kinds a pack contributes.
type EntityKind string

// Entity kinds.
const (
	KindCharacter EntityKind = "character"
	KindMedia     EntityKind = "media"
)

// Valid reports whether k is a known kind. The empty kind is not valid.
func (k EntityKind) Valid() bool {
	return k == KindCharacter || k == KindMedia
}

// MediaType is the category of a work.
type MediaType string

// Media types.
const (
	MediaTypeAnime MediaType = "ANIME"
	MediaTypeManga MediaType = "MANGA"
)

// MediaFormat is the presentation format of a work.
type MediaFormat string

// Media formats.
const (
	FormatTV      MediaFormat = "TV"
	FormatTVShort MediaFormat = "TV_SHORT"
	FormatMovie   MediaFormat = "MOVIE"
	FormatSpecial MediaFormat = "SPECIAL"
	FormatOVA     MediaFormat = "OVA"
	FormatONA     MediaFormat = "ONA"
	FormatMusic   MediaFormat = "MUSIC"
	FormatManga   MediaFormat = "MANGA"
	FormatNovel   MediaFormat = "NOVEL"
	FormatOneShot MediaFormat = "ONE_SHOT"
)

// RelationType tags an edge between two media.
type RelationType string

// Relation types.
const (
	RelationAdaptation  RelationType = "ADAPTATION"
	RelationPrequel     RelationType = "PREQUEL"
	RelationSequel      RelationType = "SEQUEL"
	RelationParent      RelationType = "PARENT"
	RelationSideStory   RelationType = "SIDE_STORY"
	RelationCharacter   RelationType = "CHARACTER"
	RelationSummary     RelationType = "SUMMARY"
	RelationAlternative RelationType = "ALTERNATIVE"
	RelationSpinOff     RelationType = "SPIN_OFF"
	RelationOther       RelationType = "OTHER"
	RelationSource      RelationType = "SOURCE"
	RelationCompilation RelationType = "COMPILATION"
	RelationContains    RelationType = "CONTAINS"
)

// MediaTitle holds up to three alternate titles of a work.
type MediaTitle struct {
	Primary   string `json:"primary,omitempty"`
	Secondary string `json:"secondary,omitempty"`
	Native    string `json:"native,omitempty"`
}

// Values returns the non-empty titles, primary first.
func (t MediaTitle) Values() []string {
	out := make([]string, 0, 3)
	for _, v := range []string{t.Primary, t.Secondary, t.Native} {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// MediaRelation is an edge to another media, possibly in another pack.
type MediaRelation struct {
	Media    CompositeID  `json:"media"`
	Relation RelationType `json:"relation"`
}

// ExternalLink points at an external site for a work.
type ExternalLink struct {
	Site string `json:"site"`
	URL  string `json:"url"`
}

// Trailer references a hosted video.
type Trailer struct {
	ID   string `json:"id"`
	Site string `json:"site"`
}

// Image references a hosted picture.
type Image struct {
	URL   string `json:"url"`
	Color string `json:"color,omitempty"`
}

// Media represents a work (anime, manga) contributed by a pack.
type Media struct {
	ID            CompositeID     `json:"id"`
	Type          MediaType       `json:"type"`
	Format        MediaFormat     `json:"format,omitempty"`
	Title         MediaTitle      `json:"title"`
	Description   string          `json:"description,omitempty"`
	Popularity    int             `json:"popularity"`
	Relations     []MediaRelation `json:"relations,omitempty"`
	ExternalLinks []ExternalLink  `json:"external_links,omitempty"`
	Trailer       *Trailer        `json:"trailer,omitempty"`
	Image         *Image          `json:"image,omitempty"`
}

// CompositeID implements Entity.
func (m *Media) CompositeID() CompositeID { return m.ID }

// EntityKind implements Entity.
func (m *Media) EntityKind() EntityKind { return KindMedia }

// PopularityScore implements Entity.
func (m *Media) PopularityScore() int { return m.Popularity }

// DisplayNames implements Entity.
func (m *Media) DisplayNames() []string { return m.Title.Values() }
