// Package catalog turns pack manifests into immutable, indexed entity stores.
package catalog

// Manifest is the raw, author-supplied form of a pack as read from JSON or YAML.
// Nothing in a Manifest is trusted until Build has validated and normalized it.
type Manifest struct {
	ID          string         `json:"id" yaml:"id" validate:"required,packid,max=64"`
	Title       string         `json:"title,omitempty" yaml:"title" validate:"max=128"`
	Description string         `json:"description,omitempty" yaml:"description" validate:"max=2048"`
	Author      string         `json:"author,omitempty" yaml:"author" validate:"max=128"`
	Image       string         `json:"image,omitempty" yaml:"image" validate:"omitempty,url"`
	URL         string         `json:"url,omitempty" yaml:"url" validate:"omitempty,url"`
	NSFW        bool           `json:"nsfw,omitempty" yaml:"nsfw"`
	Media       []RawMedia     `json:"media,omitempty" yaml:"media" validate:"dive"`
	Characters  []RawCharacter `json:"characters,omitempty" yaml:"characters" validate:"dive"`
}

// RawMedia is a media record as written in a manifest.
type RawMedia struct {
	ID            string            `json:"id" yaml:"id" validate:"required,nocolon"`
	Type          string            `json:"type,omitempty" yaml:"type" validate:"omitempty,oneof=ANIME MANGA"`
	Format        string            `json:"format,omitempty" yaml:"format" validate:"omitempty,oneof=TV TV_SHORT MOVIE SPECIAL OVA ONA MUSIC MANGA NOVEL ONE_SHOT"`
	Title         RawTitle          `json:"title" yaml:"title"`
	Description   string            `json:"description,omitempty" yaml:"description"`
	Popularity    int               `json:"popularity,omitempty" yaml:"popularity" validate:"gte=0"`
	Relations     []RawRelation     `json:"relations,omitempty" yaml:"relations" validate:"dive"`
	ExternalLinks []RawExternalLink `json:"externalLinks,omitempty" yaml:"externalLinks" validate:"dive"`
	Trailer       *RawTrailer       `json:"trailer,omitempty" yaml:"trailer"`
	Image         *RawImage         `json:"image,omitempty" yaml:"image"`
}

// RawTitle holds the alternate titles of a media.
type RawTitle struct {
	English string `json:"english,omitempty" yaml:"english"`
	Romaji  string `json:"romaji,omitempty" yaml:"romaji"`
	Native  string `json:"native,omitempty" yaml:"native"`
}

// RawRelation is an edge to another media. Media is a bare local id or a composite id.
type RawRelation struct {
	Media    string `json:"media" yaml:"media" validate:"required"`
	Relation string `json:"relation" yaml:"relation" validate:"required,oneof=ADAPTATION PREQUEL SEQUEL PARENT SIDE_STORY CHARACTER SUMMARY ALTERNATIVE SPIN_OFF OTHER SOURCE COMPILATION CONTAINS"`
}

// RawExternalLink points at an external site.
type RawExternalLink struct {
	Site string `json:"site" yaml:"site" validate:"required,max=64"`
	URL  string `json:"url" yaml:"url" validate:"required,url"`
}

// RawTrailer references a hosted video.
type RawTrailer struct {
	ID   string `json:"id" yaml:"id" validate:"required"`
	Site string `json:"site" yaml:"site" validate:"required"`
}

// RawImage references a hosted picture.
type RawImage struct {
	URL   string `json:"url" yaml:"url" validate:"required,url"`
	Color string `json:"color,omitempty" yaml:"color" validate:"omitempty,hexcolor"`
}

// RawCharacter is a character record as written in a manifest.
type RawCharacter struct {
	ID          string          `json:"id" yaml:"id" validate:"required,nocolon"`
	Name        RawName         `json:"name" yaml:"name"`
	Description string          `json:"description,omitempty" yaml:"description"`
	Gender      string          `json:"gender,omitempty" yaml:"gender" validate:"max=32"`
	Age         string          `json:"age,omitempty" yaml:"age" validate:"max=32"`
	Image       *RawImage       `json:"image,omitempty" yaml:"image"`
	Popularity  int             `json:"popularity,omitempty" yaml:"popularity" validate:"gte=0"`
	Appearances []RawAppearance `json:"appearances,omitempty" yaml:"appearances" validate:"dive"`
}

// RawName holds the names of a character.
type RawName struct {
	Full        string   `json:"full" yaml:"full"`
	Native      string   `json:"native,omitempty" yaml:"native"`
	Alternative []string `json:"alternative,omitempty" yaml:"alternative"`
}

// RawAppearance links a character to a media. An empty role means SUPPORTING.
type RawAppearance struct {
	Media string `json:"media" yaml:"media" validate:"required"`
	Role  string `json:"role,omitempty" yaml:"role" validate:"omitempty,oneof=MAIN SUPPORTING BACKGROUND"`
}
