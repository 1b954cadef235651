package domain

// CharacterRole is the role a character plays in a media.
type CharacterRole string

// Character roles, most prominent first.
const (
	RoleMain       CharacterRole = "MAIN"
	RoleSupporting CharacterRole = "SUPPORTING"
	RoleBackground CharacterRole = "BACKGROUND"
)

// Rank orders roles for listings: MAIN before SUPPORTING before BACKGROUND.
func (r CharacterRole) Rank() int {
	switch r {
	case RoleMain:
		return 0
	case RoleSupporting:
		return 1
	case RoleBackground:
		return 2
	default:
		return 3
	}
}

// CharacterName holds the names of a character. Full is always set.
type CharacterName struct {
	Full        string   `json:"full"`
	Native      string   `json:"native,omitempty"`
	Alternative []string `json:"alternative,omitempty"`
}

// Values returns the non-empty names, full name first.
func (n CharacterName) Values() []string {
	out := make([]string, 0, 2+len(n.Alternative))
	if n.Full != "" {
		out = append(out, n.Full)
	}
	if n.Native != "" {
		out = append(out, n.Native)
	}
	for _, alt := range n.Alternative {
		if alt != "" {
			out = append(out, alt)
		}
	}
	return out
}

// Appearance is an edge from a character to a media it appears in.
type Appearance struct {
	Media CompositeID   `json:"media"`
	Role  CharacterRole `json:"role"`
}

// Character represents an individual contributed by a pack.
type Character struct {
	ID          CompositeID   `json:"id"`
	Name        CharacterName `json:"name"`
	Description string        `json:"description,omitempty"`
	Gender      string        `json:"gender,omitempty"`
	Age         string        `json:"age,omitempty"`
	Image       *Image        `json:"image,omitempty"`
	Popularity  int           `json:"popularity"`
	Appearances []Appearance  `json:"appearances,omitempty"`
}

// CompositeID implements Entity.
func (c *Character) CompositeID() CompositeID { return c.ID }

// EntityKind implements Entity.
func (c *Character) EntityKind() EntityKind { return KindCharacter }

// PopularityScore implements Entity.
func (c *Character) PopularityScore() int { return c.Popularity }

// DisplayNames implements Entity.
func (c *Character) DisplayNames() []string { return c.Name.Values() }
