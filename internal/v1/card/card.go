// Package card defines the card template and loot-card instance types
// shared by the catalogue loader and the game engine. The CORE treats card
// effects as opaque data; only turn/priority/draw mechanics act on a card's
// presence in a zone, never on its Type/Subtype semantics.
package card

// TemplateID identifies one row of the card catalogue.
type TemplateID string

// EntityID identifies one physical instance of a card expanded from a
// template's Count, unique for the lifetime of a single game.
type EntityID string

// Zone is the location of a LootCard instance within a game's Board.
type Zone string

const (
	ZoneDeck    Zone = "deck"
	ZoneDiscard Zone = "discard"
	ZoneHand    Zone = "hand"
	ZonePlay    Zone = "play"
	ZoneItem    Zone = "item"
)

// Template is one row of the static card catalogue, loaded once at process
// start and never mutated afterward.
type Template struct {
	ID          TemplateID `json:"id"`
	Name        string     `json:"name"`
	Type        string     `json:"type"`
	Subtype     string     `json:"subtype"`
	Description string     `json:"description"`
	Count       int        `json:"count"`
}

// LootCard is one physical instance of a card, expanded from a Template by
// the catalogue (one instance per unit of Template.Count).
type LootCard struct {
	EntityID EntityID
	Template *Template
	Zone     Zone
}

// TemplateID returns the identifier of the card's underlying template, used
// by Board.RemoveCardFromHand to match a card without caring about its
// EntityID.
func (c *LootCard) TemplateID() TemplateID {
	return c.Template.ID
}
