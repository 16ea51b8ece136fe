package gamestate

import (
	"math/rand/v2"

	"github.com/cardtable/arena/internal/v1/card"
	"github.com/cardtable/arena/internal/v1/ids"
)

const (
	initialHandSize   = 3
	initialMaxHealth  = 2
	initialHealth     = initialMaxHealth
)

// Player is the in-game state of one seat: hand, health, and the two
// per-turn loot-play flags. Resource accounting beyond health (coins,
// souls) is out of CORE scope per §1.
type Player struct {
	Hand          []*card.LootCard
	MaxHealth     uint8
	CurrentHealth uint8
	LootPlayTurn  bool
	LootPlayChar  bool
}

// Board is a single game's deck/discard/hand state (§3, §4.2).
type Board struct {
	LootDeck    []*card.LootCard
	LootDiscard []*card.LootCard
	Players     map[ids.PlayerID]*Player
}

// NewBoard builds a freshly shuffled deck from the catalogue's instances and
// deals initialHandSize cards to each player by popping from the deck's
// tail, matching §4.2 exactly.
func NewBoard(playerIDs []ids.PlayerID, catalogueInstances []*card.LootCard) *Board {
	deck := make([]*card.LootCard, len(catalogueInstances))
	copy(deck, catalogueInstances)
	rand.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
	for _, c := range deck {
		c.Zone = card.ZoneDeck
	}

	b := &Board{
		LootDeck: deck,
		Players:  make(map[ids.PlayerID]*Player, len(playerIDs)),
	}

	for _, pid := range playerIDs {
		p := &Player{
			MaxHealth:     initialMaxHealth,
			CurrentHealth: initialHealth,
			LootPlayTurn:  true,
			LootPlayChar:  true,
		}
		for i := 0; i < initialHandSize; i++ {
			drawn := b.popDeckTail()
			drawn.Zone = card.ZoneHand
			p.Hand = append(p.Hand, drawn)
		}
		b.Players[pid] = p
	}

	return b
}

// popDeckTail removes and returns the card at the tail of the deck. The
// caller is responsible for ensuring the deck is non-empty (reshuffle runs
// first in DrawLootForPlayer).
func (b *Board) popDeckTail() *card.LootCard {
	n := len(b.LootDeck)
	c := b.LootDeck[n-1]
	b.LootDeck = b.LootDeck[:n-1]
	return c
}

// reshuffle moves all of discard into deck and shuffles, preserving the
// catalogue-multiset invariant. Fails ErrEmptyLootDeck if both piles are
// empty.
func (b *Board) reshuffle() error {
	if len(b.LootDeck) == 0 && len(b.LootDiscard) == 0 {
		return ErrEmptyLootDeck
	}
	b.LootDeck = append(b.LootDeck, b.LootDiscard...)
	b.LootDiscard = nil
	rand.Shuffle(len(b.LootDeck), func(i, j int) {
		b.LootDeck[i], b.LootDeck[j] = b.LootDeck[j], b.LootDeck[i]
	})
	for _, c := range b.LootDeck {
		c.Zone = card.ZoneDeck
	}
	return nil
}

// DrawLootForPlayer draws one card from the deck tail into p's hand,
// reshuffling discard into deck first if the deck is empty.
func (b *Board) DrawLootForPlayer(p ids.PlayerID) (*card.LootCard, error) {
	player, ok := b.Players[p]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	if len(b.LootDeck) == 0 {
		if err := b.reshuffle(); err != nil {
			return nil, err
		}
	}
	drawn := b.popDeckTail()
	drawn.Zone = card.ZoneHand
	player.Hand = append(player.Hand, drawn)
	return drawn, nil
}

// RemoveCardFromHand removes the first card in p's hand whose template id
// matches templateID, failing ErrCardNotInHand if none match.
func (b *Board) RemoveCardFromHand(p ids.PlayerID, templateID card.TemplateID) (*card.LootCard, error) {
	player, ok := b.Players[p]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	for i, c := range player.Hand {
		if c.TemplateID() == templateID {
			player.Hand = append(player.Hand[:i], player.Hand[i+1:]...)
			return c, nil
		}
	}
	return nil, ErrCardNotInHand
}

// DiscardLootCard appends card to the discard pile.
func (b *Board) DiscardLootCard(c *card.LootCard) {
	c.Zone = card.ZoneDiscard
	b.LootDiscard = append(b.LootDiscard, c)
}

// Clone returns a deep-enough copy of the board for GameState's
// copy-on-write transitions: the player map and hand/deck/discard slices
// are copied so a transition never mutates a previously broadcast
// snapshot, but LootCard pointers themselves are shared (cards are
// immutable once minted by the catalogue, aside from Zone).
func (b *Board) Clone() *Board {
	cp := &Board{
		LootDeck:    append([]*card.LootCard(nil), b.LootDeck...),
		LootDiscard: append([]*card.LootCard(nil), b.LootDiscard...),
		Players:     make(map[ids.PlayerID]*Player, len(b.Players)),
	}
	for pid, p := range b.Players {
		pc := *p
		pc.Hand = append([]*card.LootCard(nil), p.Hand...)
		cp.Players[pid] = &pc
	}
	return cp
}
