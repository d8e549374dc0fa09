// Package player holds the mutable player record. Health is clamped to
// [0, MaxHealth] after every change; being alive is derived, never stored.
package player

import (
	"log/slog"
	"slices"
)

// DefaultMaxHealth is used when a world does not set max_health.
const DefaultMaxHealth = 100

// Player is the single adventurer of a session.
type Player struct {
	Name      string
	Health    int
	MaxHealth int
	Score     int
	Gold      int
	Location  string
	Inventory []string

	logger *slog.Logger
}

// New creates a player at full health in the given room.
func New(name, location string, maxHealth int, logger *slog.Logger) *Player {
	if maxHealth <= 0 {
		maxHealth = DefaultMaxHealth
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Player{
		Name:      name,
		Health:    maxHealth,
		MaxHealth: maxHealth,
		Location:  location,
		Inventory: []string{},
		logger:    logger,
	}
}

// Alive reports whether the player has any health left.
func (p *Player) Alive() bool {
	return p.Health > 0
}

// ApplyDamage subtracts amount and clamps at zero. Negative amounts count
// as zero. Returns whether the player is still alive.
func (p *Player) ApplyDamage(amount int) bool {
	if amount < 0 {
		amount = 0
	}
	p.Health = clamp(p.Health-amount, 0, p.MaxHealth)
	return p.Alive()
}

// Heal adds amount and clamps at MaxHealth.
func (p *Player) Heal(amount int) {
	if amount < 0 {
		amount = 0
	}
	p.Health = clamp(p.Health+amount, 0, p.MaxHealth)
}

// SetHealth sets health directly, clamped. Used when restoring a save.
func (p *Player) SetHealth(h int) {
	p.Health = clamp(h, 0, p.MaxHealth)
}

// AddScore increases the score. Score never goes down.
func (p *Player) AddScore(delta int) {
	if delta > 0 {
		p.Score += delta
	}
}

// AddGold changes the purse, never below zero.
func (p *Player) AddGold(delta int) {
	p.Gold = max(p.Gold+delta, 0)
}

// HasItem reports whether the item is held.
func (p *Player) HasItem(name string) bool {
	return slices.Contains(p.Inventory, name)
}

// AddItem puts an item in the inventory. Already-held items are ignored.
func (p *Player) AddItem(name string) {
	if p.HasItem(name) {
		p.logger.Debug("item already held", "item", name)
		return
	}
	p.Inventory = append(p.Inventory, name)
}

// RemoveItem drops an item from the inventory. Returns false if absent.
func (p *Player) RemoveItem(name string) bool {
	i := slices.Index(p.Inventory, name)
	if i < 0 {
		return false
	}
	p.Inventory = slices.Delete(p.Inventory, i, i+1)
	return true
}

// MoveTo changes location. The caller must have checked the exit exists.
func (p *Player) MoveTo(roomID string) {
	p.Location = roomID
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
