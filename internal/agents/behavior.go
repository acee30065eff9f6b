// Cat behavior: attraction scoring and pairwise interaction.
// Attractions are signed desires; the engine turns each into a force
// magnitude × unit(target − position).
package agents

import (
	"math"

	"github.com/talgya/catsim/internal/config"
	"github.com/talgya/catsim/internal/vec"
	"github.com/talgya/catsim/internal/weather"
)

// FoodAttraction is −ln(health/maxHealth): zero when full, unbounded as
// health falls. A cat with no health left gets FoodAttractionCeiling.
func (c *Cat) FoodAttraction() float64 {
	if c.IsSleeping() {
		return 0
	}
	if c.Health <= 0 {
		return config.FoodAttractionCeiling
	}
	return -math.Log(c.Health / c.MaxHealth())
}

// BedAttraction is the pull of a bed. Kittens and well-rested cats want to
// play and rest more.
func (c *Cat) BedAttraction() float64 {
	if c.IsSleeping() {
		return 0
	}
	if c.Age < config.KittenAge || c.Health > config.RestedHealth {
		return config.RestAttractionHigh
	}
	return config.RestAttractionLow
}

// BoxAttraction is the pull of a box.
func (c *Cat) BoxAttraction() float64 {
	return c.BedAttraction()
}

// MutualAttraction returns c's attraction toward other in [−1, 1].
//
// A mating pair attracts strongly, more so in the heat. Cats of the same
// personality are friendly. Rivals are drawn by dominance: a stronger cat
// is pulled toward a weaker rival and a weaker cat is pushed away.
func (c *Cat) MutualAttraction(other *Cat, temperature float64) float64 {
	if c.IsSleeping() || other.IsSleeping() {
		return 0
	}
	if c.Gender != other.Gender && c.IsSexuallyActive() && other.IsSexuallyActive() {
		if weather.IsHot(temperature) {
			return config.MatingAttractionHot
		}
		return config.MatingAttraction
	}
	if c.Personality == other.Personality {
		return config.SamePersonalityAffinity
	}
	return vec.Clamp(c.DominanceOver(other), -1, 1)
}

// TraceAttraction scores a cell's scent: own kind attracts, rivals repel.
func (c *Cat) TraceAttraction(xTrace, yTrace float64) float64 {
	if c.IsSleeping() {
		return 0
	}
	same, opposite := xTrace, yTrace
	if c.Personality == PersonalityY {
		same, opposite = yTrace, xTrace
	}
	return (same - opposite) * config.TraceAttractionFactor
}

// RandomForce returns a small uniform jitter, or zero while asleep.
func (c *Cat) RandomForce(r Rand) vec.Vec2 {
	if c.IsSleeping() {
		return vec.Zero
	}
	x := (2*r.Float64() - 1) * config.RandomForce
	y := (2*r.Float64() - 1) * config.RandomForce
	return vec.New(x, y)
}

// CalcForce turns an attraction into a force from one position toward another.
func CalcForce(magnitude float64, from, to vec.Vec2) vec.Vec2 {
	return to.Sub(from).Unit().Scale(magnitude)
}

// Outcome is the result of an interaction between two cats.
type Outcome uint8

const (
	OutcomeNone Outcome = iota
	OutcomeConception
	OutcomeAttack
)

func (o Outcome) String() string {
	switch o {
	case OutcomeConception:
		return "conception"
	case OutcomeAttack:
		return "attack"
	default:
		return "none"
	}
}

// Interaction records what happened when two cats met in a cell.
type Interaction struct {
	Outcome Outcome
	Actor   *Cat
	Other   *Cat
	Fetus   *Cat    // set on conception
	Damage  float64 // set on attack
}

// IDSource issues ids for newly conceived cats.
type IDSource interface {
	NextID() CatID
}

// CanMate reports whether two cats could conceive together right now.
func CanMate(a, b *Cat) bool {
	return a.Gender != b.Gender &&
		!a.IsSleeping() && !b.IsSleeping() &&
		a.IsSexuallyActive() && b.IsSexuallyActive() &&
		a.Health > config.ConceptionCost && b.Health > config.ConceptionCost
}

// ReproductionProbability returns the chance a mating pair conceives.
func ReproductionProbability(temperature float64) float64 {
	if weather.IsHot(temperature) {
		return config.ReproductionProbabilityHot
	}
	return config.ReproductionProbability
}

// AttackProbability is the chance a cat with the given dominance attacks.
// Only a dominant cat attacks.
func AttackProbability(dominance float64) float64 {
	return vec.Clamp(dominance, 0, 1)
}

// Interact runs the interaction of c with other when they share a cell.
// Mating is tried first; rivals of differing personality may fight.
func (c *Cat) Interact(other *Cat, temperature float64, r Rand, ids IDSource) Interaction {
	none := Interaction{Outcome: OutcomeNone, Actor: c, Other: other}
	if c.ID == other.ID || c.IsSleeping() || other.IsSleeping() {
		return none
	}

	if CanMate(c, other) {
		if r.Float64() < ReproductionProbability(temperature) {
			mother, father := c, other
			if mother.Gender != Female {
				mother, father = other, c
			}
			fetus := mother.Conceive(father, ids.NextID(), r)
			return Interaction{Outcome: OutcomeConception, Actor: c, Other: other, Fetus: fetus}
		}
	}

	if c.Personality != other.Personality {
		dominance := c.DominanceOver(other)
		if r.Float64() < AttackProbability(dominance) {
			power := dominance * config.AttackPowerScale
			c.Attack(other, power)
			return Interaction{Outcome: OutcomeAttack, Actor: c, Other: other, Damage: power}
		}
	}
	return none
}

// Attack deals power damage to other; attacking drains a fraction of it from c.
func (c *Cat) Attack(other *Cat, power float64) {
	other.Damage(power)
	other.Stats.DamageReceived += power
	c.Stats.DamageDealt += power

	self := power / config.AttackSelfCostDivisor
	c.Damage(self)
	c.Stats.DamageReceived += self
}
