// Life-cycle transitions: fetus → active ⇄ sleeping → dead.
package agents

import (
	"github.com/talgya/catsim/internal/config"
	"github.com/talgya/catsim/internal/vec"
)

// Sleep puts the cat to sleep and resets the sleep counter.
func (c *Cat) Sleep() {
	c.State = StateSleeping
	c.SleepDuration = 0
}

// WakeUp makes the cat active and resets the sleep counter.
func (c *Cat) WakeUp() {
	c.State = StateActive
	c.SleepDuration = 0
}

// Die marks the cat dead. Its fetus, if any, dies with it.
func (c *Cat) Die() {
	c.State = StateDead
	if c.Fetus != nil {
		c.Fetus.State = StateDead
	}
}

// UpdateSleep runs the hourly sleep/wake transitions. p is the probability
// of falling asleep at the cat's current cell. Returns true if the state changed.
//
// A sleeping cat is woken early when its health falls below the force-wake
// threshold, and wakes on its own once it has slept SleepHours.
func (c *Cat) UpdateSleep(p float64, r Rand) bool {
	before := c.State
	if !c.IsSleeping() && r.Float64() < p {
		c.Sleep()
	}
	if c.IsSleeping() && c.Health < config.ForceWakeUpHealth {
		c.WakeUp()
	}
	if c.IsSleeping() && c.SleepDuration >= config.SleepHours {
		c.WakeUp()
	}
	return c.State != before
}

// ReadyToDeliver reports whether the cat's gestation has reached term.
func (c *Cat) ReadyToDeliver() bool {
	return c.IsPregnant() &&
		c.HoursSinceLastConception != nil &&
		*c.HoursSinceLastConception >= config.GestationHours
}

// Conceive starts a gestation carried by c, fathered by mate. The fetus is
// held by c until delivery and does not occupy the grid.
func (c *Cat) Conceive(mate *Cat, id CatID, r Rand) *Cat {
	zero := 0
	c.HoursSinceLastConception = &zero

	personality := c.Personality
	if r.Intn(2) == 1 {
		personality = mate.Personality
	}
	c.Fetus = NewCat(id, c.Position, 0, RandomGender(r), personality, MaxHealth(0), StateFetus)

	c.Damage(config.ConceptionCost * config.FemaleConceptionShare)
	mate.Damage(config.ConceptionCost * (1 - config.FemaleConceptionShare))
	c.Stats.Conceptions++
	mate.Stats.Conceptions++
	return c.Fetus
}

// Deliver releases the fetus as an active cat at the mother's position.
// Returns nil if there is no fetus. The newborn's fetus hours are recorded
// from the mother's gestation counter.
func (c *Cat) Deliver() *Cat {
	if c.Fetus == nil {
		return nil
	}
	baby := c.Fetus
	c.Fetus = nil

	if c.HoursSinceLastConception != nil {
		baby.Stats.StateHours[StateFetus] += *c.HoursSinceLastConception
	}
	baby.Position = c.Position
	baby.State = StateActive
	baby.force = vec.Zero
	baby.stepStarted = false
	c.Stats.Deliveries++
	return baby
}
