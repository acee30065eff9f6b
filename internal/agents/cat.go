package agents

import (
	"fmt"

	"github.com/talgya/catsim/internal/config"
	"github.com/talgya/catsim/internal/vec"
)

// Cat is a simulated cat.
//
// Health changes during a tick are buffered and committed by FinalizeStep,
// so every cat reads the same committed health of its neighbours for the
// whole tick.
type Cat struct {
	ID          CatID       `json:"cat_id"`
	Position    vec.Vec2    `json:"position"`
	Age         float64     `json:"age"` // years
	Gender      Gender      `json:"gender"`
	Personality Personality `json:"personality"`
	Health      float64     `json:"health"`
	State       State       `json:"state"`

	SleepDuration            int  `json:"sleep_duration"` // hours asleep so far
	HoursSinceLastConception *int `json:"hours_since_last_conception"`
	Fetus                    *Cat `json:"fetus,omitempty"`

	Stats Stats `json:"summary"`

	force       vec.Vec2
	health      float64 // buffered health, committed on FinalizeStep
	stepStarted bool
}

// NewCat creates a cat. Health is clamped to the maximum for its age.
func NewCat(id CatID, position vec.Vec2, age float64, gender Gender, personality Personality, health float64, state State) *Cat {
	c := &Cat{
		ID:          id,
		Position:    position,
		Age:         age,
		Gender:      gender,
		Personality: personality,
		State:       state,
	}
	c.Health = vec.Clamp(health, 0, c.MaxHealth())
	c.health = c.Health
	return c
}

// MaxHealth returns the health ceiling for a cat of the given age.
func MaxHealth(age float64) float64 {
	if age < config.AdultAge {
		return config.InfantMaxHealth
	}
	return config.AdultMaxHealth
}

// MaxHealth returns this cat's current health ceiling.
func (c *Cat) MaxHealth() float64 {
	return MaxHealth(c.Age)
}

// PendingHealth returns the buffered health that FinalizeStep will commit.
func (c *Cat) PendingHealth() float64 {
	return c.health
}

// Force returns the force accumulated this step.
func (c *Cat) Force() vec.Vec2 {
	return c.force
}

// AddForce accumulates f into this step's force.
func (c *Cat) AddForce(f vec.Vec2) {
	c.force = c.force.Add(f)
}

// StartStep opens the cat's step for this tick. Starting a step that was
// never finalized breaks the tick phase ordering and panics.
func (c *Cat) StartStep() {
	if c.stepStarted {
		panic(fmt.Sprintf("agents: cat %d started a new step without finalizing the last one", c.ID))
	}
	c.stepStarted = true
}

// StepStarted reports whether the cat is between StartStep and FinalizeStep.
func (c *Cat) StepStarted() bool {
	return c.stepStarted
}

// FinalizeStep closes the step: clears the force, ages the cat one hour and
// commits the buffered health.
func (c *Cat) FinalizeStep() {
	c.force = vec.Zero
	c.AgeUp(1)
	c.Health = c.health
	c.stepStarted = false
}

// AgeUp advances the cat by the given number of hours.
func (c *Cat) AgeUp(hours int) {
	years := float64(hours) / config.HoursPerYear
	c.Age += years
	c.Stats.AgeAccrued += years
	c.Stats.StateHours[c.State] += hours
	c.Damage(config.HourlyHealthTax * float64(hours))
	if c.State == StateSleeping {
		c.SleepDuration += hours
	}
	if c.HoursSinceLastConception != nil {
		*c.HoursSinceLastConception += hours
	}
}

// Damage lowers the buffered health, never below zero.
func (c *Cat) Damage(amount float64) {
	c.setHealth(c.health - amount)
}

// Heal raises the buffered health, never above the maximum for the cat's age.
func (c *Cat) Heal(amount float64) {
	c.setHealth(c.health + amount)
}

func (c *Cat) setHealth(h float64) {
	c.health = vec.Clamp(h, 0, c.MaxHealth())
}

// ConsumeFood eats amount of food, healing the same amount.
func (c *Cat) ConsumeFood(amount float64) {
	c.Heal(amount)
	c.Stats.FoodConsumed += amount
}

// MoveTo moves the cat and charges the travel cost.
func (c *Cat) MoveTo(target vec.Vec2, cost float64) {
	c.Stats.DistanceMoved += target.Sub(c.Position).Norm()
	c.Position = target
	c.Damage(cost)
}

// IsSleeping reports whether the cat is asleep.
func (c *Cat) IsSleeping() bool {
	return c.State == StateSleeping
}

// IsPregnant reports whether the cat carries a fetus.
func (c *Cat) IsPregnant() bool {
	return c.Gender == Female && c.Fetus != nil
}

// IsSexuallyActive reports whether the cat is old enough and free to conceive.
func (c *Cat) IsSexuallyActive() bool {
	return c.Age > config.SexualMaturityAge && !c.IsPregnant()
}

// ShouldDie reports whether the cat has run out of health or years.
func (c *Cat) ShouldDie() bool {
	return c.Health <= 0 || c.Age >= config.MaxLifeSpan
}

// Strength is the health-derived strength used for dominance.
func (c *Cat) Strength() float64 {
	return c.Health / config.StrengthScale
}

// DominanceOver returns strength(c) − strength(other).
func (c *Cat) DominanceOver(other *Cat) float64 {
	return c.Strength() - other.Strength()
}

// Restore rebuilds the unexported step state after decoding a saved cat.
func (c *Cat) Restore() {
	c.Health = vec.Clamp(c.Health, 0, c.MaxHealth())
	c.health = c.Health
	c.force = vec.Zero
	c.stepStarted = false
	if c.Fetus != nil {
		c.Fetus.Restore()
	}
}

func (c *Cat) String() string {
	return fmt.Sprintf("Cat{cat_id=%d, position=%v, age=%.4f, health=%.4f, gender=%s, personality=%s, state=%s}",
		c.ID, c.Position, c.Age, c.Health, c.Gender, c.Personality, c.State)
}
