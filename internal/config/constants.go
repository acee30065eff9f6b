package config

// Timing.
const (
	HoursPerDay  = 24
	HoursPerYear = 365 * HoursPerDay

	// GestationHours is the gestation length after which a fetus is delivered.
	GestationHours = 10

	// SleepHours is how long a cat sleeps before waking on its own.
	SleepHours = 4

	// MaxLifeSpan is the age in years at which a cat dies.
	MaxLifeSpan = 10.0

	// FoodRefillHour is the hour of day at which food is restocked in periodic mode.
	FoodRefillHour = 12
)

// Scent traces.
const (
	MaxTrace              = 1.0
	TraceFadingFactor     = 0.6
	TraceDeposit          = 1.0
	TraceAttractionFactor = 0.5
)

// Food.
const (
	StartFoodAmount      = 100.0
	NewFoodAmount        = 10.0
	ContinuousFoodAmount = 100.0

	// MaxFoodIntake caps what a cat eats in one hour.
	MaxFoodIntake = 10.0

	// FoodAttractionScale normalises a cell's food amount into a weight.
	FoodAttractionScale = 100.0

	// FoodAttractionCeiling replaces −ln(0) for a cat with no health left.
	FoodAttractionCeiling = 10.0
)

// Health and life stages.
const (
	InfantMaxHealth = 50.0
	AdultMaxHealth  = 100.0
	AdultAge        = 1.0

	// HourlyHealthTax is charged on every finalized step.
	HourlyHealthTax = 1.0

	ForceWakeUpHealth = 10.0

	// KittenAge is two months, in years.
	KittenAge = 2.0 / 12.0

	// SexualMaturityAge is four months, in years.
	SexualMaturityAge = 4.0 / 12.0

	RestedHealth = 95.0
)

// Sleep probabilities per hour, by cell type.
const (
	SleepProbabilityFloor = 0.05
	SleepProbabilityFood  = 0.01
	SleepProbabilityBed   = 0.2
	SleepProbabilityBox   = 0.4

	// RestedSleepBoost multiplies the probability for cats above RestedHealth.
	RestedSleepBoost = 1.02
)

// Attraction.
const (
	RestAttractionHigh = 0.5
	RestAttractionLow  = 0.1

	SamePersonalityAffinity = 0.7
	MatingAttraction        = 0.7
	MatingAttractionHot     = 0.9

	// StrengthScale converts health into strength for dominance.
	StrengthScale = 100.0

	// RandomForce bounds each component of the per-hour jitter.
	RandomForce = 0.5
)

// Interaction.
const (
	ReproductionProbability    = 0.7
	ReproductionProbabilityHot = 0.9

	// ConceptionCost is the health a conception drains from the parents.
	// Both parents need more health than this to mate.
	ConceptionCost        = 10.0
	FemaleConceptionShare = 0.6

	AttackPowerScale      = 10.0
	AttackSelfCostDivisor = 5.0
)

// Movement.
const (
	ElevationDamageDivisor = 10.0

	StarvingHealth      = 10.0
	HungryHealth        = 25.0
	StarvingRadiusScale = 3
	HungryRadiusScale   = 2
)

// Climate.
const (
	BaseTemperature      = 25.0
	TemperatureAmplitude = 5.0

	// HeatThreshold is the temperature in °C above which mating drive peaks.
	HeatThreshold = 28.0
)
