// Package agents provides the cat model: traits, attraction scoring,
// pairwise interaction, the life-cycle state machine and lifetime statistics.
package agents

import "fmt"

// CatID is a unique identifier for a cat. Ids increase monotonically per simulation.
type CatID uint64

// Rand is the random source a cat draws from. *entropy.Source satisfies it.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// Gender of a cat.
type Gender uint8

const (
	Male Gender = iota
	Female
	numGenders
)

// RandomGender picks a gender uniformly.
func RandomGender(r Rand) Gender {
	return Gender(r.Intn(int(numGenders)))
}

func (g Gender) String() string {
	switch g {
	case Male:
		return "male"
	case Female:
		return "female"
	default:
		return "unknown"
	}
}

// Personality is the binary trait used for scent matching and rivalry.
type Personality uint8

const (
	PersonalityX Personality = iota
	PersonalityY
	numPersonalities
)

// RandomPersonality picks a personality uniformly.
func RandomPersonality(r Rand) Personality {
	return Personality(r.Intn(int(numPersonalities)))
}

func (p Personality) String() string {
	switch p {
	case PersonalityX:
		return "X"
	case PersonalityY:
		return "Y"
	default:
		return "unknown"
	}
}

// State is a cat's life-cycle state.
type State uint8

const (
	StateFetus State = iota // unborn, held by the mother, not on the grid
	StateActive
	StateSleeping
	StateDead
	NumStates
)

func (s State) String() string {
	switch s {
	case StateFetus:
		return "fetus"
	case StateActive:
		return "active"
	case StateSleeping:
		return "sleeping"
	case StateDead:
		return "dead"
	default:
		return "unknown"
	}
}

// MarshalText encodes the gender by name.
func (g Gender) MarshalText() ([]byte, error) { return []byte(g.String()), nil }

// UnmarshalText decodes a gender name.
func (g *Gender) UnmarshalText(b []byte) error {
	switch string(b) {
	case "male":
		*g = Male
	case "female":
		*g = Female
	default:
		return fmt.Errorf("unknown gender %q", b)
	}
	return nil
}

// MarshalText encodes the personality by name.
func (p Personality) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// UnmarshalText decodes a personality name.
func (p *Personality) UnmarshalText(b []byte) error {
	switch string(b) {
	case "X":
		*p = PersonalityX
	case "Y":
		*p = PersonalityY
	default:
		return fmt.Errorf("unknown personality %q", b)
	}
	return nil
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(b []byte) error {
	for st := StateFetus; st < NumStates; st++ {
		if st.String() == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", b)
}
