// Cat spawning: the id counter and the initial population.
package agents

import (
	"github.com/talgya/catsim/internal/vec"
)

// MaxSpawnAge bounds the whole-year age of an initial cat (exclusive).
const MaxSpawnAge = 10

// Spawner issues cat ids and creates the initial population.
// One spawner belongs to each simulation, so ids are unique per run.
type Spawner struct {
	nextID CatID
}

// NewSpawner creates a spawner whose first id is 1.
func NewSpawner() *Spawner {
	return &Spawner{nextID: 1}
}

// NextID returns a fresh id.
func (s *Spawner) NextID() CatID {
	id := s.nextID
	s.nextID++
	return id
}

// Peek returns the id that NextID will issue next.
func (s *Spawner) Peek() CatID {
	return s.nextID
}

// SetNextID sets the next id to be issued (used when restoring a saved run).
func (s *Spawner) SetNextID(id CatID) {
	s.nextID = id
}

// SpawnPopulation creates n active cats at random cells of a width×height grid.
// Each cat draws, in order: x, y, personality, gender, age in whole years.
// Health starts at the maximum for the age.
func (s *Spawner) SpawnPopulation(n, width, height int, r Rand) []*Cat {
	cats := make([]*Cat, 0, n)
	for i := 0; i < n; i++ {
		cats = append(cats, s.spawnOne(width, height, r))
	}
	return cats
}

func (s *Spawner) spawnOne(width, height int, r Rand) *Cat {
	pos := vec.At(r.Intn(width), r.Intn(height))
	personality := RandomPersonality(r)
	gender := RandomGender(r)
	age := float64(r.Intn(MaxSpawnAge))
	return NewCat(s.NextID(), pos, age, gender, personality, MaxHealth(age), StateActive)
}
