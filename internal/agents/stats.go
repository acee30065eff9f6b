package agents

// Stats is a cat's lifetime summary.
type Stats struct {
	DistanceMoved  float64 `json:"distance_moved"`
	DamageDealt    float64 `json:"damage_dealt"`
	DamageReceived float64 `json:"damage_received"`
	FoodConsumed   float64 `json:"food_consumed"`
	Conceptions    int     `json:"conceptions"`
	Deliveries     int     `json:"deliveries"`
	AgeAccrued     float64 `json:"age_accrued"` // years lived inside the simulation

	// StateHours counts hours spent in each State, indexed by State.
	StateHours [NumStates]int `json:"state_hours"`
}

// HoursIn returns the hours spent in state s.
func (s *Stats) HoursIn(st State) int {
	if st >= NumStates {
		return 0
	}
	return s.StateHours[st]
}

// StateHoursByName returns the hours per state keyed by state name, for reports.
func (s *Stats) StateHoursByName() map[string]int {
	m := make(map[string]int, NumStates)
	for st := StateFetus; st < NumStates; st++ {
		m[st.String()] = s.StateHours[st]
	}
	return m
}
