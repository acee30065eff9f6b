package main

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"

	"github.com/talgya/catsim/internal/agents"
	"github.com/talgya/catsim/internal/engine"
)

// writeReport prints the end-of-run summary: totals, every live cat and,
// in periodic food mode, the food left on each food cell.
func writeReport(w io.Writer, sim *engine.Simulation) {
	st := sim.Stats
	fmt.Fprintf(w, "\nRun ended at step %d (%s) with %s of %s cats alive.\n",
		sim.Step, engine.SimTime(sim.Step, sim.Params.StartHour),
		humanize.Comma(int64(sim.Population)), humanize.Comma(int64(len(sim.AllCats()))))
	fmt.Fprintf(w, "Births %s, deaths %s, conceptions %s, attacks %s, food eaten %s.\n",
		humanize.Comma(int64(st.Births)), humanize.Comma(int64(st.Deaths)),
		humanize.Comma(int64(st.Conceptions)), humanize.Comma(int64(st.Attacks)),
		humanize.FormatFloat("#,###.#", st.FoodEaten))

	alive := sim.Alive()
	if len(alive) > 0 {
		fmt.Fprintln(w, "\nAlive cats:")
	}
	for _, c := range alive {
		fmt.Fprintf(w, "  %v moved %s, ate %s, hours active %d sleeping %d fetus %d\n",
			c,
			humanize.FormatFloat("#,###.##", c.Stats.DistanceMoved),
			humanize.FormatFloat("#,###.##", c.Stats.FoodConsumed),
			c.Stats.HoursIn(agents.StateActive),
			c.Stats.HoursIn(agents.StateSleeping),
			c.Stats.HoursIn(agents.StateFetus),
		)
	}

	if !sim.Params.ContinuousFood {
		cells := sim.Terrain.FoodCells()
		if len(cells) > 0 {
			fmt.Fprintln(w, "\nFood remaining:")
		}
		for _, cell := range cells {
			fmt.Fprintf(w, "  %v: %.2f\n", cell.Position, cell.Food)
		}
	}
}
