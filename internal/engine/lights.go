package engine

import (
	"github.com/gridcab/engine/internal/topology"
	"github.com/gridcab/engine/pkg/core"
)

// trafficLightToggleTicks is the default light period: 3 seconds at 20
// ticks per second.
const trafficLightToggleTicks = 60

type lightState int

const (
	lightGreen lightState = iota
	lightRed
)

func (s lightState) toggled() lightState {
	if s == lightGreen {
		return lightRed
	}
	return lightGreen
}

type trafficLight struct {
	state     lightState
	ticksLeft int
}

// generateTrafficLights places one light per road section. Horizontal
// sections start green, vertical red, so crossing flows alternate.
func generateTrafficLights(topo topology.Topology) map[core.RoadSection]*trafficLight {
	lights := make(map[core.RoadSection]*trafficLight)
	for _, section := range topo.AllSections() {
		state := lightRed
		if section.Direction.IsHorizontal() {
			state = lightGreen
		}
		lights[section] = &trafficLight{state: state, ticksLeft: trafficLightToggleTicks}
	}
	return lights
}

func (g *Grid) tickTrafficLights() {
	for _, light := range g.lights {
		light.ticksLeft--
		if light.ticksLeft == 0 {
			light.state = light.state.toggled()
			light.ticksLeft = trafficLightToggleTicks
		}
	}
}

// redLightBlocks reports whether the car at pos is held at the
// intersection: a red light only matters on the final slot of a section.
func (g *Grid) redLightBlocks(pos core.Position) bool {
	if pos.PositionInSection < g.topo.MaxPositionInSection() {
		return false
	}
	light, ok := g.lights[pos.RoadSection]
	return ok && light.state == lightRed
}
