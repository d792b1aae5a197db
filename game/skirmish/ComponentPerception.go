package skirmish

type Perception struct {
	params PerceptionParams
	rays   RaySensorSpecs

	observation Observation
}

func (game SkirmishGame) CastPerception(data interface{}) *Perception {
	return data.(*Perception)
}

func (p Perception) GetVisionAngle() float64 {
	return p.params.ConeAngle
}

func (p Perception) GetVisionRadius() float64 {
	return p.params.Radius
}

func (p Perception) GetProximityRadius() float64 {
	return p.params.ProximityRadius
}

func (p Perception) GetObservation() Observation {
	return p.observation
}

func (p *Perception) SetObservation(observation Observation) *Perception {
	p.observation = observation
	return p
}
