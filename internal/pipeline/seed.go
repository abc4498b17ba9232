package pipeline

// Seed creates one plan per probe, each mapping its source stream and
// carrying no output arguments (so it renders as a stream copy).
func Seed(probes *ProbeSet) []Plan {
	if probes == nil {
		return nil
	}
	plans := make([]Plan, 0, len(probes.Streams))
	for _, probe := range probes.Streams {
		plans = append(plans, seedPlan(probe))
	}
	return plans
}

func seedPlan(probe Probe) Plan {
	var tags map[string]string
	if len(probe.Tags) > 0 {
		tags = make(map[string]string, len(probe.Tags))
		for k, v := range probe.Tags {
			tags[k] = v
		}
	}
	return Plan{
		ID:              probe.Index,
		Type:            probe.Type,
		CodecName:       probe.CodecName,
		Channels:        probe.Channels,
		ChannelLayout:   probe.ChannelLayout,
		Tags:            tags,
		Input:           0,
		SourceIndex:     probe.Index,
		SourceTypeIndex: probe.TypeIndex,
		TypeIndex:       probe.TypeIndex,
		MapArgs:         []Arg{Literal("-map"), StreamRef()},
	}
}

// EnsureSeeded seeds the plans from the probes the first time a stage sees
// the state. A state that already carries plans is only marked as seeded.
func (s *State) EnsureSeeded(probes *ProbeSet) {
	if s.Seeded {
		return
	}
	if len(s.Streams) == 0 {
		s.Streams = Seed(probes)
	}
	s.Seeded = true
}
