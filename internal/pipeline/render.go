package pipeline

import (
	"strconv"
)

// Render flattens the active plans into the ffmpeg argument list: for each
// plan in order, its map arguments followed by its output arguments.
func Render(plans []Plan) []string {
	out := make([]string, 0, len(plans)*6)
	for _, plan := range plans {
		if plan.Removed {
			continue
		}
		out = append(out, RenderPlan(plans, plan)...)
	}
	return out
}

// RenderMaps returns only the resolved map arguments of the active plans.
func RenderMaps(plans []Plan) []string {
	out := make([]string, 0, len(plans)*2)
	for _, plan := range plans {
		if plan.Removed {
			continue
		}
		out = append(out, renderArgs(plans, plan, plan.MapArgs)...)
	}
	return out
}

// RenderPlan resolves the map and output arguments of a single plan in the
// context of all plans. A plan without a codec flag is stream-copied.
func RenderPlan(plans []Plan, plan Plan) []string {
	output := plan.OutputArgs
	if !HasCodec(output) {
		output = append([]Arg{Codec(), Literal("copy")}, output...)
	}
	args := append(append([]Arg(nil), plan.MapArgs...), output...)
	return renderArgs(plans, plan, args)
}

func renderArgs(plans []Plan, plan Plan, args []Arg) []string {
	out := make([]string, 0, len(args))
	for _, arg := range args {
		out = append(out, resolveArg(plans, plan, arg))
	}
	return out
}

func resolveArg(plans []Plan, plan Plan, arg Arg) string {
	switch arg.Kind {
	case ArgPosition:
		var rank int
		if arg.Position == PositionOutputType {
			rank, _ = OutputTypeIndex(plans, plan.ID)
		} else {
			rank, _ = OutputIndex(plans, plan.ID)
		}
		return arg.Text + strconv.Itoa(rank) + arg.Suffix
	case ArgCodec:
		return CodecFlag(plans, plan)
	case ArgStream:
		return streamSelector(plans, plan)
	default:
		return arg.Text
	}
}

// CodecFlag returns the per-stream codec flag for the plan, "-c:<type>:<rank>",
// or "-c:<outputIndex>" for types without a selector letter.
func CodecFlag(plans []Plan, plan Plan) string {
	selector := plan.Type.Selector()
	if selector == "" {
		rank, _ := OutputIndex(plans, plan.ID)
		return "-c:" + strconv.Itoa(rank)
	}
	rank, _ := OutputTypeIndex(plans, plan.ID)
	return "-c:" + selector + ":" + strconv.Itoa(rank)
}

func streamSelector(plans []Plan, plan Plan) string {
	input := strconv.Itoa(plan.Input)
	selector := plan.Type.Selector()
	if selector == "" {
		if plan.SourceIndex >= 0 {
			return input + ":" + strconv.Itoa(plan.SourceIndex)
		}
		return input
	}
	index := plan.SourceTypeIndex
	if index < 0 {
		index, _ = OutputTypeIndex(plans, plan.ID)
	}
	value := input + ":" + selector + ":" + strconv.Itoa(index)
	if plan.Type.MapOptional() {
		value += "?"
	}
	return value
}

// Refresh re-renders the state's output arguments from its plans and caches
// each active plan's type rank.
func Refresh(state *State) {
	for i := range state.Streams {
		if rank, ok := OutputTypeIndex(state.Streams, state.Streams[i].ID); ok {
			state.Streams[i].TypeIndex = rank
		}
	}
	state.OutputArguments = Render(state.Streams)
}

// Command assembles the complete ffmpeg argument list for handing the plan to
// an executor: input arguments, the source and additional inputs, the
// rendered stream arguments, and the output path.
func Command(state State, sourcePath, outputPath string) []string {
	args := make([]string, 0, len(state.InputArguments)+len(state.OutputArguments)+2*len(state.AdditionalInputs)+4)
	args = append(args, state.InputArguments...)
	args = append(args, "-i", sourcePath)
	for _, input := range state.AdditionalInputs {
		args = append(args, "-i", input)
	}
	args = append(args, state.OutputArguments...)
	if outputPath != "" {
		args = append(args, outputPath)
	}
	return args
}
