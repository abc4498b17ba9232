package pipeline

// OutputIndex returns the zero-based position of the plan among all non-removed
// plans. The boolean is false when the id is absent or removed.
func OutputIndex(plans []Plan, id int) (int, bool) {
	rank := 0
	for _, plan := range plans {
		if plan.Removed {
			continue
		}
		if plan.ID == id {
			return rank, true
		}
		rank++
	}
	return 0, false
}

// OutputTypeIndex returns the zero-based position of the plan among
// non-removed plans of the same codec type.
func OutputTypeIndex(plans []Plan, id int) (int, bool) {
	var target *Plan
	for i := range plans {
		if plans[i].ID == id {
			target = &plans[i]
			break
		}
	}
	if target == nil || target.Removed {
		return 0, false
	}
	rank := 0
	for _, plan := range plans {
		if plan.Removed || plan.Type != target.Type {
			continue
		}
		if plan.ID == id {
			return rank, true
		}
		rank++
	}
	return 0, false
}
