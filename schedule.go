package distfield

// Quality selects how many extension passes run after the base
// jump-flooding schedule. The base schedule can miss locally optimal
// seeds due to the discrete power-of-two steps; repeating small steps
// catches these residual errors at low extra cost.
type Quality int

const (
	// QualityBasic runs the base schedule only; its final pass emits
	// distances directly.
	QualityBasic Quality = iota

	// QualityBetter re-runs one extra pass at step size 1 in distance
	// mode after the base schedule.
	QualityBetter

	// QualityBest re-runs two extra passes after the base schedule:
	// step size 2 in propagation mode, then step size 1 in distance
	// mode.
	QualityBest
)

// String returns a human-readable name for the quality level.
func (q Quality) String() string {
	switch q {
	case QualityBasic:
		return "basic"
	case QualityBetter:
		return "better"
	case QualityBest:
		return "best"
	default:
		return "unknown"
	}
}

// StepSchedule returns the ordered step sizes for one invocation on a
// width×height grid: M/2, M/4, …, 1 where M is the next power of two
// at or above the longer side. Any two pixels can exchange seed
// information within log2(M) passes, the standard jump-flooding
// correctness argument.
//
// The schedule is empty for a 1×1 grid; the orchestrator still runs a
// single step-1 distance pass in that case.
func StepSchedule(width, height int) []int {
	longer := width
	if height > longer {
		longer = height
	}
	m := nextPowerOfTwo(longer)

	var steps []int
	for s := m / 2; s >= 1; s /= 2 {
		steps = append(steps, s)
	}
	return steps
}

// nextPowerOfTwo returns the smallest power of two >= n.
func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
