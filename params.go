package distfield

// PassMode selects the output format of a flood pass.
type PassMode int

const (
	// PassPropagate emits the winning encoded seed position for
	// consumption by a subsequent flood pass.
	PassPropagate PassMode = iota

	// PassDistance decodes the winning seed, measures the Euclidean
	// distance to the pixel and emits an encoded distance. A distance
	// pass is terminal: it writes the externally visible output, never
	// a ping-pong buffer.
	PassDistance
)

// PassParams carries the per-pass parameters shared by every device
// implementation: grid dimensions, the current jump step, the output
// mode and the input interpretation. Each pass invocation receives an
// explicit PassParams value; there is no global uniform state.
type PassParams struct {
	// Width and Height are the grid dimensions in pixels. All buffers
	// bound to one pass share these dimensions.
	Width  int
	Height int

	// Step is the neighbor offset in pixels for a flood pass. Seed
	// passes ignore it.
	Step int

	// Mode selects propagation or distance output for a flood pass.
	Mode PassMode

	// Unsigned disables the foreground/background sign: all emitted
	// distances are positive. Used by the raw input variant.
	Unsigned bool

	// RawInput switches seed derivation from the antialiased gray
	// interpolation to a direct distance-to-background-color test.
	RawInput bool

	// Background is the flat background color for RawInput seeding.
	Background RGBA
}
