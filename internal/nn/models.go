package nn

// NewMLP returns Linear(in, hidden) → ReLU → Linear(hidden, out).
func NewMLP(in, hidden, out int) *Sequential {
	return NewSequential(
		NewLinear(in, hidden, false),
		NewReLU(),
		NewLinear(hidden, out, true),
	)
}

// NewResMLP returns a stem Linear(in, width) → BatchNorm → ReLU, followed by
// `blocks` residual blocks of the given width, basic or bottleneck, and a
// Linear(width, out) head.
func NewResMLP(in, width, blocks, out int, bottleneck bool) *Sequential {
	model := NewSequential(
		NewLinear(in, width, false),
		NewBatchNorm(width, BatchNormConfig{}),
		NewReLU(),
	)
	for range blocks {
		model.Add(NewResBlock(width, width, bottleneck))
	}
	model.Add(NewLinear(width, out, true))
	return model
}
