package nn

import (
	"fmt"
	"io"
	"strings"

	"github.com/born-ml/fitloop/internal/tensor"
	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/gomlx/exceptions"
)

// Sequential is a container module that chains multiple modules together.
//
// Each module's output becomes the next module's input, creating a
// sequential pipeline of transformations. Backward runs the modules in
// reverse order, each one reading the gradient its successor attached.
//
// Example:
//
//	model := nn.NewSequential(
//	    nn.NewLinear(784, 50, false),
//	    nn.NewReLU(),
//	    nn.NewLinear(50, 10, true),
//	)
//
//	output := model.Forward(input)
//	loss := criterion.Forward(output, targets)
//	criterion.Backward()
//	model.Backward()
type Sequential struct {
	modules  []Module
	training bool
}

// NewSequential creates a new Sequential container in training mode.
func NewSequential(modules ...Module) *Sequential {
	return &Sequential{
		modules:  modules,
		training: true,
	}
}

// Forward applies all modules in sequence.
func (s *Sequential) Forward(input *tensor.Tensor) *tensor.Tensor {
	output := input
	for _, module := range s.modules {
		output = module.Forward(output)
	}
	return output
}

// Backward runs the backward pass of every module, last to first.
func (s *Sequential) Backward() {
	for i := len(s.modules) - 1; i >= 0; i-- {
		s.modules[i].Backward()
	}
}

// Parameters returns all trainable parameters from all modules, in layer order.
func (s *Sequential) Parameters() []*Parameter {
	var params []*Parameter
	for _, module := range s.modules {
		params = append(params, module.Parameters()...)
	}
	return params
}

// Train puts the model and every mode-aware layer in training mode.
func (s *Sequential) Train() {
	s.SetTraining(true)
}

// Eval puts the model and every mode-aware layer in evaluation mode.
func (s *Sequential) Eval() {
	s.SetTraining(false)
}

// Training reports the current mode.
func (s *Sequential) Training() bool {
	return s.training
}

// SetTraining sets the mode and propagates it to children implementing TrainingSetter.
func (s *Sequential) SetTraining(training bool) {
	s.training = training
	for _, module := range s.modules {
		if ts, ok := module.(TrainingSetter); ok {
			ts.SetTraining(training)
		}
	}
}

// Add appends a module to the sequence.
//
// This allows building models incrementally:
//
//	model := nn.NewSequential()
//	model.Add(nn.NewLinear(784, 50, false))
//	model.Add(nn.NewReLU())
func (s *Sequential) Add(module Module) {
	s.modules = append(s.modules, module)
}

// Len returns the number of modules in the sequence.
func (s *Sequential) Len() int {
	return len(s.modules)
}

// Layer returns the module at index i (0-based).
func (s *Sequential) Layer(i int) Module {
	if i < 0 || i >= len(s.modules) {
		exceptions.Panicf("Sequential.Layer: index %d out of range [0, %d)", i, len(s.modules))
	}
	return s.modules[i]
}

// String lists the layers one per line, nested containers indented.
//
//	(Sequential)
//		(Layer1) Linear(2, 50)
//		(Layer2) ReLU()
//		(Layer3) Linear(50, 3)
func (s *Sequential) String() string {
	var sb strings.Builder
	sb.WriteString("(Sequential)")
	for i, module := range s.modules {
		repr := strings.ReplaceAll(moduleName(module), "\n", "\n\t")
		fmt.Fprintf(&sb, "\n\t(Layer%d) %s", i+1, repr)
	}
	return sb.String()
}

// Summary writes a table with the parameter count of each layer and the total.
func (s *Sequential) Summary(w io.Writer) error {
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	headerStyle := cellStyle.Bold(true)
	table := lgtable.New().
		Border(lipgloss.RoundedBorder()).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == lgtable.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers("#", "Layer", "Params")

	var total int
	for i, module := range s.modules {
		count := CountParameters(module.Parameters())
		total += count
		name := strings.SplitN(moduleName(module), "\n", 2)[0]
		table.Row(fmt.Sprint(i+1), name, humanize.Comma(int64(count)))
	}
	table.Row("", "Total", humanize.Comma(int64(total)))
	_, err := fmt.Fprintln(w, table.String())
	return err
}

// CountParameters returns the number of scalar values held by params.
func CountParameters(params []*Parameter) int {
	var n int
	for _, p := range params {
		r, c := p.Data().Dims()
		n += r * c
	}
	return n
}

func moduleName(m Module) string {
	if st, ok := m.(fmt.Stringer); ok {
		return st.String()
	}
	return fmt.Sprintf("%T", m)
}
