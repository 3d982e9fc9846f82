package learner

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/schollz/progressbar/v3"
	"k8s.io/klog/v2"
)

var (
	cellStyle         = lipgloss.NewStyle().Padding(0, 1)
	rightAlignedStyle = cellStyle.Align(lipgloss.Right)
	headerStyle       = cellStyle.Bold(true)
)

// ProgressViewer shows a bar over the epochs and a bar over the batches of
// the current pass. It takes over Learner.Logger during the fit, which Fit
// restores on return, and prints the logged rows as a table when the fit
// ends.
//
// It runs before the other callbacks, so their BeforeFit already logs to it.
type ProgressViewer struct {
	BaseCallback
	Out io.Writer

	master, child *progressbar.ProgressBar
	table         *lgtable.Table
	hasHeader     bool
}

// NewProgressViewer creates a ProgressViewer writing to out, os.Stderr if nil.
func NewProgressViewer(out io.Writer) *ProgressViewer {
	if out == nil {
		out = os.Stderr
	}
	return &ProgressViewer{Out: out}
}

func (p *ProgressViewer) Order() int { return -1 }

func (p *ProgressViewer) newBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(p.Out),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetTheme(progressbar.ThemeASCII),
	)
}

func (p *ProgressViewer) BeforeFit(l *Learner) Signal {
	p.master = p.newBar(l.NumEpochs, "epochs")
	p.table = lgtable.New().
		Border(lipgloss.RoundedBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == lgtable.HeaderRow:
				return headerStyle
			case col == 0:
				return rightAlignedStyle
			}
			return cellStyle
		})
	p.hasHeader = false
	l.Logger = p
	return Continue
}

func (p *ProgressViewer) BeforeEpoch(l *Learner) Signal {
	p.child = p.newBar(l.Data.Train.Len(), fmt.Sprintf("epoch %d train", l.Epoch))
	return Continue
}

func (p *ProgressViewer) BeforeValid(l *Learner) Signal {
	p.finishChild()
	p.child = p.newBar(l.Data.Valid.Len(), fmt.Sprintf("epoch %d valid", l.Epoch))
	return Continue
}

func (p *ProgressViewer) AfterBatch(l *Learner) Signal {
	if p.child != nil {
		_ = p.child.Set(l.ItersCount)
	}
	return Continue
}

func (p *ProgressViewer) AfterEpoch(l *Learner) Signal {
	p.finishChild()
	_ = p.master.Set(l.Epoch)
	return Continue
}

func (p *ProgressViewer) AfterFit(*Learner) Signal {
	p.finishChild()
	_ = p.master.Finish()
	_, _ = fmt.Fprintln(p.Out)
	if p.hasHeader {
		_, _ = fmt.Fprintln(p.Out, p.table.String())
	}
	return Continue
}

func (p *ProgressViewer) finishChild() {
	if p.child != nil {
		_ = p.child.Finish()
		p.child = nil
	}
}

// Log adds a row to the table shown at the end of the fit; the first row
// becomes its header.
func (p *ProgressViewer) Log(cols []string) {
	klog.V(1).Info(cols)
	if !p.hasHeader {
		p.table.Headers(cols...)
		p.hasHeader = true
		return
	}
	p.table.Row(cols...)
}

func (p *ProgressViewer) String() string { return "ProgressViewer" }
