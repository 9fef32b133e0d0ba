package display

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/arloliu/halo/internal/partition"
)

// TooBigMessage is printed instead of a grid larger than the display limit.
const TooBigMessage = "Not displaying grid; too big."

// Printer renders global grids as fixed-width text with block dividers.
//
// Every value prints as "%6.3f ". Each line starts with the boundary value and
// "| ", blocks are closed by "| ", and the line ends with the boundary value.
// The boundary rows above and below the grid are printed the same way, and
// dashed dividers separate them and every row block.
type Printer struct {
	w        io.Writer
	layout   partition.Layout
	boundary float32
}

// NewPrinter creates a printer for grids partitioned by layout.
func NewPrinter(w io.Writer, layout partition.Layout, boundary float32) *Printer {
	return &Printer{w: w, layout: layout, boundary: boundary}
}

// DividerWidth returns the number of dashes in a divider line.
func DividerWidth(layout partition.Layout) int {
	p, l := layout.Side, layout.Local

	return 7*(p*l+2) + 2*(p+1) - 1
}

// Print writes snap. The snapshot size must match the layout.
func (p *Printer) Print(snap *Snapshot) error {
	if snap.Size() != p.layout.GridSize {
		return fmt.Errorf("snapshot size %d does not match grid size %d", snap.Size(), p.layout.GridSize)
	}

	bw := bufio.NewWriter(p.w)
	divider := strings.Repeat("-", DividerWidth(p.layout)) + "\n"
	side, local := p.layout.Side, p.layout.Local

	p.boundaryRow(bw)
	bw.WriteString(divider)

	for rowBlock := range side {
		for row := range local {
			global := snap.Row(rowBlock*local + row)
			fmt.Fprintf(bw, "%6.3f | ", p.boundary)
			for colBlock := range side {
				for _, v := range global[colBlock*local : (colBlock+1)*local] {
					fmt.Fprintf(bw, "%6.3f ", v)
				}
				bw.WriteString("| ")
			}
			fmt.Fprintf(bw, "%6.3f\n", p.boundary)
		}
		if rowBlock != side-1 {
			bw.WriteString(divider)
		}
	}

	bw.WriteString(divider)
	p.boundaryRow(bw)

	return bw.Flush()
}

// PrintTooBig writes TooBigMessage.
func (p *Printer) PrintTooBig() error {
	_, err := fmt.Fprintln(p.w, TooBigMessage)
	return err
}

// Printf writes a formatted line fragment, used for the surrounding headers.
func (p *Printer) Printf(format string, args ...any) error {
	_, err := fmt.Fprintf(p.w, format, args...)
	return err
}

func (p *Printer) boundaryRow(bw *bufio.Writer) {
	fmt.Fprintf(bw, "%6.3f | ", p.boundary)
	for range p.layout.Side {
		for range p.layout.Local {
			fmt.Fprintf(bw, "%6.3f ", p.boundary)
		}
		bw.WriteString("| ")
	}
	fmt.Fprintf(bw, "%6.3f\n", p.boundary)
}
