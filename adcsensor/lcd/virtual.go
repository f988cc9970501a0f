package lcd

import "sync"

// Virtual is an in-memory 16x2 character display. It stands in for the
// HD44780 when the pipeline runs on a host.
type Virtual struct {
	mu       sync.Mutex
	cells    [Rows][Columns]byte
	col, row int
	writes   int
}

// NewVirtual returns a blank display.
func NewVirtual() *Virtual {
	v := &Virtual{}
	v.ClearDisplay()
	return v
}

func (v *Virtual) ClearDisplay() {
	v.mu.Lock()
	defer v.mu.Unlock()
	for r := range v.cells {
		for c := range v.cells[r] {
			v.cells[r][c] = ' '
		}
	}
	v.col, v.row = 0, 0
}

func (v *Virtual) SetCursor(col, row uint8) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.col, v.row = int(col), int(row)
}

// Print writes data at the cursor. A '\n' moves to the start of the next row,
// and characters past the last column are dropped, as on the real controller
// in 2-line mode.
func (v *Virtual) Print(data []byte) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, b := range data {
		if b == '\n' {
			v.row++
			v.col = 0
			continue
		}
		if v.row >= Rows {
			break
		}
		if v.col < Columns {
			v.cells[v.row][v.col] = b
		}
		v.col++
	}
	v.writes++
}

// Lines returns the current contents, one string per row.
func (v *Virtual) Lines() [Rows]string {
	v.mu.Lock()
	defer v.mu.Unlock()
	var out [Rows]string
	for r := range v.cells {
		out[r] = string(v.cells[r][:])
	}
	return out
}

// Writes returns the number of Print calls so far.
func (v *Virtual) Writes() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.writes
}
