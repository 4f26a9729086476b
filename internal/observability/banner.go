package observability

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

const (
	colorReset    = "\033[0m"
	colorNeonCyan = "\033[96m"
	colorNeonMag  = "\033[95m"
)

// termMu synchronizes terminal output so log writes never interleave
// mid-line with the banner or status output.
var termMu sync.Mutex

func termWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 80
	}
	return w
}

type termWriter struct{}

func (tw termWriter) Write(p []byte) (n int, err error) {
	termMu.Lock()
	defer termMu.Unlock()
	return os.Stderr.Write(p)
}

// NewTermWriter returns an io.Writer suitable for log.SetOutput(),
// serialized with the banner via termMu.
func NewTermWriter() *termWriter {
	return &termWriter{}
}

// PrintBanner clears the screen and prints the startup banner centered
// to the terminal width.
func PrintBanner() {
	banner := `
    __ __ ______ _____ ______ ____   ______ __
   / //_// ____// ___//_  __// __ \ / ____// /
  / ,<  / __/   \__ \  / /  / /_/ // __/  / /
 / /| |/ /___  ___/ / / /  / _, _// /___ / /___
/_/ |_/_____/ /____/ /_/  /_/ |_|/_____//_____/

        >> PLAN-DRIVEN EXECUTION CORE <<
`

	termMu.Lock()
	defer termMu.Unlock()

	width := termWidth()
	for _, l := range strings.Split(banner, "\n") {
		padding := (width - len(l)) / 2
		if padding < 0 {
			padding = 0
		}
		fmt.Printf("%s%s%s\n", strings.Repeat(" ", padding), colorNeonCyan+l, colorReset)
	}
	fmt.Printf("%s%s%s\n\n", colorNeonMag, strings.Repeat("─", clamp(width, 20, 120)), colorReset)
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
