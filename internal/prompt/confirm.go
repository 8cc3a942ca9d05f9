package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/oukeidos/skinscan/internal/reconcile"
)

type Confirmer struct {
	In            io.Reader
	Out           io.Writer
	IsInteractive func() bool
}

func DefaultConfirmer() Confirmer {
	return Confirmer{
		In:  os.Stdin,
		Out: os.Stdout,
		IsInteractive: func() bool {
			info, err := os.Stdin.Stat()
			if err != nil {
				return false
			}
			return (info.Mode() & os.ModeCharDevice) != 0
		},
	}
}

func (c Confirmer) interactive() bool {
	return c.IsInteractive != nil && c.IsInteractive()
}

func (c Confirmer) readLine() (string, error) {
	reader := bufio.NewReader(c.In)
	response, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(response), nil
}

// ConfirmOverwrite asks before replacing an existing report file.
func (c Confirmer) ConfirmOverwrite(path string, force bool) (bool, error) {
	if force {
		return true, nil
	}
	if !c.interactive() {
		return false, fmt.Errorf("non-interactive stdin: use -y to overwrite existing output")
	}
	if c.Out != nil {
		fmt.Fprintf(c.Out, "Warning: Output file %s already exists. Overwrite? (y/n): ", path)
	}
	response, err := c.readLine()
	if err != nil {
		return false, err
	}
	return strings.ToLower(response) == "y", nil
}

// Choose shows a numbered list and reports the answer through pick. Input may
// be the number or the first letter of a label. Without a terminal, or when
// stdin is closed, the last choice is picked.
func (c Confirmer) Choose(title, message string, choices []reconcile.Choice, pick func(reconcile.Choice)) {
	if len(choices) == 0 {
		return
	}
	fallback := choices[len(choices)-1]
	if c.Out != nil {
		fmt.Fprintf(c.Out, "\n%s\n%s\n", title, message)
		for i, ch := range choices {
			fmt.Fprintf(c.Out, "  %d) %s\n", i+1, ch.Label)
		}
	}
	if !c.interactive() {
		if c.Out != nil {
			fmt.Fprintf(c.Out, "Non-interactive stdin: choosing %q.\n", fallback.Label)
		}
		pick(fallback)
		return
	}

	for attempt := 0; attempt < 3; attempt++ {
		if c.Out != nil {
			fmt.Fprint(c.Out, "Choose: ")
		}
		response, err := c.readLine()
		if err != nil || response == "" {
			break
		}
		if ch, ok := matchChoice(response, choices); ok {
			pick(ch)
			return
		}
		if c.Out != nil {
			fmt.Fprintf(c.Out, "Unrecognized choice %q.\n", response)
		}
	}
	pick(fallback)
}

func matchChoice(response string, choices []reconcile.Choice) (reconcile.Choice, bool) {
	if n, err := strconv.Atoi(response); err == nil {
		if n >= 1 && n <= len(choices) {
			return choices[n-1], true
		}
		return reconcile.Choice{}, false
	}
	response = strings.ToLower(response)
	for _, ch := range choices {
		label := strings.ToLower(ch.Label)
		if label == response || strings.HasPrefix(label, response) {
			return ch, true
		}
	}
	return reconcile.Choice{}, false
}
