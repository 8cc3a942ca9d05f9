package questionnaire

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrAborted is returned when input ends before the flow completes.
var ErrAborted = errors.New("questionnaire aborted")

// RunConsole drives f from line input. Choices are entered by number,
// several numbers separated by commas for multi-choice. "b" goes back.
func RunConsole(f *Flow, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for !f.Done() {
		q, _ := f.Current()
		pos, total := f.Position()
		fmt.Fprintf(out, "\n[%d/%d] %s\n", pos, total, q.Prompt)
		for i, o := range q.Options {
			fmt.Fprintf(out, "  %d) %s\n", i+1, o.Label)
		}
		switch {
		case q.Kind == MultiChoice:
			fmt.Fprint(out, "Numbers, comma separated")
		case q.Kind == Number:
			fmt.Fprintf(out, "Number %d-%d", q.Min, q.Max)
		default:
			fmt.Fprint(out, "Answer")
		}
		if !q.Required {
			fmt.Fprint(out, " (optional)")
		}
		fmt.Fprint(out, ", b to go back: ")

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return err
			}
			return ErrAborted
		}
		line := strings.TrimSpace(scanner.Text())
		if strings.EqualFold(line, "b") {
			if !f.Back() {
				fmt.Fprintln(out, "Already at the first question.")
			}
			continue
		}

		values, err := parseInput(q, line)
		if err == nil {
			err = f.Answer(values...)
		}
		if err == nil {
			err = f.Next()
		}
		if err != nil {
			fmt.Fprintf(out, "  ! %v\n", err)
		}
	}
	return nil
}

// parseInput turns option numbers into option values.
func parseInput(q Question, line string) ([]string, error) {
	if line == "" {
		return nil, nil
	}
	if q.Kind != SingleChoice && q.Kind != MultiChoice {
		return []string{line}, nil
	}
	var values []string
	for _, field := range strings.Split(line, ",") {
		field = strings.TrimSpace(field)
		n, err := strconv.Atoi(field)
		if err != nil || n < 1 || n > len(q.Options) {
			return nil, fmt.Errorf("%q is not one of 1-%d", field, len(q.Options))
		}
		values = append(values, q.Options[n-1].Value)
	}
	return values, nil
}
