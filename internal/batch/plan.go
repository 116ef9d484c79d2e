// Package batch turns index ranges and manifest files into dispatch tasks.
package batch

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ovn-lab/fanout/internal/dispatch"
)

// IndexPlaceholder is replaced with the task index in every templated
// field of a plan.
const IndexPlaceholder = "{index}"

// Plan expands a command template over an inclusive index range. The
// range is the single source of truth for every index-dependent value;
// per-task parameter paths cannot drift from the task that uses them.
type Plan struct {
	// From and To bound the inclusive index range.
	From int
	To   int

	// Command is the executable, shared by every task.
	Command string

	// Args may contain {index} placeholders.
	Args []string

	// Stdin lines may contain {index} placeholders.
	Stdin []string

	// OutputPath is the shared or per-task ({index}) append destination.
	OutputPath string

	// Dir is the working directory for every task.
	Dir string

	// IDPrefix names tasks "<prefix>-<index>". Defaults to "task".
	IDPrefix string
}

// Tasks materializes the plan into one task per index, in range order.
func (p Plan) Tasks() ([]dispatch.Task, error) {
	if p.Command == "" {
		return nil, fmt.Errorf("plan: command is empty")
	}
	if p.To < p.From {
		return nil, fmt.Errorf("plan: invalid range %d..%d", p.From, p.To)
	}

	prefix := p.IDPrefix
	if prefix == "" {
		prefix = "task"
	}

	tasks := make([]dispatch.Task, 0, p.To-p.From+1)
	for i := p.From; i <= p.To; i++ {
		tasks = append(tasks, dispatch.Task{
			ID:         fmt.Sprintf("%s-%d", prefix, i),
			Index:      i,
			Command:    p.Command,
			Args:       expandAll(p.Args, i),
			Stdin:      expandAll(p.Stdin, i),
			OutputPath: expand(p.OutputPath, i),
			Dir:        p.Dir,
		})
	}
	return tasks, nil
}

func expand(s string, index int) string {
	return strings.ReplaceAll(s, IndexPlaceholder, strconv.Itoa(index))
}

func expandAll(values []string, index int) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = expand(v, index)
	}
	return out
}
