package runner

import (
	"context"
	"regexp"
	"sync"
)

// MockCommand answers any command whose rendered string matches Pattern.
type MockCommand struct {
	Pattern  string
	Stdout   string
	Stderr   string
	ExitCode int
	Error    error
}

// MockExecutor replays canned results and records every command it saw.
// Commands that match no pattern succeed with empty output.
type MockExecutor struct {
	mu       sync.Mutex
	commands []MockCommand
	calls    []Cmd
}

var _ Executor = (*MockExecutor)(nil)

func NewMockExecutor(commands ...MockCommand) *MockExecutor {
	return &MockExecutor{commands: commands, calls: nil}
}

func (m *MockExecutor) Run(_ context.Context, c Cmd) (*Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, c)

	rendered := c.String()
	for _, mc := range m.commands {
		if ok, _ := regexp.MatchString(mc.Pattern, rendered); !ok {
			continue
		}
		if mc.Error != nil {
			return nil, mc.Error
		}
		return &Result{
			Stdout:   []byte(mc.Stdout),
			Stderr:   []byte(mc.Stderr),
			ExitCode: mc.ExitCode,
		}, nil
	}
	return &Result{Stdout: nil, Stderr: nil, ExitCode: 0}, nil
}

// Calls returns the commands run so far, in order.
func (m *MockExecutor) Calls() []Cmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Cmd(nil), m.calls...)
}

// CallStrings returns Calls rendered with Cmd.String.
func (m *MockExecutor) CallStrings() []string {
	calls := m.Calls()
	out := make([]string, 0, len(calls))
	for _, c := range calls {
		out = append(out, c.String())
	}
	return out
}
