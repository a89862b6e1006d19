package linking

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
)

// ConsoleProvider completes the hosted flow in a terminal: it prints the link token
// and reads the provider's success payload as one line of JSON. An empty line or
// "exit" leaves the flow.
type ConsoleProvider struct {
	out io.Writer

	mu      sync.Mutex
	in      *bufio.Reader
	pending chan readResult // a read left running by a cancelled Open
}

type readResult struct {
	line string
	err  error
}

// NewConsoleProvider reads answers from in and writes prompts to out.
func NewConsoleProvider(in io.Reader, out io.Writer) *ConsoleProvider {
	return &ConsoleProvider{in: bufio.NewReader(in), out: out}
}

// Ready is immediate; the console is always available.
func (p *ConsoleProvider) Ready(ctx context.Context) error {
	return ctx.Err()
}

func (p *ConsoleProvider) Open(ctx context.Context, token string) (*Success, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.out, "Open the link flow with token %s\n", token)
	fmt.Fprintln(p.out, `Paste the success payload ({"publicToken":...,"metadata":{...}}), or press Enter to cancel:`)

	if p.pending == nil {
		ch := make(chan readResult, 1)
		go func() {
			line, err := p.in.ReadString('\n')
			ch <- readResult{line, err}
		}()
		p.pending = ch
	}

	var r readResult
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r = <-p.pending:
		p.pending = nil
	}

	line := strings.TrimSpace(r.line)
	if line == "" || strings.EqualFold(line, "exit") {
		return nil, ErrLinkExited
	}
	if r.err != nil && r.err != io.EOF {
		return nil, fmt.Errorf("Open: read: %w", r.err)
	}

	var s Success
	if err := json.Unmarshal([]byte(line), &s); err != nil {
		return nil, fmt.Errorf("Open: decode payload: %w", err)
	}
	if s.PublicToken == "" {
		return nil, fmt.Errorf("Open: payload has no public token")
	}
	return &s, nil
}

var _ Provider = (*ConsoleProvider)(nil)
