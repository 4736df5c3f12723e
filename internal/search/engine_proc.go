package search

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// ProcessEngine runs the search engine as an isolated subprocess speaking a
// line protocol over stdin/stdout:
//
//	-> fp                      handshake
//	<- fpok
//	-> isready
//	<- readyok
//	-> state <serialized>
//	-> go movetime <ms>
//	<- option <move> <visits> <total_score>   (repeated)
//	<- done <total_visits>
//	-> quit
//
// One process per worker keeps search tasks free of shared mutable state.
type ProcessEngine struct {
	path string

	cmd     *exec.Cmd
	stdin   io.WriteCloser
	scanner *bufio.Scanner

	mu     sync.Mutex
	closed bool
	exited chan struct{}
}

// NewProcessEngine spawns the engine binary and performs the handshake.
func NewProcessEngine(path string) (*ProcessEngine, error) {
	e := &ProcessEngine{path: path}
	if err := e.start(); err != nil {
		return nil, fmt.Errorf("search: start engine: %w", err)
	}
	if err := e.handshake(); err != nil {
		e.Close()
		return nil, fmt.Errorf("search: engine handshake: %w", err)
	}
	return e, nil
}

func (e *ProcessEngine) start() error {
	e.cmd = exec.Command(e.path)

	var err error
	e.stdin, err = e.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := e.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	e.scanner = bufio.NewScanner(stdout)
	e.scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	e.exited = make(chan struct{})

	if err := e.cmd.Start(); err != nil {
		return fmt.Errorf("start process: %w", err)
	}

	go func() {
		e.cmd.Wait()
		close(e.exited)
	}()
	return nil
}

func (e *ProcessEngine) handshake() error {
	e.send("fp")
	if err := e.readUntil("fpok"); err != nil {
		return fmt.Errorf("waiting for fpok: %w", err)
	}
	e.send("isready")
	if err := e.readUntil("readyok"); err != nil {
		return fmt.Errorf("waiting for readyok: %w", err)
	}
	return nil
}

// Search sends the state and budget to the engine process and parses its
// option lines. If the engine overruns its budget beyond the tolerance, a
// "stop" is sent and the forced result is read.
func (e *ProcessEngine) Search(ctx context.Context, state string, budget time.Duration) (*Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, fmt.Errorf("search: engine is closed")
	}

	e.send("state " + state)
	e.send(fmt.Sprintf("go movetime %d", budget.Milliseconds()))

	type outcome struct {
		res *Result
		err error
	}
	ch := make(chan outcome, 1)
	go func() {
		res, err := e.readResult()
		ch <- outcome{res, err}
	}()

	deadline := budget + budget/2 + 500*time.Millisecond
	select {
	case out := <-ch:
		return out.res, out.err
	case <-time.After(deadline):
		log.Warn().Dur("budget", budget).Msg("Engine overran budget, sending stop")
		e.send("stop")
		select {
		case out := <-ch:
			return out.res, out.err
		case <-time.After(3 * time.Second):
			return nil, fmt.Errorf("search: engine unresponsive after stop")
		}
	case <-ctx.Done():
		// The reader goroutine still owns the scanner. Abandon the process
		// instead of handing the stream to a later search.
		e.closed = true
		if e.cmd != nil && e.cmd.Process != nil {
			e.cmd.Process.Kill()
		}
		return nil, ctx.Err()
	}
}

func (e *ProcessEngine) readResult() (*Result, error) {
	res := &Result{}
	for e.scanner.Scan() {
		line := strings.TrimSpace(e.scanner.Text())
		switch {
		case strings.HasPrefix(line, "option "):
			f := strings.Fields(line)
			if len(f) != 4 {
				return nil, fmt.Errorf("search: malformed option line %q", line)
			}
			visits, err := strconv.Atoi(f[2])
			if err != nil {
				return nil, fmt.Errorf("search: option visits %q: %w", f[2], err)
			}
			score, err := strconv.ParseFloat(f[3], 64)
			if err != nil {
				return nil, fmt.Errorf("search: option score %q: %w", f[3], err)
			}
			res.Options = append(res.Options, MoveOption{Move: f[1], Visits: visits, TotalScore: score})
		case strings.HasPrefix(line, "done "):
			total, err := strconv.Atoi(strings.TrimPrefix(line, "done "))
			if err != nil {
				return nil, fmt.Errorf("search: done line %q: %w", line, err)
			}
			res.TotalVisits = total
			return res, nil
		}
	}
	if err := e.scanner.Err(); err != nil {
		return nil, fmt.Errorf("search: read engine output: %w", err)
	}
	return nil, fmt.Errorf("search: engine closed its output stream")
}

func (e *ProcessEngine) readUntil(expected string) error {
	for e.scanner.Scan() {
		if strings.TrimSpace(e.scanner.Text()) == expected {
			return nil
		}
	}
	if err := e.scanner.Err(); err != nil {
		return err
	}
	return fmt.Errorf("stream ended before %q", expected)
}

func (e *ProcessEngine) send(line string) {
	fmt.Fprintf(e.stdin, "%s\n", line)
}

// Close sends quit and waits for process exit, killing after 3 seconds.
func (e *ProcessEngine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	if e.stdin != nil {
		fmt.Fprintf(e.stdin, "quit\n")
	}
	e.closed = true
	e.mu.Unlock()

	if e.stdin != nil {
		e.stdin.Close()
	}
	if e.exited != nil {
		select {
		case <-e.exited:
		case <-time.After(3 * time.Second):
			log.Warn().Msg("Engine did not exit within 3s, killing")
			if e.cmd != nil && e.cmd.Process != nil {
				e.cmd.Process.Kill()
			}
			<-e.exited
		}
	}
	return nil
}
