// Package ipc is the message channel between the adapter and its worker
// processes. Messages are JSON lines written to a pipe the child inherits as
// an extra file descriptor, which keeps them apart from the child's stdout
// and stderr.
package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"sync"

	"github.com/Code-Grump/vscode-cucumber-test-adapter/testapi"
)

// EnvFD names the environment variable that carries the descriptor number of
// the inherited channel.
const EnvFD = "CUCUMBER_EXPLORER_IPC_FD"

const (
	KindLog        = "log"
	KindSuite      = "suite"
	KindSuiteState = "suite-state"
	KindTestState  = "test-state"
	KindFinished   = "finished"
)

// maxMessageSize bounds a single line; a feature suite is one line.
const maxMessageSize = 16 << 20

type Message struct {
	Kind    string                 `json:"kind"`
	Text    string                 `json:"text,omitempty"`
	Suite   *testapi.TestSuiteInfo `json:"suite,omitempty"`
	ID      string                 `json:"id,omitempty"`
	State   string                 `json:"state,omitempty"`
	Message string                 `json:"message,omitempty"`
	Success bool                   `json:"success,omitempty"`
}

// Sender writes messages; it is safe for concurrent use.
type Sender struct {
	mu  sync.Mutex
	w   io.Writer
	enc *json.Encoder
}

func NewSender(w io.Writer) *Sender {
	return &Sender{w: w, enc: json.NewEncoder(w)}
}

// FromEnvironment opens the channel inherited from the adapter. A process not
// spawned by the adapter gets a sender that discards everything.
func FromEnvironment() *Sender {
	fd, err := strconv.Atoi(os.Getenv(EnvFD))
	if err != nil || fd < 3 {
		return NewSender(io.Discard)
	}
	return NewSender(os.NewFile(uintptr(fd), "ipc"))
}

func (s *Sender) Send(m Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(m)
}

// Log sends a free text line.
func (s *Sender) Log(format string, args ...any) error {
	return s.Send(Message{Kind: KindLog, Text: fmt.Sprintf(format, args...)})
}

func (s *Sender) SendSuite(suite *testapi.TestSuiteInfo) error {
	return s.Send(Message{Kind: KindSuite, Suite: suite})
}

func (s *Sender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Receive calls fn for every message read from r until EOF.
func Receive(r io.Reader, fn func(Message)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxMessageSize)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var m Message
		if err := json.Unmarshal(line, &m); err != nil {
			return fmt.Errorf("decode worker message: %w", err)
		}
		fn(m)
	}
	return scanner.Err()
}

// Attach gives cmd the write end of a fresh channel and returns both ends.
// The caller closes w once cmd has started and reads r until EOF.
func Attach(cmd *exec.Cmd) (r, w *os.File, err error) {
	r, w, err = os.Pipe()
	if err != nil {
		return nil, nil, fmt.Errorf("create ipc pipe: %w", err)
	}

	cmd.ExtraFiles = append(cmd.ExtraFiles, w)
	fd := 2 + len(cmd.ExtraFiles)

	if cmd.Env == nil {
		cmd.Env = os.Environ()
	}
	cmd.Env = append(cmd.Env, EnvFD+"="+strconv.Itoa(fd))

	return r, w, nil
}
