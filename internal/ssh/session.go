package ssh

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"unicode"

	"github.com/gdamore/tcell/v2"
	gossh "github.com/gliderlabs/ssh"
	xssh "golang.org/x/crypto/ssh"

	"nise/internal/game"
	"nise/internal/i18n"
	"nise/internal/scene"
	"nise/internal/visitlog"
)

// DefaultTerm is used when the client sends a TERM we do not trust.
const DefaultTerm = "xterm-256color"

// allowedTerms are the TERM values passed through to terminfo lookup.
var allowedTerms = map[string]bool{
	"xterm":                 true,
	"xterm-256color":        true,
	"screen":                true,
	"screen-256color":       true,
	"tmux":                  true,
	"tmux-256color":         true,
	"linux":                 true,
	"vt100":                 true,
	"rxvt-unicode":          true,
	"rxvt-unicode-256color": true,
}

// maxNameBytes bounds user names recorded in logs and visits.
const maxNameBytes = 16

// sanitizeName drops control characters and truncates to maxNameBytes
// without splitting a rune.
func sanitizeName(name string) string {
	var sb strings.Builder
	for _, r := range name {
		if unicode.IsControl(r) {
			continue
		}
		if sb.Len()+len(string(r)) > maxNameBytes {
			break
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// termFor picks the TERM for a session: the PTY request first, then the
// session environment, falling back to DefaultTerm.
func termFor(pty gossh.Pty, environ []string) string {
	term := pty.Term
	if term == "" {
		for _, env := range environ {
			if v, ok := strings.CutPrefix(env, "TERM="); ok {
				term = v
				break
			}
		}
	}
	if !allowedTerms[term] {
		return DefaultTerm
	}
	return term
}

// termMu serializes the TERM environment swap around screen creation.
var termMu sync.Mutex

// NewScreen creates and initializes a tcell screen drawing to s.
func NewScreen(s gossh.Session, pty gossh.Pty, winCh <-chan gossh.Window) (tcell.Screen, error) {
	tty := NewSessionTty(s, pty, winCh)
	termMu.Lock()
	_ = os.Setenv("TERM", termFor(pty, s.Environ()))
	screen, err := tcell.NewTerminfoScreenFromTty(tty)
	termMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("terminal setup: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("screen init: %w", err)
	}
	return screen, nil
}

// Handler runs one game per SSH session.
type Handler struct {
	Config scene.Config
	Visits visitlog.Store
	Logger *slog.Logger
}

// Handle is a gliderlabs/ssh handler. It blocks for the whole session.
func (h *Handler) Handle(s gossh.Session) {
	log := h.Logger
	if log == nil {
		log = slog.Default()
	}
	user := sanitizeName(s.User())
	log = log.With("user", user, "remote", s.RemoteAddr().String())

	pty, winCh, ok := s.Pty()
	if !ok {
		writeNoPty(s)
		log.Info("ssh session rejected: no pty")
		return
	}
	screen, err := NewScreen(s, pty, winCh)
	if err != nil {
		fmt.Fprintf(s, "%v\n", err)
		log.Warn("ssh screen setup failed", "error", err)
		return
	}
	log.Info("ssh session started", "term", termFor(pty, s.Environ()), "cols", pty.Window.Width, "rows", pty.Window.Height)

	g := game.New(screen, game.Options{
		Config: h.Config,
		Visits: h.Visits,
		Client: "ssh:" + user,
		Logger: log,
	})
	if err := g.Run(s.Context()); err != nil {
		log.Info("ssh session ended", "reason", err)
		return
	}
	fmt.Fprintln(s, i18n.T("SSH_GOODBYE"))
	log.Info("ssh session ended")
}

// writeNoPty tells a client that connected without a PTY how to retry.
func writeNoPty(w io.Writer) {
	fmt.Fprintln(w, i18n.T("SSH_NEEDS_PTY"))
}

// HostKey loads a PEM private key from path, or generates an ed25519 key and
// writes it there. Failing to persist a new key is logged, not returned.
func HostKey(path string, log *slog.Logger) (gossh.Signer, error) {
	if data, err := os.ReadFile(path); err == nil {
		signer, err := xssh.ParsePrivateKey(data)
		if err != nil {
			return nil, fmt.Errorf("parse host key %s: %w", path, err)
		}
		log.Info("loaded host key", "path", path)
		return signer, nil
	}

	log.Info("generating ed25519 host key", "path", path)
	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate host key: %w", err)
	}
	signer, err := xssh.NewSignerFromKey(key)
	if err != nil {
		return nil, fmt.Errorf("create signer: %w", err)
	}
	block, err := xssh.MarshalPrivateKey(key, "nise server")
	if err != nil {
		log.Warn("host key not saved", "error", err)
		return signer, nil
	}
	if err := os.WriteFile(path, pem.EncodeToMemory(block), 0o600); err != nil {
		log.Warn("host key not saved", "path", path, "error", err)
	}
	return signer, nil
}
