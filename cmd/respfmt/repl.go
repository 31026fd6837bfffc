package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/cosmez/respfmt/internal/cluster"
	"github.com/cosmez/respfmt/internal/command"
	"github.com/cosmez/respfmt/internal/conn"
)

// session is the state of one interactive REPL.
type session struct {
	ctx    context.Context
	rl     *readline.Instance
	conn   *conn.Connection
	reg    *command.Registry
	part   cluster.Partitioner
	router *cluster.Router
}

// replCompleter implements readline.AutoCompleter for tab completion.
type replCompleter struct {
	reg *command.Registry
}

// Do completes the first word of the line from the command table.
func (c *replCompleter) Do(line []rune, pos int) (newLine [][]rune, length int) {
	text := string(line[:pos])
	if strings.Contains(text, " ") {
		return nil, 0
	}
	for _, match := range c.reg.GetCommands(text) {
		newLine = append(newLine, []rune(match[len(text):]+" "))
	}
	return newLine, len(text)
}

// replHinter shows the argument hint of the command being typed on the line
// below the input. Paint clears a stale hint; OnChange draws the new one with
// direct terminal writes after readline has positioned the cursor.
type replHinter struct {
	reg       *command.Registry
	promptLen int
	termWidth int
}

func (h *replHinter) Paint(line []rune, pos int) []rune {
	out := make([]rune, len(line), len(line)+3)
	copy(out, line)
	return append(out, []rune("\033[J")...)
}

func (h *replHinter) OnChange(line []rune, pos int, key rune) ([]rune, int, bool) {
	text := string(line)
	name, rest, hasArgs := strings.Cut(text, " ")
	if name == "" {
		return nil, 0, false
	}

	// Upper-case a known command name as it is typed.
	if upper := strings.ToUpper(name); name != upper && h.reg.Get(upper) != nil {
		return []rune(upper + text[len(name):]), pos, true
	}
	if !hasArgs {
		return nil, 0, false
	}

	doc := h.reg.Lookup(append([]string{name}, strings.Fields(rest)...))
	if doc == nil {
		return nil, 0, false
	}

	hint := doc.Command + " " + doc.Arguments
	rows := 1
	if width := 2 + len(hint) + 3 + len(doc.Summary); h.termWidth > 0 {
		rows = (width + h.termWidth - 1) / h.termWidth
	}

	// Newline, clear, colored hint, then back up and over to the cursor.
	fmt.Fprintf(os.Stdout, "\n\r\033[K  \033[36m%s\033[0m\033[34m - %s\033[0m\033[%dA\r\033[%dC",
		hint, doc.Summary, rows, h.promptLen+pos)
	return nil, 0, false
}

func prompt() string {
	if len(cfg.Gateways) > 0 {
		return fmt.Sprintf("%s (+%d)> ", cfg.Addr(), len(cfg.Gateways))
	}
	return cfg.Addr() + "> "
}

func runRepl(ctx context.Context) error {
	reg, err := command.NewRegistry()
	if err != nil {
		return fmt.Errorf("failed to load commands: %w", err)
	}
	part, err := cluster.ByName(cfg.SlotHash, cfg.Slots)
	if err != nil {
		return err
	}
	router, err := cluster.NewRouter(part, cfg.Addrs())
	if err != nil {
		return err
	}

	c, err := conn.Connect(ctx, cfg.Addr(), cfg.Username, cfg.Password, log)
	if err != nil {
		return err
	}
	s := &session{ctx: ctx, conn: c, reg: reg, part: part, router: router}
	defer func() { s.conn.Close() }()

	s.mergeServerCommands()
	printConnectionInfo(c)

	homeDir, _ := os.UserHomeDir()
	tw, _, _ := term.GetSize(int(os.Stdout.Fd()))
	hinter := &replHinter{reg: reg, promptLen: len(prompt()), termWidth: tw}

	s.rl, err = readline.NewEx(&readline.Config{
		Prompt:          prompt(),
		HistoryFile:     filepath.Join(homeDir, ".respfmt_history"),
		AutoComplete:    &replCompleter{reg: reg},
		Painter:         hinter,
		Listener:        hinter,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize readline: %w", err)
	}
	defer s.rl.Close()

	for {
		line, err := s.rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if len(line) == 0 {
				return nil
			}
			continue
		} else if errors.Is(err, io.EOF) {
			return nil
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		parsed, err := command.Parse(line, reg, nil)
		if err != nil {
			color.Red("Parse error: %v", err)
			continue
		}
		if parsed.Name == "" {
			continue
		}

		if !s.handleCommand(parsed) {
			return nil
		}

		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
			hinter.termWidth = w
		}
		hinter.promptLen = len(prompt())
	}
}

func printConnectionInfo(c *conn.Connection) {
	if c.ServerInfo == nil {
		return
	}
	if errStr, ok := c.ServerInfo["error"]; ok {
		color.Yellow("Warning: Could not fetch server info: %s", errStr)
		return
	}

	mode := c.ServerInfo["redis_mode"]
	if mode == "" {
		mode = "standalone"
	}
	color.Green("Connected to Redis %s %s", c.ServerInfo["redis_version"], mode)

	memTotal := c.ServerInfo["total_system_memory_human"]
	if memTotal == "" {
		memTotal = "Unknown"
	}
	color.Cyan("Memory: %s / %s", c.ServerInfo["used_memory_human"], memTotal)
	color.Cyan("Connected Clients: %s", c.ServerInfo["connected_clients"])

	// Keyspace lines look like db0:keys=150,expires=0,avg_ttl=0.
	for k, v := range c.ServerInfo {
		if !strings.HasPrefix(k, "db") {
			continue
		}
		first, _, _ := strings.Cut(v, ",")
		if _, keys, ok := strings.Cut(first, "="); ok {
			color.Cyan("%s (%s Total Keys)", k, keys)
		}
	}
	fmt.Println()
}

// mergeServerCommands adds the server's COMMAND table to the registry for
// completion and key positions. Failures are not fatal.
func (s *session) mergeServerCommands() {
	cmds, err := s.conn.FetchServerCommands()
	if err != nil {
		log.Warn("COMMAND unavailable", zap.Error(err))
		color.Yellow("Warning: Could not fetch server commands: %v", err)
		return
	}
	if cmds != nil {
		s.reg.MergeServerCommands(cmds)
		log.Debug("merged server commands", zap.Int("count", len(cmds)))
	}
}
