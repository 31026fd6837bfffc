package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/cosmez/respfmt/internal/cluster"
	"github.com/cosmez/respfmt/internal/command"
	"github.com/cosmez/respfmt/internal/conn"
	"github.com/cosmez/respfmt/internal/output"
	"github.com/cosmez/respfmt/internal/serializer"
)

var blockingCmds = map[string]bool{
	"BLPOP": true, "BRPOP": true, "BLMOVE": true, "XREAD": true,
	"BZPOPMIN": true, "BZPOPMAX": true, "WAIT": true,
}

// handleCommand runs one REPL line. It returns false when the REPL should exit.
func (s *session) handleCommand(parsed *command.ParsedCommand) bool {
	switch parsed.Name {
	case "EXIT":
		return false
	case "CLEAR":
		fmt.Print("\033[2J\033[H")
	case "HELP":
		s.handleHelp(parsed)
	case "CONNECT":
		s.handleConnect(parsed)
	case "SAFEKEYS":
		s.handleSafeKeys(parsed)
	case "VIEW":
		s.handleView(parsed)
	case "ENCODE":
		s.handleEncode(parsed)
	case "SLOT":
		s.handleSlot(parsed)
	case "SUBSCRIBE", "PSUBSCRIBE", "SSUBSCRIBE":
		s.handleSubscribe(parsed)
	default:
		s.handleStandardCommand(parsed)
	}
	return true
}

func (s *session) handleHelp(parsed *command.ParsedCommand) {
	if len(parsed.Args) == 0 {
		color.Yellow("Usage: HELP <command>")
		return
	}
	doc := s.reg.Lookup(parsed.Args)
	if doc == nil {
		color.Red("Unknown command: %s", strings.ToUpper(parsed.Args[0]))
		return
	}
	color.Cyan("%s %s", doc.Command, doc.Arguments)
	fmt.Println(doc.Summary)
	if doc.Since != "" {
		color.Blue("Since: %s", doc.Since)
	}
	if doc.FirstKey > 0 {
		color.Blue("Key at argument %d", doc.FirstKey)
	}
}

func (s *session) handleConnect(parsed *command.ParsedCommand) {
	if len(parsed.Args) < 2 {
		color.Red("Usage: CONNECT <host> <port> [user] [pass]")
		return
	}
	port, err := strconv.Atoi(parsed.Args[1])
	if err != nil {
		color.Red("Invalid port %q", parsed.Args[1])
		return
	}

	next := *cfg
	next.Host, next.Port = parsed.Args[0], port
	next.Username, next.Password = "", ""
	switch {
	case len(parsed.Args) == 3:
		next.Password = parsed.Args[2]
	case len(parsed.Args) >= 4:
		next.Username, next.Password = parsed.Args[2], parsed.Args[3]
	}
	if err := next.Validate(); err != nil {
		color.Red("Invalid connection settings: %v", err)
		return
	}

	newConn, err := conn.Connect(s.ctx, next.Addr(), next.Username, next.Password, log)
	if err != nil {
		color.Red("Connection failed: %v", err)
		return
	}
	router, err := cluster.NewRouter(s.part, next.Addrs())
	if err != nil {
		newConn.Close()
		color.Red("Routing failed: %v", err)
		return
	}

	s.conn.Close()
	s.conn, s.router = newConn, router
	*cfg = next

	s.mergeServerCommands()
	s.rl.SetPrompt(prompt())
	printConnectionInfo(s.conn)
}

func (s *session) handleSafeKeys(parsed *command.ParsedCommand) {
	pattern := "*"
	if len(parsed.Args) > 0 {
		pattern = parsed.Args[0]
	}
	opts := output.PrintOpts{Color: true, Newline: true}
	output.PrintRedisValues(os.Stdout, os.Stdin, s.conn.SafeKeys(pattern), opts, 100)
}

func (s *session) handleView(parsed *command.ParsedCommand) {
	if len(parsed.Args) == 0 {
		color.Red("Usage: VIEW <key>")
		return
	}

	typeName, single, collection, err := s.conn.GetKeyValue(parsed.Args[0])
	if err == conn.ErrNoSuchKey {
		color.Yellow("Key not found")
		return
	}
	if err != nil {
		color.Red("Error: %v", err)
		return
	}

	opts, ok := printOpts(parsed)
	if !ok {
		return
	}
	if single != nil {
		output.PrintRedisValue(os.Stdout, single, opts)
	} else if collection != nil {
		opts.TypeHint = typeName
		output.PrintRedisValues(os.Stdout, os.Stdin, collection, opts, 100)
	}
}

// handleEncode prints the frame of the rest of the line without sending it.
// A first argument containing '%' is taken as a template for the others.
func (s *session) handleEncode(parsed *command.ParsedCommand) {
	if len(parsed.Args) == 0 {
		color.Red(`Usage: ENCODE <command> [args...] | ENCODE "<template>" [args...]`)
		return
	}

	key := keyObserver(s.part, s.reg)
	rec := &output.FrameRecorder{Next: key}

	var frame []byte
	if strings.Contains(parsed.Args[0], "%") {
		var err error
		frame, err = command.FormatText(rec, parsed.Args[0], parsed.Args[1:]...)
		if err != nil {
			color.Red("Encode error: %v", err)
			return
		}
	} else {
		frame = command.FormatStrings(rec, parsed.Args...)
	}
	output.PrintFrame(os.Stdout, frame, rec.Args, key, true)
}

func (s *session) handleSlot(parsed *command.ParsedCommand) {
	if len(parsed.Args) == 0 {
		color.Red("Usage: SLOT <key>")
		return
	}
	for _, k := range parsed.Args {
		key := []byte(k)
		slot := s.part.Slot(key)
		addr, err := s.router.Pick(slot)
		if err != nil {
			color.Red("Error: %v", err)
			return
		}
		fmt.Printf("%s ", output.Preview(key))
		color.New(color.FgHiGreen).Printf("%s slot %d", s.part.Name, slot)
		if tag := cluster.HashTag(key); s.part.HashTags && len(tag) != len(key) {
			fmt.Printf(" (tag %s)", output.Preview(tag))
		}
		fmt.Printf(" -> %s\n", addr)
	}
}

func (s *session) handleSubscribe(parsed *command.ParsedCommand) {
	if err := s.conn.Send(parsed.CommandBytes); err != nil {
		color.Red("Send error: %v", err)
		return
	}

	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	color.Yellow("Subscribed. Press Ctrl+C to stop.")

	done := make(chan struct{})
	go func() {
		defer close(done)
		opts := output.PrintOpts{Color: true, Newline: true}
		for msg := range s.conn.Subscribe(ctx) {
			if parsed.Pipe != "" {
				output.PipeRedisValue(os.Stdout, msg, parsed.Pipe)
			} else {
				output.PrintRedisValue(os.Stdout, msg, opts)
			}
		}
	}()

	for {
		if _, err := s.rl.Readline(); err == readline.ErrInterrupt {
			break
		}
	}
	cancel()
	<-done

	// The connection is still in subscriber mode; start over with a fresh one.
	newConn, err := conn.Connect(s.ctx, cfg.Addr(), cfg.Username, cfg.Password, log)
	if err != nil {
		color.Red("Reconnect failed: %v", err)
		return
	}
	s.conn.Close()
	s.conn = newConn
}

// confirmDangerous asks before running commands such as FLUSHALL. It reads
// stdin one byte at a time so readline keeps the rest.
func confirmDangerous(name string) bool {
	color.Yellow("The command %s is considered dangerous to execute, execute anyway? (Y/N)", name)
	if name == "KEYS" {
		color.Cyan("Hint: You can execute SAFEKEYS or SCAN instead.")
	}

	var ans []byte
	buf := make([]byte, 1)
	for {
		n, err := os.Stdin.Read(buf)
		if n > 0 {
			if buf[0] == '\n' {
				break
			}
			ans = append(ans, buf[0])
		}
		if err != nil {
			break
		}
	}
	a := strings.TrimSpace(string(ans))
	return a != "" && (a[0] == 'Y' || a[0] == 'y')
}

func printOpts(parsed *command.ParsedCommand) (output.PrintOpts, bool) {
	opts := output.PrintOpts{Color: true, Newline: true}
	if parsed.Modifier != "" {
		ser, err := serializer.Get(parsed.Modifier)
		if err != nil {
			color.Red("Serializer error: %v", err)
			return opts, false
		}
		opts.Serializer = ser
	}
	return opts, true
}

func (s *session) handleStandardCommand(parsed *command.ParsedCommand) {
	if s.reg.IsDangerous(parsed.Name) && !confirmDangerous(parsed.Name) {
		color.Yellow("Aborted.")
		return
	}

	timeout := cfg.Timeout
	if blockingCmds[parsed.Name] {
		timeout = 0
	}

	start := time.Now()
	val, err := s.conn.RoundTrip(parsed.CommandBytes, timeout)
	if err != nil {
		color.Red("Error: %v", err)
		return
	}
	log.Debug("reply", zap.String("command", parsed.Name), zap.Duration("took", time.Since(start)))

	opts, ok := printOpts(parsed)
	if !ok {
		return
	}
	if parsed.Pipe != "" {
		if err := output.PipeRedisValue(os.Stdout, val, parsed.Pipe); err != nil {
			color.Red("Pipe error: %v", err)
		}
		return
	}
	output.PrintRedisValue(os.Stdout, val, opts)
}
