package command

// ParsedCommand is one REPL line split into arguments and encoded.
type ParsedCommand struct {
	Text         string      // original input text
	Name         string      // upper-cased command name, empty if none
	Args         []string    // arguments after the name
	CommandBytes []byte      // RESP request ready to send
	Modifier     string      // codec name after "#:", e.g. "gzip"
	Pipe         string      // shell command after " | "
	Doc          *CommandDoc // documentation, nil if not found
}

// Argv returns the name followed by the arguments.
func (p *ParsedCommand) Argv() []string {
	if p.Name == "" {
		return nil
	}
	return append([]string{p.Name}, p.Args...)
}

// CommandDoc documents one command. FirstKey, LastKey and Step follow the
// COMMAND reply: positions are argument indexes, LastKey may be negative to
// count from the end, and FirstKey 0 means the command has no key.
type CommandDoc struct {
	Command   string `json:"command"`
	Summary   string `json:"summary"`
	Arguments string `json:"arguments"`
	Since     string `json:"since"`
	Group     string `json:"group"`
	FirstKey  int    `json:"first_key"`
	LastKey   int    `json:"last_key"`
	Step      int    `json:"step"`
}

// ServerCommand is one entry of the server's COMMAND reply. It lives here so
// conn can produce it and the registry can consume it without an import cycle.
type ServerCommand struct {
	Name        string // e.g. "CONFIG SET"
	Arity       int64  // positive = exact arg count, negative = minimum
	FirstKey    int
	LastKey     int
	Step        int
	ACLCats     []string
	Subcommands []ServerCommand
}
