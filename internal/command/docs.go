package command

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
)

//go:embed commands.json
var commandsJSON []byte

// Registry holds documentation and key positions for known Redis commands.
type Registry struct {
	docs      []CommandDoc
	index     map[string]int // command name → index in docs
	dangerous map[string]bool
}

// NewRegistry loads the embedded command table.
func NewRegistry() (*Registry, error) {
	var docs []CommandDoc
	if err := json.Unmarshal(commandsJSON, &docs); err != nil {
		return nil, fmt.Errorf("failed to parse embedded commands JSON: %w", err)
	}

	// Commands handled by the REPL itself, never sent to the server.
	appCommands := []CommandDoc{
		{Command: "EXIT", Summary: "Exit the application", Group: "application"},
		{Command: "CONNECT", Summary: "Connect to a Redis server", Arguments: "[host] [port] [user] [pass]", Group: "application"},
		{Command: "HELP", Summary: "Show help for a command", Arguments: "[command]", Group: "application"},
		{Command: "CLEAR", Summary: "Clear the screen", Group: "application"},
		{Command: "SAFEKEYS", Summary: "Safely iterate over keys using SCAN", Arguments: "[pattern]", Group: "application"},
		{Command: "VIEW", Summary: "View the contents of a key", Arguments: "key", Group: "application"},
		{Command: "ENCODE", Summary: "Show the RESP frame of a command without sending it", Arguments: "command [args...]", Group: "application"},
		{Command: "SLOT", Summary: "Show the cluster slot and gateway of a key", Arguments: "key", Group: "application"},
	}
	docs = append(docs, appCommands...)

	dangerousList := []string{
		"FLUSHDB", "FLUSHALL", "KEYS", "PEXPIRE", "DEL", "CONFIG",
		"SHUTDOWN", "BGREWRITEAOF", "BGSAVE", "SAVE", "SPOP", "SREM",
		"RENAME", "DEBUG",
	}
	dangerousMap := make(map[string]bool, len(dangerousList))
	for _, cmd := range dangerousList {
		dangerousMap[cmd] = true
	}

	idx := make(map[string]int, len(docs))
	for i, doc := range docs {
		idx[doc.Command] = i
	}

	return &Registry{
		docs:      docs,
		index:     idx,
		dangerous: dangerousMap,
	}, nil
}

// Get returns the documentation for cmd, or nil. Compound names such as
// "CLIENT INFO" are looked up as a whole.
func (r *Registry) Get(cmd string) *CommandDoc {
	if i, ok := r.index[strings.ToUpper(cmd)]; ok {
		return &r.docs[i]
	}
	return nil
}

// Lookup resolves the documentation for an argument vector, preferring the
// compound "NAME SUB" entry over "NAME".
func (r *Registry) Lookup(args []string) *CommandDoc {
	if len(args) == 0 {
		return nil
	}
	if len(args) > 1 {
		if doc := r.Get(args[0] + " " + args[1]); doc != nil {
			return doc
		}
	}
	return r.Get(args[0])
}

// KeyIndex returns the argument position of the first key of cmd, or 0 when
// the command takes no key or is unknown.
func (r *Registry) KeyIndex(cmd string) int {
	if doc := r.Get(cmd); doc != nil {
		return doc.FirstKey
	}
	return 0
}

// GetCommands returns the names starting with prefix, for tab completion.
func (r *Registry) GetCommands(prefix string) []string {
	prefix = strings.ToUpper(prefix)
	var matches []string
	for _, doc := range r.docs {
		if strings.HasPrefix(doc.Command, prefix) {
			matches = append(matches, doc.Command)
		}
	}
	return matches
}

// IsDangerous reports whether cmd asks for confirmation in the REPL.
func (r *Registry) IsDangerous(cmd string) bool {
	return r.dangerous[strings.ToUpper(cmd)]
}

// MergeServerCommands adds commands reported by the server's COMMAND reply.
// Known commands keep their built-in docs.
func (r *Registry) MergeServerCommands(cmds []ServerCommand) {
	for _, sc := range cmds {
		r.mergeOne(sc)
		for _, sub := range sc.Subcommands {
			r.mergeOne(sub)
		}
	}
}

func (r *Registry) mergeOne(sc ServerCommand) {
	if _, exists := r.index[sc.Name]; exists {
		return
	}
	doc := CommandDoc{
		Command:   sc.Name,
		Arguments: arityHint(sc.Arity),
		Group:     primaryACLGroup(sc.ACLCats),
		FirstKey:  sc.FirstKey,
		LastKey:   sc.LastKey,
		Step:      sc.Step,
	}
	r.index[sc.Name] = len(r.docs)
	r.docs = append(r.docs, doc)
}

// arityHint builds an argument hint from a COMMAND arity. Arity counts the
// command name, so the command takes |arity| - 1 arguments.
func arityHint(arity int64) string {
	if arity == 0 || arity == 1 {
		return ""
	}
	if arity > 1 {
		return argNames(int(arity) - 1)
	}
	minArgs := int(-arity) - 1
	if minArgs == 0 {
		return "[arg ...]"
	}
	return argNames(minArgs) + " [arg ...]"
}

func argNames(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("arg%d", i+1)
	}
	return strings.Join(parts, " ")
}

// primaryACLGroup picks the first domain ACL category, skipping meta ones.
func primaryACLGroup(cats []string) string {
	skip := map[string]bool{
		"@read": true, "@write": true, "@fast": true, "@slow": true,
		"@admin": true, "@dangerous": true, "@keyspace": true,
	}
	for _, cat := range cats {
		if !skip[cat] && strings.HasPrefix(cat, "@") {
			return cat[1:]
		}
	}
	for _, cat := range cats {
		if cat == "@connection" || cat == "@pubsub" || cat == "@admin" {
			return cat[1:]
		}
	}
	return ""
}
