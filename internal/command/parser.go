package command

import (
	"fmt"
	"strings"

	"github.com/cosmez/respfmt/internal/resp"
	"github.com/cosmez/respfmt/internal/serializer"
)

// Parse turns one line of user input into an encoded command.
//
// The line may end with " | shell command", whose text lands in Pipe, and with
// "#:codec", which serializes the value of SET before encoding. The remaining
// text is tokenized with quote and escape handling and encoded through the
// argv path, so quoted arguments may contain spaces. obs, when non-nil,
// observes the encoded arguments.
func Parse(input string, reg *Registry, obs resp.ArgObserver) (*ParsedCommand, error) {
	if strings.TrimSpace(input) == "" {
		return &ParsedCommand{}, nil
	}

	parsed := &ParsedCommand{Text: input}

	// The pipe goes first so "GET k #:gzip | jq ." keeps "gzip" as the codec.
	if pipeIdx := strings.Index(input, " | "); pipeIdx != -1 {
		parsed.Pipe = strings.TrimSpace(input[pipeIdx+3:])
		input = input[:pipeIdx]
	}

	if codecIdx := strings.LastIndex(input, "#:"); codecIdx != -1 {
		parsed.Modifier = strings.TrimSpace(input[codecIdx+2:])
		input = input[:codecIdx]
	}

	tokens := tokenize(input)
	if len(tokens) == 0 {
		return parsed, nil
	}

	parsed.Name = strings.ToUpper(tokens[0])
	if len(tokens) > 1 {
		parsed.Args = tokens[1:]
	}
	if reg != nil {
		parsed.Doc = reg.Lookup(tokens)
	}

	argv := make([][]byte, len(tokens))
	for i, token := range tokens {
		argv[i] = []byte(token)
	}

	if parsed.Modifier != "" && parsed.Name == "SET" && len(argv) > 2 {
		codec, err := serializer.Get(parsed.Modifier)
		if err != nil {
			return nil, fmt.Errorf("failed to get serializer %q: %w", parsed.Modifier, err)
		}
		if argv[2], err = codec.Serialize(argv[2]); err != nil {
			return nil, fmt.Errorf("failed to serialize value: %w", err)
		}
	}

	parsed.CommandBytes = FormatArgv(obs, argv)
	return parsed, nil
}
