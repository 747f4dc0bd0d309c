package commands

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry manages command registration and lookup.
type Registry struct {
	prefix   string
	commands map[string]*Command
	aliases  map[string]string
	mu       sync.RWMutex
}

// NewRegistry creates a new command registry for messages starting with
// prefix.
func NewRegistry(prefix string) *Registry {
	if prefix == "" {
		prefix = "$"
	}
	return &Registry{
		prefix:   prefix,
		commands: make(map[string]*Command),
		aliases:  make(map[string]string),
	}
}

// Prefix returns the command prefix.
func (r *Registry) Prefix() string {
	return r.prefix
}

// Register registers a new command and its aliases.
func (r *Registry) Register(cmd *Command) error {
	if cmd == nil {
		return fmt.Errorf("command cannot be nil")
	}

	if cmd.Name == "" {
		return fmt.Errorf("command name cannot be empty")
	}
	if cmd.Handler == nil {
		return fmt.Errorf("command %s has no handler", cmd.Name)
	}

	cmd.Name = r.normalize(cmd.Name)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.taken(cmd.Name) {
		return fmt.Errorf("command %s already registered", cmd.Name)
	}
	for _, alias := range cmd.Aliases {
		alias = r.normalize(alias)
		if alias == cmd.Name || r.taken(alias) {
			return fmt.Errorf("alias %s of %s already registered", alias, cmd.Name)
		}
	}

	r.commands[cmd.Name] = cmd
	for _, alias := range cmd.Aliases {
		r.aliases[r.normalize(alias)] = cmd.Name
	}
	return nil
}

// taken reports whether name is a command or alias. Caller holds r.mu.
func (r *Registry) taken(name string) bool {
	_, isCmd := r.commands[name]
	_, isAlias := r.aliases[name]
	return isCmd || isAlias
}

func (r *Registry) normalize(name string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), r.prefix))
}

// Get retrieves a command by name or alias.
func (r *Registry) Get(name string) (*Command, bool) {
	name = r.normalize(name)

	r.mu.RLock()
	defer r.mu.RUnlock()

	if target, ok := r.aliases[name]; ok {
		name = target
	}
	cmd, exists := r.commands[name]
	return cmd, exists
}

// List returns all registered commands sorted by name.
func (r *Registry) List() []*Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cmds := make([]*Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		cmds = append(cmds, cmd)
	}
	sort.Slice(cmds, func(i, j int) bool {
		return cmds[i].Name < cmds[j].Name
	})

	return cmds
}

// IsCommand checks if a text starts with a known command.
func (r *Registry) IsCommand(text string) bool {
	name, _ := r.Parse(text)
	if name == "" {
		return false
	}
	_, exists := r.Get(name)
	return exists
}

// Parse parses a command from text.
// Returns command name and arguments.
func (r *Registry) Parse(text string) (string, string) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, r.prefix) {
		return "", ""
	}

	text = strings.TrimPrefix(text, r.prefix)

	parts := strings.SplitN(text, " ", 2)
	cmdName := strings.ToLower(strings.TrimSpace(parts[0]))

	args := ""
	if len(parts) > 1 {
		args = strings.TrimSpace(parts[1])
	}

	return cmdName, args
}
