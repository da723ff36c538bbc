package debugger

// CommandHistory records the command lines a Debugger has executed, in
// order, and supports walking back/forward through them the way a shell
// history does.
type CommandHistory struct {
	commands []string
	maxSize  int
	position int // index of the most recently recalled command; len(commands) when none is recalled
}

// NewCommandHistory constructs a CommandHistory retaining up to maxSize
// entries.
func NewCommandHistory(maxSize int) *CommandHistory {
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &CommandHistory{maxSize: maxSize}
}

// Add appends cmd to the history, unless it is empty or repeats the
// previous entry, and resets the recall position to the end.
func (h *CommandHistory) Add(cmd string) {
	if cmd == "" {
		return
	}
	if len(h.commands) > 0 && h.commands[len(h.commands)-1] == cmd {
		h.position = len(h.commands)
		return
	}
	h.commands = append(h.commands, cmd)
	if len(h.commands) > h.maxSize {
		h.commands = h.commands[len(h.commands)-h.maxSize:]
	}
	h.position = len(h.commands)
}

// Previous moves the recall position back one entry and returns it, or ""
// if already at the oldest entry.
func (h *CommandHistory) Previous() string {
	if len(h.commands) == 0 || h.position == 0 {
		return ""
	}
	h.position--
	return h.commands[h.position]
}

// Next moves the recall position forward one entry and returns it, or ""
// once past the newest entry.
func (h *CommandHistory) Next() string {
	if len(h.commands) == 0 || h.position >= len(h.commands)-1 {
		h.position = len(h.commands)
		return ""
	}
	h.position++
	return h.commands[h.position]
}

// All returns every recorded command, oldest first.
func (h *CommandHistory) All() []string {
	out := make([]string, len(h.commands))
	copy(out, h.commands)
	return out
}

// Size returns the number of recorded commands.
func (h *CommandHistory) Size() int {
	return len(h.commands)
}
