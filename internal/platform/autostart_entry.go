package platform

import (
	"bufio"
	"strings"

	"github.com/pkg/errors"
)

// AutostartEntry describes how the daemon is launched at login.
type AutostartEntry struct {
	// ID names the entry file, e.g. "autologout" for autologout.desktop.
	ID      string
	Name    string
	Comment string
	Exec    string
	Args    []string
}

// Command returns the executable followed by its arguments.
func (entry AutostartEntry) Command() []string {
	return append([]string{entry.Exec}, entry.Args...)
}

func (entry AutostartEntry) validate() error {
	if strings.TrimSpace(entry.ID) == "" {
		return errors.New("autostart entry id is empty")
	}
	if entry.Exec == "" {
		return errors.New("autostart exec path is empty")
	}
	return nil
}

func desktopFileName(id string) string {
	name := strings.ToLower(strings.TrimSpace(id))
	name = strings.ReplaceAll(name, " ", "-")
	return name + ".desktop"
}

// Characters that force quoting of an Exec argument.
const execReserved = " \t\n\"'\\><~|&;$*?#()`"

func quoteExecArg(arg string) string {
	arg = strings.ReplaceAll(arg, "%", "%%")
	if arg != "" && !strings.ContainsAny(arg, execReserved) {
		return arg
	}
	var quoted strings.Builder
	quoted.WriteByte('"')
	for _, r := range arg {
		switch r {
		case '"', '`', '$', '\\':
			quoted.WriteByte('\\')
		}
		quoted.WriteRune(r)
	}
	quoted.WriteByte('"')
	return quoted.String()
}

func splitExecLine(line string) ([]string, error) {
	var (
		fields  []string
		current strings.Builder
		inQuote bool
		started bool
	)
	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case inQuote && r == '\\' && i+1 < len(runes):
			i++
			current.WriteRune(runes[i])
		case r == '"':
			inQuote = !inQuote
			started = true
		case !inQuote && (r == ' ' || r == '\t'):
			if started {
				fields = append(fields, current.String())
				current.Reset()
				started = false
			}
		case r == '%' && i+1 < len(runes) && runes[i+1] == '%':
			i++
			current.WriteRune('%')
			started = true
		default:
			current.WriteRune(r)
			started = true
		}
	}
	if inQuote {
		return nil, errors.Errorf("unterminated quote in exec line %q", line)
	}
	if started {
		fields = append(fields, current.String())
	}
	return fields, nil
}

func renderDesktopEntry(entry AutostartEntry) string {
	fields := make([]string, 0, len(entry.Args)+1)
	for _, arg := range entry.Command() {
		fields = append(fields, quoteExecArg(arg))
	}

	var out strings.Builder
	out.WriteString("[Desktop Entry]\n")
	out.WriteString("Type=Application\n")
	out.WriteString("Name=" + entry.Name + "\n")
	if entry.Comment != "" {
		out.WriteString("Comment=" + entry.Comment + "\n")
	}
	out.WriteString("Exec=" + strings.Join(fields, " ") + "\n")
	out.WriteString("X-GNOME-Autostart-enabled=true\n")
	out.WriteString("NoDisplay=true\n")
	out.WriteString("Terminal=false\n")
	return out.String()
}

func parseDesktopEntry(id, content string) (AutostartEntry, error) {
	entry := AutostartEntry{ID: id}
	inSection := false
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") {
			inSection = line == "[Desktop Entry]"
			continue
		}
		if !inSection {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		switch strings.TrimSpace(key) {
		case "Name":
			entry.Name = value
		case "Comment":
			entry.Comment = value
		case "Exec":
			command, err := splitExecLine(value)
			if err != nil {
				return entry, err
			}
			if len(command) == 0 {
				return entry, errors.New("empty exec line")
			}
			entry.Exec = command[0]
			entry.Args = command[1:]
		}
	}
	if err := scanner.Err(); err != nil {
		return entry, errors.Wrap(err, "read desktop entry")
	}
	if entry.Exec == "" {
		return entry, errors.New("desktop entry has no Exec key")
	}
	return entry, nil
}
