package kplex

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Descriptor is the parsed, in-memory form of one config-file section
// (or one inline "type:key=value,..." positional argument): an
// adapter type name, the direction requested for it, and its
// type-specific keys. Everything beyond Type and Direction is opaque
// to the core and interpreted only by the adapter registered for
// Type.
type Descriptor struct {
	Type      string
	Name      string
	Direction Direction
	Keys      map[string]string
}

// Key returns the value of k and whether it was present.
func (d *Descriptor) Key(k string) (string, bool) {
	v, ok := d.Keys[k]
	return v, ok
}

// KeyOr returns the value of k, or def if it was not present.
func (d *Descriptor) KeyOr(k, def string) string {
	if v, ok := d.Keys[k]; ok {
		return v
	}
	return def
}

// Config is the fully resolved configuration: the global settings and
// the ordered list of endpoint descriptors, merged from a config file
// (if any) and CLI flags/positional arguments.
type Config struct {
	QueueSize   int
	Background  bool
	LogFacility string

	Endpoints []*Descriptor
}

// defaultConfigPaths returns the config-file search order, honoring
// KPLEXCONF before falling back to $HOME/.kplex.conf then
// /etc/kplex.conf.
func defaultConfigPaths() []string {
	if p := os.Getenv("KPLEXCONF"); p != "" {
		return []string{p}
	}
	var paths []string
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		paths = append(paths, home+"/.kplex.conf")
	}
	paths = append(paths, "/etc/kplex.conf")
	return paths
}

// LoadConfigFile locates and parses the config file per the search
// order honored by defaultConfigPaths, unless path is "-" (meaning:
// no config file, per the -f- CLI convention). path, if non-empty,
// overrides the search order entirely.
func LoadConfigFile(path string) (*Config, error) {
	if path == "-" {
		return &Config{QueueSize: DefaultQueueSize}, nil
	}

	candidates := defaultConfigPaths()
	if path != "" {
		candidates = []string{path}
	}

	var lastErr error
	for _, p := range candidates {
		f, err := os.Open(p)
		if err != nil {
			lastErr = err
			continue
		}
		defer f.Close()
		return ParseConfig(f)
	}

	// No file found anywhere in the search order is not itself fatal
	// (a config can be assembled entirely from CLI/positional specs);
	// only an explicitly-named, unreadable path is an error.
	if path != "" {
		return nil, errors.Wrapf(lastErr, "kplex: opening config file %q", path)
	}
	return &Config{QueueSize: DefaultQueueSize}, nil
}

// ParseConfig reads the INI-like grammar described in the config file
// format: `[section]` headers, `key = value` body lines, `#`
// comments, blank lines ignored, values optionally quoted with ' or ".
func ParseConfig(r io.Reader) (*Config, error) {
	cfg := &Config{QueueSize: DefaultQueueSize}

	var (
		section   string
		keys      map[string]string
		sawGlobal bool
		line      int
	)

	flush := func() error {
		if section == "" {
			return nil
		}
		if section == "global" {
			if sawGlobal {
				return errors.Errorf("kplex: config line %d: duplicate [global] section", line)
			}
			sawGlobal = true
			if v, ok := keys["qsize"]; ok {
				n, err := strconv.Atoi(v)
				if err != nil || n < MinQueueSize {
					return errors.Errorf("kplex: config line %d: qsize must be an integer >= %d", line, MinQueueSize)
				}
				cfg.QueueSize = n
			}
			if v, ok := keys["mode"]; ok {
				cfg.Background = v == "background"
			}
			if v, ok := keys["logto"]; ok {
				cfg.LogFacility = v
			}
			return nil
		}

		dir := DirBoth
		if v, ok := keys["direction"]; ok {
			d, err := parseDirection(v)
			if err != nil {
				return errors.Wrapf(err, "kplex: config line %d", line)
			}
			dir = d
		}
		delete(keys, "direction")

		cfg.Endpoints = append(cfg.Endpoints, &Descriptor{
			Type:      section,
			Name:      keys["name"],
			Direction: dir,
			Keys:      keys,
		})
		return nil
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		if strings.HasPrefix(text, "[") {
			if !strings.HasSuffix(text, "]") {
				return nil, errors.Errorf("kplex: config line %d: malformed section header %q", line, text)
			}
			if err := flush(); err != nil {
				return nil, err
			}
			section = strings.TrimSpace(text[1 : len(text)-1])
			keys = map[string]string{}
			continue
		}

		if section == "" {
			return nil, errors.Errorf("kplex: config line %d: key outside any section", line)
		}

		k, v, ok := splitKeyValue(text)
		if !ok {
			return nil, errors.Errorf("kplex: config line %d: expected key = value, got %q", line, text)
		}
		keys[k] = v
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "kplex: reading config file")
	}
	if err := flush(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func splitKeyValue(text string) (key, value string, ok bool) {
	i := strings.IndexByte(text, '=')
	if i < 0 {
		return "", "", false
	}
	key = strings.TrimSpace(text[:i])
	value = strings.TrimSpace(text[i+1:])
	value = unquote(value)
	return key, value, key != ""
}

func unquote(v string) string {
	if len(v) >= 2 {
		if (v[0] == '\'' && v[len(v)-1] == '\'') || (v[0] == '"' && v[len(v)-1] == '"') {
			return v[1 : len(v)-1]
		}
	}
	return v
}

func parseDirection(v string) (Direction, error) {
	switch v {
	case "in":
		return DirIn, nil
	case "out":
		return DirOut, nil
	case "both":
		return DirBoth, nil
	default:
		return DirNone, errors.Errorf("kplex: unrecognized direction %q", v)
	}
}

// ParseInlineDescriptor parses one positional CLI argument of the form
// "type:key=value,key=value,...".
func ParseInlineDescriptor(spec string) (*Descriptor, error) {
	typ, rest, ok := cut(spec, ':')
	if !ok || typ == "" {
		return nil, errors.Errorf("kplex: malformed endpoint spec %q, expected type:key=value,...", spec)
	}

	keys := map[string]string{}
	if rest != "" {
		for _, field := range strings.Split(rest, ",") {
			k, v, ok := splitKeyValue(field)
			if !ok {
				return nil, errors.Errorf("kplex: malformed endpoint spec %q: bad field %q", spec, field)
			}
			keys[k] = v
		}
	}

	dir := DirBoth
	if v, ok := keys["direction"]; ok {
		d, err := parseDirection(v)
		if err != nil {
			return nil, err
		}
		dir = d
	}
	delete(keys, "direction")

	return &Descriptor{
		Type:      typ,
		Name:      keys["name"],
		Direction: dir,
		Keys:      keys,
	}, nil
}

func cut(s string, sep byte) (before, after string, found bool) {
	if i := strings.IndexByte(s, sep); i >= 0 {
		return s[:i], s[i+1:], true
	}
	return s, "", false
}

// AssignNames fills in any Descriptor missing a Name with a
// synthesized, type-scoped, unique one (e.g. "tcp0", "tcp1"), then
// verifies no two descriptors collide.
func AssignNames(descs []*Descriptor) error {
	counts := map[string]int{}
	seen := map[string]bool{}

	for _, d := range descs {
		if d.Name == "" {
			if d.Type == "" {
				return ErrNoName
			}
			d.Name = fmt.Sprintf("%s%d", d.Type, counts[d.Type])
			counts[d.Type]++
		}
		if seen[d.Name] {
			return errors.Wrapf(ErrDuplicateName, "%q", d.Name)
		}
		seen[d.Name] = true
	}
	return nil
}
