// Package shell implements a verb dispatcher: single-word commands
// issued against the file-backed store, plus directory navigation and
// OS command execution.
package shell

import (
	"fmt"
	"hash/fnv"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"adana/internal/store"
	"adana/internal/value"

	"github.com/dustin/go-humanize"
)

// Verb aliases: several commands accept a shorthand spelling.
var verbAliases = map[string]string{
	"put": "put",
	"get": "get", "del": "del", "delete": "del",
	"describe": "describe", "ds": "describe",
	"listcache": "listcache", "lsch": "listcache",
	"currch": "currch", "currentcache": "currch",
	"backup": "backup", "bckp": "backup",
	"restore": "restore",
	"delch":   "delch", "deletecache": "delch",
	"merge": "merge", "mergecache": "merge",
	"exec": "exec", "cd": "cd", "use": "use",
	"dump": "dump", "clear": "clear", "cls": "clear",
	"help": "help",
}

var helpDoc = []struct {
	Verbs []string
	Doc   string
}{
	{[]string{"put"}, "Put a new value in the current tree. Repeat -a NAME for extra aliases."},
	{[]string{"describe", "ds"}, "List all key/value pairs in the current tree."},
	{[]string{"listcache", "lsch"}, "List available trees."},
	{[]string{"currch", "currentcache"}, "Print the current tree."},
	{[]string{"backup", "bckp"}, "Back up the store to adanadb.json in the working directory."},
	{[]string{"restore"}, "Restore the store from adanadb.json in the working directory."},
	{[]string{"delch", "deletecache"}, "Delete a tree, or clear the current tree if none is named."},
	{[]string{"merge", "mergecache"}, "Merge a named tree into the current tree."},
	{[]string{"del", "delete"}, "Remove a key (or alias) from the current tree."},
	{[]string{"get"}, "Get a value by key or alias."},
	{[]string{"exec"}, "Run a stored value as an OS command."},
	{[]string{"cd"}, "Change the working directory."},
	{[]string{"use"}, "Switch to another tree, creating it if needed."},
	{[]string{"dump"}, "Dump all trees (or a named tree) as JSON."},
	{[]string{"clear", "cls"}, "Clear the terminal."},
	{[]string{"help"}, "Show this help."},
}

const backupFileName = "adanadb.json"

// Shell dispatches command lines against a store.Db.
type Shell struct {
	Db     *store.Db
	Stdout io.Writer
	Stderr io.Writer
}

func New(db *store.Db, stdout, stderr io.Writer) *Shell {
	return &Shell{Db: db, Stdout: stdout, Stderr: stderr}
}

// Dispatch parses and runs one command line. A blank line is a no-op.
// An unrecognized verb is reported on Stderr but is not a Go error:
// the shell's read loop keeps running after a bad command.
func (s *Shell) Dispatch(line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	fields := strings.SplitN(line, " ", 2)
	verb, ok := verbAliases[strings.ToLower(fields[0])]
	if !ok {
		fmt.Fprintf(s.Stderr, "unknown command: %s\n", fields[0])
		return nil
	}
	rest := ""
	if len(fields) == 2 {
		rest = strings.TrimSpace(fields[1])
	}

	switch verb {
	case "put":
		return s.put(rest)
	case "get":
		return s.get(rest)
	case "del":
		return s.del(rest)
	case "describe":
		return s.describe()
	case "listcache":
		return s.listCache()
	case "currch":
		return s.currentCache()
	case "backup":
		return s.backup()
	case "restore":
		return s.restore()
	case "delch":
		return s.deleteCache(rest)
	case "merge":
		return s.merge(rest)
	case "exec":
		return s.exec(rest)
	case "cd":
		return s.cd(rest)
	case "use":
		return s.use(rest)
	case "dump":
		return s.dump(rest)
	case "clear":
		fmt.Fprint(s.Stdout, "\033[2J\033[H")
		return nil
	case "help":
		return s.help()
	}
	return nil
}

// put parses "[-a alias]* value" and inserts value under a stable hash
// key plus every alias that isn't already taken.
func (s *Shell) put(rest string) error {
	var aliases []string
	for strings.HasPrefix(rest, "-a ") || strings.HasPrefix(rest, "-a\t") {
		rest = strings.TrimSpace(rest[2:])
		parts := strings.SplitN(rest, " ", 2)
		aliases = append(aliases, parts[0])
		if len(parts) == 2 {
			rest = strings.TrimSpace(parts[1])
		} else {
			rest = ""
		}
	}
	val := rest
	if val == "" {
		fmt.Fprintln(s.Stderr, "put requires a value")
		return nil
	}

	key := hashKey(val)
	s.Db.Insert(key, value.String(val))
	for _, alias := range aliases {
		if !s.Db.Contains(alias) {
			s.Db.Insert(alias, value.String(val))
		}
	}
	fmt.Fprintf(s.Stdout, "added %q with hash key %s\n", val, key)
	return nil
}

func hashKey(val string) string {
	h := fnv.New64a()
	h.Write([]byte(val))
	return strconv.FormatUint(h.Sum64(), 10)
}

func (s *Shell) get(key string) error {
	v, ok := s.Db.Read(key)
	if !ok {
		fmt.Fprintf(s.Stdout, "%s not found\n", key)
		return nil
	}
	fmt.Fprintf(s.Stdout, "found %q\n", value.ToStringValue(v))
	return nil
}

// del removes key and every other key in the tree sharing its value:
// aliases point at the same value, so deleting one must delete them all.
func (s *Shell) del(key string) error {
	v, ok := s.Db.Read(key)
	if !ok {
		fmt.Fprintf(s.Stdout, "key %s not found\n", key)
		return nil
	}
	target := value.ToStringValue(v)
	for _, kv := range s.Db.ListAll() {
		if value.ToStringValue(kv.Value) == target {
			s.Db.Remove(kv.Key)
		}
	}
	fmt.Fprintf(s.Stdout, "removed %q with hash key %s\n", target, key)
	return nil
}

// describe lists every key/value pair in the current tree, then a
// humanized entry count.
func (s *Shell) describe() error {
	entries := s.Db.ListAll()
	for _, kv := range entries {
		fmt.Fprintf(s.Stdout, ">> Key: %s => Value: %q\n", kv.Key, value.ToStringValue(kv.Value))
	}
	fmt.Fprintf(s.Stdout, ">> %s in %s\n", humanize.Comma(int64(len(entries))), s.Db.GetCurrentTree())
	if id := s.Db.SessionID(); id != "" {
		fmt.Fprintf(s.Stdout, ">> session %s (in-memory, not persisted)\n", id)
	}
	return nil
}

func (s *Shell) listCache() error {
	names := s.Db.TreeNames()
	fmt.Fprintf(s.Stdout, ">> [ %s ] (%s)\n", strings.Join(names, ", "), humanize.Comma(int64(len(names))))
	return nil
}

func (s *Shell) currentCache() error {
	fmt.Fprintf(s.Stdout, ">> %s\n", s.Db.GetCurrentTree())
	return nil
}

func (s *Shell) backup() error {
	path, err := filepath.Abs(backupFileName)
	if err != nil {
		return err
	}
	data, err := s.dumpJSON("")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		return err
	}
	fmt.Fprintf(s.Stdout, "db backed up to %s\n", path)
	return nil
}

func (s *Shell) restore() error {
	path, err := filepath.Abs(backupFileName)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(s.Stderr, "no backup found")
		return nil
	}
	if err := restoreJSON(s.Db, string(data)); err != nil {
		fmt.Fprintln(s.Stderr, err)
		return nil
	}
	fmt.Fprintf(s.Stdout, "db restored from %s\n", path)
	return nil
}

func (s *Shell) deleteCache(name string) error {
	if name == "" {
		current := s.Db.GetCurrentTree()
		s.Db.ClearTree(current)
		fmt.Fprintf(s.Stdout, "clear all values from %s\n", current)
		return nil
	}
	if name == s.Db.GetCurrentTree() {
		s.Db.ClearTree(name)
		fmt.Fprintf(s.Stdout, "clear all values from %s\n", name)
		return nil
	}
	ok := s.Db.DropTree(name)
	fmt.Fprintf(s.Stdout, "remove %s: %v\n", name, ok)
	return nil
}

func (s *Shell) merge(name string) error {
	current := s.Db.GetCurrentTree()
	if name == current {
		fmt.Fprintln(s.Stderr, "you cannot merge a tree with itself")
		return nil
	}
	if s.Db.MergeCurrentTreeWith(name) {
		fmt.Fprintf(s.Stdout, "tree %s has been merged with tree %s\n", current, name)
	} else {
		fmt.Fprintln(s.Stderr, "something went wrong")
	}
	return nil
}

func (s *Shell) exec(rest string) error {
	parts := strings.SplitN(rest, " ", 2)
	key := parts[0]
	var extraArgs string
	if len(parts) == 2 {
		extraArgs = parts[1]
	}
	v, ok := s.Db.Read(key)
	if !ok {
		if strings.TrimSpace(key) != "" {
			fmt.Fprintf(s.Stdout, "%s not found\n", key)
		}
		return nil
	}
	cmdline := value.ToStringValue(v)
	if extraArgs != "" {
		cmdline = cmdline + " " + extraArgs
	}
	cmd := exec.Command("sh", "-c", cmdline)
	cmd.Stdout = s.Stdout
	cmd.Stderr = s.Stderr
	return cmd.Run()
}

func (s *Shell) cd(path string) error {
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintf(s.Stderr, "path %s doesn't exist\n", path)
		return nil
	}
	if err := os.Chdir(path); err != nil {
		return err
	}
	fmt.Fprintf(s.Stdout, ">> working directory %s\n", path)
	return nil
}

func (s *Shell) use(name string) error {
	previous := s.Db.GetCurrentTree()
	s.Db.OpenTree(name)
	fmt.Fprintf(s.Stdout, "previous: %s\n", previous)
	return nil
}

func (s *Shell) dump(name string) error {
	json, err := s.dumpJSON(name)
	if err != nil {
		fmt.Fprintln(s.Stdout, "tree doesn't exist!")
		return nil
	}
	fmt.Fprintln(s.Stdout, json)
	return nil
}

func (s *Shell) help() error {
	for _, d := range helpDoc {
		fmt.Fprintf(s.Stdout, ">> %s : %s\n", strings.Join(d.Verbs, "/"), d.Doc)
	}
	return nil
}
