package filter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind classifies a directory entry for admission purposes.
type Kind int

const (
	// KindDir is a directory.
	KindDir Kind = iota
	// KindFile is a regular file.
	KindFile
	// KindOther is anything else: symlinks, devices, sockets.
	KindOther
)

// Policy holds the denylists that decide which paths are scanned.
// All matching is pure string work; Admit never touches the filesystem.
type Policy struct {
	// DirSuffixes rejects directories whose path ends with any entry,
	// e.g. "_files" for saved-webpage companion folders.
	DirSuffixes []string `yaml:"dir_suffixes"`
	// DirNames rejects directories whose final path segment equals an entry,
	// e.g. "AppData".
	DirNames []string `yaml:"dir_names"`
	// DirMarkers rejects directories whose path contains an entry anywhere,
	// e.g. "/." for dot-directories at any depth.
	DirMarkers []string `yaml:"dir_markers"`
	// DirPrefixes rejects directories under any of these roots, e.g. system
	// or vendor trees. Machine-specific, so empty by default.
	DirPrefixes []string `yaml:"dir_prefixes"`
	// FileExts rejects files by lowercase extension, without the dot.
	FileExts []string `yaml:"file_extensions"`
	// NameContains rejects files whose lowercase base name contains an entry.
	NameContains []string `yaml:"name_contains"`
}

// Default returns the built-in policy: skip saved-webpage folders, per-user
// caches, dot-directories, and file types that are rarely worth comparing.
func Default() Policy {
	return Policy{
		DirSuffixes: []string{"_files"},
		DirNames:    []string{"AppData"},
		DirMarkers:  []string{string(os.PathSeparator) + "."},
		FileExts: []string{
			"bin", "js", "lock", "dll", "class", "json",
			"md", "sys", "pdb", "gradle", "mk", "prefs",
		},
		NameContains: []string{"licen"},
	}
}

// Load reads a policy from a YAML file. Missing keys fall back to the
// zero value, so a file can deny everything it names and nothing else.
func Load(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("read filter config: %w", err)
	}
	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Policy{}, fmt.Errorf("parse filter config %s: %w", path, err)
	}
	return p, nil
}

// Admit decides whether a path should be traversed (directories) or
// recorded (regular files). Hidden entries are always rejected, as is
// anything that is neither a directory nor a regular file.
func (p Policy) Admit(path string, kind Kind, hidden bool) bool {
	if hidden {
		return false
	}
	switch kind {
	case KindDir:
		return p.admitDir(path)
	case KindFile:
		return p.admitFile(path)
	default:
		return false
	}
}

func (p Policy) admitDir(path string) bool {
	for _, s := range p.DirSuffixes {
		if strings.HasSuffix(path, s) {
			return false
		}
	}
	base := filepath.Base(path)
	for _, n := range p.DirNames {
		if base == n {
			return false
		}
	}
	for _, m := range p.DirMarkers {
		if strings.Contains(path, m) {
			return false
		}
	}
	for _, pre := range p.DirPrefixes {
		if strings.HasPrefix(path, pre) {
			return false
		}
	}
	return true
}

func (p Policy) admitFile(path string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	for _, e := range p.FileExts {
		if ext == e {
			return false
		}
	}
	name := strings.ToLower(filepath.Base(path))
	for _, sub := range p.NameContains {
		if strings.Contains(name, sub) {
			return false
		}
	}
	return true
}
