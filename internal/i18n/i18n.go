// Package i18n resolves user-facing client messages in the user's preferred language.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var embedded embed.FS

// Translator resolves localized strings using dot-separated keys.
type Translator interface {
	T(key string) string
	Tf(key string, args ...any) string
	Lang() string
}

// Manager stores all available translations.
type Manager struct {
	catalog     map[string]map[string]string
	defaultLang string
}

// Load loads the catalogues bundled with the binary.
func Load(defaultLang string) (*Manager, error) {
	return LoadFS(embedded, "locales", defaultLang)
}

// LoadFS loads every *.yaml / *.yml file in dir. Each file holds one or more
// top-level language codes; later files extend earlier ones.
func LoadFS(fsys fs.FS, dir, defaultLang string) (*Manager, error) {
	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := fs.Glob(fsys, path.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("i18n: glob %s: %w", dir, err)
		}
		files = append(files, matches...)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("i18n: no yaml files found in %s", dir)
	}
	sort.Strings(files)

	catalog := make(map[string]map[string]string)
	for _, name := range files {
		if err := loadFile(fsys, name, catalog); err != nil {
			return nil, err
		}
	}

	if defaultLang == "" {
		defaultLang = "en"
	}
	if _, ok := catalog[defaultLang]; !ok {
		return nil, fmt.Errorf("i18n: default language %q is missing", defaultLang)
	}

	return &Manager{catalog: catalog, defaultLang: defaultLang}, nil
}

// Translator returns a translator for lang, or for the default language when
// lang is unknown.
func (m *Manager) Translator(lang string) Translator {
	if m == nil {
		return translator{}
	}

	norm := normalize(lang)
	if m.catalog[norm] == nil {
		norm = m.defaultLang
	}

	return translator{
		primary:  m.catalog[norm],
		fallback: m.catalog[m.defaultLang],
		lang:     norm,
	}
}

// Languages returns the loaded language codes in sorted order.
func (m *Manager) Languages() []string {
	if m == nil {
		return nil
	}

	languages := make([]string, 0, len(m.catalog))
	for lang := range m.catalog {
		languages = append(languages, lang)
	}
	sort.Strings(languages)
	return languages
}

type translator struct {
	primary  map[string]string
	fallback map[string]string
	lang     string
}

func (t translator) Lang() string {
	return t.lang
}

// T returns the message for key, falling back to the default language and
// finally to the key itself.
func (t translator) T(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return ""
	}
	if value, ok := t.primary[key]; ok {
		return value
	}
	if value, ok := t.fallback[key]; ok {
		return value
	}
	return key
}

// Tf formats the message for key with fmt verbs.
func (t translator) Tf(key string, args ...any) string {
	return fmt.Sprintf(t.T(key), args...)
}

func loadFile(fsys fs.FS, name string, catalog map[string]map[string]string) error {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("i18n: read file %s: %w", name, err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("i18n: parse file %s: %w", name, err)
	}
	if len(doc.Content) == 0 {
		return nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return fmt.Errorf("i18n: %s: top level must map language codes to messages", name)
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		lang := normalize(root.Content[i].Value)
		if lang == "" {
			continue
		}
		if catalog[lang] == nil {
			catalog[lang] = make(map[string]string)
		}
		flatten("", root.Content[i+1], catalog[lang])
	}
	return nil
}

// flatten stores every scalar under its dot-joined path.
func flatten(prefix string, node *yaml.Node, out map[string]string) {
	switch node.Kind {
	case yaml.ScalarNode:
		if prefix != "" {
			out[prefix] = node.Value
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i].Value
			if key == "" {
				continue
			}
			if prefix != "" {
				key = prefix + "." + key
			}
			flatten(key, node.Content[i+1], out)
		}
	}
}

func normalize(lang string) string {
	return strings.ToLower(strings.TrimSpace(lang))
}
