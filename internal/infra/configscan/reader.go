package configscan

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

const (
	serversKey     = "mcp_servers"
	jsonServersKey = "mcpServers"
)

// serverEntry is one server declaration as found in a client config file.
type serverEntry struct {
	ID      string
	Command *string
	Args    []string
	URL     *string
	Env     map[string]string
}

// readServers decodes a client config document and extracts its server
// declarations. Shapes other than an array of tables or a table of tables
// yield no entries and no error.
func readServers(path string, data []byte) ([]serverEntry, error) {
	payload, err := decodeDocument(path, data)
	if err != nil {
		return nil, err
	}

	value, ok := payload[serversKey]
	if !ok || isEmpty(value) {
		value = payload[jsonServersKey]
	}

	switch raw := value.(type) {
	case []any:
		return readServerList(raw), nil
	case []map[string]any:
		items := make([]any, 0, len(raw))
		for _, item := range raw {
			items = append(items, item)
		}
		return readServerList(items), nil
	case map[string]any:
		return readServerTable(raw), nil
	default:
		return nil, nil
	}
}

func decodeDocument(path string, data []byte) (map[string]any, error) {
	var payload map[string]any
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
		return payload, nil
	}
	if err := toml.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parse toml: %w", err)
	}
	return payload, nil
}

func readServerList(items []any) []serverEntry {
	entries := make([]serverEntry, 0, len(items))
	for _, item := range items {
		table, ok := item.(map[string]any)
		if !ok {
			continue
		}
		entries = append(entries, parseServerEntry(readOptionalString(table, "name"), table))
	}
	return entries
}

func readServerTable(raw map[string]any) []serverEntry {
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]serverEntry, 0, len(raw))
	for _, name := range names {
		table, ok := raw[name].(map[string]any)
		if !ok {
			continue
		}
		entries = append(entries, parseServerEntry(name, table))
	}
	return entries
}

func parseServerEntry(id string, table map[string]any) serverEntry {
	return serverEntry{
		ID:      id,
		Command: readStringPtr(table, "command"),
		Args:    readStringSlice(table, "args"),
		URL:     readStringPtr(table, "url"),
		Env:     readStringMap(table, "env"),
	}
}

func readOptionalString(entry map[string]any, key string) string {
	value, ok := entry[key]
	if !ok || value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprint(value)
}

func readStringPtr(entry map[string]any, key string) *string {
	value, ok := entry[key]
	if !ok || value == nil {
		return nil
	}
	s, ok := value.(string)
	if !ok {
		s = fmt.Sprint(value)
	}
	return &s
}

func readStringSlice(entry map[string]any, key string) []string {
	value, ok := entry[key]
	if !ok {
		return []string{}
	}
	switch raw := value.(type) {
	case []string:
		return append([]string{}, raw...)
	case []any:
		out := make([]string, 0, len(raw))
		for _, item := range raw {
			if s, ok := item.(string); ok {
				out = append(out, s)
				continue
			}
			out = append(out, fmt.Sprint(item))
		}
		return out
	case string:
		return []string{raw}
	default:
		return []string{}
	}
}

func readStringMap(entry map[string]any, key string) map[string]string {
	value, ok := entry[key]
	if !ok {
		return map[string]string{}
	}
	switch raw := value.(type) {
	case map[string]string:
		out := make(map[string]string, len(raw))
		for k, v := range raw {
			out[k] = v
		}
		return out
	case map[string]any:
		out := make(map[string]string, len(raw))
		for k, v := range raw {
			if s, ok := v.(string); ok {
				out[k] = s
				continue
			}
			out[k] = fmt.Sprint(v)
		}
		return out
	default:
		return map[string]string{}
	}
}

func isEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case []any:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	case string:
		return v == ""
	default:
		return false
	}
}
