package config

import (
	"fmt"
	"log"
	"sort"
	"strings"
)

// Missing reports the names whose values are empty, sorted.
func Missing(vals map[string]string) []string {
	var out []string
	for name, v := range vals {
		if strings.TrimSpace(v) == "" {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func Required(vals map[string]string) error {
	if m := Missing(vals); len(m) > 0 {
		return fmt.Errorf("missing required env %s", strings.Join(m, ", "))
	}
	return nil
}

func MustNonEmpty(vals map[string]string) {
	if err := Required(vals); err != nil {
		log.Fatal(err)
	}
}
