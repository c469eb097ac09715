package census

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// groupMetadata is the shape of the /groups/{GROUP}.json endpoint. Each entry
// under "variables" describes one estimate, margin-of-error or annotation
// column; only the names matter here.
type groupMetadata struct {
	Variables map[string]json.RawMessage `json:"variables"`
}

// GroupVariables fetches the variable list of a table group from the API's
// group metadata endpoint. Only variables prefixed with the group code are
// returned (the metadata also lists NAME and GEO_ID, which every request
// carries anyway). The result is sorted: the metadata is a JSON object whose
// ordering is not stable, and chunking must be deterministic.
func (c *Client) GroupVariables(ctx context.Context, group string) ([]string, error) {
	reqURL := fmt.Sprintf("%s/data/%d/%s/groups/%s.json", c.baseURL, c.year, c.dataset, group)

	body, err := c.get(ctx, reqURL)
	if err != nil {
		return nil, fmt.Errorf("group metadata %s: %w", group, err)
	}

	var meta groupMetadata
	if err := json.Unmarshal(body, &meta); err != nil {
		return nil, fmt.Errorf("group metadata %s: %w: %v", group, ErrFetchMalformed, err)
	}
	if len(meta.Variables) == 0 {
		return nil, fmt.Errorf("group metadata %s: %w: no variables", group, ErrFetchMalformed)
	}

	var vars []string
	for name := range meta.Variables {
		if strings.HasPrefix(name, group) {
			vars = append(vars, name)
		}
	}
	sort.Strings(vars)

	c.logger.Debug().
		Str("group", group).
		Int("variables", len(vars)).
		Msg("Fetched group metadata")

	return vars, nil
}
