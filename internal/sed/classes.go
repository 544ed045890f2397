package sed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/sync/errgroup"
)

type schoolsResponse struct {
	Schools []struct {
		Code json.RawMessage `json:"outCodEscola"`
	} `json:"outEscolas"`
}

// Schools lists the school codes of the configured municipality, board and
// network.
func (c *Client) Schools(ctx context.Context) ([]string, error) {
	var resp schoolsResponse
	err := c.get(ctx, "schools", endpointSchools, url.Values{
		"inCodDiretoria":  {c.settings.Board},
		"inCodMunicipio":  {c.settings.Municipality},
		"inCodRedeEnsino": {c.settings.Network},
	}, &resp)
	if err != nil {
		return nil, err
	}

	codes := make([]string, 0, len(resp.Schools))
	for _, s := range resp.Schools {
		if code := scalar(s.Code); code != "" {
			codes = append(codes, code)
		}
	}
	return codes, nil
}

// Field is one named value of a class record.
type Field struct {
	Name  string
	Value string
}

// Class is a class record with its fields in response order.
type Class []Field

func (c Class) Get(name string) string {
	for _, f := range c {
		if f.Name == name {
			return f.Value
		}
	}
	return ""
}

// SchoolClasses holds the preschool classes of one school.
type SchoolClasses struct {
	Code    string
	Name    string
	Classes []Class
}

type classesResponse struct {
	SchoolName json.RawMessage   `json:"outDescNomeAbrevEscola"`
	Classes    []json.RawMessage `json:"outClasses"`
}

// ClassesBySchool fetches the preschool classes of one school. A response
// without a class list yields nil.
func (c *Client) ClassesBySchool(ctx context.Context, code string) (*SchoolClasses, error) {
	var resp classesResponse
	err := c.get(ctx, "classes", endpointClasses, url.Values{
		"inAnoLetivo":     {c.settings.SchoolYear},
		"inCodEscola":     {code},
		"inCodTipoEnsino": {preschoolType},
		"inCodSerieAno":   {""},
		"inCodTurno":      {""},
		"inSemestre":      {""},
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Classes == nil {
		return nil, nil
	}

	out := &SchoolClasses{Code: code, Name: scalar(resp.SchoolName)}
	for _, raw := range resp.Classes {
		class, err := decodeClass(raw)
		if err != nil {
			return nil, fmt.Errorf("decode class of school %s: %w", code, err)
		}
		out.Classes = append(out.Classes, class)
	}
	return out, nil
}

// Classes fetches classes for many schools, BatchSize at a time. Schools
// that fail or have no classes are skipped. Results keep the input order.
func (c *Client) Classes(ctx context.Context, codes []string) ([]SchoolClasses, error) {
	results := make([]*SchoolClasses, len(codes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.settings.BatchSize)
	for i, code := range codes {
		i, code := i, code
		g.Go(func() error {
			sc, err := c.ClassesBySchool(gctx, code)
			if err != nil {
				c.logger.Warn("failed to fetch classes", map[string]interface{}{
					"school": code,
					"error":  err.Error(),
				})
				return nil
			}
			results[i] = sc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]SchoolClasses, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out, nil
}

// decodeClass walks a JSON object keeping key order.
func decodeClass(raw json.RawMessage) (Class, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}

	var class Class
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := keyTok.(string)

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		class = append(class, Field{Name: key, Value: scalar(value)})
	}
	return class, nil
}

// scalar renders a JSON value as a cell. Arrays are joined with ", ".
func scalar(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err == nil {
			parts := make([]string, 0, len(items))
			for _, it := range items {
				parts = append(parts, scalar(it))
			}
			return strings.Join(parts, ", ")
		}
	}
	return string(raw)
}
