package extract

import (
	"fmt"
	"io"
	"os"
	"strings"

	billy "github.com/go-git/go-billy/v5"
	"github.com/ohler55/ojg/oj"
)

// zarr stores keep their metadata in plain JSON documents next to the
// binary chunks, so attributes and variable names are readable without any
// array decoding.
const zarrAttrsFile = ".zattrs"

// readZarrHeader reads the global attributes of a zarr store and, when
// wantVars is set, classifies its arrays into coordinates and data
// variables.
//
// An array is a coordinate when its _ARRAY_DIMENSIONS is empty or contains
// the array's own name, or when any array lists it in a "coordinates"
// attribute. Everything else is a data variable.
func readZarrHeader(fsys billy.Filesystem, root string, wantVars bool) (map[string]string, []string, error) {
	attrs, err := readZarrAttrs(fsys, fsys.Join(root, zarrAttrsFile))
	if err != nil {
		return nil, nil, err
	}
	globals := stringifyAttrs(attrs)

	if !wantVars {
		return globals, nil, nil
	}

	entries, err := fsys.ReadDir(root)
	if err != nil {
		return nil, nil, fmt.Errorf("read zarr store %s: %w", root, err)
	}

	coords := make(map[string]struct{})
	var arrays []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		arrays = append(arrays, name)

		varAttrs, err := readZarrAttrs(fsys, fsys.Join(root, name, zarrAttrsFile))
		if err != nil {
			return nil, nil, err
		}
		if dims, ok := varAttrs["_ARRAY_DIMENSIONS"].([]any); ok {
			if len(dims) == 0 {
				coords[name] = struct{}{}
			}
			for _, d := range dims {
				if s, ok := d.(string); ok && s == name {
					coords[name] = struct{}{}
				}
			}
		}
		if c, ok := varAttrs["coordinates"].(string); ok {
			for _, part := range strings.Fields(c) {
				coords[part] = struct{}{}
			}
		}
	}

	var variables []string
	for _, name := range arrays {
		if _, isCoord := coords[name]; !isCoord {
			variables = append(variables, name)
		}
	}
	return globals, variables, nil
}

// readZarrAttrs parses one .zattrs document; a missing file is an empty
// attribute set, not an error.
func readZarrAttrs(fsys billy.Filesystem, path string) (map[string]any, error) {
	f, err := fsys.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	parsed, err := oj.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	m, ok := parsed.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("parse %s: not a JSON object", path)
	}
	return m, nil
}

func stringifyAttrs(attrs map[string]any) map[string]string {
	out := make(map[string]string, len(attrs))
	for k, v := range attrs {
		switch s := v.(type) {
		case string:
			out[k] = s
		case nil:
			// skip
		default:
			out[k] = fmt.Sprint(v)
		}
	}
	return out
}
