// Package frontmatter reads and writes documents made of a YAML metadata block between
// `---` fences followed by a free-form body.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Fence delimits the metadata block.
const Fence = "---"

// ErrNoFrontMatter is returned when a document does not open with a fence line.
var ErrNoFrontMatter = errors.New("document has no front matter")

// ErrUnterminated is returned when the closing fence is missing.
var ErrUnterminated = errors.New("front matter is not terminated")

// Split separates the metadata block from the body. The body is everything after the
// closing fence line, byte for byte.
func Split(data []byte) (meta []byte, body string, err error) {
	first, rest, ok := cutLine(data)
	if !ok && len(first) == 0 {
		return nil, "", ErrNoFrontMatter
	}
	if string(bytes.TrimRight(first, " \t\r\n")) != Fence {
		return nil, "", ErrNoFrontMatter
	}

	offset := 0
	for {
		line, next, more := cutLine(rest[offset:])
		if string(bytes.TrimRight(line, " \t\r\n")) == Fence {
			return rest[:offset], string(next), nil
		}
		if !more {
			return nil, "", ErrUnterminated
		}
		offset = len(rest) - len(next)
	}
}

// Join assembles a document from a metadata block and a body.
func Join(meta []byte, body string) []byte {
	var buf bytes.Buffer
	buf.Grow(len(meta) + len(body) + 2*len(Fence) + 2)
	buf.WriteString(Fence + "\n")
	buf.Write(meta)
	if len(meta) > 0 && meta[len(meta)-1] != '\n' {
		buf.WriteByte('\n')
	}
	buf.WriteString(Fence + "\n")
	buf.WriteString(body)
	return buf.Bytes()
}

// Parse decodes a metadata block into its mapping node. An empty block yields an empty
// mapping.
func Parse(meta []byte) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(meta, &doc); err != nil {
		return nil, fmt.Errorf("parsing front matter: %w", err)
	}
	if doc.Kind == 0 {
		return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}, nil
	}
	root := unwrap(&doc)
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("front matter must be a mapping, got %s", root.ShortTag())
	}
	// keep comments attached to the document rather than the mapping
	if root.HeadComment == "" {
		root.HeadComment = doc.HeadComment
	}
	if root.FootComment == "" {
		root.FootComment = doc.FootComment
	}
	return root, nil
}

// Encode renders a mapping node with two-space indentation.
func Encode(node *yaml.Node) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		return nil, fmt.Errorf("encoding front matter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding front matter: %w", err)
	}
	return buf.Bytes(), nil
}

// cutLine returns the first line of data including its newline and the remainder.
// more is false when data had no newline.
func cutLine(data []byte) (line, rest []byte, more bool) {
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return data[:i+1], data[i+1:], true
	}
	return data, nil, false
}

func unwrap(n *yaml.Node) *yaml.Node {
	for n != nil && (n.Kind == yaml.DocumentNode || n.Kind == yaml.AliasNode) {
		if n.Kind == yaml.DocumentNode {
			if len(n.Content) == 0 {
				return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
			}
			n = n.Content[0]
		} else {
			n = n.Alias
		}
	}
	return n
}
