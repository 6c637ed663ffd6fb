package glamour

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Node is a JSON object that preserves key encounter order. The shape of
// the equipment-state document is versioned by the presentation engine,
// so field discovery depends on seeing keys in their original order.
// Values are *Node, []interface{}, json.Number, string, bool or nil.
type Node struct {
	keys []string
	vals map[string]interface{}
}

// NewNode creates an empty object node.
func NewNode() *Node {
	return &Node{vals: make(map[string]interface{})}
}

// ParseDocument parses a raw equipment-state document. The result is a
// fresh tree owned by the caller; mutating it never touches the source.
func ParseDocument(raw json.RawMessage) (*Node, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	v, err := parseValue(dec)
	if err != nil {
		return nil, fmt.Errorf("glamour: parse state: %w", err)
	}
	root, ok := v.(*Node)
	if !ok {
		return nil, fmt.Errorf("glamour: state root is not an object")
	}
	return root, nil
}

func parseValue(dec *json.Decoder) (interface{}, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}
	switch delim {
	case '{':
		n := NewNode()
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, fmt.Errorf("object key is %T", keyTok)
			}
			val, err := parseValue(dec)
			if err != nil {
				return nil, err
			}
			n.Set(key, val)
		}
		if _, err := dec.Token(); err != nil { // consume '}'
			return nil, err
		}
		return n, nil
	case '[':
		var arr []interface{}
		for dec.More() {
			val, err := parseValue(dec)
			if err != nil {
				return nil, err
			}
			arr = append(arr, val)
		}
		if _, err := dec.Token(); err != nil { // consume ']'
			return nil, err
		}
		return arr, nil
	}
	return nil, fmt.Errorf("unexpected delimiter %v", delim)
}

// Keys returns the node's keys in encounter order.
func (n *Node) Keys() []string {
	return n.keys
}

// Len returns the number of keys.
func (n *Node) Len() int {
	return len(n.keys)
}

// Get returns the value for an exact key.
func (n *Node) Get(key string) (interface{}, bool) {
	v, ok := n.vals[key]
	return v, ok
}

// GetFold finds a key by case-insensitive match, returning the stored
// key's actual spelling.
func (n *Node) GetFold(key string) (value interface{}, actual string, ok bool) {
	for _, k := range n.keys {
		if strings.EqualFold(k, key) {
			return n.vals[k], k, true
		}
	}
	return nil, "", false
}

// Object returns the child object at an exact key, if any.
func (n *Node) Object(key string) (*Node, bool) {
	v, ok := n.vals[key]
	if !ok {
		return nil, false
	}
	child, ok := v.(*Node)
	return child, ok
}

// Set stores a value, replacing an existing key in place or appending a
// new one at the end.
func (n *Node) Set(key string, value interface{}) {
	if n.vals == nil {
		n.vals = make(map[string]interface{})
	}
	if _, exists := n.vals[key]; !exists {
		n.keys = append(n.keys, key)
	}
	n.vals[key] = value
}

// SetUint stores an unsigned integer value.
func (n *Node) SetUint(key string, v uint32) {
	n.Set(key, json.Number(fmt.Sprintf("%d", v)))
}

// Clone deep-copies the node.
func (n *Node) Clone() *Node {
	out := NewNode()
	for _, k := range n.keys {
		out.Set(k, cloneValue(n.vals[k]))
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch t := v.(type) {
	case *Node:
		return t.Clone()
	case []interface{}:
		arr := make([]interface{}, len(t))
		for i, e := range t {
			arr[i] = cloneValue(e)
		}
		return arr
	default:
		return v
	}
}

// MarshalJSON encodes the node with keys in encounter order.
func (n *Node) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range n.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(n.vals[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// isInt reports whether a value is an integer-valued JSON number.
func isInt(v interface{}) bool {
	num, ok := v.(json.Number)
	if !ok {
		return false
	}
	_, err := num.Int64()
	return err == nil
}
