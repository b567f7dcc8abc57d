//
// Copyright 2021 Rackspace
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS-IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

package config

import (
	"encoding/xml"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Node is the read-only view of one configuration element: a name, its attributes and its child
// elements. The storage module only reads from it.
type Node interface {
	Name() string
	Attribute(name string) (string, bool)
	Attributes() map[string]string
	// Children returns the child elements called name, or all of them when name is empty.
	Children(name string) []Node
}

// MemNode is an in-memory Node.
type MemNode struct {
	NodeName string
	Attrs    map[string]string
	Nodes    []*MemNode
}

func NewNode(name string, attrs map[string]string, children ...*MemNode) *MemNode {
	if attrs == nil {
		attrs = make(map[string]string)
	}
	return &MemNode{
		NodeName: name,
		Attrs:    attrs,
		Nodes:    children,
	}
}

func (n *MemNode) Name() string {
	return n.NodeName
}

func (n *MemNode) Attribute(name string) (string, bool) {
	v, ok := n.Attrs[name]
	return v, ok
}

func (n *MemNode) Attributes() map[string]string {
	attrs := make(map[string]string, len(n.Attrs))
	for k, v := range n.Attrs {
		attrs[k] = v
	}
	return attrs
}

func (n *MemNode) Children(name string) []Node {
	children := make([]Node, 0, len(n.Nodes))
	for _, c := range n.Nodes {
		if name == "" || c.NodeName == name {
			children = append(children, c)
		}
	}
	return children
}

// SetAttribute returns n to allow chaining while building nodes from flags.
func (n *MemNode) SetAttribute(name, value string) *MemNode {
	n.Attrs[name] = value
	return n
}

type xmlNode struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Nodes   []xmlNode  `xml:",any"`
}

func (x *xmlNode) toMemNode() *MemNode {
	n := NewNode(x.XMLName.Local, nil)
	for _, a := range x.Attrs {
		n.Attrs[a.Name.Local] = a.Value
	}
	for i := range x.Nodes {
		n.Nodes = append(n.Nodes, x.Nodes[i].toMemNode())
	}
	return n
}

// ParseNode decodes the first XML element of r, with all of its descendants.
func ParseNode(r io.Reader) (*MemNode, error) {
	var root xmlNode
	if err := xml.NewDecoder(r).Decode(&root); err != nil {
		return nil, errors.Wrap(err, "decoding storage definition")
	}
	return root.toMemNode(), nil
}

// LoadNode reads the storage definition file.
func LoadNode(filepath string) (*MemNode, error) {
	f, err := os.Open(filepath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	node, err := ParseNode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", filepath)
	}

	log.WithFields(log.Fields{
		"file": filepath,
		"node": node.Name(),
	}).Info("Loaded storage definition")
	return node, nil
}

// AttributeString returns the attribute value or def when it is missing.
func AttributeString(n Node, name, def string) string {
	if n == nil {
		return def
	}
	if v, ok := n.Attribute(name); ok {
		return v
	}
	return def
}

// AttributeBool interprets an attribute the way XML agent definitions always have: a value
// starting with 1, t, T, y or Y is true, any other non-empty value is false.
func AttributeBool(n Node, name string, def bool) bool {
	if n == nil {
		return def
	}
	v, ok := n.Attribute(name)
	if !ok {
		return def
	}
	return ParseBool(v, def)
}

func ParseBool(value string, def bool) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return def
	}
	switch value[0] {
	case '1', 't', 'T', 'y', 'Y':
		return true
	}
	return false
}

// AttributeFloat returns the parsed attribute, whether it was present, and a parse error.
func AttributeFloat(n Node, name string) (float64, bool, error) {
	if n == nil {
		return 0, false, nil
	}
	v, ok := n.Attribute(name)
	if !ok {
		return 0, false, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, true, errors.Wrapf(err, "attribute %s", name)
	}
	return f, true, nil
}

// AttributesWithPrefix lists, sorted, the attribute names of n that start with prefix.
func AttributesWithPrefix(n Node, prefix string) []string {
	if n == nil {
		return nil
	}
	var names []string
	for k := range n.Attributes() {
		if strings.HasPrefix(k, prefix) {
			names = append(names, k)
		}
	}
	sort.Strings(names)
	return names
}
