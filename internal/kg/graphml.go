package kg

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"os"
)

// GraphML export is deliberately lossy: every attribute value is flattened
// to a string. Scalars keep their printed form under the original key; list
// and map values are serialized to a JSON string under a sibling key with a
// "_json" suffix, from which structured data cannot be recovered. There is
// no GraphML importer anywhere in the system.

const graphmlNS = "http://graphml.graphdrawing.org/xmlns"

type graphmlKey struct {
	ID       string `xml:"id,attr"`
	For      string `xml:"for,attr"`
	AttrName string `xml:"attr.name,attr"`
	AttrType string `xml:"attr.type,attr"`
}

type graphmlData struct {
	Key   string `xml:"key,attr"`
	Value string `xml:",chardata"`
}

type graphmlNode struct {
	ID   string        `xml:"id,attr"`
	Data []graphmlData `xml:"data"`
}

type graphmlEdge struct {
	Source string        `xml:"source,attr"`
	Target string        `xml:"target,attr"`
	Data   []graphmlData `xml:"data"`
}

type graphmlGraph struct {
	EdgeDefault string        `xml:"edgedefault,attr"`
	Nodes       []graphmlNode `xml:"node"`
	Edges       []graphmlEdge `xml:"edge"`
}

type graphmlDoc struct {
	XMLName xml.Name     `xml:"graphml"`
	Xmlns   string       `xml:"xmlns,attr"`
	Keys    []graphmlKey `xml:"key"`
	Graph   graphmlGraph `xml:"graph"`
}

// keyTable assigns stable GraphML key ids (d0, d1, ...) per attribute name
// and domain (node or edge).
type keyTable struct {
	ids  map[string]string
	keys []graphmlKey
}

func newKeyTable() *keyTable {
	return &keyTable{ids: make(map[string]string)}
}

func (t *keyTable) id(domain, attrName string) string {
	lookup := domain + "\x00" + attrName
	if id, ok := t.ids[lookup]; ok {
		return id
	}
	id := fmt.Sprintf("d%d", len(t.keys))
	t.ids[lookup] = id
	t.keys = append(t.keys, graphmlKey{ID: id, For: domain, AttrName: attrName, AttrType: "string"})
	return id
}

// flattenAttrs renders attrs as GraphML data entries in key order.
func flattenAttrs(t *keyTable, domain string, attrs Attrs) ([]graphmlData, error) {
	var out []graphmlData
	for _, name := range attrs.SortedKeys() {
		v := attrs[name]
		if v.Scalar() {
			out = append(out, graphmlData{Key: t.id(domain, name), Value: v.ScalarString()})
			continue
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("flatten attribute %q: %w", name, err)
		}
		out = append(out, graphmlData{Key: t.id(domain, name+"_json"), Value: string(raw)})
	}
	return out, nil
}

// MarshalGraphML renders the lossy GraphML form of the graph.
func (b *Builder) MarshalGraphML() ([]byte, error) {
	t := newKeyTable()
	doc := graphmlDoc{
		Xmlns: graphmlNS,
		Graph: graphmlGraph{EdgeDefault: "directed"},
	}

	for _, n := range b.Nodes() {
		data := []graphmlData{
			{Key: t.id("node", "kind"), Value: string(n.Kind)},
			{Key: t.id("node", "name"), Value: n.Name},
		}
		flat, err := flattenAttrs(t, "node", n.Attrs)
		if err != nil {
			return nil, err
		}
		doc.Graph.Nodes = append(doc.Graph.Nodes, graphmlNode{ID: n.ID, Data: append(data, flat...)})
	}

	for _, e := range b.edges {
		data := []graphmlData{{Key: t.id("edge", "kind"), Value: string(e.Kind)}}
		flat, err := flattenAttrs(t, "edge", e.Attrs)
		if err != nil {
			return nil, err
		}
		doc.Graph.Edges = append(doc.Graph.Edges, graphmlEdge{Source: e.Source, Target: e.Target, Data: append(data, flat...)})
	}

	doc.Keys = t.keys

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal graphml: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}

// ExportGraphML writes the GraphML form to path.
func (b *Builder) ExportGraphML(path string) error {
	data, err := b.MarshalGraphML()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write graphml file: %w", err)
	}
	return nil
}
