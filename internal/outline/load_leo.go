package outline

import (
	"encoding/xml"
	"fmt"
	"os"
	"strings"
)

type leoFile struct {
	XMLName xml.Name   `xml:"leo_file"`
	Vnodes  []leoVnode `xml:"vnodes>v"`
	Tnodes  []leoTnode `xml:"tnodes>t"`
}

type leoVnode struct {
	T        string     `xml:"t,attr"`
	A        string     `xml:"a,attr"`
	Head     string     `xml:"vh"`
	Children []leoVnode `xml:"v"`
}

type leoTnode struct {
	Tx   string `xml:"tx,attr"`
	Body string `xml:",chardata"`
}

// LoadLeo reads a Leo XML outline. Bodies live in <tnodes> keyed by gnx; the
// "a" attribute carries E (expanded), M (marked) and V (current) flags.
func LoadLeo(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("outline load failed (%s): %w", path, err)
	}
	defer f.Close()

	var lf leoFile
	if err := xml.NewDecoder(f).Decode(&lf); err != nil {
		return nil, fmt.Errorf("outline parse failed (%s): %w", path, err)
	}

	bodies := make(map[string]string, len(lf.Tnodes))
	for _, t := range lf.Tnodes {
		bodies[strings.TrimSpace(t.Tx)] = t.Body
	}

	entries := make([]Entry, 0, len(lf.Vnodes))
	for _, v := range lf.Vnodes {
		entries = append(entries, v.entry(bodies))
	}
	return Build(path, entries)
}

func (v leoVnode) entry(bodies map[string]string) Entry {
	gnx := strings.TrimSpace(v.T)
	e := Entry{
		GNX:      gnx,
		Headline: v.Head,
		Body:     bodies[gnx],
		Expanded: strings.ContainsRune(v.A, 'E'),
		Marked:   strings.ContainsRune(v.A, 'M'),
		Selected: strings.ContainsRune(v.A, 'V'),
	}
	for _, c := range v.Children {
		e.Children = append(e.Children, c.entry(bodies))
	}
	return e
}
