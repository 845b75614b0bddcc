package render

import (
	"io"

	jsoniter "github.com/json-iterator/go"

	"github.com/l3aro/go-java-cfg/pkg/cfg"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// FileDocument is the JSON form of the graphs of one source file.
type FileDocument struct {
	File    string           `json:"file"`
	Methods []MethodDocument `json:"methods"`
}

// MethodDocument holds either the graph of a method or the reason it could
// not be built.
type MethodDocument struct {
	Name  string     `json:"name"`
	Graph *cfg.Graph `json:"graph,omitempty"`
	Error string     `json:"error,omitempty"`
}

func newFileDocument(path string, res *cfg.FileResult) FileDocument {
	doc := FileDocument{File: path, Methods: make([]MethodDocument, 0, len(res.Methods))}
	for _, m := range res.Methods {
		md := MethodDocument{Name: m.Name, Graph: m.Graph}
		if m.Err != nil {
			md.Error = m.Err.Error()
		}
		doc.Methods = append(doc.Methods, md)
	}
	return doc
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
