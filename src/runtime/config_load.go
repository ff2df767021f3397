package runtime

import (
	"io"

	"gopkg.in/yaml.v3"
)

// configDoc is the YAML shape LoadConfig accepts: embedders that prefer a
// declarative descriptor over constructing Config{} in Go can load one of
// these instead. Callbacks (ResolveModule, LoadModule, BindForeignMethod,
// BindForeignClass, Write, Error) are never expressible in YAML and must
// still be set on the returned Config by the caller before use.
type configDoc struct {
	InitialHeapSize       int    `yaml:"initialHeapSize"`
	MinHeapSize           int    `yaml:"minHeapSize"`
	HeapGrowthPercent     int    `yaml:"heapGrowthPercent"`
	GCStress              bool   `yaml:"gcStress"`
	DiagnosticTimeFormat  string `yaml:"diagnosticTimeFormat"`
}

// LoadConfig reads a YAML descriptor of the non-callback Config fields.
func LoadConfig(r io.Reader) (Config, error) {
	var doc configDoc
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil && err != io.EOF {
		return Config{}, err
	}
	return Config{
		InitialHeapSize:       doc.InitialHeapSize,
		MinHeapSize:           doc.MinHeapSize,
		HeapGrowthPercent:     doc.HeapGrowthPercent,
		GCStress:              doc.GCStress,
		DiagnosticTimeFormat:  doc.DiagnosticTimeFormat,
	}, nil
}
