package catalog

import (
	"bytes"
	_ "embed"
	"io"
)

//go:embed default_netflow9.yaml
var defaultNetFlowV9YAML []byte

//go:embed default_ipfix.yaml
var defaultIPFIXYAML []byte

func defaultNetFlowV9Reader() io.Reader { return bytes.NewReader(defaultNetFlowV9YAML) }
func defaultIPFIXReader() io.Reader     { return bytes.NewReader(defaultIPFIXYAML) }
