package bridge

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/vorgateway/gateway/pkg/contracts"
)

type affectedEndpointsBlock struct {
	XMLName xml.Name              `xml:"affected_endpoints"`
	Entries []affectedEndpointEntry `xml:"affected_endpoint"`
}

type affectedEndpointEntry struct {
	Name  string `xml:"name"`
	Value string `xml:"value"`
}

// AttachAffectedEndpoints appends an <affected_endpoints> block, one
// <affected_endpoint><name/><value/></affected_endpoint> per entry, to
// baseDocument's root element. The value starts at "0"; the control plane
// fills in the live process value when it returns the document.
func AttachAffectedEndpoints(baseDocument []byte, endpoints []contracts.AffectedEndpoint) ([]byte, error) {
	block := affectedEndpointsBlock{}
	for _, ep := range endpoints {
		block.Entries = append(block.Entries, affectedEndpointEntry{Name: ep.EndpointID, Value: "0"})
	}
	blockXML, err := xml.Marshal(block)
	if err != nil {
		return nil, fmt.Errorf("bridge: marshal affected endpoints: %w", err)
	}

	trimmed := bytes.TrimSpace(baseDocument)
	closingTag, err := rootClosingTag(trimmed)
	if err != nil {
		return nil, err
	}

	idx := bytes.LastIndex(trimmed, closingTag)
	if idx < 0 {
		return nil, fmt.Errorf("bridge: document missing closing tag %q", closingTag)
	}

	var out bytes.Buffer
	out.Write(trimmed[:idx])
	out.Write(blockXML)
	out.Write(trimmed[idx:])
	return out.Bytes(), nil
}

// rootClosingTag extracts "</rootElementName>" from document so the
// affected-endpoints block can be inserted just before it.
func rootClosingTag(document []byte) ([]byte, error) {
	decoder := xml.NewDecoder(bytes.NewReader(document))
	for {
		tok, err := decoder.Token()
		if err != nil {
			return nil, fmt.Errorf("bridge: find root element: %w", err)
		}
		if start, ok := tok.(xml.StartElement); ok {
			return []byte("</" + start.Name.Local + ">"), nil
		}
	}
}
