package patch

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/pxdoc/node"
)

// Codec converts patches to and from bytes.
//
// Decode(Encode(p)) must equal p in every observable field, and
// Encode(Decode(b)) must reproduce b for bytes produced by Encode.
type Codec interface {
	Encode(p Patch) ([]byte, error)
	Decode(data []byte) (Patch, error)
}

var (
	codecsMu sync.RWMutex
	codecs   = make(map[string]Codec)
)

func init() {
	RegisterCodec("json", jsonCodec{})
	RegisterCodec("yaml", yamlCodec{})
}

// RegisterCodec makes a codec available by name, following the
// database/sql driver pattern:
//
//	func init() {
//	    patch.RegisterCodec("cbor", cborCodec{})
//	}
//
// RegisterCodec panics if c is nil or the name is already taken.
func RegisterCodec(name string, c Codec) {
	codecsMu.Lock()
	defer codecsMu.Unlock()

	if c == nil {
		panic("patch: RegisterCodec codec is nil")
	}
	if _, dup := codecs[name]; dup {
		panic("patch: RegisterCodec called twice for " + name)
	}
	codecs[name] = c
}

// UnregisterCodec removes a codec. It is a no-op for unknown names.
func UnregisterCodec(name string) {
	codecsMu.Lock()
	defer codecsMu.Unlock()
	delete(codecs, name)
}

// LookupCodec returns the codec registered under name.
func LookupCodec(name string) (Codec, error) {
	codecsMu.RLock()
	c, ok := codecs[name]
	codecsMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q (forgotten import?)", ErrUnknownCodec, name)
	}
	return c, nil
}

// Codecs returns the registered codec names, sorted.
func Codecs() []string {
	codecsMu.RLock()
	defer codecsMu.RUnlock()

	names := make([]string, 0, len(codecs))
	for name := range codecs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type jsonCodec struct{}

func (jsonCodec) Encode(p Patch) ([]byte, error) {
	w, err := ToWire(p)
	if err != nil {
		return nil, err
	}
	return json.Marshal(w)
}

func (jsonCodec) Decode(data []byte) (Patch, error) {
	var w Wire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %w", node.ErrMalformed, err)
	}
	return FromWire(&w)
}

type yamlCodec struct{}

func (yamlCodec) Encode(p Patch) ([]byte, error) {
	w, err := ToWire(p)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(w)
}

func (yamlCodec) Decode(data []byte) (Patch, error) {
	var w Wire
	if err := yaml.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %w", node.ErrMalformed, err)
	}
	return FromWire(&w)
}
