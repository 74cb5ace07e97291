package main

import (
	"os"

	mmap "github.com/edsrzf/mmap-go"
	"github.com/pkg/errors"
)

// loadedModule memory-maps a WebAssembly binary and keeps the mapping
// alive for as long as the parsed module is in use: wasm.ParseModule
// retains slices into the input buffer (names, data segment payloads,
// code bodies) rather than copying them.
type loadedModule struct {
	file *os.File
	data mmap.MMap
}

func loadModuleFile(path string) (*loadedModule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}

	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "mmap %s", path)
	}

	return &loadedModule{file: f, data: data}, nil
}

func (m *loadedModule) Bytes() []byte { return m.data }

func (m *loadedModule) Close() error {
	unmapErr := m.data.Unmap()
	closeErr := m.file.Close()
	if unmapErr != nil {
		return errors.Wrap(unmapErr, "munmap")
	}
	return closeErr
}
