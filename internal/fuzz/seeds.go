package fuzztests

import (
	"path/filepath"
	"testing"

	"golang.org/x/tools/txtar"
)

const (
	maxSeedBytes = 64 << 10
	maxFuzzInput = 1 << 16
)

func addCorpusSeeds(f *testing.F) {
	addFixtureSeeds(f)
	f.Add([]byte{})
	f.Add([]byte("fn main() {}\n"))
	f.Add([]byte("fn main() {\n    let n = 1;\n    let f = move || n;\n    f();\n}\n"))
	f.Add([]byte("fn make() -> impl Fn() -> int {\n    let n = 1;\n    || n\n}\n"))
}

// addFixtureSeeds adds every input.cap section of the driver golden archives.
func addFixtureSeeds(f *testing.F) {
	archives, err := filepath.Glob(filepath.Join("..", "driver", "testdata", "elaborate", "*.txtar"))
	if err != nil {
		return
	}
	for _, path := range archives {
		ar, err := txtar.ParseFile(path)
		if err != nil {
			continue
		}
		for _, file := range ar.Files {
			if filepath.Ext(file.Name) == ".cap" {
				f.Add(clampSeed(file.Data))
			}
		}
	}
}

func clampSeed(src []byte) []byte {
	if len(src) <= maxSeedBytes {
		return append([]byte(nil), src...)
	}
	return append([]byte(nil), src[:maxSeedBytes]...)
}

func clampInput(input []byte) []byte {
	if len(input) > maxFuzzInput {
		input = input[:maxFuzzInput]
	}
	return append([]byte(nil), input...)
}
