package fuzztests

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

const (
	maxSeedBytes = 64 << 10 // 64 KiB, ограничение для тестового корпуса
	maxFuzzInput = 16 << 10
)

var jsonSeeds = []string{
	``,
	`{}`,
	`[]`,
	`null`,
	`{"a":1,"b":[true,false,null],"c":{"d":"e"}}`,
	`[1, 2, 3, ]`,
	"// header\n{\n  \"a\": 1, // one\n\n  /* lead */ \"b\": [\n    // dangling\n  ]\n}\n",
	"[1 // one\n, 2]",
	"{\"a\":\n// why\n1}",
	`[-0.5e+10, 1E3, "\u00e9\n"]`,
	"[[[[[[[[[[1]]]]]]]]]]",
	"\ufeff{\"bom\": true}",
	"{\r\n  \"crlf\": 1\r\n}\r\n",
	"[1 2",
	`{"a" 1}`,
	"[] /* open",
}

func addCorpusSeeds(f *testing.F) {
	for _, s := range jsonSeeds {
		f.Add([]byte(s))
	}
	addTestdataSeeds(f)
}

// addTestdataSeeds adds every *.json file under testdata/, if present.
func addTestdataSeeds(f *testing.F) {
	root := "testdata"
	if _, err := os.Stat(root); err != nil {
		return
	}
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		data, err := os.ReadFile(path) // #nosec G304 -- walking our own testdata
		if err != nil || len(data) > maxSeedBytes {
			return nil
		}
		f.Add(data)
		return nil
	})
}

func clip(input []byte) []byte {
	if len(input) > maxFuzzInput {
		input = input[:maxFuzzInput]
	}
	return append([]byte(nil), input...)
}
