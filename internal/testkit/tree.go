package testkit

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteTree materialises files (slash-separated relative path -> content)
// under a fresh temp dir and returns the dir.
func WriteTree(t testing.TB, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			t.Fatalf("mkdir %s: %v", rel, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
	return root
}

// MessageExample is the three-module program the bundler is usually shown with.
var MessageExample = map[string]string{
	"entry.js":   "import message from './message.js';\n\nconsole.log(message);\n",
	"message.js": "import {name} from './name.js';\n\nexport default `hello ${name}!`;\n",
	"name.js":    "export const name = 'world';\n",
}

// Diamond has two paths from the entry to shared.js; shared.js logs on evaluation.
var Diamond = map[string]string{
	"main.js":   "import './left.js';\nimport './right.js';\n",
	"left.js":   "import './shared.js';\n",
	"right.js":  "import './shared.js';\n",
	"shared.js": "console.log('shared evaluated');\n",
}

// Cycle is a two-module import cycle; only hoisted functions cross it.
var Cycle = map[string]string{
	"a.js": "import { b } from './b.js';\nexport function a() { return 'a'; }\nconsole.log(b());\n",
	"b.js": "import { a } from './a.js';\nexport function b() { return 'b+' + a(); }\n",
}
