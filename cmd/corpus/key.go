package main

import (
	"fmt"
	"path/filepath"

	"github.com/fwojciec/corpus/fs"
)

// Run executes the key command.
func (c *KeyCmd) Run(deps *Dependencies) error {
	fmt.Fprintln(deps.Stdout, filepath.Join(c.CacheDir, fs.CacheKey(c.URL)))
	return nil
}
