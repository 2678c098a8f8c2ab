//go:build mage

package main

import (
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Pipeline groups targets that run the analysis stages with the built binary.
type Pipeline mg.Namespace

func binary() string {
	return filepath.Join(binDir, binName)
}

// Scan builds the presence matrix snapshot from genomes/.
func (Pipeline) Scan() error {
	mg.Deps(Build, Init)
	return sh.RunV(binary(), "scan")
}

// Label joins resistance labels onto the snapshot and writes labeled.csv.
func (Pipeline) Label() error {
	mg.Deps(Build)
	return sh.RunV(binary(), "label", "--out", "labeled.csv")
}

// Run executes scan and label and stores the result in the dataset store.
func (Pipeline) Run() error {
	mg.Deps(Build, Init)
	return sh.RunV(binary(), "run", "--out", "labeled.csv", "--store")
}
