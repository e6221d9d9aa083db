//go:build mage

package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

var shaderSources = []string{"mesh.vert", "mesh.frag"}

// Compiles the GLSL sources in shaders/ into SPIR-V under assets/shaders/.
func (Build) Shaders() error {
	return buildShaders()
}

// Builds the vtabletop binary.
func (Build) Binary() error {
	mg.Deps(Build.Shaders)
	_, err := executeCmd("go", withArgs("build", "-o", "bin/vtabletop", "."), withStream())
	return err
}

func buildShaders() error {
	out := filepath.Join("assets", "shaders")
	if err := os.MkdirAll(out, 0o755); err != nil {
		return err
	}
	for _, src := range shaderSources {
		if _, err := executeCmd("glslc", withArgs(filepath.Join("shaders", src), "-o", filepath.Join(out, src+".spv")), withStream()); err != nil {
			return err
		}
	}
	return nil
}
