// Package manifest extracts declared dependencies from the build manifests
// found at a repository root. Extraction is best effort: a missing or
// malformed manifest contributes an empty list, never an error.
package manifest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/mod/modfile"
)

// Dependencies lists dependency coordinates per ecosystem
type Dependencies struct {
	Maven  []string `json:"maven"`
	Gradle []string `json:"gradle"`
	Npm    []string `json:"npm"`
	Pip    []string `json:"pip"`
	Go     []string `json:"go"`
	Cargo  []string `json:"cargo"`
}

// Total returns the number of dependencies across all ecosystems
func (d Dependencies) Total() int {
	return len(d.Maven) + len(d.Gradle) + len(d.Npm) + len(d.Pip) + len(d.Go) + len(d.Cargo)
}

// Extract reads the manifests directly under root
func Extract(root string) Dependencies {
	read := func(name string) []byte {
		data, err := os.ReadFile(filepath.Join(root, name))
		if err != nil {
			return nil
		}
		return data
	}

	gradle := Gradle(read("build.gradle"))
	gradle = append(gradle, Gradle(read("build.gradle.kts"))...)

	return Dependencies{
		Maven:  Maven(read("pom.xml")),
		Gradle: gradle,
		Npm:    Npm(read("package.json")),
		Pip:    Pip(read("requirements.txt")),
		Go:     GoMod(read("go.mod")),
		Cargo:  Cargo(read("Cargo.toml")),
	}
}

type pomDependency struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
}

// Maven returns "group:artifact" for every <dependency> element at any depth
func Maven(data []byte) []string {
	deps := []string{}
	if len(data) == 0 {
		return deps
	}

	decoder := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := decoder.Token()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				return []string{}
			}
			return deps
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "dependency" {
			continue
		}

		var dep pomDependency
		if err := decoder.DecodeElement(&dep, &start); err != nil {
			return []string{}
		}
		group := strings.TrimSpace(dep.GroupID)
		artifact := strings.TrimSpace(dep.ArtifactID)
		if group != "" && artifact != "" {
			deps = append(deps, group+":"+artifact)
		}
	}
}

var gradlePattern = regexp.MustCompile(`(implementation|api|compileOnly|runtimeOnly)\s*\(?\s*["']([^"']+)["']`)

// Gradle returns the coordinates of string-notation dependency declarations
func Gradle(data []byte) []string {
	deps := []string{}
	for _, m := range gradlePattern.FindAllSubmatch(data, -1) {
		deps = append(deps, string(m[2]))
	}
	return deps
}

type packageJSON struct {
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

// Npm returns "name@range" for dependencies, then devDependencies, each
// sorted by name
func Npm(data []byte) []string {
	deps := []string{}
	if len(data) == 0 {
		return deps
	}

	var pkg packageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return deps
	}
	for _, section := range []map[string]string{pkg.Dependencies, pkg.DevDependencies} {
		names := make([]string, 0, len(section))
		for name := range section {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			deps = append(deps, name+"@"+section[name])
		}
	}
	return deps
}

// Pip returns the non-empty, non-comment lines of a requirements file
func Pip(data []byte) []string {
	deps := []string{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		deps = append(deps, line)
	}
	return deps
}

// GoMod returns "path@version" for every require directive
func GoMod(data []byte) []string {
	deps := []string{}
	if len(data) == 0 {
		return deps
	}

	file, err := modfile.ParseLax("go.mod", data, nil)
	if err != nil {
		return deps
	}
	for _, req := range file.Require {
		deps = append(deps, req.Mod.Path+"@"+req.Mod.Version)
	}
	return deps
}

// ModulePath returns the module path declared in a go.mod file
func ModulePath(data []byte) string {
	return modfile.ModulePath(data)
}

type cargoManifest struct {
	Dependencies    map[string]any `toml:"dependencies"`
	DevDependencies map[string]any `toml:"dev-dependencies"`
}

// Cargo returns "name@version" for dependencies, then dev-dependencies, each
// sorted by name. Table dependencies without a version are listed by name.
func Cargo(data []byte) []string {
	deps := []string{}
	if len(data) == 0 {
		return deps
	}

	var manifest cargoManifest
	if err := toml.Unmarshal(data, &manifest); err != nil {
		return deps
	}
	for _, section := range []map[string]any{manifest.Dependencies, manifest.DevDependencies} {
		names := make([]string, 0, len(section))
		for name := range section {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			deps = append(deps, cargoCoordinate(name, section[name]))
		}
	}
	return deps
}

func cargoCoordinate(name string, spec any) string {
	switch v := spec.(type) {
	case string:
		return name + "@" + v
	case map[string]any:
		if version, ok := v["version"].(string); ok {
			return name + "@" + version
		}
	}
	return name
}
