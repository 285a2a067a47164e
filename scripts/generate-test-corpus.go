//go:build ignore

// Package main generates a synthetic Unity-style documentation tree for
// benchmarking the indexer and search backends.
// Usage: go run scripts/generate-test-corpus.go -pages 1000 -output testdata/bench
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
)

var (
	numPages  = flag.Int("pages", 1000, "Number of pages to generate")
	outputDir = flag.String("output", "testdata/bench", "Output directory")
	seed      = flag.Int64("seed", 42, "Random seed for reproducibility")
)

var manualTemplate = `<html>
<head><title>%s</title></head>
<body>
<h1>%s</h1>
<p>%s lets you %s in your scene. It works together with the %s
component and is configured from the Inspector or from a script.</p>
<h2>Properties</h2>
<p>The main properties control how you %s. Changing them at runtime
takes effect on the next physics step.</p>
<h2>Details</h2>
<p>%s. For scripted access, see the %s.%s API reference.</p>
</body>
</html>
`

var apiTemplate = `<html>
<head><title>%s.%s</title></head>
<body>
<h1>%s.%s</h1>
<p>Declaration: public void %s(Vector3 value);</p>
<h2>Parameters</h2>
<p>value: The world-space vector to apply.</p>
<h2>Description</h2>
<p>%s the %s. %s.</p>
<h2>Example</h2>
<pre>void Update() { GetComponent&lt;%s&gt;().%s(transform.forward); }</pre>
</body>
</html>
`

var classes = []string{
	"Rigidbody", "Transform", "Collider", "Animator", "Camera",
	"AudioSource", "Light", "ParticleSystem", "NavMeshAgent", "CharacterController",
	"MeshRenderer", "LineRenderer", "Joint", "Terrain", "Canvas",
}

var methods = []string{
	"AddForce", "Translate", "Rotate", "Play", "Stop",
	"SetActive", "Raycast", "MovePosition", "LookAt", "Emit",
}

var verbs = []string{
	"apply forces to objects", "move objects smoothly", "detect collisions",
	"blend animation states", "render the scene", "play positional audio",
	"illuminate geometry", "spawn particle effects", "navigate the world",
}

var facts = []string{
	"Values are expressed in world units unless noted otherwise",
	"The component is disabled automatically when its GameObject sleeps",
	"Results are undefined while the physics simulation is stepping",
	"Interpolation smooths the visible motion between fixed updates",
	"The operation is cheap enough to call every frame",
}

func main() {
	flag.Parse()
	rng := rand.New(rand.NewSource(*seed))

	if err := generate(rng); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generated %d pages under %s\n", *numPages, *outputDir)
}

func generate(rng *rand.Rand) error {
	for _, dir := range []string{"Manual", "ScriptReference"} {
		if err := os.MkdirAll(filepath.Join(*outputDir, dir), 0o755); err != nil {
			return err
		}
	}

	for i := 0; i < *numPages; i++ {
		class := classes[rng.Intn(len(classes))]
		method := methods[rng.Intn(len(methods))]

		var path, content string
		if i%3 == 0 {
			path = filepath.Join(*outputDir, "ScriptReference",
				fmt.Sprintf("%s.%s-%d.html", class, method, i))
			content = apiPage(rng, class, method)
		} else {
			title := fmt.Sprintf("%s overview %d", class, i)
			path = filepath.Join(*outputDir, "Manual",
				fmt.Sprintf("%sOverview-%d.html", class, i))
			content = manualPage(rng, title, class)
		}

		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func manualPage(rng *rand.Rand, title, class string) string {
	other := classes[rng.Intn(len(classes))]
	return fmt.Sprintf(manualTemplate,
		title, title, class, verbs[rng.Intn(len(verbs))], other,
		verbs[rng.Intn(len(verbs))],
		facts[rng.Intn(len(facts))], class, methods[rng.Intn(len(methods))])
}

func apiPage(rng *rand.Rand, class, method string) string {
	return fmt.Sprintf(apiTemplate,
		class, method, class, method, method,
		method, class, facts[rng.Intn(len(facts))],
		class, method)
}
