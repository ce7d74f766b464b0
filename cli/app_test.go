package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"
)

const cliScene = `{
  "bodies": [
    {
      "name": "floor",
      "collider": {"type": "box", "attributes": {"half_extents": {"x": 5, "y": 5, "z": 0.5}}}
    },
    {
      "name": "ball",
      "pose": {"translation": {"x": 0, "y": 0, "z": 1.05}},
      "collider": {"type": "sphere", "attributes": {"radius": 0.5}}
    }
  ]
}`

func writeScene(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scene.json")
	test.That(t, os.WriteFile(path, []byte(contents), 0o600), test.ShouldBeNil)
	return path
}

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	app := NewApp(&out, &errOut)
	err := app.Run(append([]string{"narrowphase"}, args...))
	return out.String(), err
}

func TestCommands(t *testing.T) {
	scene := writeScene(t, cliScene)

	t.Run("validate", func(t *testing.T) {
		out, err := runApp(t, "--scene", scene, "validate")
		test.That(t, err, test.ShouldBeNil)
		test.That(t, out, test.ShouldContainSubstring, "floor")
		test.That(t, out, test.ShouldContainSubstring, "ball")
		test.That(t, out, test.ShouldContainSubstring, "sphere")
	})

	t.Run("raycast", func(t *testing.T) {
		out, err := runApp(t, "--scene", scene, "raycast", "--from", "0,0,10", "--to", "0,0,-10")
		test.That(t, err, test.ShouldBeNil)
		test.That(t, out, test.ShouldContainSubstring, "ball")
		test.That(t, out, test.ShouldNotContainSubstring, "floor")

		out, err = runApp(t, "--scene", scene, "raycast", "--from", "0,0,10", "--to", "0,0,-10", "--all")
		test.That(t, err, test.ShouldBeNil)
		test.That(t, out, test.ShouldContainSubstring, "ball")
		test.That(t, out, test.ShouldContainSubstring, "floor")

		out, err = runApp(t, "--scene", scene, "raycast", "--from", "20,0,10", "--to", "20,0,-10")
		test.That(t, err, test.ShouldBeNil)
		test.That(t, out, test.ShouldContainSubstring, "no hit")

		_, err = runApp(t, "--scene", scene, "raycast", "--from", "0,10", "--to", "0,0,-10")
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "needs 3 values")
	})

	t.Run("distance", func(t *testing.T) {
		out, err := runApp(t, "--scene", scene, "distance", "--point", "0,0,3")
		test.That(t, err, test.ShouldBeNil)
		test.That(t, out, test.ShouldContainSubstring, "ball")

		out, err = runApp(t, "--scene", scene, "distance", "--body", "ball", "--max-distance", "1")
		test.That(t, err, test.ShouldBeNil)
		test.That(t, out, test.ShouldContainSubstring, "floor")

		out, err = runApp(t, "--scene", scene, "distance", "--point", "50,50,50", "--max-distance", "1")
		test.That(t, err, test.ShouldBeNil)
		test.That(t, out, test.ShouldContainSubstring, "nothing within")

		_, err = runApp(t, "--scene", scene, "distance")
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "one of --body or --point")

		_, err = runApp(t, "--scene", scene, "distance", "--body", "crate")
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, `no body named "crate"`)
	})

	t.Run("cast", func(t *testing.T) {
		out, err := runApp(t, "--scene", scene, "cast", "--body", "ball", "--to", "0,0,-5")
		test.That(t, err, test.ShouldBeNil)
		test.That(t, out, test.ShouldContainSubstring, "floor")

		out, err = runApp(t, "--scene", scene, "cast", "--body", "ball", "--to", "0,0,5")
		test.That(t, err, test.ShouldBeNil)
		test.That(t, out, test.ShouldContainSubstring, "no hit")
	})

	t.Run("contacts", func(t *testing.T) {
		out, err := runApp(t, "--scene", scene, "contacts", "--max-distance", "0.1", "--workers", "2")
		test.That(t, err, test.ShouldBeNil)
		test.That(t, out, test.ShouldContainSubstring, "floor")
		test.That(t, out, test.ShouldContainSubstring, "ball")
		test.That(t, out, test.ShouldContainSubstring, "1 manifolds, 1 contacts, mean distance 0.0500")

		out, err = runApp(t, "--scene", scene, "contacts", "--max-distance", "0.01")
		test.That(t, err, test.ShouldBeNil)
		test.That(t, out, test.ShouldContainSubstring, "no contacts")
	})

	t.Run("overlap", func(t *testing.T) {
		out, err := runApp(t, "--scene", scene, "overlap", "--min", "-1,-1,-1", "--max", "1,1,0.2")
		test.That(t, err, test.ShouldBeNil)
		test.That(t, out, test.ShouldContainSubstring, "floor")
		test.That(t, out, test.ShouldNotContainSubstring, "ball")

		_, err = runApp(t, "--scene", scene, "overlap", "--min", "1,1,1", "--max", "0,0,0")
		test.That(t, err, test.ShouldNotBeNil)
	})
}

func TestSceneErrors(t *testing.T) {
	_, err := runApp(t, "--scene", filepath.Join(t.TempDir(), "missing.json"), "validate")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "cannot read scene")

	bad := writeScene(t, `{"bodies": [{"name": "x", "collider": {"type": "blob"}}]}`)
	_, err = runApp(t, "--scene", bad, "validate")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "invalid scene")
}
