package collision

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"

	"go.viam.com/narrowphase/spatialmath"
	"go.viam.com/narrowphase/utils"
)

// SceneConfig describes a set of bodies in JSON.
type SceneConfig struct {
	Bodies []BodyConfig `json:"bodies"`
}

// OrientationConfig is an axis and an angle in degrees.
type OrientationConfig struct {
	ThetaDegrees float64 `json:"th"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Z            float64 `json:"z"`
}

// Rotation converts the orientation to a rotation matrix. A nil orientation is the identity.
func (o *OrientationConfig) Rotation() spatialmath.RotationMatrix {
	if o == nil {
		return spatialmath.NewIdentityRotation()
	}
	aa := spatialmath.R4AA{Theta: utils.DegToRad(o.ThetaDegrees), RX: o.X, RY: o.Y, RZ: o.Z}
	return aa.RotationMatrix()
}

// PoseConfig places something relative to its parent. A zero scale means 1.
type PoseConfig struct {
	Translation r3.Vector          `json:"translation"`
	Orientation *OrientationConfig `json:"orientation,omitempty"`
	Scale       float64            `json:"scale,omitempty"`
}

// Transform converts the pose config to a Transform.
func (p PoseConfig) Transform() spatialmath.Transform {
	tf := spatialmath.NewTransform(p.Translation, p.Orientation.Rotation())
	if p.Scale != 0 {
		tf.Scale = p.Scale
	}
	return tf
}

// BodyConfig is one body of a scene.
type BodyConfig struct {
	Name       string         `json:"name"`
	Entity     uint32         `json:"entity,omitempty"`
	CustomTags uint8          `json:"custom_tags,omitempty"`
	Pose       PoseConfig     `json:"pose"`
	Collider   ColliderConfig `json:"collider"`
}

// MaterialConfig is the JSON form of a Material. Unset friction defaults to 0.5.
type MaterialConfig struct {
	Response              string   `json:"response,omitempty"`
	Friction              *float64 `json:"friction,omitempty"`
	Restitution           float64  `json:"restitution,omitempty"`
	FrictionCombine       string   `json:"friction_combine,omitempty"`
	RestitutionCombine    string   `json:"restitution_combine,omitempty"`
	EnableMassFactors     bool     `json:"enable_mass_factors,omitempty"`
	EnableSurfaceVelocity bool     `json:"enable_surface_velocity,omitempty"`
	CustomTags            uint8    `json:"custom_tags,omitempty"`
}

// Material converts the config to a Material.
func (mc *MaterialConfig) Material() (Material, error) {
	m := DefaultMaterial
	if mc == nil {
		return m, nil
	}
	var err, e error
	m.CollisionResponse, e = ParseCollisionResponse(mc.Response)
	err = multierr.Append(err, e)
	m.FrictionCombine, e = ParseCombinePolicy(mc.FrictionCombine)
	err = multierr.Append(err, e)
	m.RestitutionCombine, e = ParseCombinePolicy(mc.RestitutionCombine)
	err = multierr.Append(err, e)
	if mc.Friction != nil {
		if *mc.Friction < 0 {
			err = multierr.Append(err, errors.Errorf("friction %v must not be negative", *mc.Friction))
		}
		m.Friction = *mc.Friction
	}
	if mc.Restitution < 0 || mc.Restitution > 1 {
		err = multierr.Append(err, errors.Errorf("restitution %v must be in [0, 1]", mc.Restitution))
	}
	m.Restitution = mc.Restitution
	if mc.EnableMassFactors {
		m.Flags |= FlagEnableMassFactors
	}
	if mc.EnableSurfaceVelocity {
		m.Flags |= FlagEnableSurfaceVelocity
	}
	m.CustomTags = mc.CustomTags
	return m, err
}

// ColliderConfig describes a collider. Attributes are decoded according to Type; compounds
// list their children instead.
type ColliderConfig struct {
	Type       string                 `json:"type"`
	Filter     *Filter                `json:"filter,omitempty"`
	Material   *MaterialConfig        `json:"material,omitempty"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`
	Children   []ChildConfig          `json:"children,omitempty"`
}

// ChildConfig is one child of a compound.
type ChildConfig struct {
	Pose     PoseConfig     `json:"pose"`
	Collider ColliderConfig `json:"collider"`
}

type sphereAttributes struct {
	Center r3.Vector `json:"center"`
	Radius float64   `json:"radius"`
}

type capsuleAttributes struct {
	Vertex0 r3.Vector `json:"vertex0"`
	Vertex1 r3.Vector `json:"vertex1"`
	Radius  float64   `json:"radius"`
}

type polygonAttributes struct {
	Vertices []r3.Vector `json:"vertices"`
}

type boxAttributes struct {
	Center      r3.Vector          `json:"center"`
	HalfExtents r3.Vector          `json:"half_extents"`
	Orientation *OrientationConfig `json:"orientation"`
	BevelRadius float64            `json:"bevel_radius"`
}

type convexAttributes struct {
	Vertices []r3.Vector `json:"vertices"`
	Faces    [][]int     `json:"faces"`
	Radius   float64     `json:"radius"`
}

type meshAttributes struct {
	Vertices  []r3.Vector `json:"vertices"`
	Triangles [][3]int    `json:"triangles"`
}

type terrainAttributes struct {
	Heights []float64 `json:"heights"`
	SizeX   int       `json:"size_x"`
	SizeY   int       `json:"size_y"`
	Scale   r3.Vector `json:"scale"`
}

// decodeAttributes decodes attributes into out and rejects keys out does not know.
func decodeAttributes(attributes map[string]interface{}, out interface{}) error {
	var md mapstructure.Metadata
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:  "json",
		Result:   out,
		Metadata: &md,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(attributes); err != nil {
		return err
	}
	if len(md.Unused) > 0 {
		return errors.Errorf("unknown attributes %s", strings.Join(md.Unused, ", "))
	}
	return nil
}

// Build constructs the collider.
func (cc ColliderConfig) Build() (Collider, error) {
	filter := DefaultFilter
	if cc.Filter != nil {
		filter = *cc.Filter
	}
	material, err := cc.Material.Material()
	if err != nil {
		return nil, errors.Wrap(err, "material")
	}

	switch cc.Type {
	case "sphere":
		var attrs sphereAttributes
		if err := decodeAttributes(cc.Attributes, &attrs); err != nil {
			return nil, err
		}
		return NewSphereCollider(attrs.Center, attrs.Radius, filter, material)
	case "capsule":
		var attrs capsuleAttributes
		if err := decodeAttributes(cc.Attributes, &attrs); err != nil {
			return nil, err
		}
		return NewCapsuleCollider(attrs.Vertex0, attrs.Vertex1, attrs.Radius, filter, material)
	case "triangle", "quad":
		var attrs polygonAttributes
		if err := decodeAttributes(cc.Attributes, &attrs); err != nil {
			return nil, err
		}
		switch {
		case cc.Type == "triangle" && len(attrs.Vertices) == 3:
			return NewTriangleCollider(attrs.Vertices[0], attrs.Vertices[1], attrs.Vertices[2], filter, material)
		case cc.Type == "quad" && len(attrs.Vertices) == 4:
			return NewQuadCollider(attrs.Vertices[0], attrs.Vertices[1], attrs.Vertices[2], attrs.Vertices[3], filter, material)
		}
		return nil, errors.Errorf("%s needs %d vertices, got %d", cc.Type, lo.Ternary(cc.Type == "triangle", 3, 4), len(attrs.Vertices))
	case "box":
		var attrs boxAttributes
		if err := decodeAttributes(cc.Attributes, &attrs); err != nil {
			return nil, err
		}
		return NewBoxCollider(attrs.Center, attrs.Orientation.Rotation(), attrs.HalfExtents, attrs.BevelRadius, filter, material)
	case "convex":
		var attrs convexAttributes
		if err := decodeAttributes(cc.Attributes, &attrs); err != nil {
			return nil, err
		}
		hull, err := NewConvexHull(attrs.Vertices, attrs.Faces, attrs.Radius)
		if err != nil {
			return nil, err
		}
		return NewConvexCollider(hull, filter, material)
	case "mesh":
		var attrs meshAttributes
		if err := decodeAttributes(cc.Attributes, &attrs); err != nil {
			return nil, err
		}
		return NewTriangleMeshCollider(attrs.Vertices, attrs.Triangles, filter, material)
	case "terrain":
		var attrs terrainAttributes
		if err := decodeAttributes(cc.Attributes, &attrs); err != nil {
			return nil, err
		}
		if attrs.Scale == (r3.Vector{}) {
			attrs.Scale = r3.Vector{X: 1, Y: 1, Z: 1}
		}
		return NewTerrainCollider(attrs.Heights, attrs.SizeX, attrs.SizeY, attrs.Scale, filter, material)
	case "compound":
		children := make([]CompoundChild, 0, len(cc.Children))
		var err error
		for i, child := range cc.Children {
			c, e := child.Collider.Build()
			if e != nil {
				err = multierr.Append(err, errors.Wrapf(e, "child %d", i))
				continue
			}
			children = append(children, CompoundChild{Transform: child.Pose.Transform(), Collider: c})
		}
		if err != nil {
			return nil, err
		}
		return NewCompoundCollider(children)
	}
	return nil, errors.Errorf("unknown collider type %q", cc.Type)
}

// Validate checks every body and returns all problems at once.
func (sc *SceneConfig) Validate() error {
	_, err := sc.build()
	return err
}

// Build constructs a World with bodies in config order.
func (sc *SceneConfig) Build() (*World, error) {
	bodies, err := sc.build()
	if err != nil {
		return nil, err
	}
	return NewWorld(bodies), nil
}

func (sc *SceneConfig) build() ([]Body, error) {
	if len(sc.Bodies) == 0 {
		return nil, errors.New("scene has no bodies")
	}
	var err error
	names := lo.FilterMap(sc.Bodies, func(b BodyConfig, _ int) (string, bool) { return b.Name, b.Name != "" })
	for _, dup := range lo.FindDuplicates(names) {
		err = multierr.Append(err, errors.Errorf("duplicate body name %q", dup))
	}
	bodies := make([]Body, 0, len(sc.Bodies))
	for i, bc := range sc.Bodies {
		if bc.Pose.Scale < 0 {
			err = multierr.Append(err, errors.Errorf("body %d (%s) has negative scale %v", i, bc.Name, bc.Pose.Scale))
			continue
		}
		c, e := bc.Collider.Build()
		if e != nil {
			err = multierr.Append(err, errors.Wrapf(e, "body %d (%s)", i, bc.Name))
			continue
		}
		bodies = append(bodies, Body{
			Collider:   c,
			Transform:  bc.Pose.Transform(),
			Entity:     Entity(bc.Entity),
			Index:      i,
			CustomTags: bc.CustomTags,
		})
	}
	if err != nil {
		return nil, err
	}
	return bodies, nil
}

// BodyIndex returns the index of the named body.
func (sc *SceneConfig) BodyIndex(name string) (int, bool) {
	_, idx, ok := lo.FindIndexOf(sc.Bodies, func(b BodyConfig) bool { return b.Name == name })
	return idx, ok
}

// ParseSceneConfig decodes a JSON scene.
func ParseSceneConfig(data []byte) (*SceneConfig, error) {
	var sc SceneConfig
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, errors.Wrap(err, "cannot parse scene")
	}
	return &sc, nil
}

// LoadSceneConfig reads and decodes a JSON scene file.
func LoadSceneConfig(path string) (*SceneConfig, error) {
	//nolint:gosec
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read scene %q", path)
	}
	return ParseSceneConfig(data)
}
