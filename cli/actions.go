package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"go.viam.com/narrowphase/collision"
	"go.viam.com/narrowphase/spatialmath"
)

func printf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(w, format+"\n", a...)
}

func newLogger(c *cli.Context) golog.Logger {
	if c.Bool(debugFlag) {
		return golog.NewDebugLogger("narrowphase")
	}
	return zap.NewNop().Sugar()
}

type scene struct {
	config *collision.SceneConfig
	world  *collision.World
}

func loadScene(c *cli.Context, logger golog.Logger) (*scene, error) {
	path := c.String(sceneFlag)
	cfg, err := collision.LoadSceneConfig(path)
	if err != nil {
		return nil, err
	}
	world, err := cfg.Build()
	if err != nil {
		return nil, errors.Wrap(err, "invalid scene")
	}
	logger.Debugw("loaded scene", "path", path, "bodies", len(world.Bodies()))
	return &scene{config: cfg, world: world}, nil
}

func (s *scene) bodyName(index int) string {
	if index >= 0 && index < len(s.config.Bodies) && s.config.Bodies[index].Name != "" {
		return s.config.Bodies[index].Name
	}
	return fmt.Sprintf("#%d", index)
}

func (s *scene) body(name string) (collision.Body, error) {
	idx, ok := s.config.BodyIndex(name)
	if !ok {
		return collision.Body{}, errors.Errorf("no body named %q", name)
	}
	b, _ := s.world.Body(idx)
	return b, nil
}

// others returns every body except the one at index.
func (s *scene) others(index int) []collision.Body {
	return lo.Filter(s.world.Bodies(), func(b collision.Body, _ int) bool { return b.Index != index })
}

func vectorFlag(c *cli.Context, name string) (r3.Vector, error) {
	v := c.Float64Slice(name)
	if len(v) != 3 {
		return r3.Vector{}, errors.Errorf("--%s needs 3 values, got %d", name, len(v))
	}
	return r3.Vector{X: v[0], Y: v[1], Z: v[2]}, nil
}

func formatVector(v r3.Vector) string {
	return fmt.Sprintf("X:%.3f, Y:%.3f, Z:%.3f", v.X, v.Y, v.Z)
}

func newTable(w io.Writer, header ...interface{}) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row(header))
	return t
}

// ValidateAction is the corresponding Action for 'validate'.
func ValidateAction(c *cli.Context) error {
	s, err := loadScene(c, newLogger(c))
	if err != nil {
		return err
	}
	t := newTable(c.App.Writer, "#", "Name", "Type", "Translation", "Scale", "Key bits")
	for _, b := range s.world.Bodies() {
		t.AppendRow(table.Row{
			b.Index,
			s.bodyName(b.Index),
			b.Collider.Type(),
			formatVector(b.Transform.Translation),
			b.Transform.Scale,
			b.Collider.NumColliderKeyBits(),
		})
	}
	t.Render()
	return nil
}

// RaycastAction is the corresponding Action for 'raycast'.
func RaycastAction(c *cli.Context) error {
	s, err := loadScene(c, newLogger(c))
	if err != nil {
		return err
	}
	from, err := vectorFlag(c, fromFlag)
	if err != nil {
		return err
	}
	to, err := vectorFlag(c, toFlag)
	if err != nil {
		return err
	}
	input := collision.RaycastInput{Start: from, End: to, Filter: collision.DefaultFilter}

	var hits []collision.RaycastHit
	if c.Bool(allFlag) {
		collector := collision.NewAllHitsCollector[collision.RaycastHit](1)
		s.world.CastRay(input, collector)
		hits = collector.Hits()
		sort.Slice(hits, func(i, j int) bool { return hits[i].Fraction < hits[j].Fraction })
	} else {
		collector := collision.NewClosestHitCollector[collision.RaycastHit](1)
		if s.world.CastRay(input, collector) {
			hit, _ := collector.Hit()
			hits = append(hits, hit)
		}
	}
	if len(hits) == 0 {
		printf(c.App.Writer, "no hit")
		return nil
	}
	t := newTable(c.App.Writer, "Body", "Fraction", "Position", "Normal", "Key")
	for _, h := range hits {
		t.AppendRow(table.Row{
			s.bodyName(h.RigidBodyIndex),
			fmt.Sprintf("%.4f", h.Fraction),
			formatVector(h.Position),
			formatVector(h.SurfaceNormal),
			h.ColliderKey,
		})
	}
	t.Render()
	return nil
}

// DistanceAction is the corresponding Action for 'distance'.
func DistanceAction(c *cli.Context) error {
	s, err := loadScene(c, newLogger(c))
	if err != nil {
		return err
	}
	maxDistance := c.Float64(maxDistanceFlag)

	var query func(target collision.Body, collector collision.Collector[collision.DistanceHit])
	targets := s.world.Bodies()
	switch {
	case c.IsSet(bodyFlag):
		body, err := s.body(c.String(bodyFlag))
		if err != nil {
			return err
		}
		targets = s.others(body.Index)
		input := collision.ColliderDistanceInput{Collider: body.Collider, Transform: body.Transform}
		query = func(target collision.Body, collector collision.Collector[collision.DistanceHit]) {
			collision.CalculateDistance(input, target.Collider, target.QueryContext(), collector)
		}
	case c.IsSet(pointFlag):
		point, err := vectorFlag(c, pointFlag)
		if err != nil {
			return err
		}
		input := collision.PointDistanceInput{Position: point, Filter: collision.DefaultFilter}
		query = func(target collision.Body, collector collision.Collector[collision.DistanceHit]) {
			collision.PointDistance(input, target.Collider, target.QueryContext(), collector)
		}
	default:
		return errors.Errorf("one of --%s or --%s is required", bodyFlag, pointFlag)
	}

	var hits []collision.DistanceHit
	for _, target := range targets {
		collector := collision.NewClosestHitCollector[collision.DistanceHit](maxDistance)
		query(target, collector)
		if hit, ok := collector.Hit(); ok {
			hits = append(hits, hit)
		}
	}
	if len(hits) == 0 {
		printf(c.App.Writer, "nothing within %v", maxDistance)
		return nil
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	t := newTable(c.App.Writer, "Body", "Distance", "Position", "Normal", "Key", "Query key")
	for _, h := range hits {
		t.AppendRow(table.Row{
			s.bodyName(h.RigidBodyIndex),
			fmt.Sprintf("%.4f", h.Distance),
			formatVector(h.Position),
			formatVector(h.SurfaceNormal),
			h.ColliderKey,
			h.QueryColliderKey,
		})
	}
	t.Render()
	return nil
}

// CastAction is the corresponding Action for 'cast'.
func CastAction(c *cli.Context) error {
	s, err := loadScene(c, newLogger(c))
	if err != nil {
		return err
	}
	body, err := s.body(c.String(bodyFlag))
	if err != nil {
		return err
	}
	to, err := vectorFlag(c, toFlag)
	if err != nil {
		return err
	}
	input := collision.ColliderCastInput{Collider: body.Collider, Start: body.Transform, End: to}

	var hits []collision.ColliderCastHit
	for _, target := range s.others(body.Index) {
		collector := collision.NewClosestHitCollector[collision.ColliderCastHit](1)
		if collision.CastCollider(input, target.Collider, target.QueryContext(), collector) {
			hit, _ := collector.Hit()
			hits = append(hits, hit)
		}
	}
	if len(hits) == 0 {
		printf(c.App.Writer, "no hit")
		return nil
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Fraction < hits[j].Fraction })
	t := newTable(c.App.Writer, "Body", "Fraction", "Position", "Normal", "Key")
	for _, h := range hits {
		t.AppendRow(table.Row{
			s.bodyName(h.RigidBodyIndex),
			fmt.Sprintf("%.4f", h.Fraction),
			formatVector(h.Position),
			formatVector(h.SurfaceNormal),
			h.ColliderKey,
		})
	}
	t.Render()
	return nil
}

// ContactsAction is the corresponding Action for 'contacts'.
func ContactsAction(c *cli.Context) error {
	logger := newLogger(c)
	s, err := loadScene(c, logger)
	if err != nil {
		return err
	}
	maxDistance := c.Float64(maxDistanceFlag)
	pairs := s.world.AllPairs(maxDistance)
	stream, err := collision.NewBatch(logger, c.Int(workersFlag)).GenerateContacts(c.Context, s.world, pairs, maxDistance)
	if err != nil {
		return err
	}
	if stream.NumManifolds() == 0 {
		printf(c.App.Writer, "no contacts")
		return nil
	}
	t := newTable(c.App.Writer, "Body A", "Body B", "Contacts", "Normal", "Deepest", "Friction", "Restitution")
	var distances stats.Float64Data
	stream.ForEach(func(h collision.ContactHeader, contacts []collision.ContactPoint) bool {
		deepest := lo.MinBy(contacts, func(a, b collision.ContactPoint) bool { return a.Distance < b.Distance })
		distances = append(distances, lo.Map(contacts, func(c collision.ContactPoint, _ int) float64 { return c.Distance })...)
		t.AppendRow(table.Row{
			s.bodyName(h.BodyPair.BodyIndexA),
			s.bodyName(h.BodyPair.BodyIndexB),
			h.NumContacts,
			formatVector(h.Normal),
			fmt.Sprintf("%.4f", deepest.Distance),
			fmt.Sprintf("%.3f", h.Friction),
			fmt.Sprintf("%.3f", h.Restitution),
		})
		return true
	})
	t.Render()

	mean, err := stats.Mean(distances)
	if err != nil {
		return err
	}
	median, err := stats.Median(distances)
	if err != nil {
		return err
	}
	printf(c.App.Writer, "%d manifolds, %d contacts, mean distance %.4f, median %.4f",
		stream.NumManifolds(), len(distances), mean, median)
	return nil
}

// OverlapAction is the corresponding Action for 'overlap'.
func OverlapAction(c *cli.Context) error {
	s, err := loadScene(c, newLogger(c))
	if err != nil {
		return err
	}
	lower, err := vectorFlag(c, minFlag)
	if err != nil {
		return err
	}
	upper, err := vectorFlag(c, maxFlag)
	if err != nil {
		return err
	}
	box := spatialmath.AABB{Min: lower, Max: upper}
	if box.IsEmpty() {
		return errors.Errorf("--%s must not exceed --%s", minFlag, maxFlag)
	}
	collector := collision.NewAllHitsCollector[collision.OverlapHit](0)
	if !s.world.OverlapAABB(collision.OverlapAABBInput{AABB: box, Filter: collision.DefaultFilter}, collector) {
		printf(c.App.Writer, "no overlap")
		return nil
	}
	t := newTable(c.App.Writer, "Body", "Key")
	for _, h := range collector.Hits() {
		t.AppendRow(table.Row{s.bodyName(h.RigidBodyIndex), h.ColliderKey})
	}
	t.Render()
	return nil
}
